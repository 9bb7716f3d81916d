// Package web serves the browser front end of the decrypt tool.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/backupdecrypt/internal/artifact"
	"github.com/dmitrijs2005/backupdecrypt/internal/decrypt"
	"github.com/dmitrijs2005/backupdecrypt/internal/logging"
	"github.com/dmitrijs2005/backupdecrypt/internal/metrics"
)

//go:embed templates/index.html
var templateFS embed.FS

var page = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Decrypter runs one decrypt attempt.
type Decrypter interface {
	Decrypt(ctx context.Context, s decrypt.Session, mode decrypt.Mode) (*artifact.Artifact, error)
}

// Options configure a Server.
type Options struct {
	Address         string
	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	opts    Options
	service Decrypter
	logger  logging.Logger
}

func NewServer(opts Options, service Decrypter, l logging.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = decrypt.DefaultMaxFileSize
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if l == nil {
		l = logging.Discard()
	}
	return &Server{opts: opts, service: service, logger: l.With("module", "web")}
}

// Handler returns the routes wrapped with request logging and metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /decrypt/import", s.handleDecrypt(decrypt.ModeImportFile))
	mux.HandleFunc("POST /decrypt/zip", s.handleDecrypt(decrypt.ModePlaintextZip))
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return metrics.Middleware(s.logRequests(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping web server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting web server", "address", listen.Addr().String())
	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}

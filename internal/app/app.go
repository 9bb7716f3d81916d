// Package app assembles the decrypt service and runs the web front end.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/dmitrijs2005/backupdecrypt/internal/buildinfo"
	"github.com/dmitrijs2005/backupdecrypt/internal/config"
	"github.com/dmitrijs2005/backupdecrypt/internal/decrypt"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
	"github.com/dmitrijs2005/backupdecrypt/internal/logging"
	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
	"github.com/dmitrijs2005/backupdecrypt/internal/web"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *web.Server
}

// NewLogger builds the logger described by c, writing to w.
func NewLogger(c *config.Config, w io.Writer) logging.Logger {
	return logging.New(w, c.LogFormat, c.LogLevel)
}

// NewService builds a decrypt service from c for the given host environment.
func NewService(c *config.Config, env e2ee.Environment, l logging.Logger) (*decrypt.Service, error) {
	opener, err := storage.NewOpener(c.StorageKind, c.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	return decrypt.NewService(decrypt.Config{
		Opener:      opener,
		Environment: env,
		Platform:    e2ee.PlatformFromGOOS(runtime.GOOS),
		Identifier:  c.Identifier,
		Version:     buildinfo.Version,
		MaxFileSize: c.MaxUploadBytes,
	}, l), nil
}

func NewApp(c *config.Config) (*App, error) {
	logger := NewLogger(c, os.Stdout)

	svc, err := NewService(c, e2ee.EnvironmentWeb, logger)
	if err != nil {
		return nil, err
	}

	srv := web.NewServer(web.Options{
		Address:         c.ListenAddr,
		MaxUploadBytes:  c.MaxUploadBytes,
		ReadTimeout:     c.ReadTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
	}, svc, logger)

	return &App{config: c, logger: logger, server: srv}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM/SIGQUIT arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...",
		"version", buildinfo.Version,
		"storage", string(app.config.StorageKind),
	)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "web server", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}

package web

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/backupdecrypt/internal/common"
	"github.com/dmitrijs2005/backupdecrypt/internal/decrypt"
)

const (
	HeaderWarning = "X-Decrypt-Warning"
	HeaderError   = "X-Decrypt-Error"

	// multipartOverhead covers the password field and part headers.
	multipartOverhead = 64 << 10
	maxMemory         = 8 << 20
)

type pageData struct {
	Message  string
	Warning  string
	FileName string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := page.Execute(w, data); err != nil {
		s.logger.Error(r.Context(), "render page", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleDecrypt(mode decrypt.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			s.logger.Warn(ctx, "bad upload", "error", err)
			s.fail(w, r, http.StatusBadRequest, decrypt.MsgGeneric, "")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		session := decrypt.Session{Password: []byte(r.FormValue("password"))}
		defer common.WipeByteArray(session.Password)

		file, header, err := r.FormFile("file")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			s.logger.Warn(ctx, "bad upload", "error", err)
			s.fail(w, r, http.StatusBadRequest, decrypt.MsgGeneric, "")
			return
		default:
			defer file.Close()
			session.File = file
			session.FileName = header.Filename
		}

		art, err := s.service.Decrypt(ctx, session, mode)
		if err != nil {
			s.fail(w, r, statusFor(err), decrypt.UserMessage(err), session.FileName)
			return
		}

		h := w.Header()
		h.Set("Content-Type", art.ContentType)
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Name}))
		h.Set("Content-Length", strconv.Itoa(len(art.Data)))
		h.Set("Cache-Control", "no-store")
		for _, warning := range art.Warnings {
			h.Add(HeaderWarning, warning)
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(art.Data); err != nil {
			s.logger.Warn(ctx, "write artifact", "error", err)
		}
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg, fileName string) {
	w.Header().Set(HeaderError, msg)
	s.render(w, r, status, pageData{Message: msg, FileName: fileName})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, decrypt.ErrNoFileSelected):
		return http.StatusBadRequest
	case errors.Is(err, decrypt.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

// Package config handles configuration for the decrypt binaries,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
)

// Config holds runtime settings shared by the server and the CLI.
//
// Fields:
//   - ListenAddr: bind address of the web front end.
//   - StorageKind: store backend created per attempt (memory, sqlite, bolt).
//   - ScratchDir: parent directory of file backed stores; empty means the
//     system temp dir.
//   - LogLevel / LogFormat: slog level and handler (json or text).
//   - MaxUploadBytes: largest accepted backup file.
//   - ReadTimeout / ShutdownTimeout: HTTP server limits.
//   - OutputDir: where the CLI writes artifacts.
//   - Identifier: runtime application identifier.
type Config struct {
	ListenAddr      string
	StorageKind     storage.Kind
	ScratchDir      string
	LogLevel        string
	LogFormat       string
	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	OutputDir       string
	Identifier      string
}

// LoadDefaults populates Config with defaults suitable for local use.
func (c *Config) LoadDefaults() {
	c.ListenAddr = "127.0.0.1:8080"
	c.StorageKind = storage.KindMemory
	c.ScratchDir = ""
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.MaxUploadBytes = 64 << 20
	c.ReadTimeout = 2 * time.Minute
	c.ShutdownTimeout = 10 * time.Second
	c.OutputDir = "."
	c.Identifier = "decrypt-script"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

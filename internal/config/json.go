package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/backupdecrypt/internal/flagx"
	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
	"github.com/dmitrijs2005/backupdecrypt/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "30s" style
// strings or integer nanoseconds.
type JsonConfig struct {
	ListenAddr      string         `json:"listen_addr"`
	StorageKind     string         `json:"storage_kind"`
	ScratchDir      string         `json:"scratch_dir"`
	LogLevel        string         `json:"log_level"`
	LogFormat       string         `json:"log_format"`
	MaxUploadBytes  int64          `json:"max_upload_bytes"`
	ReadTimeout     timex.Duration `json:"read_timeout"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	OutputDir       string         `json:"output_dir"`
	Identifier      string         `json:"identifier"`
}

// parseJson overlays the JSON file named by -c/-config (or $DECRYPT_CONFIG)
// onto config. Fields absent from the file keep their current value. An
// unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	if c.StorageKind != "" {
		config.StorageKind = storage.Kind(c.StorageKind)
	}
	setString(&config.ScratchDir, c.ScratchDir)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.MaxUploadBytes > 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	if c.ReadTimeout.Duration > 0 {
		config.ReadTimeout = c.ReadTimeout.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setString(&config.OutputDir, c.OutputDir)
	setString(&config.Identifier, c.Identifier)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/backupdecrypt/internal/flagx"
	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
)

var knownFlags = []string{"-a", "-s", "-d", "-l", "-f", "-m", "-r", "-t", "-o", "-i"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     listen address of the web front end
//	-s string     storage backend: memory, sqlite or bolt
//	-d string     scratch directory for file backed stores
//	-l string     log level: debug, info, warn, error
//	-f string     log format: json or text
//	-m int        max upload size in bytes
//	-r duration   HTTP read timeout
//	-t duration   graceful shutdown timeout
//	-o string     output directory of the CLI
//	-i string     runtime application identifier
//
// os.Args is filtered with flagx.FilterArgs first, so positional arguments
// and flags owned by a binary are ignored here. A malformed value panics.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	storageKind := fs.String("s", string(config.StorageKind), "storage backend (memory, sqlite, bolt)")
	fs.StringVar(&config.ScratchDir, "d", config.ScratchDir, "scratch directory")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (json, text)")
	fs.Int64Var(&config.MaxUploadBytes, "m", config.MaxUploadBytes, "max upload size in bytes")
	fs.DurationVar(&config.ReadTimeout, "r", config.ReadTimeout, "HTTP read timeout")
	fs.DurationVar(&config.ShutdownTimeout, "t", config.ShutdownTimeout, "graceful shutdown timeout")
	fs.StringVar(&config.OutputDir, "o", config.OutputDir, "output directory")
	fs.StringVar(&config.Identifier, "i", config.Identifier, "application identifier")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StorageKind = storage.Kind(*storageKind)
}

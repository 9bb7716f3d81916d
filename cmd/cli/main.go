package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/backupdecrypt/internal/app"
	"github.com/dmitrijs2005/backupdecrypt/internal/buildinfo"
	"github.com/dmitrijs2005/backupdecrypt/internal/cli"
	"github.com/dmitrijs2005/backupdecrypt/internal/config"
	"github.com/dmitrijs2005/backupdecrypt/internal/decrypt"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
	"github.com/dmitrijs2005/backupdecrypt/internal/flagx"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	fs := flag.NewFlagSet("cli", flag.ExitOnError)
	in := fs.String("in", "", "encrypted backup file")
	modeName := fs.String("mode", "import", "output: import (decrypted backup file) or zip (plaintext zip)")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-in", "-mode"}))

	mode, err := decrypt.ParseMode(*modeName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := config.LoadConfig()
	logger := app.NewLogger(cfg, os.Stderr)
	svc, err := app.NewService(cfg, e2ee.EnvironmentCLI, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := cli.NewApp(svc, cfg.OutputDir, os.Stderr, logger).Run(ctx, *in, mode); err != nil {
		stop()
		os.Exit(1)
	}
}

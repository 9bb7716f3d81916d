package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/backupdecrypt/internal/app"
	"github.com/dmitrijs2005/backupdecrypt/internal/buildinfo"
	"github.com/dmitrijs2005/backupdecrypt/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	a, err := app.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

// Package cli is the terminal front end: it decrypts one backup file and
// writes the artifact to disk.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/backupdecrypt/internal/artifact"
	"github.com/dmitrijs2005/backupdecrypt/internal/common"
	"github.com/dmitrijs2005/backupdecrypt/internal/decrypt"
	"github.com/dmitrijs2005/backupdecrypt/internal/filex"
	"github.com/dmitrijs2005/backupdecrypt/internal/logging"
)

// Decrypter runs one decrypt attempt.
type Decrypter interface {
	Decrypt(ctx context.Context, s decrypt.Session, mode decrypt.Mode) (*artifact.Artifact, error)
}

type App struct {
	service   Decrypter
	outputDir string
	out       io.Writer
	logger    logging.Logger
}

func NewApp(service Decrypter, outputDir string, out io.Writer, l logging.Logger) *App {
	if outputDir == "" {
		outputDir = "."
	}
	if l == nil {
		l = logging.Discard()
	}
	return &App{service: service, outputDir: outputDir, out: out, logger: l.With("module", "cli")}
}

// Run decrypts the backup at path and returns the written artifact path.
// An empty path is reported as no file selected.
func (app *App) Run(ctx context.Context, path string, mode decrypt.Mode) (string, error) {
	var session decrypt.Session

	if path != "" {
		session.FileName = filepath.Base(path)
		f, err := os.Open(path)
		if err != nil {
			return "", app.report(ctx, fmt.Errorf("%w: %v", decrypt.ErrUnreadableFile, err))
		}
		defer f.Close()
		session.File = f

		pw, err := GetPassword(app.out)
		if err != nil {
			return "", app.report(ctx, fmt.Errorf("read password: %w", err))
		}
		defer common.WipeByteArray(pw)
		session.Password = pw
	}

	art, err := app.service.Decrypt(ctx, session, mode)
	if err != nil {
		return "", app.report(ctx, err)
	}

	for _, w := range art.Warnings {
		fmt.Fprintln(app.out, "Warning:", w)
	}

	dir, err := filex.EnsureDir(app.outputDir)
	if err != nil {
		return "", app.report(ctx, err)
	}
	target, err := filex.WritePrivate(dir, art.Name, art.Data)
	if err != nil {
		return "", app.report(ctx, err)
	}
	fmt.Fprintln(app.out, "Saved", target)
	return target, nil
}

func (app *App) report(ctx context.Context, err error) error {
	app.logger.Error(ctx, "decrypt failed", "error", err)
	fmt.Fprintln(app.out, decrypt.UserMessage(err))
	return err
}

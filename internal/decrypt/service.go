// Package decrypt runs one backup decryption from user input to artifact.
package decrypt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/backupdecrypt/internal/alerts"
	"github.com/dmitrijs2005/backupdecrypt/internal/artifact"
	"github.com/dmitrijs2005/backupdecrypt/internal/common"
	"github.com/dmitrijs2005/backupdecrypt/internal/cryptox"
	"github.com/dmitrijs2005/backupdecrypt/internal/device"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee/offline"
	"github.com/dmitrijs2005/backupdecrypt/internal/logging"
	"github.com/dmitrijs2005/backupdecrypt/internal/metrics"
	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
)

const (
	DefaultIdentifier  = "decrypt-script"
	DefaultHost        = "offline-host"
	DefaultMaxFileSize = 64 << 20
)

// Config wires a Service. Zero fields get defaults.
type Config struct {
	Opener      storage.Opener
	Factory     e2ee.Factory
	Crypto      e2ee.Crypto
	Environment e2ee.Environment
	Platform    e2ee.Platform
	Identifier  string
	Version     string
	MaxFileSize int64
	Now         func() time.Time
}

// Service runs decrypt attempts, one at a time.
type Service struct {
	cfg    Config
	logger logging.Logger
	busy   atomic.Bool
}

func NewService(cfg Config, logger logging.Logger) *Service {
	if cfg.Opener == nil {
		cfg.Opener = func(context.Context) (storage.Store, error) { return storage.NewMemory(), nil }
	}
	if cfg.Factory == nil {
		cfg.Factory = offline.New
	}
	if cfg.Crypto == nil {
		cfg.Crypto = cryptox.New()
	}
	if cfg.Environment == "" {
		cfg.Environment = e2ee.EnvironmentWeb
	}
	if cfg.Platform == "" {
		cfg.Platform = e2ee.PlatformLinuxWeb
	}
	if cfg.Identifier == "" {
		cfg.Identifier = DefaultIdentifier
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{cfg: cfg, logger: logger.With("module", "decrypt")}
}

// Decrypt turns the backup in s into an artifact of the given mode.
func (svc *Service) Decrypt(ctx context.Context, s Session, mode Mode) (*artifact.Artifact, error) {
	if s.File == nil {
		metrics.AttemptsTotal.WithLabelValues(mode.String(), "no_file").Inc()
		return nil, ErrNoFileSelected
	}
	if !svc.busy.CompareAndSwap(false, true) {
		metrics.AttemptsTotal.WithLabelValues(mode.String(), "busy").Inc()
		return nil, ErrBusy
	}
	defer svc.busy.Store(false)

	log := svc.logger.With("attempt", uuid.NewString(), "mode", mode.String(), "file", s.FileName)
	start := time.Now()
	log.Info(ctx, "decrypt started")

	art, err := svc.run(ctx, log, s, mode)

	metrics.AttemptDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	metrics.AttemptsTotal.WithLabelValues(mode.String(), outcome(art, err)).Inc()
	if err != nil {
		log.Error(ctx, "decrypt failed", "error", err)
		return nil, err
	}

	common.WipeByteArray(s.Password)
	log.Info(ctx, "decrypt finished", "artifact", art.Name, "bytes", len(art.Data), "warnings", len(art.Warnings))
	return art, nil
}

func outcome(art *artifact.Artifact, err error) string {
	switch {
	case err == nil && len(art.Warnings) > 0:
		return "partial"
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnreadableFile):
		return "unreadable"
	case errors.Is(err, ErrNoItemDecrypted):
		return "no_item"
	default:
		return "error"
	}
}

func (svc *Service) run(ctx context.Context, log logging.Logger, s Session, mode Mode) (*artifact.Artifact, error) {
	file, err := svc.read(s.File)
	if err != nil {
		return nil, err
	}

	store, err := svc.cfg.Opener(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn(ctx, "close store", "error", err)
		}
	}()

	interaction := alerts.NewLogAlerts(log)
	app, err := svc.cfg.Factory(e2ee.Options{
		Environment: svc.cfg.Environment,
		Platform:    svc.cfg.Platform,
		Device:      device.New(store),
		Crypto:      svc.cfg.Crypto,
		Alerts:      interaction,
		Identifier:  svc.cfg.Identifier,
		DefaultHost: DefaultHost,
		Version:     svc.cfg.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	if err := app.EnableEphemeralPersistence(ctx); err != nil {
		return nil, fmt.Errorf("ephemeral persistence: %w", err)
	}
	if err := app.Launch(ctx, passwordResponder(s.Password)); err != nil {
		return nil, fmt.Errorf("launch: %w", err)
	}
	defer func() {
		if err := app.SignOut(context.WithoutCancel(ctx)); err != nil {
			log.Warn(ctx, "sign out", "error", err)
		}
	}()

	res, err := app.ImportData(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	metrics.ItemsDecrypted.Add(float64(len(res.AffectedItems)))
	metrics.ItemsFailed.Add(float64(res.ErrorCount))

	var warnings []string
	if res.ErrorCount > 0 {
		if len(res.AffectedItems) == 0 {
			return nil, fmt.Errorf("%w: %d errors", ErrNoItemDecrypted, res.ErrorCount)
		}
		msg := PartialFailureMessage(res.ErrorCount)
		if err := interaction.Alert(ctx, msg); err != nil {
			return nil, err
		}
		warnings = append(warnings, msg)
	}

	backup, err := app.CreateBackupFile(ctx, e2ee.IntentDecrypted)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var art *artifact.Artifact
	switch mode {
	case ModeImportFile:
		art, err = artifact.ImportFile(backup)
	case ModePlaintextZip:
		art, err = artifact.PlaintextZip(backup, svc.cfg.Now())
	default:
		err = fmt.Errorf("unknown mode %s", mode)
	}
	if err != nil {
		return nil, err
	}
	art.Warnings = warnings
	return art, nil
}

// PartialFailureMessage is the warning shown when some items failed.
func PartialFailureMessage(n int) string {
	return fmt.Sprintf("%d items could not be decrypted. "+
		"Please make sure the password you entered is correct, and try again.", n)
}

func (svc *Service) read(r io.Reader) (*e2ee.BackupFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, svc.cfg.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if int64(len(data)) > svc.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrUnreadableFile, svc.cfg.MaxFileSize)
	}
	var file e2ee.BackupFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return &file, nil
}

// passwordResponder answers the file password challenge and nothing else.
func passwordResponder(password []byte) e2ee.ChallengeResponder {
	return e2ee.ChallengeResponderFunc(func(ctx context.Context, ch e2ee.Challenge) ([]e2ee.ChallengeValue, error) {
		if ch.Reason != e2ee.ReasonDecryptEncryptedFile {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedChallenge, ch.Reason)
		}
		values := make([]e2ee.ChallengeValue, 0, len(ch.Prompts))
		for _, p := range ch.Prompts {
			values = append(values, e2ee.ChallengeValue{Prompt: p, Value: string(password)})
		}
		return values, nil
	})
}

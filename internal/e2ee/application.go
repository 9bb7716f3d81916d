package e2ee

import (
	"context"
	"errors"
)

var (
	ErrNotLaunched          = errors.New("application not launched")
	ErrUnsupportedVersion   = errors.New("unsupported backup version")
	ErrUnsupportedIntent    = errors.New("unsupported encryption intent")
	ErrChallengeUnanswered  = errors.New("challenge was not answered")
	ErrMissingCapability    = errors.New("missing runtime capability")
	ErrItemDecryptionFailed = errors.New("item could not be decrypted")
)

// Application is the runtime surface consumed by the decrypt flow.
type Application interface {
	// EnableEphemeralPersistence makes SignOut wipe the device store.
	EnableEphemeralPersistence(ctx context.Context) error
	// Launch prepares the runtime; r answers every challenge it raises.
	Launch(ctx context.Context, r ChallengeResponder) error
	// ImportData decrypts and stores the items of file. A returned error is
	// a hard failure; per-item failures are tallied in the result.
	ImportData(ctx context.Context, file *BackupFile) (*ImportResult, error)
	// CreateBackupFile serializes the stored items.
	CreateBackupFile(ctx context.Context, intent EncryptionIntent) (*BackupFile, error)
	// SignOut tears the session down.
	SignOut(ctx context.Context) error
}

// Options configure a new Application.
type Options struct {
	Environment Environment
	Platform    Platform
	Device      Device
	Crypto      Crypto
	Alerts      Alerts
	Identifier  string
	Features    []string
	DefaultHost string
	Version     string
}

// Factory builds an Application from Options.
type Factory func(opts Options) (Application, error)

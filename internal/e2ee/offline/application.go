// Package offline is a self-contained e2ee.Application. It needs no sync
// server: backups are decrypted with the configured Crypto and the results
// kept in the Device store until SignOut.
package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/backupdecrypt/internal/common"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
)

// AppVersionKey is the raw key Launch writes the application version to.
const AppVersionKey = "app_version"

var ErrMissingItems = errors.New("backup file has no items list")

// Application is the offline runtime.
type Application struct {
	opts e2ee.Options

	mu        sync.Mutex
	responder e2ee.ChallengeResponder
	ephemeral bool
	rootKey   e2ee.RootKey
	order     []string
}

var _ e2ee.Application = (*Application)(nil)

// New validates opts and returns an Application. It matches e2ee.Factory.
func New(opts e2ee.Options) (e2ee.Application, error) {
	switch {
	case opts.Device == nil:
		return nil, fmt.Errorf("%w: device", e2ee.ErrMissingCapability)
	case opts.Crypto == nil:
		return nil, fmt.Errorf("%w: crypto", e2ee.ErrMissingCapability)
	case opts.Alerts == nil:
		return nil, fmt.Errorf("%w: alerts", e2ee.ErrMissingCapability)
	case opts.Identifier == "":
		return nil, fmt.Errorf("%w: identifier", e2ee.ErrMissingCapability)
	}
	return &Application{opts: opts}, nil
}

func (a *Application) EnableEphemeralPersistence(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ephemeral = true
	return nil
}

func (a *Application) Launch(ctx context.Context, r e2ee.ChallengeResponder) error {
	if r == nil {
		return fmt.Errorf("%w: challenge responder", e2ee.ErrMissingCapability)
	}
	if err := a.opts.Device.SetRaw(ctx, AppVersionKey, a.opts.Version); err != nil {
		return fmt.Errorf("launch: %w", err)
	}
	a.mu.Lock()
	a.responder = r
	a.mu.Unlock()
	return nil
}

func (a *Application) launched() (e2ee.ChallengeResponder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.responder == nil {
		return nil, e2ee.ErrNotLaunched
	}
	return a.responder, nil
}

func (a *Application) ImportData(ctx context.Context, file *e2ee.BackupFile) (*e2ee.ImportResult, error) {
	responder, err := a.launched()
	if err != nil {
		return nil, err
	}
	if file == nil || file.Items == nil {
		return nil, ErrMissingItems
	}

	var key e2ee.RootKey
	if file.KeyParams != nil {
		if file.KeyParams.Version != e2ee.ProtocolVersion004 {
			return nil, fmt.Errorf("%w: %q", e2ee.ErrUnsupportedVersion, file.KeyParams.Version)
		}
		key, err = a.unlock(ctx, responder, *file.KeyParams)
		if err != nil {
			return nil, err
		}
	}

	res := &e2ee.ImportResult{}
	payloads := make([]storage.Payload, 0, len(file.Items))
	for _, it := range file.Items {
		if it.Deleted {
			continue
		}
		if it.IsEncrypted() {
			if key == nil {
				res.ErrorCount++
				continue
			}
			dec, err := a.opts.Crypto.DecryptItem(ctx, key, it)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				res.ErrorCount++
				continue
			}
			it = dec
		}
		p, err := toPayload(it)
		if err != nil {
			res.ErrorCount++
			continue
		}
		payloads = append(payloads, p)
		res.AffectedItems = append(res.AffectedItems, it)
	}

	if err := a.opts.Device.SaveAllPayloads(ctx, payloads, a.opts.Identifier); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	a.mu.Lock()
	for _, it := range res.AffectedItems {
		if !slices.Contains(a.order, it.UUID) {
			a.order = append(a.order, it.UUID)
		}
	}
	a.mu.Unlock()
	return res, nil
}

// unlock asks for the file password and derives the root key. Key params,
// never keys, are recorded in the keychain.
func (a *Application) unlock(ctx context.Context, r e2ee.ChallengeResponder, params e2ee.KeyParams) (e2ee.RootKey, error) {
	prompt := e2ee.Prompt{ID: 1, Title: "File password", Secure: true}
	values, err := r.ReceiveChallenge(ctx, e2ee.Challenge{
		Reason:  e2ee.ReasonDecryptEncryptedFile,
		Heading: "Enter the password of the backup file",
		Prompts: []e2ee.Prompt{prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("challenge: %w", err)
	}
	if len(values) == 0 || values[0].Value == "" {
		return nil, e2ee.ErrChallengeUnanswered
	}

	password := []byte(values[0].Value)
	defer common.WipeByteArray(password)

	key, err := a.opts.Crypto.DeriveRootKey(ctx, password, params)
	if err != nil {
		return nil, fmt.Errorf("derive root key: %w", err)
	}
	if err := a.opts.Device.SetKeychainValue(ctx, params, a.opts.Identifier); err != nil {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("keychain: %w", err)
	}

	a.mu.Lock()
	common.WipeByteArray(a.rootKey)
	a.rootKey = key
	a.mu.Unlock()
	return key, nil
}

func (a *Application) CreateBackupFile(ctx context.Context, intent e2ee.EncryptionIntent) (*e2ee.BackupFile, error) {
	if _, err := a.launched(); err != nil {
		return nil, err
	}
	if intent != e2ee.IntentDecrypted {
		return nil, fmt.Errorf("%w: %s", e2ee.ErrUnsupportedIntent, intent)
	}

	payloads, err := a.opts.Device.GetAllPayloads(ctx, a.opts.Identifier)
	if err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}
	byUUID := make(map[string]e2ee.Item, len(payloads))
	var unordered []string
	for _, p := range payloads {
		it, err := fromPayload(p)
		if err != nil {
			return nil, fmt.Errorf("backup: %w", err)
		}
		byUUID[it.UUID] = it
		unordered = append(unordered, it.UUID)
	}

	a.mu.Lock()
	order := slices.Clone(a.order)
	a.mu.Unlock()

	out := &e2ee.BackupFile{
		Version: e2ee.ProtocolVersion004,
		Items:   make([]e2ee.Item, 0, len(byUUID)),
	}
	for _, id := range order {
		if it, ok := byUUID[id]; ok {
			out.Items = append(out.Items, it)
			delete(byUUID, id)
		}
	}
	// Payloads stored by an earlier process follow in store order.
	for _, id := range unordered {
		if it, ok := byUUID[id]; ok {
			out.Items = append(out.Items, it)
		}
	}
	return out, nil
}

func (a *Application) SignOut(ctx context.Context) error {
	a.mu.Lock()
	common.WipeByteArray(a.rootKey)
	a.rootKey = nil
	a.order = nil
	ephemeral := a.ephemeral
	a.mu.Unlock()

	dev := a.opts.Device
	if err := dev.RemoveAllPayloads(ctx, a.opts.Identifier); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if err := dev.ClearKeychainValue(ctx, a.opts.Identifier); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if ephemeral {
		if err := dev.RemoveAll(ctx); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
	}
	return nil
}

func toPayload(it e2ee.Item) (storage.Payload, error) {
	if it.UUID == "" {
		return nil, common.ErrorMissingUUID
	}
	b, err := json.Marshal(it)
	if err != nil {
		return nil, err
	}
	var p storage.Payload
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return p, nil
}

func fromPayload(p storage.Payload) (e2ee.Item, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return e2ee.Item{}, err
	}
	var it e2ee.Item
	if err := json.Unmarshal(b, &it); err != nil {
		return e2ee.Item{}, err
	}
	return it, nil
}

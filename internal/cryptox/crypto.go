// Package cryptox is the crypto backend of the reference runtime.
//
// Root keys are derived with argon2id from the file password and the key
// params stored in the backup. Items use two-level envelopes: enc_item_key
// holds a random item key sealed with the root key, and content holds the
// item JSON sealed with the item key. Envelopes are XChaCha20-Poly1305:
//
//	004:<hex nonce>:<base64 ciphertext>:<base64 authenticated data>
//
// The authenticated data is the JSON object {"u":<item uuid>,"v":"004"}; an
// envelope copied onto another item fails to open.
package cryptox

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/dmitrijs2005/backupdecrypt/internal/common"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
)

const (
	DefaultIterations = 5
	DefaultMemoryKiB  = 64 * 1024

	maxIterations = 100
	maxMemoryKiB  = 1024 * 1024

	saltLen   = 16
	outputLen = 64
	keyLen    = 32
	nonceLen  = 32
)

var (
	ErrInvalidKeyParams  = errors.New("invalid key params")
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrAuthDataMismatch  = errors.New("authenticated data does not match item")
)

// Backend implements e2ee.Crypto.
type Backend struct{}

var _ e2ee.Crypto = (*Backend)(nil)

func New() *Backend {
	return &Backend{}
}

// NewKeyParams returns fresh 004 key params for identifier with protocol
// default cost.
func NewKeyParams(identifier string) (e2ee.KeyParams, error) {
	nonce, err := common.MakeRandHexString(nonceLen)
	if err != nil {
		return e2ee.KeyParams{}, err
	}
	return e2ee.KeyParams{
		Identifier:  identifier,
		PwNonce:     nonce,
		Version:     e2ee.ProtocolVersion004,
		Origination: "backup-file",
	}, nil
}

func cost(p e2ee.KeyParams) (iterations, memory uint32, err error) {
	iterations, memory = p.Iterations, p.MemoryKiB
	if iterations == 0 {
		iterations = DefaultIterations
	}
	if memory == 0 {
		memory = DefaultMemoryKiB
	}
	if iterations > maxIterations || memory > maxMemoryKiB || memory < 8 {
		return 0, 0, fmt.Errorf("%w: cost %d/%d out of range", ErrInvalidKeyParams, iterations, memory)
	}
	return iterations, memory, nil
}

// DeriveRootKey derives the 32-byte master key from password and params.
func (b *Backend) DeriveRootKey(ctx context.Context, password []byte, p e2ee.KeyParams) (e2ee.RootKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Version != e2ee.ProtocolVersion004 {
		return nil, fmt.Errorf("%w: %q", e2ee.ErrUnsupportedVersion, p.Version)
	}
	if p.Identifier == "" || p.PwNonce == "" {
		return nil, fmt.Errorf("%w: identifier and pw_nonce are required", ErrInvalidKeyParams)
	}
	iterations, memory, err := cost(p)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256([]byte(p.Identifier + ":" + p.PwNonce))
	out := argon2.IDKey(password, digest[:saltLen], iterations, memory, 1, outputLen)
	defer common.WipeByteArray(out)

	key := make([]byte, keyLen)
	copy(key, out[:keyLen])
	return key, nil
}

// DecryptItem opens enc_item_key with key and then the content with the item
// key. The returned item carries plaintext JSON content and no key fields.
func (b *Backend) DecryptItem(ctx context.Context, key e2ee.RootKey, item e2ee.Item) (e2ee.Item, error) {
	if err := ctx.Err(); err != nil {
		return e2ee.Item{}, err
	}
	if item.EncItemKey == "" {
		return e2ee.Item{}, fmt.Errorf("%w: item %s has no enc_item_key", ErrMalformedEnvelope, item.UUID)
	}

	hexKey, err := open(key, item.EncItemKey, item.UUID)
	if err != nil {
		return e2ee.Item{}, fmt.Errorf("item key: %w", err)
	}
	defer common.WipeByteArray(hexKey)

	itemKey := make([]byte, keyLen)
	defer common.WipeByteArray(itemKey)
	if n, err := hex.Decode(itemKey, hexKey); err != nil || n != keyLen {
		return e2ee.Item{}, fmt.Errorf("%w: item key of %s", ErrMalformedEnvelope, item.UUID)
	}

	var envelope string
	if err := json.Unmarshal(item.Content, &envelope); err != nil {
		return e2ee.Item{}, fmt.Errorf("%w: content of %s is not a string", ErrMalformedEnvelope, item.UUID)
	}
	plaintext, err := open(itemKey, envelope, item.UUID)
	if err != nil {
		return e2ee.Item{}, fmt.Errorf("content: %w", err)
	}
	trimmed := strings.TrimSpace(string(plaintext))
	if !strings.HasPrefix(trimmed, "{") || !json.Valid(plaintext) {
		return e2ee.Item{}, fmt.Errorf("%w: content of %s is not a JSON object", ErrMalformedEnvelope, item.UUID)
	}

	out := item
	out.Content = json.RawMessage(plaintext)
	out.EncItemKey = ""
	out.ItemsKeyID = ""
	return out, nil
}

// EncryptItem seals a plaintext item under key with a fresh item key.
func EncryptItem(key e2ee.RootKey, item e2ee.Item) (e2ee.Item, error) {
	if !json.Valid(item.Content) {
		return e2ee.Item{}, fmt.Errorf("item %s: content is not valid JSON", item.UUID)
	}

	itemKey := common.GenerateRandByteArray(keyLen)
	defer common.WipeByteArray(itemKey)

	encKey, err := seal(key, []byte(hex.EncodeToString(itemKey)), item.UUID)
	if err != nil {
		return e2ee.Item{}, err
	}
	envelope, err := seal(itemKey, item.Content, item.UUID)
	if err != nil {
		return e2ee.Item{}, err
	}
	content, err := json.Marshal(envelope)
	if err != nil {
		return e2ee.Item{}, err
	}

	out := item
	out.Content = content
	out.EncItemKey = encKey
	return out, nil
}

// EncryptBackup builds an encrypted backup file of items under password.
func EncryptBackup(ctx context.Context, password []byte, params e2ee.KeyParams, items []e2ee.Item) (*e2ee.BackupFile, error) {
	key, err := New().DeriveRootKey(ctx, password, params)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	out := &e2ee.BackupFile{
		Version:   params.Version,
		KeyParams: &params,
		Items:     make([]e2ee.Item, 0, len(items)),
	}
	for _, it := range items {
		enc, err := EncryptItem(key, it)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, enc)
	}
	return out, nil
}

type authData struct {
	U string `json:"u"`
	V string `json:"v"`
}

func seal(key, plaintext []byte, uuid string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	ad, err := json.Marshal(authData{U: uuid, V: e2ee.ProtocolVersion004})
	if err != nil {
		return "", err
	}
	adText := base64.StdEncoding.EncodeToString(ad)
	nonce := common.GenerateRandByteArray(chacha20poly1305.NonceSizeX)
	ciphertext := aead.Seal(nil, nonce, plaintext, []byte(adText))

	return strings.Join([]string{
		e2ee.ProtocolVersion004,
		hex.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(ciphertext),
		adText,
	}, ":"), nil
}

func open(key []byte, envelope, uuid string) ([]byte, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: %d components", ErrMalformedEnvelope, len(parts))
	}
	if parts[0] != e2ee.ProtocolVersion004 {
		return nil, fmt.Errorf("%w: %q", e2ee.ErrUnsupportedVersion, parts[0])
	}
	nonce, err := hex.DecodeString(parts[1])
	if err != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: nonce", ErrMalformedEnvelope)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext", ErrMalformedEnvelope)
	}
	adJSON, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: authenticated data", ErrMalformedEnvelope)
	}
	var ad authData
	if err := json.Unmarshal(adJSON, &ad); err != nil {
		return nil, fmt.Errorf("%w: authenticated data", ErrMalformedEnvelope)
	}
	if ad.U != uuid {
		return nil, ErrAuthDataMismatch
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(parts[3]))
	if err != nil {
		return nil, e2ee.ErrItemDecryptionFailed
	}
	return plaintext, nil
}

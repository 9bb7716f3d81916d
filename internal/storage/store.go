// Package storage implements the key-value store the runtime persists into.
//
// A Store has three key spaces:
//
//   - raw values: opaque string keys mapped to string values;
//   - payloads: JSON records addressed by (identifier, uuid). The empty
//     identifier, NoIdentifier, is a namespace of its own. Namespaces are
//     separate maps, never key prefixes, so no identifier can see another
//     identifier's records;
//   - the keychain: one JSON object stored under the reserved raw key
//     common.KeychainStorageKey, mapping identifiers to opaque values.
//
// Memory, SQLite and Bolt implement the same contract.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/backupdecrypt/internal/common"
)

// NoIdentifier addresses the payload namespace used when the runtime passes
// no identifier.
const NoIdentifier = ""

// KeyValue is one raw entry.
type KeyValue struct {
	Key   string
	Value string
}

// Payload is a stored item record. It must carry a string "uuid" field.
type Payload map[string]any

// UUID returns the payload's uuid field.
func (p Payload) UUID() (string, error) {
	id, ok := p["uuid"].(string)
	if !ok || id == "" {
		return "", common.ErrorMissingUUID
	}
	return id, nil
}

// Store is the storage capability expected by the runtime.
type Store interface {
	GetRaw(ctx context.Context, key string) (string, bool, error)
	SetRaw(ctx context.Context, key, value string) error
	RemoveRaw(ctx context.Context, key string) error
	GetAllKeyValues(ctx context.Context) ([]KeyValue, error)
	// RemoveAll wipes raw values, payloads and the keychain.
	RemoveAll(ctx context.Context) error

	GetAllPayloads(ctx context.Context, identifier string) ([]Payload, error)
	SavePayload(ctx context.Context, payload Payload, identifier string) error
	SaveAllPayloads(ctx context.Context, payloads []Payload, identifier string) error
	RemovePayload(ctx context.Context, uuid, identifier string) error
	RemoveAllPayloads(ctx context.Context, identifier string) error

	GetKeychainValue(ctx context.Context, identifier string) (json.RawMessage, bool, error)
	SetKeychainValue(ctx context.Context, value any, identifier string) error
	ClearKeychainValue(ctx context.Context, identifier string) error
	// ClearKeychain removes the keychain blob and nothing else.
	ClearKeychain(ctx context.Context) error

	Close() error
}

type rawStore interface {
	GetRaw(ctx context.Context, key string) (string, bool, error)
	SetRaw(ctx context.Context, key, value string) error
	RemoveRaw(ctx context.Context, key string) error
}

// keychain implements the keychain operations on top of raw storage. It is
// embedded by every backend.
type keychain struct {
	raw rawStore
}

func (k keychain) load(ctx context.Context) (map[string]json.RawMessage, bool, error) {
	blob, ok, err := k.raw.GetRaw(ctx, common.KeychainStorageKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return nil, false, fmt.Errorf("keychain: %w: %v", common.ErrorCorruptRecord, err)
	}
	if m == nil {
		// "null" is what an empty keychain looks like to a JSON reader.
		return nil, false, nil
	}
	return m, true, nil
}

func (k keychain) save(ctx context.Context, m map[string]json.RawMessage) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("keychain: %w", err)
	}
	return k.raw.SetRaw(ctx, common.KeychainStorageKey, string(b))
}

func (k keychain) GetKeychainValue(ctx context.Context, identifier string) (json.RawMessage, bool, error) {
	m, ok, err := k.load(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	v, ok := m[identifier]
	return v, ok, nil
}

func (k keychain) SetKeychainValue(ctx context.Context, value any, identifier string) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("keychain value: %w", err)
	}
	m, ok, err := k.load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		m = make(map[string]json.RawMessage, 1)
	}
	m[identifier] = encoded
	return k.save(ctx, m)
}

func (k keychain) ClearKeychainValue(ctx context.Context, identifier string) error {
	m, ok, err := k.load(ctx)
	if err != nil || !ok {
		return err
	}
	if _, present := m[identifier]; !present {
		return nil
	}
	delete(m, identifier)
	return k.save(ctx, m)
}

func (k keychain) ClearKeychain(ctx context.Context) error {
	return k.raw.RemoveRaw(ctx, common.KeychainStorageKey)
}

func encodePayload(p Payload) (string, string, error) {
	id, err := p.UUID()
	if err != nil {
		return "", "", err
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", "", fmt.Errorf("encode payload %s: %w", id, err)
	}
	return id, string(b), nil
}

// decodePayload keeps numbers as json.Number so they survive a round trip.
func decodePayload(key, body string) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("payload %s: %w: %v", key, common.ErrorCorruptRecord, err)
	}
	return p, nil
}

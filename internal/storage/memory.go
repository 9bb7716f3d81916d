package storage

import (
	"context"
	"slices"
	"sync"
)

// Memory is the in-memory Store. Nothing it holds outlives the process.
type Memory struct {
	keychain

	mu       sync.Mutex
	raw      map[string]string
	payloads map[string]map[string]string
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	m := &Memory{
		raw:      make(map[string]string),
		payloads: make(map[string]map[string]string),
	}
	m.keychain = keychain{raw: m}
	return m
}

func (m *Memory) GetRaw(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.raw[key]
	return v, ok, nil
}

func (m *Memory) SetRaw(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw[key] = value
	return nil
}

func (m *Memory) RemoveRaw(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.raw, key)
	return nil
}

func (m *Memory) GetAllKeyValues(ctx context.Context) ([]KeyValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]KeyValue, 0, len(m.raw))
	for _, k := range sortedKeys(m.raw) {
		out = append(out, KeyValue{Key: k, Value: m.raw[k]})
	}
	return out, nil
}

func (m *Memory) RemoveAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = make(map[string]string)
	m.payloads = make(map[string]map[string]string)
	return nil
}

func (m *Memory) GetAllPayloads(ctx context.Context, identifier string) ([]Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns := m.payloads[identifier]
	out := make([]Payload, 0, len(ns))
	for _, id := range sortedKeys(ns) {
		p, err := decodePayload(id, ns[id])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) SavePayload(ctx context.Context, payload Payload, identifier string) error {
	id, body, err := encodePayload(payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.payloads[identifier]
	if !ok {
		ns = make(map[string]string)
		m.payloads[identifier] = ns
	}
	ns[id] = body
	return nil
}

func (m *Memory) SaveAllPayloads(ctx context.Context, payloads []Payload, identifier string) error {
	for _, p := range payloads {
		if err := m.SavePayload(ctx, p, identifier); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) RemovePayload(ctx context.Context, uuid, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.payloads[identifier], uuid)
	return nil
}

func (m *Memory) RemoveAllPayloads(ctx context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.payloads, identifier)
	return nil
}

func (m *Memory) Close() error { return nil }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

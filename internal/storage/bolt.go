package storage

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketRaw      = []byte("raw")
	bucketPayloads = []byte("payloads")

	// Nested payload bucket names. Real identifiers are prefixed so that no
	// identifier can name the NoIdentifier bucket.
	nsNone   = []byte("none")
	nsPrefix = "id:"
)

func nsBucket(identifier string) []byte {
	if identifier == NoIdentifier {
		return nsNone
	}
	return []byte(nsPrefix + identifier)
}

// Bolt is a Store backed by a bbolt file: a "raw" bucket and a "payloads"
// bucket holding one nested bucket per identifier.
type Bolt struct {
	keychain

	db *bbolt.DB
}

var _ Store = (*Bolt)(nil)

// OpenBolt opens (creating if needed) the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketRaw, bucketPayloads} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	b := &Bolt{db: db}
	b.keychain = keychain{raw: b}
	return b, nil
}

func (b *Bolt) GetRaw(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketRaw).Get([]byte(key))
		if v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("get raw %s: %w", key, err)
	}
	return value, found, nil
}

func (b *Bolt) SetRaw(ctx context.Context, key, value string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRaw).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set raw %s: %w", key, err)
	}
	return nil
}

func (b *Bolt) RemoveRaw(ctx context.Context, key string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRaw).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("remove raw %s: %w", key, err)
	}
	return nil
}

func (b *Bolt) GetAllKeyValues(ctx context.Context) ([]KeyValue, error) {
	out := make([]KeyValue, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRaw).ForEach(func(k, v []byte) error {
			out = append(out, KeyValue{Key: string(k), Value: string(v)})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list raw: %w", err)
	}
	return out, nil
}

func (b *Bolt) RemoveAll(ctx context.Context) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketRaw, bucketPayloads} {
			if tx.Bucket(bucket) != nil {
				if err := tx.DeleteBucket(bucket); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

func (b *Bolt) GetAllPayloads(ctx context.Context, identifier string) ([]Payload, error) {
	out := make([]Payload, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		ns := tx.Bucket(bucketPayloads).Bucket(nsBucket(identifier))
		if ns == nil {
			return nil
		}
		return ns.ForEach(func(k, v []byte) error {
			p, err := decodePayload(string(k), string(v))
			if err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bolt) SavePayload(ctx context.Context, payload Payload, identifier string) error {
	id, body, err := encodePayload(payload)
	if err != nil {
		return err
	}
	return b.putPayload(identifier, id, body)
}

func (b *Bolt) putPayload(identifier, id, body string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		ns, err := tx.Bucket(bucketPayloads).CreateBucketIfNotExists(nsBucket(identifier))
		if err != nil {
			return err
		}
		return ns.Put([]byte(id), []byte(body))
	})
	if err != nil {
		return fmt.Errorf("save payload %s: %w", id, err)
	}
	return nil
}

func (b *Bolt) SaveAllPayloads(ctx context.Context, payloads []Payload, identifier string) error {
	for _, p := range payloads {
		if err := b.SavePayload(ctx, p, identifier); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bolt) RemovePayload(ctx context.Context, uuid, identifier string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		ns := tx.Bucket(bucketPayloads).Bucket(nsBucket(identifier))
		if ns == nil {
			return nil
		}
		return ns.Delete([]byte(uuid))
	})
	if err != nil {
		return fmt.Errorf("remove payload %s: %w", uuid, err)
	}
	return nil
}

func (b *Bolt) RemoveAllPayloads(ctx context.Context, identifier string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketPayloads)
		name := nsBucket(identifier)
		if root.Bucket(name) == nil {
			return nil
		}
		return root.DeleteBucket(name)
	})
	if err != nil {
		return fmt.Errorf("remove payloads: %w", err)
	}
	return nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

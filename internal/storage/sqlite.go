package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/backupdecrypt/internal/dbx"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	keychain

	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at dsn and migrates it.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLite{db: db}
	s.keychain = keychain{raw: s}
	return s, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("migrations provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *SQLite) GetRaw(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) SetRaw(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLite) RemoveRaw(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLite) GetAllKeyValues(ctx context.Context) ([]KeyValue, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list kv: %w", err)
	}
	defer rows.Close()

	out := make([]KeyValue, 0)
	for rows.Next() {
		var kv KeyValue
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		out = append(out, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv rows: %w", err)
	}
	return out, nil
}

func (s *SQLite) RemoveAll(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM payloads`)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

func (s *SQLite) GetAllPayloads(ctx context.Context, identifier string) ([]Payload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, body FROM payloads WHERE identifier = ? ORDER BY uuid`, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to list payloads: %w", err)
	}
	defer rows.Close()

	out := make([]Payload, 0)
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan payload row: %w", err)
		}
		p, err := decodePayload(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payload rows: %w", err)
	}
	return out, nil
}

func (s *SQLite) SavePayload(ctx context.Context, payload Payload, identifier string) error {
	id, body, err := encodePayload(payload)
	if err != nil {
		return err
	}
	return s.putPayload(ctx, identifier, id, body)
}

func (s *SQLite) putPayload(ctx context.Context, identifier, id, body string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payloads (identifier, uuid, body) VALUES (?, ?, ?)
		ON CONFLICT(identifier, uuid) DO UPDATE SET body = excluded.body
	`, identifier, id, body)
	if err != nil {
		return fmt.Errorf("failed to save payload %s: %w", id, err)
	}
	return nil
}

func (s *SQLite) SaveAllPayloads(ctx context.Context, payloads []Payload, identifier string) error {
	for _, p := range payloads {
		if err := s.SavePayload(ctx, p, identifier); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) RemovePayload(ctx context.Context, uuid, identifier string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM payloads WHERE identifier = ? AND uuid = ?`, identifier, uuid)
	if err != nil {
		return fmt.Errorf("failed to delete payload %s: %w", uuid, err)
	}
	return nil
}

func (s *SQLite) RemoveAllPayloads(ctx context.Context, identifier string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM payloads WHERE identifier = ?`, identifier); err != nil {
		return fmt.Errorf("failed to delete payloads: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/backupdecrypt/internal/cryptox"
	"github.com/dmitrijs2005/backupdecrypt/internal/decrypt"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
)

func stubPassword(t *testing.T, pw string, err error) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(pw), nil
	}
}

func writeBackup(t *testing.T, dir, password string) string {
	t.Helper()
	p, err := cryptox.NewKeyParams("user@example.com")
	require.NoError(t, err)
	p.Iterations, p.MemoryKiB = 1, 64

	file, err := cryptox.EncryptBackup(context.Background(), []byte(password), p, []e2ee.Item{
		{UUID: "abcd-1", ContentType: "Note", Content: json.RawMessage(`{"title":"Hi","text":"there"}`)},
	})
	require.NoError(t, err)
	b, err := json.Marshal(file)
	require.NoError(t, err)

	path := filepath.Join(dir, "backup.txt")
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestGetPassword(t *testing.T) {
	stubPassword(t, "secret", nil)
	var out bytes.Buffer

	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), pw)
	assert.Equal(t, "Backup file password: \n", out.String())
}

func TestRun_WritesArtifact(t *testing.T) {
	dir := t.TempDir()
	stubPassword(t, "pw", nil)
	var out bytes.Buffer
	app := NewApp(decrypt.NewService(decrypt.Config{}, nil), filepath.Join(dir, "out"), &out, nil)

	target, err := app.Run(context.Background(), writeBackup(t, dir, "pw"), decrypt.ModeImportFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "decrypted-sn-data.txt"), target)
	assert.Contains(t, out.String(), "Saved "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var backup e2ee.BackupFile
	require.NoError(t, json.Unmarshal(data, &backup))
	require.Len(t, backup.Items, 1)
	assert.Equal(t, "abcd-1", backup.Items[0].UUID)
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	backup := writeBackup(t, dir, "pw")
	svc := decrypt.NewService(decrypt.Config{}, nil)

	t.Run("no file", func(t *testing.T) {
		var out bytes.Buffer
		_, err := NewApp(svc, dir, &out, nil).Run(context.Background(), "", decrypt.ModeImportFile)
		require.ErrorIs(t, err, decrypt.ErrNoFileSelected)
		assert.Contains(t, out.String(), decrypt.MsgNoFileSelected)
	})

	t.Run("missing file", func(t *testing.T) {
		var out bytes.Buffer
		_, err := NewApp(svc, dir, &out, nil).Run(context.Background(), filepath.Join(dir, "nope"), decrypt.ModeImportFile)
		require.ErrorIs(t, err, decrypt.ErrUnreadableFile)
		assert.Contains(t, out.String(), decrypt.MsgGeneric)
	})

	t.Run("wrong password", func(t *testing.T) {
		stubPassword(t, "wrong", nil)
		var out bytes.Buffer
		_, err := NewApp(svc, dir, &out, nil).Run(context.Background(), backup, decrypt.ModePlaintextZip)
		require.ErrorIs(t, err, decrypt.ErrNoItemDecrypted)
		assert.Contains(t, out.String(), decrypt.MsgGeneric)
		_, statErr := os.Stat(filepath.Join(dir, "decrypted-sn-data.zip"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("terminal error", func(t *testing.T) {
		boom := errors.New("no tty")
		stubPassword(t, "", boom)
		var out bytes.Buffer
		_, err := NewApp(svc, dir, &out, nil).Run(context.Background(), backup, decrypt.ModeImportFile)
		require.ErrorIs(t, err, boom)
	})
}

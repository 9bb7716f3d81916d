package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/backupdecrypt/internal/config"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.ListenAddr = "127.0.0.1:0"
	return c
}

func TestNewService_UnknownStorage(t *testing.T) {
	c := testConfig()
	c.StorageKind = storage.Kind("redis")

	_, err := NewService(c, e2ee.EnvironmentCLI, nil)
	require.ErrorIs(t, err, storage.ErrUnknownKind)

	_, err = NewApp(c)
	require.ErrorIs(t, err, storage.ErrUnknownKind)
}

func TestNewLogger_Format(t *testing.T) {
	c := testConfig()
	c.LogFormat = "text"
	var buf bytes.Buffer

	NewLogger(c, &buf).Info(context.Background(), "hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, err := NewApp(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

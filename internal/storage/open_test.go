package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpener_UnknownKind(t *testing.T) {
	_, err := NewOpener("redis", t.TempDir())
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewOpener_MemoryIsFreshPerCall(t *testing.T) {
	open, err := NewOpener(KindMemory, "")
	require.NoError(t, err)
	ctx := context.Background()

	a, err := open(ctx)
	require.NoError(t, err)
	require.NoError(t, a.SetRaw(ctx, "k", "v"))

	b, err := open(ctx)
	require.NoError(t, err)
	_, ok, err := b.GetRaw(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewOpener_FileBackendsLeaveNothingBehind(t *testing.T) {
	for _, kind := range []Kind{KindSQLite, KindBolt} {
		t.Run(string(kind), func(t *testing.T) {
			scratch := t.TempDir()
			open, err := NewOpener(kind, scratch)
			require.NoError(t, err)
			ctx := context.Background()

			s, err := open(ctx)
			require.NoError(t, err)
			require.NoError(t, s.SavePayload(ctx, note("u1", "secret"), "app"))

			entries, err := os.ReadDir(scratch)
			require.NoError(t, err)
			require.Len(t, entries, 1)

			require.NoError(t, s.Close())

			entries, err = os.ReadDir(scratch)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

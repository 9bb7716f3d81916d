package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/backupdecrypt/internal/common"
	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
)

func TestDevice_DelegatesStorage(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	d := New(mem)

	require.NoError(t, d.SetRaw(ctx, "k", "v"))
	v, ok, err := mem.GetRaw(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestDevice_OpenURLIsUnsupported(t *testing.T) {
	d := New(storage.NewMemory())
	err := d.OpenURL(context.Background(), "https://example.com")
	require.ErrorIs(t, err, common.ErrNotSupported)
}

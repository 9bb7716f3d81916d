// Package device adapts a storage.Store to the runtime's Device capability.
package device

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/backupdecrypt/internal/common"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
)

// Device is the host device for one runtime instance.
type Device struct {
	storage.Store
}

var _ e2ee.Device = (*Device)(nil)

func New(s storage.Store) *Device {
	return &Device{Store: s}
}

// OpenURL is never needed for a one-shot import and always fails.
func (d *Device) OpenURL(ctx context.Context, url string) error {
	return fmt.Errorf("open url %q: %w", url, common.ErrNotSupported)
}

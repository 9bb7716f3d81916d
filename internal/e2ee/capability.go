package e2ee

import (
	"context"

	"github.com/dmitrijs2005/backupdecrypt/internal/storage"
)

// Device is the host storage capability plus the few platform hooks the
// runtime may call.
type Device interface {
	storage.Store
	OpenURL(ctx context.Context, url string) error
}

// DialogOption customises the text of a confirm or alert dialog.
type DialogOption func(*Dialog)

// Dialog holds the optional texts of a dialog.
type Dialog struct {
	Title             string
	ConfirmButtonText string
	CancelButtonText  string
	Destructive       bool
}

func WithTitle(title string) DialogOption {
	return func(d *Dialog) { d.Title = title }
}

func WithButtons(confirm, cancel string) DialogOption {
	return func(d *Dialog) {
		d.ConfirmButtonText = confirm
		d.CancelButtonText = cancel
	}
}

func Destructive() DialogOption {
	return func(d *Dialog) { d.Destructive = true }
}

// ApplyDialogOptions folds opts into a Dialog.
func ApplyDialogOptions(opts ...DialogOption) Dialog {
	var d Dialog
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Alerts is the user interaction capability.
type Alerts interface {
	Confirm(ctx context.Context, message string, opts ...DialogOption) (bool, error)
	Alert(ctx context.Context, message string, opts ...DialogOption) error
	BlockingDialog(ctx context.Context, message string) (dismiss func(), err error)
}

// Crypto is the cryptographic backend.
type Crypto interface {
	DeriveRootKey(ctx context.Context, password []byte, params KeyParams) (RootKey, error)
	DecryptItem(ctx context.Context, key RootKey, item Item) (Item, error)
}

// Package alerts implements the runtime's interaction capability for hosts
// without dialogs: every prompt is logged and resolved immediately.
package alerts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/backupdecrypt/internal/common"
	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
	"github.com/dmitrijs2005/backupdecrypt/internal/logging"
)

// LogAlerts logs dialog messages instead of showing them.
type LogAlerts struct {
	logger logging.Logger
}

var _ e2ee.Alerts = (*LogAlerts)(nil)

func NewLogAlerts(l logging.Logger) *LogAlerts {
	if l == nil {
		l = logging.Discard()
	}
	return &LogAlerts{logger: l.With("module", "alerts")}
}

// Confirm logs message and answers false. Callers must not rely on the answer.
func (a *LogAlerts) Confirm(ctx context.Context, message string, opts ...e2ee.DialogOption) (bool, error) {
	d := e2ee.ApplyDialogOptions(opts...)
	a.logger.Info(ctx, message, "dialog", "confirm", "title", d.Title)
	return false, nil
}

func (a *LogAlerts) Alert(ctx context.Context, message string, opts ...e2ee.DialogOption) error {
	d := e2ee.ApplyDialogOptions(opts...)
	a.logger.Info(ctx, message, "dialog", "alert", "title", d.Title)
	return nil
}

// BlockingDialog is not supported: a one-shot import never blocks on the user.
func (a *LogAlerts) BlockingDialog(ctx context.Context, message string) (func(), error) {
	return nil, fmt.Errorf("blocking dialog %q: %w", message, common.ErrNotSupported)
}

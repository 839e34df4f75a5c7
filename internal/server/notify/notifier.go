// Package notify delivers one-time codes to account holders. Delivery is
// best effort: Send reports the outcome and never fails the caller.
package notify

import (
	"context"

	"github.com/dmitrijs2005/accounts/internal/logging"
)

const (
	KindEmailVerification = "email_verification"
	KindPasswordReset     = "password_reset"
)

type Notifier interface {
	Send(ctx context.Context, address, kind string, payload map[string]string) bool
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, address, kind string, payload map[string]string) bool

func (f NotifierFunc) Send(ctx context.Context, address, kind string, payload map[string]string) bool {
	return f(ctx, address, kind, payload)
}

// LogNotifier writes a delivery record to the log instead of sending mail.
// Payload values are only logged at debug level.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, address, kind string, payload map[string]string) bool {
	n.log.Info(ctx, "notification recorded", "kind", kind, "to", address)
	n.log.Debug(ctx, "notification payload", "kind", kind, "to", address, "payload", payload)
	return true
}

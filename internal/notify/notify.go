package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrUnconfigured is returned by the Unconfigured sender.
var ErrUnconfigured = errors.New("notifier unconfigured")

// Sender delivers one text message to the process's single recipient.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Unconfigured stands in for a transport whose credential or recipient is missing.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) Send(context.Context, string) error { return ErrUnconfigured }

// Result is the fate of one notification attempt.
type Result int

const (
	Delivered Result = iota
	Skipped
	Failed
)

func (r Result) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Notifier wraps a Sender with logging and never returns an error:
// an alert that cannot be delivered must not fail the check that raised it.
type Notifier struct {
	sender Sender
	log    *zap.Logger
}

// New wraps sender; a nil sender behaves as Unconfigured.
func New(sender Sender, log *zap.Logger) *Notifier {
	if sender == nil {
		sender = Unconfigured{Reason: "no sender"}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{sender: sender, log: log}
}

// Notify sends message once and logs the outcome.
func (n *Notifier) Notify(ctx context.Context, message string) Result {
	err := n.sender.Send(ctx, message)
	switch {
	case err == nil:
		n.log.Debug("notify_delivered")
		return Delivered
	case errors.Is(err, ErrUnconfigured):
		reason := ""
		if u, ok := n.sender.(Unconfigured); ok {
			reason = u.Reason
		}
		n.log.Info("notify_skipped", zap.String("reason", reason))
		return Skipped
	default:
		n.log.Warn("notify_failed", zap.Error(err))
		return Failed
	}
}

// Configured reports whether alerts have somewhere to go.
func (n *Notifier) Configured() bool {
	_, unconfigured := n.sender.(Unconfigured)
	return !unconfigured
}

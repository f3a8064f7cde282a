package audit

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier receives advisory elevated-risk signals for out-of-band handling.
// Notification is never blocking for the authentication path; failures are
// the notifier's problem to surface.
type Notifier interface {
	Notify(ctx context.Context, subject, detail string) error
}

// LogNotifier writes notifications to the operational log. The default when
// no operator channel is wired.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, subject, detail string) error {
	n.log.Warn().Str("subject", subject).Str("detail", detail).Msg("security notification")
	return nil
}

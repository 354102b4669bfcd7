package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/models"
)

// Notifier delivers a persisted notification over a side channel (email,
// webhook, chat). Delivery failures never fail the publishing caller.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

func notifierChannelName(n Notifier) string {
	switch n.(type) {
	case *EmailNotifier:
		return "email"
	default:
		return "unknown"
	}
}

func logNotifyError(logger zerolog.Logger, err error, channel string, notif models.Notification) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("notification_id", notif.ID).
		Str("event_type", string(notif.EventType)).
		Str("channel", channel).
		Msg("Failed to deliver notification")
}

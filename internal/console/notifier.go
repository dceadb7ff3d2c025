package console

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/access-audit-reports/internal/core/events"
)

const notificationLimit = 20

// Notifier is the fire-and-forget sink for user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, title, message string, severity events.Severity)
}

// busNotifier publishes notifications of one session on the event bus.
type busNotifier struct {
	bus       *events.EventBus
	sessionID string
	logger    *slog.Logger
}

func (n busNotifier) Notify(ctx context.Context, title, message string, severity events.Severity) {
	event := events.NewNotificationEvent(n.sessionID, title, message, severity)
	if err := n.bus.Publish(context.WithoutCancel(ctx), event); err != nil {
		n.logger.Warn("failed to publish notification", "session_id", n.sessionID, "error", err)
	}
}

// Notification is what a polling UI receives.
type Notification struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Severity events.Severity `json:"severity"`
}

// notificationLog keeps the most recent notifications of a session.
type notificationLog struct {
	mu    sync.Mutex
	items []Notification
}

func (l *notificationLog) add(n Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, n)
	if over := len(l.items) - notificationLimit; over > 0 {
		l.items = append([]Notification(nil), l.items[over:]...)
	}
}

func (l *notificationLog) list() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notification(nil), l.items...)
}

// LogNotifications writes every notification to the log.
func LogNotifications(logger *slog.Logger) events.Handler {
	return func(_ context.Context, e events.Event) error {
		n, ok := e.(*events.NotificationEvent)
		if !ok {
			return nil
		}
		level := slog.LevelInfo
		switch n.Severity {
		case events.SeverityWarning:
			level = slog.LevelWarn
		case events.SeverityError:
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, "notification",
			"session_id", n.SessionID,
			"title", n.Title,
			"message", n.Message)
		return nil
	}
}

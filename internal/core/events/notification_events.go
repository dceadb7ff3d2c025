package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeNotification = "report.notification"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// NotificationEvent is a transient user-facing message, optionally bound to
// one console session.
type NotificationEvent struct {
	BaseEvent
	SessionID string   `json:"session_id,omitempty"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
}

func NewNotificationEvent(sessionID, title, message string, severity Severity) *NotificationEvent {
	return &NotificationEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeNotification,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"session_id": sessionID,
				"title":      title,
				"message":    message,
				"severity":   string(severity),
			},
		},
		SessionID: sessionID,
		Title:     title,
		Message:   message,
		Severity:  severity,
	}
}

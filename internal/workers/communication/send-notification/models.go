package sendnotification

import (
	"tradehub/internal/models"
	"tradehub/internal/notify"
)

// Input mirrors the REST-side notification request so processes and handlers
// share one payload shape.
type Input = notify.Request

type Output struct {
	NotificationID string                `json:"notificationId"`
	Status         string                `json:"status"` // "sent", "failed", "disabled"
	SentAt         string                `json:"sentAt"` // ISO 8601
	Channels       []models.Notification `json:"channels"`
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

package models

import "time"

// NotificationAudience selects who a notification reaches.
type NotificationAudience string

const (
	AudienceStudent   NotificationAudience = "STUDENT"
	AudienceClass     NotificationAudience = "CLASS"
	AudienceBroadcast NotificationAudience = "BROADCAST"
)

// Notification is a persisted message for portal display. Dispatch is
// fire-and-forget; no delivery guarantee is made.
type Notification struct {
	ID          string               `db:"id" json:"id"`
	Audience    NotificationAudience `db:"audience" json:"audience"`
	RecipientID *string              `db:"recipient_id" json:"recipient_id,omitempty"`
	ClassID     *string              `db:"class_id" json:"class_id,omitempty"`
	Title       string               `db:"title" json:"title"`
	Message     string               `db:"message" json:"message"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	ReadAt      *time.Time           `db:"read_at" json:"read_at,omitempty"`
}

// NotificationFilter provides filters for listing notifications.
type NotificationFilter struct {
	RecipientID string
	ClassID     string
	Unread      bool
	Page        int
	PageSize    int
}

package model

import "time"

// Notification categories used by the reminder sweep.
const (
	CategoryOverdue  = "OVERDUE"
	CategoryUpcoming = "UPCOMING"
)

// Notification is a reminder addressed to one user about one task.
// At most one exists per (task, user, category).
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// TaskID links this notification to the task it is about.
	TaskID string `json:"task_id" db:"task_id"`

	// UserID is the recipient.
	UserID string `json:"user_id" db:"user_id"`

	// Category is the dedup tag, e.g. CategoryOverdue.
	Category string `json:"category" db:"category"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// CreatedAt is when this notification was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Delivered is set once an email was sent successfully.
	Delivered bool `json:"delivered" db:"delivered"`

	// DeliveredAt is set together with Delivered.
	DeliveredAt *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
}

package models

import "time"

// Notification is a per-user fan-out record derived from announcements,
// document uploads and review status changes.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	RelatedID *string   `db:"related_id" json:"related_id,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Notification type markers.
const (
	NotificationTypeAnnouncement   = "announcement"
	NotificationTypeDocumentUpload = "document_upload"
	NotificationTypeStatusChange   = "status_change"
)

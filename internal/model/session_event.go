package model

import "time"

// Session event types published to the persist queue.
const (
	EventUserJoined   = "user_joined"
	EventPDFUploaded  = "pdf_uploaded"
	EventPDFAllocated = "pdf_allocated"
	EventMessageSent  = "message_sent"
)

// SessionEvent is an audit-trail entry for session activity. Events are
// published to RabbitMQ by the services and persisted asynchronously by
// the event worker.
type SessionEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	EventType string    `gorm:"size:32;not null;index" json:"event_type"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

package model

import "time"

// ChatMessage is an append-only message in a session, optionally tied to
// the PDF under discussion.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	PDFID     *uint     `gorm:"index" json:"pdf_id,omitempty"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

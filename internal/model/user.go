package model

import "time"

// User is an anonymous participant in a single session, identified only by
// an opaque bearer token. AssignedPDFID is set once by the allocation engine
// and never reassigned.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     uint      `gorm:"not null;index" json:"session_id"`
	UserToken     string    `gorm:"size:512;not null;uniqueIndex" json:"-"`
	AssignedPDFID *uint     `gorm:"index" json:"assigned_pdf_id,omitempty"`
	JoinedAt      time.Time `gorm:"autoCreateTime" json:"joined_at"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
}

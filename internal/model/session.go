package model

import "time"

// Session groups anonymous users and their uploaded PDFs behind a
// human-shareable code.
type Session struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SessionCode string     `gorm:"size:20;not null;uniqueIndex" json:"session_code"`
	CreatedAt   time.Time  `json:"created_at"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Live reports whether the session still accepts joins, uploads and messages.
func (s *Session) Live(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		return false
	}
	return true
}

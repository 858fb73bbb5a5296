package model

import "time"

// PDF is an uploaded document owned by a session. UploadedByUserID is
// nullable: the uploader row may be deleted while the document survives.
// A PDF stays in the allocation pool after being assigned; many users may
// review the same document.
type PDF struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SessionID        uint      `gorm:"not null;index" json:"session_id"`
	Filename         string    `gorm:"size:255;not null" json:"filename"`
	FilePath         string    `gorm:"size:500;not null" json:"-"`
	UploadedByUserID *uint     `gorm:"index" json:"uploaded_by_user_id,omitempty"`
	UploadedAt       time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
	IsAvailable      bool      `gorm:"not null;default:true" json:"is_available"`
	PageCount        int       `json:"page_count"`
}

func (PDF) TableName() string {
	return "pdfs"
}

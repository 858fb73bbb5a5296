package repository

import (
	"fmt"

	"gorm.io/gorm"

	"pdfexchange/internal/model"
)

type SessionEventRepository struct {
	db *gorm.DB
}

func NewSessionEventRepository(db *gorm.DB) *SessionEventRepository {
	return &SessionEventRepository{db: db}
}

func (r *SessionEventRepository) Create(event *model.SessionEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("create session event failed: %w", err)
	}
	return nil
}

func (r *SessionEventRepository) ListBySessionID(sessionID uint, limit int) ([]model.SessionEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var events []model.SessionEvent
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list session events failed: %w", err)
	}
	return events, nil
}

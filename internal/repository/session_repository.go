package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pdfexchange/internal/model"
)

// ErrDuplicateCode reports that the session code was taken by a concurrent
// creator between the existence check and the insert. The unique index on
// session_code is the authoritative guard; callers redraw on this error.
var ErrDuplicateCode = errors.New("session code already exists")

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByCode(code string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("session_code = ?", code).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session by code failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) CodeExists(code string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Session{}).Where("session_code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check session code failed: %w", err)
	}
	return count > 0, nil
}

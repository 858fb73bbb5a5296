package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pdfexchange/internal/model"
)

type PDFRepository struct {
	db *gorm.DB
}

func NewPDFRepository(db *gorm.DB) *PDFRepository {
	return &PDFRepository{db: db}
}

func (r *PDFRepository) Create(pdf *model.PDF) error {
	if err := r.db.Create(pdf).Error; err != nil {
		return fmt.Errorf("create pdf failed: %w", err)
	}
	return nil
}

func (r *PDFRepository) GetByID(id uint) (*model.PDF, error) {
	var pdf model.PDF
	if err := r.db.First(&pdf, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query pdf by id failed: %w", err)
	}
	return &pdf, nil
}

func (r *PDFRepository) ListBySessionID(sessionID uint) ([]model.PDF, error) {
	var pdfs []model.PDF
	if err := r.db.Where("session_id = ?", sessionID).Order("uploaded_at ASC").Find(&pdfs).Error; err != nil {
		return nil, fmt.Errorf("list pdfs failed: %w", err)
	}
	return pdfs, nil
}

func (r *PDFRepository) CountBySessionID(sessionID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.PDF{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count pdfs failed: %w", err)
	}
	return count, nil
}

// ExistsBySessionAndUploader backs the one-PDF-per-user precondition.
func (r *PDFRepository) ExistsBySessionAndUploader(sessionID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&model.PDF{}).
		Where("session_id = ? AND uploaded_by_user_id = ?", sessionID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check uploader pdf failed: %w", err)
	}
	return count > 0, nil
}

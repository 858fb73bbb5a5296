package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pdfexchange/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByToken(token string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("user_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by token failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) CountActiveBySessionID(sessionID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.User{}).
		Where("session_id = ? AND is_active = ?", sessionID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count active users failed: %w", err)
	}
	return count, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"quotation_system/internal/domain"
	"quotation_system/internal/utils"
)

// UserStore manages accounts.
type UserStore struct {
	db  *gorm.DB
	rdb redis.Cmdable
}

// NewUserStore returns a UserStore. rdb may be nil.
func NewUserStore(db *gorm.DB, rdb redis.Cmdable) *UserStore {
	return &UserStore{db: db, rdb: rdb}
}

// EmailTaken reports whether an account already uses email.
func (s *UserStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", strings.TrimSpace(email)).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("store: check email: %w", err)
	}
	return n > 0, nil
}

// Create registers a user, storing a bcrypt hash of password.
func (s *UserStore) Create(ctx context.Context, username, email, phone, password string) (domain.User, error) {
	email = strings.TrimSpace(email)
	taken, err := s.EmailTaken(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if taken {
		return domain.User{}, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("store: hash password: %w", err)
	}
	user := domain.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PhoneNumber:  strings.TrimSpace(phone),
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.User{}, ErrDuplicate
		}
		return domain.User{}, fmt.Errorf("store: create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the user whose email and password match.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("store: find user: %w", err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// FindByID loads a user.
func (s *UserStore) FindByID(ctx context.Context, id uint) (domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("store: find user %d: %w", id, err)
	}
	return user, nil
}

// Delete removes a user and its catalog in one transaction.
func (s *UserStore) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.Product{}).Error; err != nil {
			return fmt.Errorf("store: delete products: %w", err)
		}
		res := tx.Delete(&domain.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("store: delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := utils.DeleteCache(ctx, s.rdb, catalogKey(id)); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": id, "error": err}).Warn("Failed to drop catalog cache")
	}
	return nil
}

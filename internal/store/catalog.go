package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"quotation_system/internal/domain"
	"quotation_system/internal/utils"
)

// CatalogTTL is how long a user's product list stays cached.
const CatalogTTL = 60 * time.Second

// CatalogStore manages each user's products. Lists are cached in Redis and
// dropped on every change.
type CatalogStore struct {
	db  *gorm.DB
	rdb redis.Cmdable
}

// NewCatalogStore returns a CatalogStore. rdb may be nil to disable caching.
func NewCatalogStore(db *gorm.DB, rdb redis.Cmdable) *CatalogStore {
	return &CatalogStore{db: db, rdb: rdb}
}

// List returns the user's products in insertion order.
func (s *CatalogStore) List(ctx context.Context, userID uint) ([]domain.Product, error) {
	key := catalogKey(userID)
	var products []domain.Product
	hit, err := utils.GetCache(ctx, s.rdb, key, &products)
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Catalog cache read failed")
	}
	if hit && err == nil {
		return products, nil
	}

	products = nil
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("store: list products: %w", err)
	}
	if err := utils.SetCache(ctx, s.rdb, key, products, CatalogTTL); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Catalog cache write failed")
	}
	return products, nil
}

// Add inserts a product owned by userID.
func (s *CatalogStore) Add(ctx context.Context, userID uint, p domain.Product) (domain.Product, error) {
	p.ID = 0
	p.UserID = userID
	p.Name = strings.TrimSpace(p.Name)
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return domain.Product{}, fmt.Errorf("store: add product: %w", err)
	}
	s.invalidate(ctx, userID)
	return p, nil
}

// findByName returns the first of the user's products called name.
func (s *CatalogStore) findByName(tx *gorm.DB, userID uint, name string) (domain.Product, error) {
	var p domain.Product
	err := tx.Where("user_id = ? AND name = ?", userID, name).Order("id").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("store: find product %q: %w", name, err)
	}
	return p, nil
}

// Update replaces the fields of the user's product currently named oldName.
func (s *CatalogStore) Update(ctx context.Context, userID uint, oldName string, p domain.Product) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.findByName(tx, userID, oldName)
		if err != nil {
			return err
		}
		changes := domain.Product{
			Name:        strings.TrimSpace(p.Name),
			Description: p.Description,
			Price:       p.Price,
			UnitType:    p.UnitType,
		}
		return tx.Model(&current).
			Select("Name", "Description", "Price", "UnitType").
			Updates(changes).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Delete removes the user's first product called name.
func (s *CatalogStore) Delete(ctx context.Context, userID uint, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.findByName(tx, userID, name)
		if err != nil {
			return err
		}
		return tx.Delete(&current).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *CatalogStore) invalidate(ctx context.Context, userID uint) {
	if err := utils.DeleteCache(ctx, s.rdb, catalogKey(userID)); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Failed to drop catalog cache")
	}
}

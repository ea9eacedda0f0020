package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuotationRecord is the table row behind GormStore.
type QuotationRecord struct {
	ID             string                       `gorm:"primaryKey;size:36"` // uuid
	UserID         uint                         `gorm:"index;not null"`     // owner
	QuotationNo    string                       `gorm:"size:100"`           // as printed
	CustomerName   string                       `gorm:"size:200"`           // bill-to name
	Date           string                       `gorm:"size:10"`            // dd-mm-yyyy
	File           string                       `gorm:"size:255;index"`     // generated document name
	Total          float64                      `gorm:"not null"`           // final rounded total
	LastDownloaded string                       `gorm:"size:16"`            // dd-mm-yyyy HH:MM
	Data           datatypes.JSONType[Snapshot] `gorm:"type:json"`          // form inputs
	CreatedAt      time.Time                    `gorm:"index"`              // ordering key
}

func (r QuotationRecord) record() Record {
	return Record{
		ID:             r.ID,
		QuotationNo:    r.QuotationNo,
		CustomerName:   r.CustomerName,
		Date:           r.Date,
		File:           r.File,
		Total:          r.Total,
		UserID:         r.UserID,
		CreatedAt:      r.CreatedAt,
		LastDownloaded: r.LastDownloaded,
		Data:           r.Data.Data(),
	}
}

// GormStore keeps the history in the quotation_records table.
type GormStore struct {
	db     *gorm.DB
	docDir string
	now    func() time.Time
}

// NewGormStore returns a Store on db. The table must already be migrated.
func NewGormStore(db *gorm.DB, docDir string) *GormStore {
	return &GormStore{db: db, docDir: docDir, now: time.Now}
}

func (s *GormStore) userView(ctx context.Context, userID uint) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
}

func (s *GormStore) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	row := QuotationRecord{
		ID:             rec.ID,
		UserID:         rec.UserID,
		QuotationNo:    rec.QuotationNo,
		CustomerName:   rec.CustomerName,
		Date:           rec.Date,
		File:           rec.File,
		Total:          rec.Total,
		LastDownloaded: rec.LastDownloaded,
		Data:           datatypes.NewJSONType(rec.Data),
		CreatedAt:      rec.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Record{}, fmt.Errorf("history: insert: %w", err)
	}
	return rec, nil
}

func (s *GormStore) ListForUser(ctx context.Context, userID uint) ([]Record, error) {
	var rows []QuotationRecord
	if err := s.userView(ctx, userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

func (s *GormStore) at(ctx context.Context, userID uint, index int) (QuotationRecord, error) {
	var row QuotationRecord
	if index < 0 {
		return row, ErrNotFound
	}
	err := s.userView(ctx, userID).Offset(index).Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, ErrNotFound
	}
	if err != nil {
		return row, fmt.Errorf("history: lookup: %w", err)
	}
	return row, nil
}

func (s *GormStore) At(ctx context.Context, userID uint, index int) (Record, error) {
	row, err := s.at(ctx, userID, index)
	if err != nil {
		return Record{}, err
	}
	return row.record(), nil
}

func (s *GormStore) DeleteAt(ctx context.Context, userID uint, index int) (Record, error) {
	var deleted QuotationRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := &GormStore{db: tx, docDir: s.docDir, now: s.now}
		row, err := inner.at(ctx, userID, index)
		if err != nil {
			return err
		}
		if err := tx.Delete(&QuotationRecord{}, "id = ?", row.ID).Error; err != nil {
			return fmt.Errorf("history: delete: %w", err)
		}
		deleted = row
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	removeDocument(s.docDir, deleted.File)
	return deleted.record(), nil
}

func (s *GormStore) MarkDownloaded(ctx context.Context, file string, at time.Time) error {
	var row QuotationRecord
	err := s.db.WithContext(ctx).Where("file = ?", file).Order("created_at DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("history: lookup %s: %w", file, err)
	}
	err = s.db.WithContext(ctx).Model(&QuotationRecord{}).
		Where("id = ?", row.ID).
		Update("last_downloaded", at.Format(DownloadLayout)).Error
	if err != nil {
		return fmt.Errorf("history: stamp %s: %w", file, err)
	}
	return nil
}

func (s *GormStore) FindByFile(ctx context.Context, userID uint, file string) (Record, error) {
	var row QuotationRecord
	err := s.db.WithContext(ctx).Where("user_id = ? AND file = ?", userID, file).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("history: lookup %s: %w", file, err)
	}
	return row.record(), nil
}

func (s *GormStore) Files(ctx context.Context) (map[string]struct{}, error) {
	var files []string
	if err := s.db.WithContext(ctx).Model(&QuotationRecord{}).Pluck("file", &files).Error; err != nil {
		return nil, fmt.Errorf("history: list files: %w", err)
	}
	out := make(map[string]struct{}, len(files))
	for _, f := range files {
		out[f] = struct{}{}
	}
	return out, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/crush-connector/internal/db"
)

// ErrDuplicateCheckpoint is returned when a checkpoint date already exists.
var ErrDuplicateCheckpoint = errors.New("refresh checkpoint already exists for that date")

// CheckpointRepository stores the append-only refresh checkpoint sequence.
type CheckpointRepository struct {
	db *gorm.DB
}

// NewCheckpointRepository creates a new repository bound to the given DB
// connection or transaction.
func NewCheckpointRepository(database *gorm.DB) *CheckpointRepository {
	return &CheckpointRepository{db: database}
}

// Add appends a checkpoint. date must already be a UTC midnight.
// Duplicate dates are rejected.
func (r *CheckpointRepository) Add(ctx context.Context, date time.Time) (*db.RefreshCheckpoint, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&db.RefreshCheckpoint{}).
		Where("date = ?", date).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateCheckpoint
	}

	cp := db.RefreshCheckpoint{Date: date}
	if err := r.db.WithContext(ctx).Create(&cp).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCheckpoint
		}
		return nil, err
	}
	return &cp, nil
}

// List returns every checkpoint ordered by date, then id.
func (r *CheckpointRepository) List(ctx context.Context) ([]db.RefreshCheckpoint, error) {
	var cps []db.RefreshCheckpoint
	err := r.db.WithContext(ctx).Order("date ASC, id ASC").Find(&cps).Error
	return cps, err
}

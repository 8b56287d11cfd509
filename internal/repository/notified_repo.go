package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/crush-connector/internal/db"
)

// NotifiedRepository guards the once-ever "someone likes you" notice.
type NotifiedRepository struct {
	db *gorm.DB
}

// NewNotifiedRepository creates a new repository bound to the given DB
// connection or transaction.
func NewNotifiedRepository(database *gorm.DB) *NotifiedRepository {
	return &NotifiedRepository{db: database}
}

// Find returns the record for personID, or nil when the person was never
// notified.
func (r *NotifiedRepository) Find(ctx context.Context, personID uint64) (*db.NotifiedRecord, error) {
	var rec db.NotifiedRecord
	err := r.db.WithContext(ctx).Where("person_id = ?", personID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Claim atomically creates the record for personID if absent.
// It returns true only for the caller that inserted the row; the unique
// index on person_id makes every other caller a no-op.
func (r *NotifiedRepository) Claim(ctx context.Context, personID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "person_id"}}, DoNothing: true}).
		Create(&db.NotifiedRecord{PersonID: personID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

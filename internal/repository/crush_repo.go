package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/crush-connector/internal/db"
)

// CrushRepository is the crush ledger: opaque tokens plus their audit
// relations and mutual match markers.
type CrushRepository struct {
	db *gorm.DB
}

// NewCrushRepository creates a new repository bound to the given DB connection
// or transaction.
func NewCrushRepository(database *gorm.DB) *CrushRepository {
	return &CrushRepository{db: database}
}

// Record appends a new active token. There is no uniqueness constraint:
// repeated crushes on the same target each get their own token.
func (r *CrushRepository) Record(ctx context.Context, askerID uint64, digest string, ts time.Time) (*db.CrushToken, error) {
	token := db.CrushToken{
		AskerID:   askerID,
		Digest:    digest,
		Active:    true,
		Timestamp: ts,
	}
	if err := r.db.WithContext(ctx).Create(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RecordRelation stores the readable asker → target companion row.
func (r *CrushRepository) RecordRelation(ctx context.Context, askerID, targetID uint64, ts time.Time) error {
	return r.db.WithContext(ctx).Create(&db.CrushRelation{
		AskerID:   askerID,
		TargetID:  targetID,
		Timestamp: ts,
	}).Error
}

// RecordMutual marks a token as having completed a match.
func (r *CrushRepository) RecordMutual(ctx context.Context, tokenID uint64) error {
	return r.db.WithContext(ctx).Create(&db.MutualMatch{CrushTokenID: tokenID}).Error
}

// DeactivateAll marks every token of the asker inactive. Idempotent.
// Returns the number of tokens that changed state.
func (r *CrushRepository) DeactivateAll(ctx context.Context, askerID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.CrushToken{}).
		Where("asker_id = ? AND active = ?", askerID, true).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// ActiveTokensFor lists the asker's tokens still eligible for matching.
func (r *CrushRepository) ActiveTokensFor(ctx context.Context, askerID uint64) ([]db.CrushToken, error) {
	var tokens []db.CrushToken
	err := r.db.WithContext(ctx).
		Where("asker_id = ? AND active = ?", askerID, true).
		Order("id ASC").
		Find(&tokens).Error
	return tokens, err
}

// LatestFor returns the asker's most recent token, active or not.
// The bool result is false when the asker never submitted.
func (r *CrushRepository) LatestFor(ctx context.Context, askerID uint64) (*db.CrushToken, bool, error) {
	var token db.CrushToken
	err := r.db.WithContext(ctx).
		Where("asker_id = ?", askerID).
		Order("id DESC").
		Take(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &token, true, nil
}

// HasActiveDigest checks whether any active token carries digest.
//
// Example:
//
//	repo.HasActiveDigest(ctx, digester.Digest(target, asker).String())
func (r *CrushRepository) HasActiveDigest(ctx context.Context, digest string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.CrushToken{}).
		Where("digest = ? AND active = ?", digest, true).
		Count(&count).Error
	return count > 0, err
}

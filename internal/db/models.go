package db

import (
	"strings"
	"time"
)

// PlaceholderName prefixes the name of auto-provisioned people until they
// register themselves.
const PlaceholderName = "__no_name__"

// Person is an identity record keyed by canonical email.
//
// NumAllowedCrushes < 0 means the configured default allowance applies.
// NumCrushesUsed counts submissions in the current epoch and is reset when
// a refresh checkpoint has been crossed.
type Person struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	Email             string    `gorm:"uniqueIndex;size:254;not null"`
	Name              string    `gorm:"size:255;not null"`
	NumAllowedCrushes int       `gorm:"not null"`
	NumCrushesUsed    int       `gorm:"not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (Person) TableName() string { return "people" }

// IsPlaceholder reports whether the person is an unregistered stub.
func (p *Person) IsPlaceholder() bool {
	return strings.HasPrefix(p.Name, PlaceholderName)
}

// Allowance resolves the per-epoch allowance for this person.
func (p *Person) Allowance(def int) int {
	if p.NumAllowedCrushes < 0 {
		return def
	}
	return p.NumAllowedCrushes
}

// CrushToken is one ledger entry: an opaque, direction sensitive digest of
// (asker, target). Only active tokens take part in match detection.
//
// Indexes:
//   - idx_digest_active(digest, active) serves the reciprocal lookup.
//   - idx_asker(asker_id) serves quota resets and latest-submission lookups.
type CrushToken struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AskerID   uint64    `gorm:"not null;index:idx_asker"`
	Digest    string    `gorm:"size:64;not null;index:idx_digest_active,priority:1"`
	Active    bool      `gorm:"not null;index:idx_digest_active,priority:2"`
	Timestamp time.Time `gorm:"not null"`
}

func (CrushToken) TableName() string { return "crush_tokens" }

// CrushRelation is the human readable audit trail of a submission.
// It is never consulted for matching.
type CrushRelation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AskerID   uint64    `gorm:"not null;index"`
	TargetID  uint64    `gorm:"not null;index"`
	Timestamp time.Time `gorm:"not null"`
}

func (CrushRelation) TableName() string { return "crush_relations" }

// NotifiedRecord marks a person who already received the anonymous
// "someone likes you" notice. At most one row per person.
type NotifiedRecord struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	PersonID  uint64    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (NotifiedRecord) TableName() string { return "notified_records" }

// RefreshCheckpoint is an epoch boundary. Date holds a calendar date at
// UTC midnight; dates are unique.
type RefreshCheckpoint struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Date      time.Time `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RefreshCheckpoint) TableName() string { return "refresh_checkpoints" }

// MutualMatch records a submitted token that completed a mutual crush.
type MutualMatch struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	CrushTokenID uint64    `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (MutualMatch) TableName() string { return "mutual_matches" }

// Models lists every table for migrations.
func Models() []any {
	return []any{
		&Person{},
		&CrushToken{},
		&CrushRelation{},
		&NotifiedRecord{},
		&RefreshCheckpoint{},
		&MutualMatch{},
	}
}

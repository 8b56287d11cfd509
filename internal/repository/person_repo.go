package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/crush-connector/internal/db"
	"github.com/oggyb/crush-connector/internal/utils/pagination"
)

// PersonRepository provides data access methods for the Person model.
type PersonRepository struct {
	db *gorm.DB
}

// NewPersonRepository creates a new repository bound to the given DB connection
// or transaction.
func NewPersonRepository(database *gorm.DB) *PersonRepository {
	return &PersonRepository{db: database}
}

// FindByEmail looks a person up by canonical email.
// The bool result is false when no such person exists.
func (r *PersonRepository) FindByEmail(ctx context.Context, email string) (*db.Person, bool, error) {
	var p db.Person
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

// LockByEmail loads a person with a row lock held until the surrounding
// transaction ends. SQLite ignores the locking clause; there the connection
// is opened with _txlock=immediate so the whole transaction holds the write
// lock.
func (r *PersonRepository) LockByEmail(ctx context.Context, email string) (*db.Person, bool, error) {
	var p db.Person
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ?", email).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

// FirstOrCreate returns the person for email, inserting defaults when absent.
// The bool result reports whether a row was created.
func (r *PersonRepository) FirstOrCreate(ctx context.Context, email string, defaults db.Person) (*db.Person, bool, error) {
	p := defaults
	p.Email = email
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&p)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &p, true, nil
	}

	existing, found, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, gorm.ErrRecordNotFound
	}
	return existing, false, nil
}

// UpdateName overwrites the display name.
func (r *PersonRepository) UpdateName(ctx context.Context, id uint64, name string) error {
	return r.db.WithContext(ctx).
		Model(&db.Person{}).
		Where("id = ?", id).
		Update("name", name).Error
}

// IncrementUsage adds n to the person's used counter, but only while the
// result stays within allowed. It reports false when the guard rejected the
// update, which is how concurrent over-submission is caught.
func (r *PersonRepository) IncrementUsage(ctx context.Context, id uint64, n, allowed int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Person{}).
		Where("id = ? AND num_crushes_used + ? <= ?", id, n, allowed).
		Update("num_crushes_used", gorm.Expr("num_crushes_used + ?", n))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ResetUsage zeroes the used counter at an epoch boundary.
func (r *PersonRepository) ResetUsage(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Person{}).
		Where("id = ?", id).
		Update("num_crushes_used", 0).Error
}

// Search returns people whose name or email contains term, ordered by id.
//
// Behavior:
//   - Empty term lists everyone.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.Search(ctx, "alice", nil, 20)
func (r *PersonRepository) Search(
	ctx context.Context,
	term string,
	paginationToken *string,
	limit int,
) ([]db.Person, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).Model(&db.Person{})
	if term != "" {
		like := "%" + likeEscaper.Replace(term) + "%"
		query = query.Where("name LIKE ? ESCAPE '!' OR email LIKE ? ESCAPE '!'", like, like)
	}
	if cursor.PersonID > 0 {
		query = query.Where("id > ?", cursor.PersonID)
	}

	var people []db.Person
	if err := query.Order("id ASC").Limit(limit + 1).Find(&people).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(people) > limit {
		token, _ := pagination.Encode(pagination.Cursor{PersonID: people[limit-1].ID})
		nextToken = &token
		people = people[:limit]
	}
	return people, nextToken, nil
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// All streams every person in batches to fn.
func (r *PersonRepository) All(ctx context.Context, fn func(p *db.Person) error) error {
	var batch []db.Person
	return r.db.WithContext(ctx).FindInBatches(&batch, 200, func(tx *gorm.DB, _ int) error {
		for i := range batch {
			if err := fn(&batch[i]); err != nil {
				return err
			}
		}
		return nil
	}).Error
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

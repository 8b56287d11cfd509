package crush

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/oggyb/crush-connector/internal/db"
	"github.com/oggyb/crush-connector/internal/repository"
)

// ErrInvalidName is returned when registration carries a blank name.
var ErrInvalidName = errors.New("name must not be empty")

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// Canonical returns the single identifier used for a person: the trimmed,
// lower-cased email.
func Canonical(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PlaceholderFor is the stub name given to a person named as a target
// before they registered.
func PlaceholderFor(email string) string {
	return db.PlaceholderName + "  " + email
}

// Directory is the email keyed person registry. It provisions stub people
// for targets that have not registered yet.
type Directory struct {
	db       *gorm.DB
	people   *repository.PersonRepository
	validate *validator.Validate
	domains  []string
}

// NewDirectory creates a directory. An empty domains list allows any
// syntactically valid email to be provisioned.
func NewDirectory(database *gorm.DB, domains []string) *Directory {
	return &Directory{
		db:       database,
		people:   repository.NewPersonRepository(database),
		validate: validator.New(),
		domains:  domains,
	}
}

// WithTx returns a copy of the directory bound to tx.
func (d *Directory) WithTx(tx *gorm.DB) *Directory {
	c := *d
	c.db = tx
	c.people = repository.NewPersonRepository(tx)
	return &c
}

// CanProvision reports why email cannot be auto-provisioned, or nil.
func (d *Directory) CanProvision(email string) error {
	if err := d.validate.Var(email, "required,email"); err != nil {
		return &InvalidTargetError{Email: email, Reason: "not a valid email address"}
	}
	if len(d.domains) == 0 {
		return nil
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	for _, allowed := range d.domains {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return nil
		}
	}
	return &InvalidTargetError{Email: email, Reason: "domain not accepted"}
}

// Check validates a canonical target email without mutating anything.
// Known people always pass; unknown ones must be provisionable.
func (d *Directory) Check(ctx context.Context, email string) error {
	_, found, err := d.people.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return d.CanProvision(email)
}

// Resolve returns the person for a canonical email, creating a stub with a
// placeholder name and zero usage when absent.
func (d *Directory) Resolve(ctx context.Context, email string) (*db.Person, bool, error) {
	return d.people.FirstOrCreate(ctx, email, db.Person{
		Name:              PlaceholderFor(email),
		NumAllowedCrushes: -1,
	})
}

// Lookup finds a person by email.
func (d *Directory) Lookup(ctx context.Context, email string) (*db.Person, error) {
	p, found, err := d.people.FindByEmail(ctx, Canonical(email))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPersonNotFound
	}
	return p, nil
}

// NotifiedAt returns when the person got the one-time "someone has a crush
// on you" notice, or nil if they never did.
func (d *Directory) NotifiedAt(ctx context.Context, email string) (*time.Time, error) {
	p, err := d.Lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	rec, err := repository.NewNotifiedRepository(d.db).Find(ctx, p.ID)
	if err != nil || rec == nil {
		return nil, err
	}
	return &rec.CreatedAt, nil
}

// Register records a person who authenticated directly. A stub created
// earlier gets its real name; an already registered name is kept.
func (d *Directory) Register(ctx context.Context, email, name string) (*db.Person, error) {
	email = Canonical(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if err := d.CanProvision(email); err != nil {
		return nil, err
	}

	p, created, err := d.people.FirstOrCreate(ctx, email, db.Person{Name: name, NumAllowedCrushes: -1})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}
	if created || !p.IsPlaceholder() {
		return p, nil
	}

	if err := d.people.UpdateName(ctx, p.ID, name); err != nil {
		return nil, fmt.Errorf("backfill name for %s: %w", email, err)
	}
	p.Name = name
	return p, nil
}

// Search matches term against names and emails, cursor paginated.
func (d *Directory) Search(ctx context.Context, term string, token *string, limit int) ([]db.Person, *string, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return d.people.Search(ctx, strings.TrimSpace(term), token, limit)
}

// NormalizeNames trims every registered name down to first and last name.
// Stubs keep their placeholder. Returns how many names changed.
func (d *Directory) NormalizeNames(ctx context.Context) (int, error) {
	changed := 0
	err := d.people.All(ctx, func(p *db.Person) error {
		if p.IsPlaceholder() {
			return nil
		}
		normalized := normalizeName(p.Name)
		if normalized == "" || normalized == p.Name {
			return nil
		}
		if err := d.people.UpdateName(ctx, p.ID, normalized); err != nil {
			return err
		}
		changed++
		return nil
	})
	return changed, err
}

func normalizeName(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + " " + parts[len(parts)-1]
	}
}

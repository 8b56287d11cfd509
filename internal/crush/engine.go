package crush

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/crush-connector/internal/config"
	"github.com/oggyb/crush-connector/internal/db"
	"github.com/oggyb/crush-connector/internal/mail"
	"github.com/oggyb/crush-connector/internal/metrics"
	"github.com/oggyb/crush-connector/internal/repository"
)

// Settings configures an Engine.
type Settings struct {
	DefaultAllowance int
	Slots            int
	DigestKey        string
	AllowedDomains   []string
	Location         *time.Location
	MailFrom         string
	SiteName         string
	SiteURL          string
}

// SettingsFromConfig maps application config onto engine settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		DefaultAllowance: cfg.Crush.DefaultAllowance,
		Slots:            cfg.Crush.Slots,
		DigestKey:        cfg.Crush.DigestKey,
		AllowedDomains:   cfg.Crush.AllowedDomains,
		Location:         cfg.Location(),
		MailFrom:         cfg.Mail.From,
		SiteName:         cfg.Mail.SiteName,
		SiteURL:          cfg.Mail.SiteURL,
	}
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock. Used by tests to move across epochs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Receipt is the result of an accepted submission.
type Receipt struct {
	Matches []db.Person
	Quota   Quota
}

// Engine runs crush submissions: quota, ledger, match detection and notices.
type Engine struct {
	db         *gorm.DB
	digester   *Digester
	directory  *Directory
	dispatcher *Dispatcher
	log        *slog.Logger

	defaultAllowance int
	slots            int
	loc              *time.Location
	now              func() time.Time
}

// NewEngine wires an engine over database, delivering mail through sender.
func NewEngine(database *gorm.DB, s Settings, sender mail.Sender, log *slog.Logger, opts ...Option) (*Engine, error) {
	digester, err := NewDigester([]byte(s.DigestKey))
	if err != nil {
		return nil, err
	}
	if s.DefaultAllowance < 0 {
		return nil, fmt.Errorf("default allowance must not be negative")
	}
	if s.Slots <= 0 {
		s.Slots = s.DefaultAllowance
	}
	if s.Location == nil {
		s.Location = time.UTC
	}

	e := &Engine{
		db:               database,
		digester:         digester,
		directory:        NewDirectory(database, s.AllowedDomains),
		dispatcher:       NewDispatcher(sender, s.MailFrom, s.SiteName, s.SiteURL),
		log:              log.With("component", "crush_engine"),
		defaultAllowance: s.DefaultAllowance,
		slots:            s.Slots,
		loc:              s.Location,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Directory exposes the person registry.
func (e *Engine) Directory() *Directory { return e.directory }

// Slots is the maximum number of targets per submission.
func (e *Engine) Slots() int { return e.slots }

// Submit records crushes from askerEmail on every non-empty target.
//
// Behavior:
//   - Targets are canonicalised; empty strings are skipped.
//   - Every target is validated before anything is written.
//   - The quota is checked (and reset when a refresh checkpoint passed since
//     the last submission) under a lock on the asker row.
//   - Each target gets a ledger token; a matching reciprocal token mails both
//     people, otherwise the target gets the anonymous notice once ever.
//   - Mail is sent before commit; a delivery failure rolls everything back.
//
// Errors: *InvalidTargetError, *OverLimitError, *DeliveryError,
// *ConfigurationError, ErrPersonNotFound, ErrTooManyTargets.
func (e *Engine) Submit(ctx context.Context, askerEmail string, targets []string) (*Receipt, error) {
	start := time.Now()
	log := e.log.With("req_id", uuid.NewString())
	asker := Canonical(askerEmail)

	receipt, err := e.submit(ctx, log, asker, targets)

	metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	metrics.Submissions.WithLabelValues(outcomeOf(err)).Inc()
	if err != nil {
		log.Info("submission refused", "asker", asker, "err", err)
		return nil, err
	}
	log.Info("submission accepted",
		"asker", asker,
		"matches", len(receipt.Matches),
		"used", receipt.Quota.NumUsed,
		"allowed", receipt.Quota.NumAllowed,
	)
	return receipt, nil
}

func (e *Engine) submit(ctx context.Context, log *slog.Logger, askerEmail string, targets []string) (*Receipt, error) {
	if len(targets) > e.slots {
		return nil, fmt.Errorf("%w: %d given, %d allowed", ErrTooManyTargets, len(targets), e.slots)
	}

	var emails []string
	for _, t := range targets {
		email := Canonical(t)
		if email == "" {
			continue
		}
		if email == askerEmail {
			return nil, &InvalidTargetError{Email: email, Reason: "cannot crush on yourself"}
		}
		emails = append(emails, email)
	}

	now := e.now()
	var (
		receipt *Receipt
		outbox  *Outbox
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		people := repository.NewPersonRepository(tx)
		crushes := repository.NewCrushRepository(tx)
		dir := e.directory.WithTx(tx)

		schedule, err := e.loadSchedule(ctx, tx)
		if err != nil {
			return err
		}
		next, err := schedule.Next(now)
		if err != nil {
			return err
		}

		asker, found, err := people.LockByEmail(ctx, askerEmail)
		if err != nil {
			return err
		}
		if !found {
			return ErrPersonNotFound
		}

		for _, email := range emails {
			if err := dir.Check(ctx, email); err != nil {
				return err
			}
		}

		allowed := asker.Allowance(e.defaultAllowance)
		n := len(emails)
		if n == 0 {
			receipt = &Receipt{Quota: quotaOf(asker.NumCrushesUsed, allowed, next)}
			return nil
		}

		usage := Usage{Allowed: allowed, Used: asker.NumCrushesUsed}
		latest, submitted, err := crushes.LatestFor(ctx, asker.ID)
		if err != nil {
			return err
		}
		if submitted {
			usage.LastSubmission = &latest.Timestamp
		}

		switch Evaluate(usage, n, schedule, now) {
		case Reject:
			return &OverLimitError{Quota: quotaOf(asker.NumCrushesUsed, allowed, next)}
		case ResetAndAccept:
			deactivated, err := crushes.DeactivateAll(ctx, asker.ID)
			if err != nil {
				return err
			}
			if err := people.ResetUsage(ctx, asker.ID); err != nil {
				return err
			}
			asker.NumCrushesUsed = 0
			metrics.EpochResets.Inc()
			log.Info("epoch reset", "asker", askerEmail, "deactivated", deactivated)
		}

		ok, err := people.IncrementUsage(ctx, asker.ID, n, allowed)
		if err != nil {
			return err
		}
		if !ok {
			return &OverLimitError{Quota: quotaOf(asker.NumCrushesUsed, allowed, next)}
		}
		asker.NumCrushesUsed += n

		outbox = e.dispatcher.Outbox(tx)
		var matches []db.Person
		for _, email := range emails {
			target, created, err := dir.Resolve(ctx, email)
			if err != nil {
				return fmt.Errorf("resolve target: %w", err)
			}
			if created {
				log.Debug("provisioned stub person", "target", email)
			}

			token, err := crushes.Record(ctx, asker.ID, e.digester.Digest(asker.Email, target.Email).String(), now)
			if err != nil {
				return fmt.Errorf("record crush: %w", err)
			}
			if err := crushes.RecordRelation(ctx, asker.ID, target.ID, now); err != nil {
				return fmt.Errorf("record relation: %w", err)
			}

			matched, err := e.isMatch(ctx, crushes, asker.Email, target.Email)
			if err != nil {
				return err
			}
			if matched {
				if err := crushes.RecordMutual(ctx, token.ID); err != nil {
					return fmt.Errorf("record mutual match: %w", err)
				}
				matches = append(matches, *target)
				outbox.NotifyMatch(asker, target)
				continue
			}
			if _, err := outbox.NotifyNoMatch(ctx, target); err != nil {
				return err
			}
		}

		log.Debug("flushing notices", "asker", askerEmail, "count", len(outbox.Pending()))
		if err := outbox.Flush(ctx); err != nil {
			return err
		}

		receipt = &Receipt{Matches: matches, Quota: quotaOf(asker.NumCrushesUsed, allowed, next)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outbox != nil {
		metrics.Crushes.Add(float64(len(emails)))
		metrics.Matches.Add(float64(outbox.matches))
		metrics.Notices.WithLabelValues("match").Add(float64(outbox.matches))
		metrics.Notices.WithLabelValues("no_match").Add(float64(outbox.noMatches))
	}
	return receipt, nil
}

// isMatch reports whether target already holds an active crush on asker,
// i.e. whether the reciprocal token digest(target, asker) is in the ledger.
func (e *Engine) isMatch(ctx context.Context, crushes *repository.CrushRepository, asker, target string) (bool, error) {
	return crushes.HasActiveDigest(ctx, e.digester.Digest(target, asker).String())
}

// CheckMatch answers whether targetEmail has an active crush on askerEmail.
// Read only; meant for diagnostics.
func (e *Engine) CheckMatch(ctx context.Context, askerEmail, targetEmail string) (bool, error) {
	return e.isMatch(ctx, repository.NewCrushRepository(e.db), Canonical(askerEmail), Canonical(targetEmail))
}

// Quota reports the person's standing in the current epoch from the stored
// usage. Submitting up to NumLeft crushes is always accepted; a reset after
// a passed checkpoint only happens when a submission needs more than that.
func (e *Engine) Quota(ctx context.Context, email string) (*Quota, error) {
	p, err := e.directory.Lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	schedule, err := e.loadSchedule(ctx, e.db)
	if err != nil {
		return nil, err
	}
	next, err := schedule.Next(e.now())
	if err != nil {
		return nil, err
	}
	q := quotaOf(p.NumCrushesUsed, p.Allowance(e.defaultAllowance), next)
	return &q, nil
}

// AddCheckpoint provisions a refresh checkpoint on the calendar date of date.
func (e *Engine) AddCheckpoint(ctx context.Context, date time.Time) (*db.RefreshCheckpoint, error) {
	return repository.NewCheckpointRepository(e.db).Add(ctx, DateOf(date, time.UTC))
}

// Schedule loads the current checkpoint sequence.
func (e *Engine) Schedule(ctx context.Context) (*Schedule, error) {
	return e.loadSchedule(ctx, e.db)
}

func (e *Engine) loadSchedule(ctx context.Context, tx *gorm.DB) (*Schedule, error) {
	cps, err := repository.NewCheckpointRepository(tx).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoints: %w", err)
	}
	dates := make([]time.Time, 0, len(cps))
	for _, cp := range cps {
		dates = append(dates, cp.Date)
	}
	return NewSchedule(dates, e.loc)
}

func quotaOf(used, allowed int, next time.Time) Quota {
	return Quota{
		NumLeft:     allowed - used,
		NumUsed:     used,
		NumAllowed:  allowed,
		NextRefresh: next,
	}
}

func outcomeOf(err error) string {
	var invalid *InvalidTargetError
	var over *OverLimitError
	switch {
	case err == nil:
		return metrics.OutcomeAccepted
	case errors.As(err, &invalid):
		return metrics.OutcomeInvalidTarget
	case errors.As(err, &over):
		return metrics.OutcomeOverLimit
	default:
		return metrics.OutcomeError
	}
}

package crush

import (
	"context"
	"errors"
	"strings"

	"github.com/oggyb/crush-connector/internal/app"
	"github.com/oggyb/crush-connector/internal/cache"
	"github.com/oggyb/crush-connector/internal/config"
	"github.com/oggyb/crush-connector/internal/crush"
	"github.com/oggyb/crush-connector/internal/db"
	svcErr "github.com/oggyb/crush-connector/internal/errors"
)

// Service implements the Crush gRPC API on top of the crush engine and the
// quota cache.
type Service struct {
	appCtx *app.AppContext
	engine *crush.Engine
}

// NewCrushService creates a new Crush service with dependencies from AppContext.
func NewCrushService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, engine: appCtx.Engine}
}

var _ CrushServer = (*Service)(nil)

// SubmitCrushes records the asker's crushes.
//
// Behavior:
//   - Invalid targets and over-limit submissions are reported in the
//     response outcome, not as gRPC errors.
//   - Anything else (unknown asker, mail failure, missing checkpoints)
//     is returned as a status error.
//   - The asker's cached quota is refreshed on every decided outcome.
//
// Example:
//
//	svc.SubmitCrushes(ctx, &SubmitCrushesRequest{AskerEmail: "a@y.edu", Targets: []string{"b@y.edu"}})
func (s *Service) SubmitCrushes(ctx context.Context, req *SubmitCrushesRequest) (*SubmitCrushesResponse, error) {
	s.appCtx.Logger.Debug("SubmitCrushes called", "asker", req.AskerEmail, "targets", len(req.Targets))

	if strings.TrimSpace(req.AskerEmail) == "" {
		return nil, svcErr.InvalidArgument("asker_email is required")
	}
	asker := crush.Canonical(req.AskerEmail)

	receipt, err := s.engine.Submit(ctx, asker, req.Targets)
	var (
		invalid *crush.InvalidTargetError
		over    *crush.OverLimitError
	)
	switch {
	case err == nil:
		s.cacheQuota(ctx, asker, receipt.Quota)
		resp := &SubmitCrushesResponse{Outcome: OutcomeAccepted, Quota: quotaView(receipt.Quota)}
		for i := range receipt.Matches {
			resp.Matches = append(resp.Matches, personView(&receipt.Matches[i]))
		}
		return resp, nil

	case errors.As(err, &invalid):
		return &SubmitCrushesResponse{
			Outcome:      OutcomeInvalidTarget,
			InvalidEmail: invalid.Email,
			Reason:       invalid.Reason,
		}, nil

	case errors.As(err, &over):
		s.cacheQuota(ctx, asker, over.Quota)
		return &SubmitCrushesResponse{Outcome: OutcomeOverLimit, Quota: quotaView(over.Quota)}, nil

	default:
		s.appCtx.Logger.Error("SubmitCrushes failed", "asker", asker, "err", err)
		return nil, svcErr.Map(err)
	}
}

// CheckMatch reports whether the target holds an active crush on the asker.
func (s *Service) CheckMatch(ctx context.Context, req *CheckMatchRequest) (*CheckMatchResponse, error) {
	if req.AskerEmail == "" || req.TargetEmail == "" {
		return nil, svcErr.InvalidArgument("asker_email and target_email are required")
	}
	ok, err := s.engine.CheckMatch(ctx, req.AskerEmail, req.TargetEmail)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &CheckMatchResponse{Match: ok}, nil
}

// GetQuota returns how many crushes the person has left.
// Cache-first strategy:
//  1. Attempts to read from Redis (crush:quota:email).
//  2. On a miss or a Redis failure, falls back to the engine.
//  3. Stores the result with a TTL that never passes the next refresh.
func (s *Service) GetQuota(ctx context.Context, req *GetQuotaRequest) (*GetQuotaResponse, error) {
	email := crush.Canonical(req.Email)
	if email == "" {
		return nil, svcErr.InvalidArgument("email is required")
	}

	// try cache first
	if s.appCtx.RedisCache != nil {
		cached, found, err := s.appCtx.RedisCache.GetQuota(ctx, email)
		if err != nil {
			s.appCtx.Logger.Warn("quota cache read failed", "err", err)
		} else if found {
			return &GetQuotaResponse{Quota: Quota{
				NumLeft:     cached.NumLeft,
				NumUsed:     cached.NumUsed,
				NumAllowed:  cached.NumAllowed,
				NextRefresh: cached.NextRefresh.Format(config.DateLayout),
			}}, nil
		}
	}

	// fallback: DB
	q, err := s.engine.Quota(ctx, email)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.cacheQuota(ctx, email, *q)
	return &GetQuotaResponse{Quota: *quotaView(*q)}, nil
}

// RegisterPerson records a directly authenticated person, backfilling the
// name of a stub created earlier.
func (s *Service) RegisterPerson(ctx context.Context, req *RegisterPersonRequest) (*RegisterPersonResponse, error) {
	p, err := s.engine.Directory().Register(ctx, req.Email, req.Name)
	if err != nil {
		var invalid *crush.InvalidTargetError
		if errors.As(err, &invalid) {
			return nil, svcErr.InvalidArgument(invalid.Error())
		}
		return nil, svcErr.Map(err)
	}
	return &RegisterPersonResponse{Person: personView(p)}, nil
}

// SearchPeople is the autocomplete lookup over names and emails.
// Supports cursor-based pagination with pagination_token.
func (s *Service) SearchPeople(ctx context.Context, req *SearchPeopleRequest) (*SearchPeopleResponse, error) {
	people, next, err := s.engine.Directory().Search(ctx, req.Term, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &SearchPeopleResponse{People: make([]Person, 0, len(people)), NextPaginationToken: next}
	for i := range people {
		resp.People = append(resp.People, personView(&people[i]))
	}
	return resp, nil
}

// AddCheckpoint provisions a refresh checkpoint date (YYYY-MM-DD).
func (s *Service) AddCheckpoint(ctx context.Context, req *AddCheckpointRequest) (*AddCheckpointResponse, error) {
	date, err := config.ParseDate(req.Date)
	if err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}
	cp, err := s.engine.AddCheckpoint(ctx, date)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("refresh checkpoint added", "date", req.Date)
	return &AddCheckpointResponse{Date: cp.Date.Format(config.DateLayout)}, nil
}

// ListCheckpoints returns every provisioned checkpoint in date order.
func (s *Service) ListCheckpoints(ctx context.Context, _ *ListCheckpointsRequest) (*ListCheckpointsResponse, error) {
	schedule, err := s.engine.Schedule(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &ListCheckpointsResponse{Dates: []string{}}
	for _, d := range schedule.Dates() {
		resp.Dates = append(resp.Dates, d.Format(config.DateLayout))
	}
	return resp, nil
}

func (s *Service) cacheQuota(ctx context.Context, email string, q crush.Quota) {
	if s.appCtx.RedisCache == nil {
		return
	}
	err := s.appCtx.RedisCache.SetQuota(ctx, email, cache.QuotaEntry{
		NumLeft:     q.NumLeft,
		NumUsed:     q.NumUsed,
		NumAllowed:  q.NumAllowed,
		NextRefresh: q.NextRefresh,
	})
	if err != nil {
		s.appCtx.Logger.Warn("quota cache write failed", "err", err)
	}
}

func quotaView(q crush.Quota) *Quota {
	return &Quota{
		NumLeft:     q.NumLeft,
		NumUsed:     q.NumUsed,
		NumAllowed:  q.NumAllowed,
		NextRefresh: q.NextRefresh.Format(config.DateLayout),
	}
}

func personView(p *db.Person) Person {
	v := Person{Email: p.Email}
	if !p.IsPlaceholder() {
		v.Name = p.Name
	}
	return v
}

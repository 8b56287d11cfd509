// Package metrics exposes Prometheus counters for the crush engine.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Submissions counts submissions by outcome.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crush_submissions_total",
		Help: "Crush submissions by outcome",
	}, []string{"outcome"})

	// Crushes counts individual crush tokens recorded.
	Crushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crush_tokens_recorded_total",
		Help: "Crush tokens written to the ledger",
	})

	// Matches counts mutual crushes detected.
	Matches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crush_matches_total",
		Help: "Mutual crushes detected",
	})

	// Notices counts delivered notices by kind (match, no_match).
	Notices = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crush_notices_total",
		Help: "Notices delivered by kind",
	}, []string{"kind"})

	// EpochResets counts quota resets after a refresh checkpoint.
	EpochResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crush_epoch_resets_total",
		Help: "Per-person quota resets at refresh checkpoints",
	})

	// SubmitDuration tracks submission latency.
	SubmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crush_submit_duration_seconds",
		Help:    "Submission latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})
)

// Outcome labels.
const (
	OutcomeAccepted      = "accepted"
	OutcomeInvalidTarget = "invalid_target"
	OutcomeOverLimit     = "over_limit"
	OutcomeError         = "error"
)

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

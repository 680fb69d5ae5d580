// Package resilient decorates a snapshot store with retry and a circuit
// breaker. Saves are retried with backoff; once the backend looks dead the
// breaker fails fast and the in-memory snapshot stays authoritative until
// the backend recovers.
package resilient

import (
	"context"
	"errors"
	"time"

	"github.com/finquest-app/progression-engine/internal/domain/progression"
	"github.com/finquest-app/progression-engine/pkg/circuitbreaker"
	"github.com/finquest-app/progression-engine/pkg/logger"
	"github.com/finquest-app/progression-engine/pkg/retry"
)

// SnapshotStore wraps an inner progression.SnapshotStore.
type SnapshotStore struct {
	inner   progression.SnapshotStore
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
	log     *logger.Logger
}

// Config tunes the decorator.
type Config struct {
	// Retry applies to saves only. Loads run once: a failed load falls
	// back to the default snapshot anyway, so retrying just delays startup.
	Retry retry.Config

	// Breaker guards both directions.
	Breaker circuitbreaker.Config

	// Logger for state change and retry logging.
	Logger *logger.Logger
}

// DefaultConfig returns the decorator defaults.
func DefaultConfig() Config {
	return Config{
		Retry:   retry.DefaultConfig(),
		Breaker: circuitbreaker.DefaultConfig("snapshot-store"),
	}
}

// Wrap builds the decorated store.
func Wrap(inner progression.SnapshotStore, cfg Config) *SnapshotStore {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.String("component", "resilient_store"))

	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "snapshot-store"
	}
	if cfg.Breaker.OnStateChange == nil {
		cfg.Breaker.OnStateChange = func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		}
	}
	if cfg.Retry.OnRetry == nil {
		cfg.Retry.OnRetry = func(attempt int, err error, delay time.Duration) {
			log.Warn("save retry",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err))
		}
	}

	return &SnapshotStore{
		inner:   inner,
		breaker: circuitbreaker.New(cfg.Breaker),
		retry:   cfg.Retry,
		log:     log,
	}
}

// Load fetches the snapshot through the breaker. A missing record is a
// normal outcome and never counts as a backend failure.
func (s *SnapshotStore) Load(ctx context.Context, userID string) (*progression.Snapshot, error) {
	var snap *progression.Snapshot
	var notFound bool

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		loaded, err := s.inner.Load(ctx, userID)
		if errors.Is(err, progression.ErrNoSnapshot) {
			notFound = true
			return nil
		}
		if err != nil {
			return err
		}
		snap = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, progression.ErrNoSnapshot
	}
	return snap, nil
}

// Save persists the snapshot through the breaker, retrying transient
// failures with backoff.
func (s *SnapshotStore) Save(ctx context.Context, userID string, snap *progression.Snapshot) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, s.retry, func(ctx context.Context) error {
			return s.inner.Save(ctx, userID, snap)
		})
	})
}

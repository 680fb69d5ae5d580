// Package ledger contains the progression ledger: the single-owner state
// machine through which every mutation of a user's progress flows.
//
// The ledger cycles between two informal states: Idle (snapshot at rest) and
// Applying (one transaction in flight). Each transaction clones the current
// snapshot, transforms the clone to completion, and installs it as the new
// canonical value. Readers never observe a partially applied transaction.
// Persistence is asynchronous and fire-and-forget; the in-memory snapshot
// stays authoritative for the session even when storage is down.
package ledger

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/finquest-app/progression-engine/internal/domain/achievement"
	"github.com/finquest-app/progression-engine/internal/domain/challenge"
	"github.com/finquest-app/progression-engine/internal/domain/progression"
	"github.com/finquest-app/progression-engine/internal/domain/shared"
	"github.com/finquest-app/progression-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// Default flat bonus for a perfect (mistake-free) lesson.
const (
	defaultPerfectBonusXP    = 10
	defaultPerfectBonusCoins = 5
)

// Clock abstracts time so tests can drive calendar transitions.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// systemClock reads the real wall clock in UTC.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the real-time clock.
func SystemClock() Clock { return systemClock{} }

// Config contains the ledger's collaborators and tunables.
type Config struct {
	// UserID - the user whose progress this ledger owns.
	UserID string

	// Store - snapshot persistence. Required.
	Store progression.SnapshotStore

	// Journal - append-only reward history. Optional; nil disables it.
	Journal progression.Journal

	// Bus - domain event publisher. Optional; nil disables events.
	Bus shared.EventPublisher

	// Logger - structured logger. Defaults to the package default logger.
	Logger *logger.Logger

	// Clock - time source. Defaults to the system clock.
	Clock Clock

	// Rand - randomness for challenge selection. Defaults to a seeded
	// math/rand source.
	Rand challenge.Rand

	// AchievementCatalog - achievement definitions. Defaults to the
	// built-in catalog. An empty non-nil slice disables achievements.
	AchievementCatalog []achievement.Definition

	// ChallengeCatalog - challenge templates. Defaults to the built-in
	// catalog. An empty non-nil slice disables daily challenges.
	ChallengeCatalog []challenge.Template

	// PerfectBonusXP, PerfectBonusCoins - flat bonus for a perfect lesson.
	PerfectBonusXP    int
	PerfectBonusCoins int
}

// Ledger owns one user's progress snapshot and serializes every mutation.
type Ledger struct {
	mu     sync.Mutex
	snap   *progression.Snapshot
	loaded bool

	// saveInFlight guards asynchronous persistence: at most one save is
	// outstanding, overlapping requests are dropped (the next mutation
	// saves the full latest snapshot anyway).
	saveInFlight atomic.Bool

	userID  string
	store   progression.SnapshotStore
	journal progression.Journal
	bus     shared.EventPublisher
	log     *logger.Logger
	clock   Clock
	rng     challenge.Rand

	achievementCatalog []achievement.Definition
	challengeCatalog   []challenge.Template

	perfectBonusXP    int
	perfectBonusCoins int
}

// New creates a ledger for one user.
func New(cfg Config) (*Ledger, error) {
	if cfg.UserID == "" {
		return nil, errors.New("ledger: user id is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("ledger: snapshot store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.AchievementCatalog == nil {
		cfg.AchievementCatalog = achievement.DefaultCatalog()
	}
	if cfg.ChallengeCatalog == nil {
		cfg.ChallengeCatalog = challenge.DefaultCatalog()
	}
	if cfg.PerfectBonusXP == 0 {
		cfg.PerfectBonusXP = defaultPerfectBonusXP
	}
	if cfg.PerfectBonusCoins == 0 {
		cfg.PerfectBonusCoins = defaultPerfectBonusCoins
	}

	return &Ledger{
		userID:             cfg.UserID,
		store:              cfg.Store,
		journal:            cfg.Journal,
		bus:                cfg.Bus,
		log:                cfg.Logger.With(logger.String("component", "ledger"), logger.String("user_id", cfg.UserID)),
		clock:              cfg.Clock,
		rng:                cfg.Rand,
		achievementCatalog: cfg.AchievementCatalog,
		challengeCatalog:   cfg.ChallengeCatalog,
		perfectBonusXP:     cfg.PerfectBonusXP,
		perfectBonusCoins:  cfg.PerfectBonusCoins,
	}, nil
}

// Init loads the persisted snapshot. Gated by an initialization flag:
// the first call loads, subsequent calls are no-ops. A missing record,
// a corrupt record, or a storage failure all fall back to the default
// snapshot - losing a session of progress beats crashing on startup.
func (l *Ledger) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return nil
}

// ensureLoaded performs the one-time load. Caller must hold l.mu.
func (l *Ledger) ensureLoaded(ctx context.Context) {
	if l.loaded {
		return
	}
	l.loaded = true

	snap, err := l.store.Load(ctx, l.userID)
	switch {
	case errors.Is(err, progression.ErrNoSnapshot):
		l.log.Info("no stored progress, starting fresh")
	case err != nil:
		l.log.Error("snapshot load failed, starting fresh", logger.Err(err))
	default:
		if verr := snap.Validate(); verr != nil {
			l.log.Error("stored snapshot is corrupt, discarding", logger.Err(verr))
		} else {
			snap.Sanitize()
			l.snap = snap
			l.log.Info("progress loaded",
				logger.Int("level", snap.Level),
				logger.Int("total_xp", snap.TotalXP),
				logger.Int("streak", snap.Streak))
			return
		}
	}

	l.snap = progression.NewSnapshot(l.userID, l.clock.Now())
}

// Snapshot returns a deep copy of the current progress state.
func (l *Ledger) Snapshot(ctx context.Context) *progression.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return l.snap.Clone()
}

// install replaces the canonical snapshot and schedules persistence.
// Caller must hold l.mu.
func (l *Ledger) install(snap *progression.Snapshot, now time.Time) {
	snap.UpdatedAt = now
	l.snap = snap
	l.scheduleSave(snap.Clone())
}

// scheduleSave fires an asynchronous save of the given snapshot copy.
// If a save is already in flight the request is dropped, not queued:
// saves always carry the complete snapshot, so last write wins.
func (l *Ledger) scheduleSave(snap *progression.Snapshot) {
	if !l.saveInFlight.CompareAndSwap(false, true) {
		l.log.Debug("save already in flight, dropping")
		return
	}
	go func() {
		defer l.saveInFlight.Store(false)
		if err := l.store.Save(context.Background(), l.userID, snap); err != nil {
			l.log.Error("snapshot save failed", logger.Err(err))
		}
	}()
}

// appendJournal fires an asynchronous journal append. The journal is an
// observer: failures are logged and swallowed, never surfaced.
func (l *Ledger) appendJournal(entry progression.JournalEntry) {
	if l.journal == nil {
		return
	}
	go func() {
		if err := l.journal.Append(context.Background(), entry); err != nil {
			l.log.Warn("journal append failed", logger.Err(err))
		}
	}()
}

// publish delivers events to the bus, logging failures.
func (l *Ledger) publish(events ...shared.Event) {
	if l.bus == nil {
		return
	}
	for _, event := range events {
		if err := l.bus.Publish(event); err != nil {
			l.log.Warn("event publish failed",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err))
		}
	}
}

package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finquest-app/progression-engine/internal/domain/achievement"
	"github.com/finquest-app/progression-engine/internal/domain/challenge"
	"github.com/finquest-app/progression-engine/internal/domain/progression"
	"github.com/finquest-app/progression-engine/internal/domain/shared"
)

// ─── test doubles ────────────────────────────────────────────────────────────

// fakeStore is an in-memory snapshot store with fault injection and an
// optional gate that blocks Save until released.
type fakeStore struct {
	mu        sync.Mutex
	snapshots map[string]*progression.Snapshot
	loadErr   error
	saveErr   error
	saves     int
	gate      chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{snapshots: make(map[string]*progression.Snapshot)}
}

func (s *fakeStore) Load(_ context.Context, userID string) (*progression.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	snap, ok := s.snapshots[userID]
	if !ok {
		return nil, progression.ErrNoSnapshot
	}
	return snap.Clone(), nil
}

func (s *fakeStore) Save(_ context.Context, userID string, snap *progression.Snapshot) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snapshots[userID] = snap.Clone()
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type stubRand struct{}

func (stubRand) Intn(n int) int { return 0 }

// recordingBus captures published events.
type recordingBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *recordingBus) Publish(event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) types() []shared.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]shared.EventType, 0, len(b.events))
	for _, e := range b.events {
		types = append(types, e.EventType())
	}
	return types
}

// fakeJournal records appended entries.
type fakeJournal struct {
	mu      sync.Mutex
	entries []progression.JournalEntry
}

func (j *fakeJournal) Append(_ context.Context, entry progression.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func monday() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

// newTestLedger builds a ledger with empty catalogs so each test enables
// only the mechanics it exercises.
func newTestLedger(t *testing.T, store *fakeStore, clock Clock) *Ledger {
	t.Helper()
	led, err := New(Config{
		UserID:             "user-1",
		Store:              store,
		Clock:              clock,
		Rand:               stubRand{},
		AchievementCatalog: []achievement.Definition{},
		ChallengeCatalog:   []challenge.Template{},
	})
	require.NoError(t, err)
	return led
}

// seed installs a snapshot in the store so Init picks it up.
func seed(store *fakeStore, snap *progression.Snapshot) {
	store.snapshots[snap.UserID] = snap
}

func activeToday(clock Clock) *progression.Snapshot {
	snap := progression.NewSnapshot("user-1", clock.Now())
	snap.LastActiveDate = clock.Now().Format("2006-01-02")
	return snap
}

// ─── construction & loading ──────────────────────────────────────────────────

func TestNew_RequiresUserAndStore(t *testing.T) {
	_, err := New(Config{Store: newFakeStore()})
	assert.Error(t, err)

	_, err = New(Config{UserID: "user-1"})
	assert.Error(t, err)
}

func TestInit_FreshStartWhenNoRecord(t *testing.T) {
	store := newFakeStore()
	led := newTestLedger(t, store, &fakeClock{now: monday()})
	require.NoError(t, led.Init(context.Background()))

	snap := led.Snapshot(context.Background())
	assert.Equal(t, 0, snap.TotalXP)
	assert.Equal(t, 1, snap.Level)
	assert.Equal(t, progression.MaxLives, snap.Lives)
}

func TestInit_LoadFailureFallsBackToDefaults(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("connection refused")
	led := newTestLedger(t, store, &fakeClock{now: monday()})
	require.NoError(t, led.Init(context.Background()))

	snap := led.Snapshot(context.Background())
	assert.Equal(t, 1, snap.Level)
}

func TestInit_CorruptRecordDiscarded(t *testing.T) {
	store := newFakeStore()
	// Empty user id fails validation: the record is discarded, not trusted.
	store.snapshots["user-1"] = &progression.Snapshot{TotalXP: 5000}

	led := newTestLedger(t, store, &fakeClock{now: monday()})
	require.NoError(t, led.Init(context.Background()))

	snap := led.Snapshot(context.Background())
	assert.Equal(t, 0, snap.TotalXP)
}

func TestInit_LoadedSnapshotSanitized(t *testing.T) {
	store := newFakeStore()
	stored := progression.NewSnapshot("user-1", monday())
	stored.Lives = 42
	stored.Coins = -7
	seed(store, stored)

	led := newTestLedger(t, store, &fakeClock{now: monday()})
	require.NoError(t, led.Init(context.Background()))

	snap := led.Snapshot(context.Background())
	assert.Equal(t, progression.MaxLives, snap.Lives)
	assert.Equal(t, 0, snap.Coins)
}

// ─── complete lesson ─────────────────────────────────────────────────────────

func TestCompleteLesson_LevelUpAcrossBoundary(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	snap := activeToday(clock)
	snap.TotalXP = 95
	snap.Recompute()
	seed(store, snap)

	led := newTestLedger(t, store, clock)
	summary, err := led.CompleteLesson(context.Background(), LessonResult{
		LessonID: "basics-1",
		XP:       20,
	}, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 20, summary.XPGained)
	assert.True(t, summary.LeveledUp)

	after := led.Snapshot(context.Background())
	assert.Equal(t, 115, after.TotalXP)
	assert.Equal(t, 2, after.Level)
	assert.Equal(t, 15, after.CurrentLevelXP)
}

func TestCompleteLesson_RequiresLessonID(t *testing.T) {
	led := newTestLedger(t, newFakeStore(), &fakeClock{now: monday()})
	_, err := led.CompleteLesson(context.Background(), LessonResult{}, 1, 1)
	assert.Error(t, err)
}

func TestCompleteLesson_PerfectBonus(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	seed(store, activeToday(clock))

	led := newTestLedger(t, store, clock)
	summary, err := led.CompleteLesson(context.Background(), LessonResult{
		LessonID: "quiz-1",
		XP:       15,
		Coins:    4,
		Perfect:  true,
	}, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 25, summary.XPGained)  // 15 + 10 perfect bonus
	assert.Equal(t, 9, summary.CoinsGained) // 4 + 5 perfect bonus
}

func TestCompleteLesson_Multipliers(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	snap := activeToday(clock)
	snap.XPMultiplier = 2.0
	seed(store, snap)

	led := newTestLedger(t, store, clock)
	summary, err := led.CompleteLesson(context.Background(), LessonResult{
		LessonID: "quiz-1",
		XP:       10,
		Coins:    10,
	}, 1.5, 2)
	require.NoError(t, err)

	// XP: 10 * 2.0 personal * 1.5 campaign = 30. Coins: 10 * 2 = 20.
	assert.Equal(t, 30, summary.XPGained)
	assert.Equal(t, 20, summary.CoinsGained)
}

func TestCompleteLesson_MalformedRewardSanitized(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	seed(store, activeToday(clock))

	led := newTestLedger(t, store, clock)
	summary, err := led.CompleteLesson(context.Background(), LessonResult{
		LessonID: "quiz-1",
		XP:       -100,
	}, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.XPGained)
	assert.Equal(t, 0, led.Snapshot(context.Background()).TotalXP)
}

func TestCompleteLesson_StreakBonusOnFirstActivityOfDay(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	snap := progression.NewSnapshot("user-1", monday())
	snap.Streak = 6
	snap.BestStreak = 6
	snap.LastActiveDate = "2025-03-09"
	seed(store, snap)

	led := newTestLedger(t, store, clock)
	summary, err := led.CompleteLesson(context.Background(), LessonResult{LessonID: "quiz-1", XP: 10}, 1, 1)
	require.NoError(t, err)

	after := led.Snapshot(context.Background())
	assert.Equal(t, 7, after.Streak)
	assert.Equal(t, 12, summary.CoinsGained) // min(5+7, 50)
	assert.Equal(t, 12, after.Coins)
}

func TestCompleteLesson_ReplayPaysButDoesNotAdvanceMetrics(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	seed(store, activeToday(clock))

	led := newTestLedger(t, store, clock)
	ctx := context.Background()

	_, err := led.CompleteLesson(ctx, LessonResult{LessonID: "quiz-1", XP: 10, Perfect: true}, 1, 1)
	require.NoError(t, err)

	summary, err := led.CompleteLesson(ctx, LessonResult{LessonID: "quiz-1", XP: 10, Perfect: true}, 1, 1)
	require.NoError(t, err)

	// The replay still pays out.
	assert.Equal(t, 20, summary.XPGained)

	after := led.Snapshot(ctx)
	assert.Equal(t, 1, after.TotalLessonsCompleted)
	assert.Equal(t, 1, after.PerfectLessonCount)
	assert.Equal(t, 40, after.TotalXP)
}

func TestCompleteLesson_FirstLessonUnlocksBronze(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	seed(store, activeToday(clock))

	led, err := New(Config{
		UserID:           "user-1",
		Store:            store,
		Clock:            clock,
		Rand:             stubRand{},
		ChallengeCatalog: []challenge.Template{},
	})
	require.NoError(t, err)

	summary, err := led.CompleteLesson(context.Background(), LessonResult{LessonID: "basics-1", XP: 10}, 1, 1)
	require.NoError(t, err)

	assert.Contains(t, summary.NewAchievements, "First Steps")

	after := led.Snapshot(context.Background())
	assert.Equal(t, progression.TierBronze, after.AchievementStates["first_steps"].Tier)
	// 10 lesson XP + 16 bronze payout (50 * 0.33).
	assert.Equal(t, 26, after.TotalXP)
}

func TestCompleteLesson_ChallengeCompletionPaysReward(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	seed(store, activeToday(clock))

	catalog := []challenge.Template{{
		ID:         "single",
		Type:       challenge.TypeLessons,
		Difficulty: challenge.DifficultyEasy,
		Title:      "Warmup",
		Weight:     10,
		Reward:     challenge.Reward{XP: 30, Coins: 15, Lives: 1},
	}}

	led, err := New(Config{
		UserID:             "user-1",
		Store:              store,
		Clock:              clock,
		Rand:               stubRand{},
		AchievementCatalog: []achievement.Definition{},
		ChallengeCatalog:   catalog,
	})
	require.NoError(t, err)

	ctx := context.Background()
	led.LoseLife(ctx)

	// Easy lessons target is 2: first lesson progresses, second completes.
	first, err := led.CompleteLesson(ctx, LessonResult{LessonID: "quiz-1", XP: 10}, 1, 1)
	require.NoError(t, err)
	assert.False(t, first.DailyChallengeCompleted)

	second, err := led.CompleteLesson(ctx, LessonResult{LessonID: "quiz-2", XP: 10}, 1, 1)
	require.NoError(t, err)
	assert.True(t, second.DailyChallengeCompleted)
	assert.Equal(t, 40, second.XPGained)    // 10 lesson + 30 challenge
	assert.Equal(t, 15, second.CoinsGained)

	after := led.Snapshot(ctx)
	assert.Equal(t, progression.MaxLives, after.Lives) // bonus life, clamped
}

func TestCompleteLesson_SequentialCallsSeeEachOther(t *testing.T) {
	// Persistence is slow and asynchronous, yet the second transaction
	// must see the first one's output snapshot.
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	store.gate = make(chan struct{})
	seed(store, activeToday(clock))

	led := newTestLedger(t, store, clock)
	ctx := context.Background()

	_, err := led.CompleteLesson(ctx, LessonResult{LessonID: "quiz-1", XP: 30}, 1, 1)
	require.NoError(t, err)
	_, err = led.CompleteLesson(ctx, LessonResult{LessonID: "quiz-2", XP: 30}, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 60, led.Snapshot(ctx).TotalXP)
	close(store.gate)
}

// ─── small mutations ─────────────────────────────────────────────────────────

func TestUpdateCombo(t *testing.T) {
	led := newTestLedger(t, newFakeStore(), &fakeClock{now: monday()})
	ctx := context.Background()

	assert.Equal(t, 1, led.UpdateCombo(ctx, true))
	assert.Equal(t, 2, led.UpdateCombo(ctx, true))
	assert.Equal(t, 0, led.UpdateCombo(ctx, false))
	assert.Equal(t, 1, led.UpdateCombo(ctx, true))

	assert.Equal(t, 2, led.Snapshot(ctx).BestCombo)
}

func TestLivesFlow(t *testing.T) {
	led := newTestLedger(t, newFakeStore(), &fakeClock{now: monday()})
	ctx := context.Background()

	assert.Equal(t, progression.MaxLives-1, led.LoseLife(ctx))
	for i := 0; i < 10; i++ {
		led.LoseLife(ctx)
	}
	assert.Equal(t, 0, led.Snapshot(ctx).Lives)

	assert.Equal(t, progression.MaxLives, led.RefillLives(ctx))
}

func TestSpendCoins_InsufficientBalance(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	snap := activeToday(clock)
	snap.Coins = 30
	seed(store, snap)

	led := newTestLedger(t, store, clock)
	ctx := context.Background()

	assert.False(t, led.SpendCoins(ctx, 50))
	assert.Equal(t, 30, led.Snapshot(ctx).Coins)

	assert.True(t, led.SpendCoins(ctx, 30))
	assert.Equal(t, 0, led.Snapshot(ctx).Coins)
}

func TestResetProgress(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	snap := activeToday(clock)
	snap.TotalXP = 1234
	snap.Coins = 500
	snap.Streak = 30
	seed(store, snap)

	led := newTestLedger(t, store, clock)
	ctx := context.Background()
	led.ResetProgress(ctx)

	after := led.Snapshot(ctx)
	assert.Equal(t, 0, after.TotalXP)
	assert.Equal(t, 0, after.Coins)
	assert.Equal(t, 0, after.Streak)
	assert.Equal(t, progression.MaxLives, after.Lives)
}

// ─── persistence behavior ────────────────────────────────────────────────────

func TestSave_OverlappingSavesDropped(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	store.gate = make(chan struct{})
	led := newTestLedger(t, store, clock)
	ctx := context.Background()

	// First mutation starts a save that blocks on the gate; the next
	// mutations find a save in flight and drop theirs.
	led.UpdateCombo(ctx, true)
	led.UpdateCombo(ctx, true)
	led.UpdateCombo(ctx, true)

	close(store.gate)
	assert.Eventually(t, func() bool {
		return store.saveCount() == 1
	}, time.Second, 10*time.Millisecond)

	// With the gate open the next mutation saves normally.
	led.UpdateCombo(ctx, true)
	assert.Eventually(t, func() bool {
		return store.saveCount() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestSave_FailureDoesNotAffectMemoryState(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	led := newTestLedger(t, store, clock)
	ctx := context.Background()

	led.UpdateCombo(ctx, true)
	led.UpdateCombo(ctx, true)

	assert.Equal(t, 2, led.Snapshot(ctx).CurrentCombo)
}

// ─── events & journal ────────────────────────────────────────────────────────

func TestCompleteLesson_PublishesEvents(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	snap := activeToday(clock)
	snap.TotalXP = 95
	snap.Recompute()
	seed(store, snap)

	bus := &recordingBus{}
	led, err := New(Config{
		UserID:             "user-1",
		Store:              store,
		Bus:                bus,
		Clock:              clock,
		Rand:               stubRand{},
		AchievementCatalog: []achievement.Definition{},
		ChallengeCatalog:   []challenge.Template{},
	})
	require.NoError(t, err)

	_, err = led.CompleteLesson(context.Background(), LessonResult{LessonID: "quiz-1", XP: 20}, 1, 1)
	require.NoError(t, err)

	types := bus.types()
	assert.Contains(t, types, shared.EventXPGained)
	assert.Contains(t, types, shared.EventLevelUp)
}

func TestCompleteLesson_AppendsJournalEntry(t *testing.T) {
	clock := &fakeClock{now: monday()}
	store := newFakeStore()
	seed(store, activeToday(clock))

	journal := &fakeJournal{}
	led, err := New(Config{
		UserID:             "user-1",
		Store:              store,
		Journal:            journal,
		Clock:              clock,
		Rand:               stubRand{},
		AchievementCatalog: []achievement.Definition{},
		ChallengeCatalog:   []challenge.Template{},
	})
	require.NoError(t, err)

	_, err = led.CompleteLesson(context.Background(), LessonResult{LessonID: "quiz-1", XP: 25}, 1, 1)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		journal.mu.Lock()
		defer journal.mu.Unlock()
		return len(journal.entries) == 1 &&
			journal.entries[0].LessonID == "quiz-1" &&
			journal.entries[0].XPGained == 25 &&
			journal.entries[0].ID != ""
	}, time.Second, 10*time.Millisecond)
}

package ledger

import (
	"context"

	"github.com/finquest-app/progression-engine/internal/domain/progression"
	"github.com/finquest-app/progression-engine/internal/domain/shared"
	"github.com/finquest-app/progression-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SMALL MUTATIONS
// Every mutation follows the same shape as CompleteLesson: clone, transform,
// install, persist asynchronously.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateCombo records an answer and returns the new combo length
// synchronously. A correct answer extends the combo; a mistake resets it.
func (l *Ledger) UpdateCombo(ctx context.Context, correct bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	now := l.clock.Now()
	work := l.snap.Clone()
	combo := work.UpdateCombo(correct)

	l.install(work, now)
	return combo
}

// LoseLife removes one life, floored at zero.
func (l *Ledger) LoseLife(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	now := l.clock.Now()
	work := l.snap.Clone()
	work.LoseLife()

	l.install(work, now)
	l.publish(shared.NewLivesChangedEvent(l.userID, work.Lives, "lost", now))
	return work.Lives
}

// RefillLives restores lives to the maximum.
func (l *Ledger) RefillLives(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	now := l.clock.Now()
	work := l.snap.Clone()
	work.RefillLives()

	l.install(work, now)
	l.publish(shared.NewLivesChangedEvent(l.userID, work.Lives, "refill", now))
	return work.Lives
}

// SpendCoins debits the balance. Returns false and mutates nothing when
// the balance is insufficient; overspending is misuse, not an error.
func (l *Ledger) SpendCoins(ctx context.Context, amount int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	now := l.clock.Now()
	work := l.snap.Clone()
	if !work.SpendCoins(amount) {
		l.log.Debug("coin spend refused",
			logger.Int("amount", amount),
			logger.Int("balance", work.Coins))
		return false
	}

	l.install(work, now)
	l.publish(shared.NewCoinsSpentEvent(l.userID, amount, work.Coins, now))
	return true
}

// ResetProgress replaces the snapshot with the default initial state.
func (l *Ledger) ResetProgress(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	now := l.clock.Now()
	work := progression.NewSnapshot(l.userID, now)

	l.install(work, now)
	l.publish(shared.NewProgressResetEvent(l.userID, now))
	l.log.Info("progress reset")
}

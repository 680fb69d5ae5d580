package achievement

import (
	"time"

	"github.com/finquest-app/progression-engine/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Tier payout fractions of the gold reward.
const (
	payoutBronze = 0.33
	payoutSilver = 0.66
	payoutGold   = 1.0
)

// Unlock describes one tier advancement produced by an evaluation.
type Unlock struct {
	// ID - achievement identifier.
	ID string

	// Title - display name of the achievement.
	Title string

	// Tier - the tier that was just reached.
	Tier progression.Tier

	// XP, Coins - the payout for this tier.
	XP    int
	Coins int
}

// Evaluate advances achievement states on the snapshot against the catalog
// and returns the unlocks. For each achievement only the highest newly
// crossed tier pays out, even when one transaction jumps several tiers at
// once. Tiers never regress: a metric falling back below a threshold leaves
// the unlocked tier in place.
//
// Evaluate mutates snap.AchievementStates but not the metrics it observes;
// the caller applies the returned payouts and re-derives the level.
func Evaluate(snap *progression.Snapshot, catalog []Definition, now time.Time) []Unlock {
	if snap.AchievementStates == nil {
		snap.AchievementStates = make(map[string]progression.AchievementState)
	}

	var unlocks []Unlock
	for _, def := range catalog {
		value := def.Metric.Observe(snap)
		state := snap.AchievementStates[def.ID]
		state.Progress = value

		reached := def.TierFor(value)
		if reached.Rank() > state.Tier.Rank() {
			unlockedAt := now
			state.Tier = reached
			state.UnlockedAt = &unlockedAt

			unlocks = append(unlocks, Unlock{
				ID:    def.ID,
				Title: def.Title,
				Tier:  reached,
				XP:    payout(def.Reward.XP, reached),
				Coins: payout(def.Reward.Coins, reached),
			})
		}

		snap.AchievementStates[def.ID] = state
	}
	return unlocks
}

// payout scales the gold reward down to the reached tier.
func payout(gold int, tier progression.Tier) int {
	switch tier {
	case progression.TierGold:
		return int(float64(gold) * payoutGold)
	case progression.TierSilver:
		return int(float64(gold) * payoutSilver)
	case progression.TierBronze:
		return int(float64(gold) * payoutBronze)
	default:
		return 0
	}
}

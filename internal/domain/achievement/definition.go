// Package achievement contains the tiered achievement catalog and the
// evaluator that advances achievement state from a progress snapshot.
//
// Philosophy: achievements celebrate milestones and make long-term progress
// visible. Every achievement has three tiers (bronze, silver, gold) over a
// single observed metric; a tier can only ever go up.
package achievement

import (
	"github.com/finquest-app/progression-engine/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metric names an observable value of the progress snapshot.
type Metric string

const (
	MetricLessonsCompleted Metric = "lessons_completed"
	MetricPerfectLessons   Metric = "perfect_lessons"
	MetricStreak           Metric = "streak"
	MetricBestStreak       Metric = "best_streak"
	MetricBestCombo        Metric = "best_combo"
	MetricCoins            Metric = "coins"
	MetricLevel            Metric = "level"
	MetricTotalXP          Metric = "total_xp"
	MetricScenarioCount    Metric = "scenario_count"
)

// Observe reads the metric value from a snapshot.
// Unknown metrics read as zero, so a stale catalog entry can never
// unlock anything by accident.
func (m Metric) Observe(snap *progression.Snapshot) float64 {
	switch m {
	case MetricLessonsCompleted:
		return float64(snap.TotalLessonsCompleted)
	case MetricPerfectLessons:
		return float64(snap.PerfectLessonCount)
	case MetricStreak:
		return float64(snap.Streak)
	case MetricBestStreak:
		return float64(snap.BestStreak)
	case MetricBestCombo:
		return float64(snap.BestCombo)
	case MetricCoins:
		return float64(snap.Coins)
	case MetricLevel:
		return float64(snap.Level)
	case MetricTotalXP:
		return float64(snap.TotalXP)
	case MetricScenarioCount:
		return float64(snap.Skills.ScenarioCount)
	default:
		return 0
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITION
// ══════════════════════════════════════════════════════════════════════════════

// Reward is the payout for reaching the gold tier of an achievement.
// Lower tiers pay a fraction of it.
type Reward struct {
	// XP - experience points.
	XP int

	// Coins - soft currency.
	Coins int
}

// Definition describes one achievement in the static catalog.
type Definition struct {
	// ID - stable achievement identifier.
	ID string

	// Title - display name.
	Title string

	// Description - what the achievement celebrates.
	Description string

	// Metric - the snapshot value the tiers are measured against.
	Metric Metric

	// Bronze, Silver, Gold - ascending tier thresholds (inclusive).
	Bronze float64
	Silver float64
	Gold   float64

	// Reward - full gold-tier payout.
	Reward Reward
}

// TierFor returns the highest tier the observed value qualifies for.
func (d Definition) TierFor(value float64) progression.Tier {
	switch {
	case value >= d.Gold:
		return progression.TierGold
	case value >= d.Silver:
		return progression.TierSilver
	case value >= d.Bronze:
		return progression.TierBronze
	default:
		return progression.TierNone
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// DefaultCatalog returns the built-in achievement catalog. In the app the
// catalog ships with content updates; this set is the default and the one
// the tests run against.
func DefaultCatalog() []Definition {
	return []Definition{
		{
			ID: "first_steps", Title: "First Steps",
			Description: "Complete your first lessons",
			Metric:      MetricLessonsCompleted,
			Bronze:      1, Silver: 5, Gold: 10,
			Reward: Reward{XP: 50, Coins: 30},
		},
		{
			ID: "scholar", Title: "Scholar",
			Description: "Complete many lessons",
			Metric:      MetricLessonsCompleted,
			Bronze:      25, Silver: 75, Gold: 200,
			Reward: Reward{XP: 200, Coins: 120},
		},
		{
			ID: "perfectionist", Title: "Perfectionist",
			Description: "Finish lessons without a single mistake",
			Metric:      MetricPerfectLessons,
			Bronze:      5, Silver: 25, Gold: 100,
			Reward: Reward{XP: 150, Coins: 100},
		},
		{
			ID: "on_fire", Title: "On Fire",
			Description: "Keep a daily streak alive",
			Metric:      MetricBestStreak,
			Bronze:      3, Silver: 7, Gold: 30,
			Reward: Reward{XP: 120, Coins: 150},
		},
		{
			ID: "combo_master", Title: "Combo Master",
			Description: "Chain correct answers in one session",
			Metric:      MetricBestCombo,
			Bronze:      5, Silver: 15, Gold: 40,
			Reward: Reward{XP: 100, Coins: 60},
		},
		{
			ID: "saver", Title: "Saver",
			Description: "Hold a pile of coins at once",
			Metric:      MetricCoins,
			Bronze:      100, Silver: 500, Gold: 2000,
			Reward: Reward{XP: 80, Coins: 0},
		},
		{
			ID: "climber", Title: "Climber",
			Description: "Reach higher levels",
			Metric:      MetricLevel,
			Bronze:      3, Silver: 7, Gold: 15,
			Reward: Reward{XP: 0, Coins: 200},
		},
		{
			ID: "strategist", Title: "Strategist",
			Description: "Work through real-life financial scenarios",
			Metric:      MetricScenarioCount,
			Bronze:      3, Silver: 10, Gold: 30,
			Reward: Reward{XP: 130, Coins: 80},
		},
	}
}

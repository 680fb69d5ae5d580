package progression

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/finquest-app/progression-engine/internal/domain/challenge"
)

func TestNewSnapshot_Defaults(t *testing.T) {
	snap := NewSnapshot("user-1", testNow())

	assert.Equal(t, "user-1", snap.UserID)
	assert.Equal(t, 0, snap.TotalXP)
	assert.Equal(t, 1, snap.Level)
	assert.Equal(t, 0, snap.CurrentLevelXP)
	assert.Equal(t, 0, snap.Coins)
	assert.Equal(t, MaxLives, snap.Lives)
	assert.Equal(t, 1.0, snap.XPMultiplier)
	assert.NotNil(t, snap.CompletedLessonIDs)
	assert.NotNil(t, snap.AchievementStates)
}

func TestSnapshot_Clone_IsDeep(t *testing.T) {
	now := testNow()
	snap := NewSnapshot("user-1", now)
	snap.CompletedLessonIDs["quiz-1"] = true
	snap.AchievementStates["first_steps"] = AchievementState{Tier: TierBronze, Progress: 3, UnlockedAt: &now}
	snap.RecentPerfect = []bool{true, false}
	snap.DailyChallenges = []challenge.Instance{{TemplateID: "daily_lessons", Target: 3}}
	snap.Session = challenge.NewSessionCounters("2025-03-10", now)
	snap.Session.Touch("quiz")

	clone := snap.Clone()

	clone.CompletedLessonIDs["vocab-1"] = true
	clone.AchievementStates["first_steps"] = AchievementState{Tier: TierGold}
	clone.RecentPerfect[0] = false
	clone.DailyChallenges[0].Current = 2
	clone.Session.Touch("basics")

	assert.False(t, snap.CompletedLessonIDs["vocab-1"])
	assert.Equal(t, TierBronze, snap.AchievementStates["first_steps"].Tier)
	assert.True(t, snap.RecentPerfect[0])
	assert.Equal(t, 0, snap.DailyChallenges[0].Current)
	assert.False(t, snap.Session.ModulesTouched["basics"])
}

func TestSnapshot_Sanitize_RepairsCorruptFields(t *testing.T) {
	snap := &Snapshot{
		UserID:       "user-1",
		TotalXP:      -500,
		Coins:        -10,
		XPMultiplier: math.NaN(),
		Streak:       7,
		BestStreak:   3, // below current streak
		Lives:        99,
		CurrentCombo: 12,
		BestCombo:    4,
	}
	snap.Skills.SpeedScore = math.Inf(1)

	snap.Sanitize()

	assert.Equal(t, 0, snap.TotalXP)
	assert.Equal(t, 1, snap.Level)
	assert.Equal(t, 0, snap.Coins)
	assert.Equal(t, 1.0, snap.XPMultiplier)
	assert.Equal(t, 7, snap.BestStreak)
	assert.Equal(t, MaxLives, snap.Lives)
	assert.Equal(t, 12, snap.BestCombo)
	assert.Equal(t, 0.0, snap.Skills.SpeedScore)
	assert.NotNil(t, snap.CompletedLessonIDs)
	assert.NotNil(t, snap.AchievementStates)
}

func TestSnapshot_Sanitize_ClampsChallengeProgress(t *testing.T) {
	snap := NewSnapshot("user-1", testNow())
	snap.DailyChallenges = []challenge.Instance{
		{TemplateID: "xp_hunt", Current: -3, Target: 0},
		{TemplateID: "daily_lessons", Current: 10, Target: 3},
	}

	snap.Sanitize()

	assert.Equal(t, 0, snap.DailyChallenges[0].Current)
	assert.Equal(t, 1, snap.DailyChallenges[0].Target)
	assert.Equal(t, 3, snap.DailyChallenges[1].Current)
}

func TestSnapshot_UpdateCombo(t *testing.T) {
	snap := NewSnapshot("user-1", testNow())

	assert.Equal(t, 1, snap.UpdateCombo(true))
	assert.Equal(t, 2, snap.UpdateCombo(true))
	assert.Equal(t, 3, snap.UpdateCombo(true))
	assert.Equal(t, 3, snap.BestCombo)

	// A wrong answer resets the combo but best combo stays.
	assert.Equal(t, 0, snap.UpdateCombo(false))
	assert.Equal(t, 3, snap.BestCombo)

	assert.Equal(t, 1, snap.UpdateCombo(true))
	assert.Equal(t, 3, snap.BestCombo)
}

func TestSnapshot_Lives(t *testing.T) {
	snap := NewSnapshot("user-1", testNow())

	for i := 0; i < MaxLives+2; i++ {
		snap.LoseLife()
	}
	assert.Equal(t, 0, snap.Lives)

	snap.AddLives(2)
	assert.Equal(t, 2, snap.Lives)

	snap.AddLives(10)
	assert.Equal(t, MaxLives, snap.Lives)

	snap.LoseLife()
	snap.RefillLives()
	assert.Equal(t, MaxLives, snap.Lives)
}

func TestSnapshot_SpendCoins(t *testing.T) {
	snap := NewSnapshot("user-1", testNow())
	snap.AddCoins(100)

	assert.True(t, snap.SpendCoins(40))
	assert.Equal(t, 60, snap.Coins)

	// Insufficient balance: refused, nothing changes.
	assert.False(t, snap.SpendCoins(61))
	assert.Equal(t, 60, snap.Coins)

	assert.False(t, snap.SpendCoins(0))
	assert.False(t, snap.SpendCoins(-5))
	assert.Equal(t, 60, snap.Coins)
}

func TestSnapshot_RecentAccuracy(t *testing.T) {
	snap := NewSnapshot("user-1", testNow())

	// Empty window reads as perfect accuracy.
	assert.Equal(t, 1.0, snap.RecentAccuracy())

	snap.RecordPerfect(true)
	snap.RecordPerfect(true)
	snap.RecordPerfect(false)
	snap.RecordPerfect(true)
	assert.InDelta(t, 0.75, snap.RecentAccuracy(), 1e-9)
}

func TestSnapshot_RecordPerfect_WindowBounded(t *testing.T) {
	snap := NewSnapshot("user-1", testNow())
	for i := 0; i < 30; i++ {
		snap.RecordPerfect(i%2 == 0)
	}
	assert.Len(t, snap.RecentPerfect, 20)
}

func TestTier_Ordering(t *testing.T) {
	assert.True(t, TierGold.AtLeast(TierSilver))
	assert.True(t, TierSilver.AtLeast(TierSilver))
	assert.False(t, TierBronze.AtLeast(TierSilver))
	assert.True(t, TierNone.AtLeast(TierNone))
	assert.Equal(t, 0, Tier("garbage").Rank())
}

func TestSnapshot_Validate(t *testing.T) {
	var nilSnap *Snapshot
	assert.Error(t, nilSnap.Validate())

	snap := &Snapshot{}
	assert.Error(t, snap.Validate())

	snap.UserID = "user-1"
	assert.NoError(t, snap.Validate())
}

func TestSnapshot_CloneNil(t *testing.T) {
	var snap *Snapshot
	assert.Nil(t, snap.Clone())
}

func TestSnapshot_AddCoinsIgnoresNegative(t *testing.T) {
	snap := NewSnapshot("user-1", time.Now())
	snap.AddCoins(10)
	snap.AddCoins(-5)
	assert.Equal(t, 10, snap.Coins)
}

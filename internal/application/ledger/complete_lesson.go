package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/finquest-app/progression-engine/internal/domain/achievement"
	"github.com/finquest-app/progression-engine/internal/domain/challenge"
	"github.com/finquest-app/progression-engine/internal/domain/progression"
	"github.com/finquest-app/progression-engine/internal/domain/shared"
	"github.com/finquest-app/progression-engine/pkg/logger"
	"github.com/finquest-app/progression-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON TRANSACTION
// The single mutating entry point for finished learning activity.
// Flow: Streak Advance → Reward Math → Daily Set Refresh → Challenge Progress →
// Fold Totals → First-Completion Metrics → Achievements → Summary
// ══════════════════════════════════════════════════════════════════════════════

// LessonResult is the outcome of one finished lesson as reported by the
// content runner. Numeric fields are raw external input and are sanitized
// before they touch engine state.
type LessonResult struct {
	// LessonID - catalog identifier, module prefix convention
	// ("quiz-101", "prediction-btc-7d").
	LessonID string

	// XP - base experience earned, before multipliers.
	XP float64

	// Coins - base coins earned, before multipliers.
	Coins float64

	// Perfect - completed without a single mistake.
	Perfect bool

	// DurationSeconds - how long the lesson took. Zero if unreported.
	DurationSeconds int
}

// Validate checks the result is usable.
func (r LessonResult) Validate() error {
	if r.LessonID == "" {
		return errors.New("complete_lesson: lesson_id is required")
	}
	return nil
}

// RewardSummary is what one completed lesson earned in total.
type RewardSummary struct {
	// XPGained - total XP from lesson, challenges and achievements.
	XPGained int `json:"xp_gained"`

	// CoinsGained - total coins, including the streak day bonus.
	CoinsGained int `json:"coins_gained"`

	// LeveledUp - the derived level increased during this transaction.
	LeveledUp bool `json:"leveled_up"`

	// NewAchievements - titles of tiers unlocked by this transaction.
	NewAchievements []string `json:"new_achievements,omitempty"`

	// DailyChallengeCompleted - at least one daily challenge finished.
	DailyChallengeCompleted bool `json:"daily_challenge_completed"`
}

// CompleteLesson applies one finished lesson to the snapshot. xpMult and
// coinMult are campaign multipliers (double-XP weekend and the like);
// values <= 0 read as 1. The whole transaction runs against one clone and
// installs one output snapshot; persistence happens asynchronously after.
func (l *Ledger) CompleteLesson(ctx context.Context, result LessonResult, xpMult, coinMult float64) (*RewardSummary, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}
	xpMult = shared.SanitizeNumber(xpMult, 1)
	if xpMult <= 0 {
		xpMult = 1
	}
	coinMult = shared.SanitizeNumber(coinMult, 1)
	if coinMult <= 0 {
		coinMult = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	now := l.clock.Now()
	today := timeutil.DayKey(now)
	work := l.snap.Clone()
	levelBefore := work.Level
	var events []shared.Event

	isNewLesson := !work.CompletedLessonIDs[result.LessonID]

	// First activity of a calendar day advances the streak.
	streak := progression.AdvanceCalendar(work, now)
	if streak.Fired {
		events = append(events, shared.NewStreakUpdatedEvent(l.userID, work.Streak, streak.BonusCoins, now))
		if streak.Broken {
			events = append(events, shared.NewStreakBrokenEvent(l.userID, streak.PreviousStreak, streak.DaysMissed, now))
		}
	}

	// Day rollover resets the session counters; restarts do not.
	if work.Session == nil || work.Session.Date != today {
		work.Session = challenge.NewSessionCounters(today, now)
	}

	// Reward math: personal multiplier, campaign multiplier, perfect bonus.
	xpGained := shared.SanitizeNonNegativeInt(result.XP*work.XPMultiplier*xpMult, 0)
	coinsGained := shared.SanitizeNonNegativeInt(result.Coins*coinMult, 0)
	if result.Perfect {
		xpGained += l.perfectBonusXP
		coinsGained += l.perfectBonusCoins
	}

	// Refresh the daily challenge set if it is stale.
	hadToday := len(work.DailyChallenges) > 0 && work.DailyChallenges[0].Date == today
	work.DailyChallenges = challenge.SelectDaily(challenge.SelectParams{
		Level:              work.Level,
		TotalCompleted:     work.TotalLessonsCompleted,
		RecentAccuracy:     work.RecentAccuracy(),
		CompletedLessonIDs: work.CompletedLessonIDs,
		Skills:             work.Skills,
		Now:                now,
		Existing:           work.DailyChallenges,
		Catalog:            l.challengeCatalog,
		Rand:               l.rng,
	})
	if !hadToday && len(work.DailyChallenges) > 0 {
		templateIDs := make([]string, 0, len(work.DailyChallenges))
		for _, inst := range work.DailyChallenges {
			templateIDs = append(templateIDs, inst.TemplateID)
		}
		events = append(events, shared.NewChallengeAssignedEvent(l.userID, today, templateIDs, now))
	}

	// Advance every active challenge by its type rule.
	facts := challenge.LessonFacts{
		LessonID:        result.LessonID,
		Module:          challenge.ModuleOf(result.LessonID),
		XPGained:        xpGained,
		Perfect:         result.Perfect,
		DurationSeconds: result.DurationSeconds,
	}
	challenge.RecordLesson(work.Session, facts)

	challengeCompleted := false
	for i := range work.DailyChallenges {
		inst := &work.DailyChallenges[i]
		if !challenge.Advance(inst, work.Session, facts, now) {
			continue
		}
		challengeCompleted = true
		xpGained += inst.Reward.XP
		coinsGained += inst.Reward.Coins
		if inst.Reward.Lives > 0 {
			work.AddLives(inst.Reward.Lives)
		}
		events = append(events, shared.NewChallengeCompletedEvent(l.userID, inst.TemplateID, inst.Reward.XP, inst.Reward.Coins, now))
	}

	// Fold totals; level re-derives from total XP.
	work.AddXP(xpGained)
	work.AddCoins(coinsGained)

	// First completions advance the lifetime metrics; replays only pay.
	if isNewLesson {
		work.CompletedLessonIDs[result.LessonID] = true
		work.TotalLessonsCompleted++
		if result.Perfect {
			work.PerfectLessonCount++
		}
		if facts.Module == challenge.ModuleScenarios {
			work.Skills.ScenarioCount++
		}
	}
	work.RecordPerfect(result.Perfect)

	// Achievements see the fully folded snapshot; their rewards can
	// themselves cause a second level-up.
	unlocks := achievement.Evaluate(work, l.achievementCatalog, now)
	var achievementTitles []string
	for _, unlock := range unlocks {
		work.AddXP(unlock.XP)
		work.AddCoins(unlock.Coins)
		xpGained += unlock.XP
		coinsGained += unlock.Coins
		achievementTitles = append(achievementTitles, unlock.Title)
		events = append(events, shared.NewAchievementUnlockedEvent(l.userID, unlock.ID, string(unlock.Tier), unlock.XP, unlock.Coins, now))
	}

	leveledUp := work.Level > levelBefore
	events = append(events, shared.NewXPGainedEvent(l.userID, result.LessonID, xpGained, work.TotalXP, "lesson", now))
	if leveledUp {
		events = append(events, shared.NewLevelUpEvent(l.userID, levelBefore, work.Level, work.TotalXP, now))
	}

	summary := &RewardSummary{
		XPGained:                xpGained,
		CoinsGained:             coinsGained + streak.BonusCoins,
		LeveledUp:               leveledUp,
		NewAchievements:         achievementTitles,
		DailyChallengeCompleted: challengeCompleted,
	}

	l.install(work, now)
	l.publish(events...)
	l.appendJournal(progression.JournalEntry{
		ID:                 uuid.NewString(),
		UserID:             l.userID,
		LessonID:           result.LessonID,
		XPGained:           summary.XPGained,
		CoinsGained:        summary.CoinsGained,
		LeveledUp:          leveledUp,
		Achievements:       achievementIDs(unlocks),
		ChallengeCompleted: challengeCompleted,
		AppliedAt:          now,
	})

	l.log.Info("lesson applied",
		logger.String("lesson_id", result.LessonID),
		logger.Int("xp_gained", summary.XPGained),
		logger.Int("coins_gained", summary.CoinsGained),
		logger.Bool("leveled_up", leveledUp),
		logger.Bool("perfect", result.Perfect))

	return summary, nil
}

func achievementIDs(unlocks []achievement.Unlock) []string {
	if len(unlocks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(unlocks))
	for _, u := range unlocks {
		ids = append(ids, u.ID)
	}
	return ids
}

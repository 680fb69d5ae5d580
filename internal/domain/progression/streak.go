package progression

import (
	"time"

	"github.com/finquest-app/progression-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (серия активных календарных дней)
// ══════════════════════════════════════════════════════════════════════════════

// Бонус серии: базовые монеты за первый день и потолок дневного бонуса.
const (
	streakBonusBase = 5
	streakBonusCap  = 50
)

// StreakResult - итог календарного перехода серии.
type StreakResult struct {
	// Fired - переход состоялся (первая активность нового дня).
	Fired bool

	// BonusCoins - начисленные за переход монеты.
	BonusCoins int

	// Broken - серия была прервана пропуском дней.
	Broken bool

	// PreviousStreak - значение серии до перехода.
	PreviousStreak int

	// DaysMissed - пропущено дней (0 для непрерывной серии).
	DaysMissed int
}

// AdvanceCalendar выполняет календарный переход серии при первой
// активности дня. Решение принимается по локальным календарным дням,
// а не по 24-часовым интервалам:
//
//   - тот же день  - ничего не происходит;
//   - ровно +1 день - серия растёт, бонус min(streakBonusBase+серия, streakBonusCap);
//   - разрыв или первая активность - серия начинается заново с 1.
//
// LastActiveDate всегда штампуется текущим днём, даже при разрыве:
// потерять день серии можно только один раз за календарный день.
func AdvanceCalendar(snap *Snapshot, now time.Time) StreakResult {
	today := timeutil.DayKey(now)
	result := StreakResult{PreviousStreak: snap.Streak}

	if snap.LastActiveDate == today {
		return result
	}

	result.Fired = true

	switch {
	case snap.LastActiveDate == "":
		// Первая активность за всё время.
		snap.Streak = 1
		result.BonusCoins = streakBonusBase

	case timeutil.DaysBetweenKeys(snap.LastActiveDate, today) == 1:
		snap.Streak++
		result.BonusCoins = streakBonus(snap.Streak)

	default:
		days := timeutil.DaysBetweenKeys(snap.LastActiveDate, today)
		if days > 1 {
			result.DaysMissed = days - 1
		}
		result.Broken = snap.Streak > 0
		snap.Streak = 1
		result.BonusCoins = streakBonusBase
	}

	if snap.Streak > snap.BestStreak {
		snap.BestStreak = snap.Streak
	}
	snap.LastActiveDate = today
	snap.AddCoins(result.BonusCoins)

	return result
}

// streakBonus - дневной бонус монет за серию длиной streak.
func streakBonus(streak int) int {
	bonus := streakBonusBase + streak
	if bonus > streakBonusCap {
		bonus = streakBonusCap
	}
	return bonus
}

package challenge

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS RULES (учёт урока в челленджах дня)
// ══════════════════════════════════════════════════════════════════════════════

// LessonFacts - факты одного выполненного урока, необходимые правилам
// прогресса. Движок формирует их из результата урока.
type LessonFacts struct {
	// LessonID - идентификатор урока.
	LessonID string

	// Module - модуль контента урока.
	Module string

	// XPGained - начисленный за урок опыт (после множителей).
	XPGained int

	// Perfect - урок пройден без ошибок.
	Perfect bool

	// DurationSeconds - длительность урока в секундах.
	DurationSeconds int
}

// Advance учитывает урок в одном челлендже по правилу его типа.
// Возвращает true, если челлендж выполнен именно этим уроком.
// Прогресс ограничивается целью; выполненный челлендж не учитывается
// повторно. Счётчики sess должны быть уже приведены к текущему дню.
func Advance(inst *Instance, sess *SessionCounters, facts LessonFacts, now time.Time) bool {
	if inst == nil || inst.Completed {
		return false
	}
	if inst.IsExpired(now) {
		return false
	}

	switch inst.Type {
	case TypeLessons:
		inst.Current++

	case TypePerfect:
		// Серия идёт из дневных счётчиков: ошибка сбрасывает её в ноль,
		// и прогресс челленджа откатывается вместе с ней.
		inst.Current = sess.PerfectRun

	case TypeXP:
		inst.Current += facts.XPGained

	case TypeSpeed:
		if inst.SpeedLimitSeconds > 0 && facts.DurationSeconds > 0 &&
			facts.DurationSeconds <= inst.SpeedLimitSeconds {
			inst.Current++
		}

	case TypeVariety:
		inst.Current = len(sess.ModulesTouched)

	case TypeTiming:
		if hourInWindow(now.Hour(), inst.WindowStartHour, inst.WindowEndHour) {
			inst.Current++
		}

	case TypeDuration:
		inst.Current = sess.ActiveMinutes

	case TypeCommunity:
		// Локальный вклад поверх затравки общего счётчика.
		inst.Current++
	}

	if inst.Current < 0 {
		inst.Current = 0
	}
	if inst.Current > inst.Target {
		inst.Current = inst.Target
	}

	if inst.Current >= inst.Target && !inst.Completed {
		inst.Completed = true
		completedAt := now
		inst.CompletedAt = &completedAt
		return true
	}
	return false
}

// RecordLesson обновляет дневные счётчики фактами урока.
// Вызывается один раз на урок, до Advance по каждому челленджу.
func RecordLesson(sess *SessionCounters, facts LessonFacts) {
	if sess == nil {
		return
	}

	sess.Touch(facts.Module)

	if facts.Perfect {
		sess.PerfectRun++
	} else {
		sess.PerfectRun = 0
	}

	if facts.DurationSeconds > 0 {
		minutes := facts.DurationSeconds / 60
		if minutes < 1 {
			minutes = 1
		}
		sess.ActiveMinutes += minutes
	}
}

// hourInWindow проверяет попадание часа в окно [start, end).
// Окно через полночь (start > end) тоже поддерживается.
func hourInWindow(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

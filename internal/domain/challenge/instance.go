package challenge

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// INSTANCE (шаблон, воплощённый на один календарный день)
// ══════════════════════════════════════════════════════════════════════════════

// Instance - челлендж, назначенный на конкретный календарный день.
// Хранится внутри снапшота прогресса и сериализуется вместе с ним.
type Instance struct {
	// TemplateID - идентификатор исходного шаблона.
	TemplateID string `json:"template_id"`

	// Type - тип челленджа.
	Type Type `json:"type"`

	// Difficulty - сложность.
	Difficulty Difficulty `json:"difficulty"`

	// Title - отображаемое название.
	Title string `json:"title"`

	// Date - календарный день в формате YYYY-MM-DD.
	Date string `json:"date"`

	// Current - текущий прогресс (ограничен Target).
	Current int `json:"current"`

	// Target - цель.
	Target int `json:"target"`

	// Completed - челлендж выполнен.
	Completed bool `json:"completed"`

	// CompletedAt - момент выполнения.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// StartedAt - момент назначения.
	StartedAt time.Time `json:"started_at"`

	// ExpiresAt - полночь следующего дня.
	ExpiresAt time.Time `json:"expires_at"`

	// Reward - награда за выполнение.
	Reward Reward `json:"reward"`

	// CommunitySeed - стартовое значение общего счётчика сообщества
	// (только для TypeCommunity; синхронизируется извне, здесь заглушка).
	CommunitySeed int `json:"community_seed,omitempty"`

	// SpeedLimitSeconds - лимит времени урока (копия из шаблона).
	SpeedLimitSeconds int `json:"speed_limit_seconds,omitempty"`

	// WindowStartHour, WindowEndHour - окно времени суток (копия из шаблона).
	WindowStartHour int `json:"window_start_hour,omitempty"`
	WindowEndHour   int `json:"window_end_hour,omitempty"`
}

// IsExpired проверяет, истёк ли челлендж к указанному моменту.
func (i Instance) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION COUNTERS (эфемерные счётчики одного дня)
// ══════════════════════════════════════════════════════════════════════════════

// SessionCounters - дневные счётчики для правил прогресса челленджей:
// затронутые модули, серия идеальных уроков, накопленные минуты.
// Счётчики сохраняются в снапшоте и переживают перезапуск приложения;
// их сбрасывает только смена календарного дня.
type SessionCounters struct {
	// Date - день, к которому относятся счётчики (YYYY-MM-DD).
	Date string `json:"date"`

	// ModulesTouched - модули, в которых были уроки сегодня.
	ModulesTouched map[string]bool `json:"modules_touched,omitempty"`

	// PerfectRun - текущая серия идеальных уроков (сбрасывается ошибкой).
	PerfectRun int `json:"perfect_run"`

	// ActiveMinutes - суммарные минуты занятий за день.
	ActiveMinutes int `json:"active_minutes"`

	// StartedAt - первая активность дня.
	StartedAt time.Time `json:"started_at"`
}

// NewSessionCounters создаёт счётчики для нового дня.
func NewSessionCounters(date string, now time.Time) *SessionCounters {
	return &SessionCounters{
		Date:           date,
		ModulesTouched: make(map[string]bool),
		PerfectRun:     0,
		ActiveMinutes:  0,
		StartedAt:      now,
	}
}

// Touch отмечает активность в модуле.
func (s *SessionCounters) Touch(module string) {
	if s.ModulesTouched == nil {
		s.ModulesTouched = make(map[string]bool)
	}
	s.ModulesTouched[module] = true
}

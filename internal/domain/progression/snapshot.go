package progression

import (
	"time"

	"github.com/finquest-app/progression-engine/internal/domain/challenge"
	"github.com/finquest-app/progression-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MaxLives - максимум жизней.
	MaxLives = 5

	// recentWindow - размер окна недавних уроков для расчёта точности.
	recentWindow = 20
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT STATE
// ══════════════════════════════════════════════════════════════════════════════

// Tier - достигнутый ярус достижения.
type Tier string

const (
	TierNone   Tier = "none"
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// Rank возвращает порядковый номер яруса для сравнения.
func (t Tier) Rank() int {
	switch t {
	case TierBronze:
		return 1
	case TierSilver:
		return 2
	case TierGold:
		return 3
	default:
		return 0
	}
}

// AtLeast проверяет, что ярус не ниже указанного.
func (t Tier) AtLeast(other Tier) bool {
	return t.Rank() >= other.Rank()
}

// AchievementState - состояние одного достижения в снапшоте.
// Ярус только растёт: none → bronze → silver → gold, отката нет.
type AchievementState struct {
	// Tier - достигнутый ярус.
	Tier Tier `json:"tier"`

	// Progress - текущее значение наблюдаемой метрики.
	Progress float64 `json:"progress"`

	// UnlockedAt - момент последнего повышения яруса.
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT (каноническая запись прогресса)
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - единственная каноническая запись прогресса пользователя.
// Мутируется исключительно транзакциями движка: каждая транзакция строит
// новый полный снапшот и заменяет им старый. Частично записанных
// снапшотов не существует.
type Snapshot struct {
	// UserID - идентификатор пользователя (ключ в хранилище).
	UserID string `json:"user_id"`

	// TotalXP - суммарные очки опыта. Уровень выводится из этого поля.
	TotalXP int `json:"total_xp"`

	// Level и CurrentLevelXP - производные от TotalXP, пересчитываются
	// через Recompute и хранятся только для удобства чтения.
	Level          int `json:"level"`
	CurrentLevelXP int `json:"current_level_xp"`

	// Coins - монеты (внутренняя валюта).
	Coins int `json:"coins"`

	// XPMultiplier - персональный множитель опыта (бустеры магазина).
	XPMultiplier float64 `json:"xp_multiplier"`

	// Streak - текущая серия активных календарных дней.
	Streak int `json:"streak"`

	// BestStreak - лучшая серия за всё время (монотонно растёт).
	BestStreak int `json:"best_streak"`

	// LastActiveDate - день последней активности (YYYY-MM-DD).
	LastActiveDate string `json:"last_active_date"`

	// Lives - жизни в диапазоне [0, MaxLives].
	Lives int `json:"lives"`

	// CompletedLessonIDs - выполненные уроки. Множество только растёт;
	// повторное прохождение урока не изменяет его.
	CompletedLessonIDs map[string]bool `json:"completed_lesson_ids"`

	// PerfectLessonCount - уроков без ошибок (первые прохождения).
	PerfectLessonCount int `json:"perfect_lesson_count"`

	// TotalLessonsCompleted - первых прохождений уроков всего.
	TotalLessonsCompleted int `json:"total_lessons_completed"`

	// CurrentCombo и BestCombo - серия верных ответов в сессии.
	// BestCombo монотонно не убывает.
	CurrentCombo int `json:"current_combo"`
	BestCombo    int `json:"best_combo"`

	// RecentPerfect - окно результатов недавних уроков (true = идеально).
	RecentPerfect []bool `json:"recent_perfect,omitempty"`

	// Skills - отслеживаемые метрики навыков.
	Skills challenge.Skills `json:"skills"`

	// AchievementStates - состояния достижений по идентификатору.
	AchievementStates map[string]AchievementState `json:"achievement_states"`

	// DailyChallenges - набор челленджей текущего дня.
	DailyChallenges []challenge.Instance `json:"daily_challenges,omitempty"`

	// Session - дневные счётчики правил челленджей. Переживают
	// перезапуск приложения; сбрасываются сменой календарного дня.
	Session *challenge.SessionCounters `json:"session,omitempty"`

	// CreatedAt и UpdatedAt - служебные отметки времени.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSnapshot создаёт снапшот с начальными значениями первого запуска.
func NewSnapshot(userID string, now time.Time) *Snapshot {
	snap := &Snapshot{
		UserID:             userID,
		TotalXP:            0,
		Coins:              0,
		XPMultiplier:       1.0,
		Streak:             0,
		BestStreak:         0,
		LastActiveDate:     "",
		Lives:              MaxLives,
		CompletedLessonIDs: make(map[string]bool),
		AchievementStates:  make(map[string]AchievementState),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	snap.Recompute()
	return snap
}

// Recompute приводит производные поля уровня в соответствие инварианту.
// Вызывается после каждого изменения TotalXP.
func (s *Snapshot) Recompute() {
	s.Level, s.CurrentLevelXP = DeriveLevel(s.TotalXP)
}

// Clone создаёт глубокую копию снапшота.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	clone := *s

	clone.CompletedLessonIDs = make(map[string]bool, len(s.CompletedLessonIDs))
	for id := range s.CompletedLessonIDs {
		clone.CompletedLessonIDs[id] = true
	}

	clone.AchievementStates = make(map[string]AchievementState, len(s.AchievementStates))
	for id, st := range s.AchievementStates {
		if st.UnlockedAt != nil {
			at := *st.UnlockedAt
			st.UnlockedAt = &at
		}
		clone.AchievementStates[id] = st
	}

	clone.RecentPerfect = append([]bool(nil), s.RecentPerfect...)

	clone.DailyChallenges = make([]challenge.Instance, len(s.DailyChallenges))
	copy(clone.DailyChallenges, s.DailyChallenges)
	for i := range clone.DailyChallenges {
		if at := clone.DailyChallenges[i].CompletedAt; at != nil {
			copied := *at
			clone.DailyChallenges[i].CompletedAt = &copied
		}
	}

	if s.Session != nil {
		sess := *s.Session
		sess.ModulesTouched = make(map[string]bool, len(s.Session.ModulesTouched))
		for m := range s.Session.ModulesTouched {
			sess.ModulesTouched[m] = true
		}
		clone.Session = &sess
	}

	return &clone
}

// Sanitize приводит все числовые поля к безопасным значениям и
// восстанавливает инварианты. Вызывается на каждой границе
// загрузки/сохранения: испорченная запись в хранилище не должна
// протащить NaN или отрицательные значения в арифметику движка.
func (s *Snapshot) Sanitize() {
	s.TotalXP = shared.SanitizeNonNegativeInt(float64(s.TotalXP), 0)
	s.Coins = shared.SanitizeNonNegativeInt(float64(s.Coins), 0)
	s.XPMultiplier = shared.SanitizeNumber(s.XPMultiplier, 1.0)
	if s.XPMultiplier <= 0 {
		s.XPMultiplier = 1.0
	} else if s.XPMultiplier > 10.0 {
		s.XPMultiplier = 10.0
	}
	s.Streak = shared.SanitizeNonNegativeInt(float64(s.Streak), 0)
	s.BestStreak = shared.SanitizeNonNegativeInt(float64(s.BestStreak), 0)
	if s.BestStreak < s.Streak {
		s.BestStreak = s.Streak
	}
	s.Lives = shared.ClampInt(s.Lives, 0, MaxLives)
	s.PerfectLessonCount = shared.SanitizeNonNegativeInt(float64(s.PerfectLessonCount), 0)
	s.TotalLessonsCompleted = shared.SanitizeNonNegativeInt(float64(s.TotalLessonsCompleted), 0)
	s.CurrentCombo = shared.SanitizeNonNegativeInt(float64(s.CurrentCombo), 0)
	s.BestCombo = shared.SanitizeNonNegativeInt(float64(s.BestCombo), 0)
	if s.BestCombo < s.CurrentCombo {
		s.BestCombo = s.CurrentCombo
	}

	s.Skills.SpeedScore = shared.ClampNumber(s.Skills.SpeedScore, 0, 1)
	s.Skills.VocabularyScore = shared.ClampNumber(s.Skills.VocabularyScore, 0, 1)
	s.Skills.PredictionAccuracy = shared.ClampNumber(s.Skills.PredictionAccuracy, 0, 1)
	s.Skills.ScenarioCount = shared.SanitizeNonNegativeInt(float64(s.Skills.ScenarioCount), 0)

	if s.CompletedLessonIDs == nil {
		s.CompletedLessonIDs = make(map[string]bool)
	}
	if s.AchievementStates == nil {
		s.AchievementStates = make(map[string]AchievementState)
	}
	for id, st := range s.AchievementStates {
		st.Progress = shared.SanitizeNonNegativeNumber(st.Progress, 0)
		if !st.Tier.AtLeast(TierNone) {
			st.Tier = TierNone
		}
		s.AchievementStates[id] = st
	}

	for i := range s.DailyChallenges {
		inst := &s.DailyChallenges[i]
		inst.Current = shared.SanitizeNonNegativeInt(float64(inst.Current), 0)
		if inst.Target < 1 {
			inst.Target = 1
		}
		if inst.Current > inst.Target {
			inst.Current = inst.Target
		}
	}

	s.Recompute()
}

// Validate проверяет, что снапшот пригоден к использованию.
// Возвращает ошибку для записей, которые нельзя починить санитизацией.
func (s *Snapshot) Validate() error {
	if s == nil {
		return shared.NewDomainError("progression", "Validate", shared.ErrCorruptRecord, "nil snapshot")
	}
	if s.UserID == "" {
		return shared.NewDomainError("progression", "Validate", shared.ErrCorruptRecord, "empty user id")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// AddXP начисляет опыт и пересчитывает уровень.
// Отрицательная дельта игнорируется: опыт не убывает.
func (s *Snapshot) AddXP(delta int) {
	if delta <= 0 {
		return
	}
	s.TotalXP += delta
	s.Recompute()
}

// AddCoins начисляет монеты. Отрицательная дельта игнорируется;
// списание идёт только через SpendCoins.
func (s *Snapshot) AddCoins(delta int) {
	if delta <= 0 {
		return
	}
	s.Coins += delta
}

// SpendCoins списывает монеты, если их достаточно.
// Возвращает false без изменения состояния при нехватке.
func (s *Snapshot) SpendCoins(amount int) bool {
	if amount <= 0 || s.Coins < amount {
		return false
	}
	s.Coins -= amount
	return true
}

// UpdateCombo обновляет серию верных ответов и возвращает новое значение.
func (s *Snapshot) UpdateCombo(correct bool) int {
	if correct {
		s.CurrentCombo++
		if s.CurrentCombo > s.BestCombo {
			s.BestCombo = s.CurrentCombo
		}
	} else {
		s.CurrentCombo = 0
	}
	return s.CurrentCombo
}

// LoseLife отнимает одну жизнь, не опускаясь ниже нуля.
func (s *Snapshot) LoseLife() {
	if s.Lives > 0 {
		s.Lives--
	}
}

// RefillLives восстанавливает жизни до максимума.
func (s *Snapshot) RefillLives() {
	s.Lives = MaxLives
}

// AddLives начисляет бонусные жизни с учётом максимума.
func (s *Snapshot) AddLives(delta int) {
	if delta <= 0 {
		return
	}
	s.Lives = shared.ClampInt(s.Lives+delta, 0, MaxLives)
}

// RecordPerfect добавляет результат урока в окно недавних.
func (s *Snapshot) RecordPerfect(perfect bool) {
	s.RecentPerfect = append(s.RecentPerfect, perfect)
	if len(s.RecentPerfect) > recentWindow {
		s.RecentPerfect = s.RecentPerfect[len(s.RecentPerfect)-recentWindow:]
	}
}

// RecentAccuracy возвращает долю идеальных уроков в недавнем окне.
// Пустое окно читается как идеальная точность, чтобы новичок не
// застревал на лёгкой сложности из-за отсутствия данных.
func (s *Snapshot) RecentAccuracy() float64 {
	if len(s.RecentPerfect) == 0 {
		return 1.0
	}
	perfect := 0
	for _, p := range s.RecentPerfect {
		if p {
			perfect++
		}
	}
	return float64(perfect) / float64(len(s.RecentPerfect))
}

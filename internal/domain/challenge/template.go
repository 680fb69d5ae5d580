// Package challenge содержит доменную модель дневных челленджей FinQuest.
// Челлендж - это не случайное задание, а персональная цель на один
// календарный день, подобранная под уровень ученика и его пробелы в знаниях.
// Пакет чистый: весь ввод (сегодняшняя дата, источник случайности, каталог)
// передаётся параметрами, внешних зависимостей нет.
package challenge

import (
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет тип дневного челленджа и правило учёта прогресса.
type Type string

const (
	// TypeLessons - выполнить N уроков за день.
	TypeLessons Type = "lessons"
	// TypePerfect - N идеальных уроков подряд (серия сбрасывается ошибкой).
	TypePerfect Type = "perfect"
	// TypeXP - накопить N очков опыта за день.
	TypeXP Type = "xp"
	// TypeSpeed - выполнить N уроков быстрее лимита времени.
	TypeSpeed Type = "speed"
	// TypeVariety - позаниматься в N разных модулях за день.
	TypeVariety Type = "variety"
	// TypeTiming - выполнить урок в заданном окне времени суток.
	TypeTiming Type = "timing"
	// TypeDuration - набрать N минут занятий за день.
	TypeDuration Type = "duration"
	// TypeCommunity - общая цель сообщества (счётчик синхронизируется извне).
	TypeCommunity Type = "community"
)

// IsValid проверяет, что тип челленджа известен движку.
func (t Type) IsValid() bool {
	switch t {
	case TypeLessons, TypePerfect, TypeXP, TypeSpeed,
		TypeVariety, TypeTiming, TypeDuration, TypeCommunity:
		return true
	default:
		return false
	}
}

// Difficulty определяет сложность челленджа.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// IsValid проверяет корректность сложности.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	default:
		return false
	}
}

// Reward описывает награду за выполнение челленджа.
type Reward struct {
	// XP - очки опыта.
	XP int `json:"xp"`

	// Coins - монеты.
	Coins int `json:"coins"`

	// Lives - бонусные жизни (начисляются с учётом максимума).
	Lives int `json:"lives"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT MODULES
// ══════════════════════════════════════════════════════════════════════════════

// Модули контента FinQuest. Идентификатор урока начинается с имени модуля:
// "vocabulary-101", "prediction-btc-7d". Это соглашение каталога контента.
const (
	ModuleQuiz       = "quiz"       // блиц-викторины на скорость
	ModuleVocabulary = "vocabulary" // финансовая лексика
	ModuleScenarios  = "scenarios"  // жизненные сценарии (бюджет, кредит)
	ModulePrediction = "prediction" // прогноз движения цены
	ModuleBasics     = "basics"     // базовый курс
)

// TrackedModules возвращает модули, участвующие в расчёте пробелов.
func TrackedModules() []string {
	return []string{ModuleQuiz, ModuleVocabulary, ModuleScenarios, ModulePrediction, ModuleBasics}
}

// ModuleOf извлекает модуль из идентификатора урока.
// Для урока без префикса модуля возвращает ModuleBasics.
func ModuleOf(lessonID string) string {
	idx := strings.IndexByte(lessonID, '-')
	if idx <= 0 {
		return ModuleBasics
	}
	module := lessonID[:idx]
	for _, m := range TrackedModules() {
		if module == m {
			return m
		}
	}
	return ModuleBasics
}

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE (статический каталог)
// ══════════════════════════════════════════════════════════════════════════════

// Template описывает шаблон челленджа из статического каталога контента.
// Каталог загружается один раз и движком не изменяется.
type Template struct {
	// ID - стабильный идентификатор шаблона.
	ID string

	// Type - тип челленджа (правило учёта прогресса).
	Type Type

	// Difficulty - сложность.
	Difficulty Difficulty

	// Title - отображаемое название.
	Title string

	// Description - описание цели.
	Description string

	// MinLevel - минимальный уровень ученика.
	MinLevel int

	// MaxLevel - максимальный уровень ученика (0 = без ограничения).
	MaxLevel int

	// WeekendOnly - шаблон доступен только в субботу и воскресенье.
	WeekendOnly bool

	// Weight - базовый вес при отборе.
	Weight int

	// Reward - награда за выполнение.
	Reward Reward

	// GapModule - модуль, который тренирует челлендж.
	// Совпадение с выявленным пробелом повышает очки отбора.
	GapModule string

	// SpeedLimitSeconds - лимит времени урока (для TypeSpeed).
	SpeedLimitSeconds int

	// WindowStartHour, WindowEndHour - окно времени суток (для TypeTiming).
	WindowStartHour int
	WindowEndHour   int
}

// EligibleFor проверяет доступность шаблона для уровня и дня недели.
func (t Template) EligibleFor(level int, weekend bool) bool {
	if level < t.MinLevel {
		return false
	}
	if t.MaxLevel > 0 && level > t.MaxLevel {
		return false
	}
	if t.WeekendOnly && !weekend {
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// TARGET TABLE
// ══════════════════════════════════════════════════════════════════════════════

// targetTable задаёт цель челленджа по сложности и типу.
// Для TypeXP цель в очках опыта, для TypeDuration - в минутах,
// для остальных типов - в количестве событий.
var targetTable = map[Difficulty]map[Type]int{
	DifficultyEasy: {
		TypeLessons: 2, TypePerfect: 2, TypeXP: 50, TypeSpeed: 1,
		TypeVariety: 2, TypeTiming: 1, TypeDuration: 10, TypeCommunity: 10,
	},
	DifficultyMedium: {
		TypeLessons: 3, TypePerfect: 3, TypeXP: 100, TypeSpeed: 2,
		TypeVariety: 3, TypeTiming: 1, TypeDuration: 20, TypeCommunity: 25,
	},
	DifficultyHard: {
		TypeLessons: 5, TypePerfect: 4, TypeXP: 200, TypeSpeed: 3,
		TypeVariety: 4, TypeTiming: 2, TypeDuration: 30, TypeCommunity: 50,
	},
	DifficultyExpert: {
		TypeLessons: 7, TypePerfect: 5, TypeXP: 350, TypeSpeed: 5,
		TypeVariety: 5, TypeTiming: 2, TypeDuration: 45, TypeCommunity: 100,
	},
}

// TargetFor возвращает цель для пары сложность×тип.
// Неизвестная комбинация даёт минимальную цель 1, а не панику.
func TargetFor(d Difficulty, t Type) int {
	if byType, ok := targetTable[d]; ok {
		if target, ok := byType[t]; ok {
			return target
		}
	}
	return 1
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// DefaultCatalog возвращает встроенный каталог шаблонов.
// В приложении каталог поставляется контентной командой; встроенный
// набор используется как значение по умолчанию и в тестах.
func DefaultCatalog() []Template {
	return []Template{
		{ID: "daily_lessons", Type: TypeLessons, Difficulty: DifficultyEasy, Title: "Разминка", Description: "Выполни уроки сегодня", Weight: 20, Reward: Reward{XP: 20, Coins: 10}},
		{ID: "daily_lessons_hard", Type: TypeLessons, Difficulty: DifficultyHard, Title: "Марафон", Description: "Большая дневная норма уроков", MinLevel: 5, Weight: 12, Reward: Reward{XP: 60, Coins: 30}},
		{ID: "perfect_run", Type: TypePerfect, Difficulty: DifficultyMedium, Title: "Без ошибок", Description: "Идеальные уроки подряд", MinLevel: 2, Weight: 15, Reward: Reward{XP: 40, Coins: 20}},
		{ID: "perfect_run_expert", Type: TypePerfect, Difficulty: DifficultyExpert, Title: "Перфекционист", Description: "Длинная серия идеальных уроков", MinLevel: 8, Weight: 8, Reward: Reward{XP: 100, Coins: 50, Lives: 1}},
		{ID: "xp_hunt", Type: TypeXP, Difficulty: DifficultyMedium, Title: "Охота за опытом", Description: "Набери опыт за день", Weight: 18, Reward: Reward{XP: 30, Coins: 25}},
		{ID: "xp_hunt_expert", Type: TypeXP, Difficulty: DifficultyExpert, Title: "Золотая лихорадка", Description: "Рекордный дневной опыт", MinLevel: 9, Weight: 8, Reward: Reward{XP: 80, Coins: 60}},
		{ID: "speed_quiz", Type: TypeSpeed, Difficulty: DifficultyMedium, Title: "Блиц", Description: "Быстрые уроки на время", MinLevel: 3, Weight: 14, Reward: Reward{XP: 35, Coins: 20}, GapModule: ModuleQuiz, SpeedLimitSeconds: 90},
		{ID: "vocab_sprint", Type: TypeLessons, Difficulty: DifficultyEasy, Title: "Словарный спринт", Description: "Уроки финансовой лексики", MaxLevel: 6, Weight: 13, Reward: Reward{XP: 25, Coins: 12}, GapModule: ModuleVocabulary},
		{ID: "scenario_day", Type: TypeVariety, Difficulty: DifficultyMedium, Title: "Разные темы", Description: "Позанимайся в разных модулях", MinLevel: 2, Weight: 14, Reward: Reward{XP: 45, Coins: 22}, GapModule: ModuleScenarios},
		{ID: "prediction_focus", Type: TypeSpeed, Difficulty: DifficultyHard, Title: "Трейдер", Description: "Быстрые прогнозы цены", MinLevel: 6, Weight: 10, Reward: Reward{XP: 55, Coins: 35}, GapModule: ModulePrediction, SpeedLimitSeconds: 120},
		{ID: "early_bird", Type: TypeTiming, Difficulty: DifficultyEasy, Title: "Ранняя пташка", Description: "Урок до 9 утра", Weight: 10, Reward: Reward{XP: 15, Coins: 10}, WindowStartHour: 5, WindowEndHour: 9},
		{ID: "night_owl", Type: TypeTiming, Difficulty: DifficultyEasy, Title: "Ночная сова", Description: "Урок после 21:00", Weight: 10, Reward: Reward{XP: 15, Coins: 10}, WindowStartHour: 21, WindowEndHour: 24},
		{ID: "study_session", Type: TypeDuration, Difficulty: DifficultyMedium, Title: "Глубокое погружение", Description: "Минуты занятий за день", Weight: 12, Reward: Reward{XP: 40, Coins: 18}},
		{ID: "weekend_warrior", Type: TypeDuration, Difficulty: DifficultyHard, Title: "Воин выходных", Description: "Длинная сессия в выходной", WeekendOnly: true, Weight: 16, Reward: Reward{XP: 70, Coins: 40, Lives: 1}},
		{ID: "weekend_community", Type: TypeCommunity, Difficulty: DifficultyMedium, Title: "Общая цель", Description: "Вклад в цель сообщества", WeekendOnly: true, Weight: 11, Reward: Reward{XP: 30, Coins: 30}},
		{ID: "community_push", Type: TypeCommunity, Difficulty: DifficultyHard, Title: "Все вместе", Description: "Большая цель сообщества", MinLevel: 4, Weight: 9, Reward: Reward{XP: 50, Coins: 45}},
	}
}

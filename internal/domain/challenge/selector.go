package challenge

import (
	"sort"
	"time"

	"github.com/finquest-app/progression-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SELECTOR (персональный отбор челленджей на день)
// ══════════════════════════════════════════════════════════════════════════════

// DailySetSize - целевой размер дневного набора челленджей.
const DailySetSize = 6

// diversityFreeSlots - число первых слотов, заполняемых без учёта
// разнообразия типов. Начиная со следующего слота повторы типов
// пропускаются, пока каталог позволяет набрать полный набор.
const diversityFreeSlots = 3

// Пороги пробелов в навыках. Метрика ниже порога помечает модуль
// как пробел, даже если в нём есть выполненные уроки.
const (
	gapSpeedScore         = 0.6
	gapVocabularyScore    = 0.6
	gapScenarioCount      = 3
	gapPredictionAccuracy = 0.55
)

// Rand - источник случайности для отбора. Вынесен в интерфейс, чтобы
// тесты могли подставить фиксированную последовательность.
type Rand interface {
	// Intn возвращает равномерное число из [0, n).
	Intn(n int) int
}

// Skills - отслеживаемые метрики навыков ученика.
type Skills struct {
	// SpeedScore - скорость прохождения блиц-викторин (0..1).
	SpeedScore float64 `json:"speed_score"`

	// VocabularyScore - знание финансовой лексики (0..1).
	VocabularyScore float64 `json:"vocabulary_score"`

	// ScenarioCount - количество пройденных сценариев.
	ScenarioCount int `json:"scenario_count"`

	// PredictionAccuracy - точность прогнозов цены (0..1).
	PredictionAccuracy float64 `json:"prediction_accuracy"`
}

// SelectParams - входные данные отбора. Движок передаёт всё явно:
// селектор не читает часы и состояние напрямую.
type SelectParams struct {
	// Level - текущий уровень ученика.
	Level int

	// TotalCompleted - всего выполнено уроков.
	TotalCompleted int

	// RecentAccuracy - доля идеальных уроков в недавнем окне (0..1).
	RecentAccuracy float64

	// CompletedLessonIDs - выполненные уроки (для расчёта пробелов).
	CompletedLessonIDs map[string]bool

	// Skills - метрики навыков.
	Skills Skills

	// Now - текущий момент; день отбора вычисляется из него.
	Now time.Time

	// Existing - уже назначенный набор (для идемпотентности по дню).
	Existing []Instance

	// Catalog - статический каталог шаблонов.
	Catalog []Template

	// Rand - источник случайности (затравка счётчика сообщества).
	Rand Rand
}

// SelectDaily отбирает персональный набор челленджей на день.
//
// Отбор детерминирован при фиксированном Rand: очки считаются по весу
// шаблона, совпадению сложности и попаданию в пробел; сортировка
// устойчива, ничьи решает порядок каталога. Повторный вызов в тот же
// календарный день возвращает уже назначенный набор без изменений.
func SelectDaily(params SelectParams) []Instance {
	today := timeutil.DayKey(params.Now)

	// Идемпотентность: набор на сегодня уже существует.
	if len(params.Existing) > 0 && params.Existing[0].Date == today {
		return params.Existing
	}

	weekend := timeutil.IsWeekend(params.Now)
	eligible := make([]Template, 0, len(params.Catalog))
	for _, tpl := range params.Catalog {
		if tpl.EligibleFor(params.Level, weekend) {
			eligible = append(eligible, tpl)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	gaps := LearningGaps(params.CompletedLessonIDs, params.Skills)
	recommended := RecommendDifficulty(params.Level, params.TotalCompleted, params.RecentAccuracy)

	type scored struct {
		tpl   Template
		score int
	}
	ranked := make([]scored, 0, len(eligible))
	for _, tpl := range eligible {
		score := tpl.Weight
		if tpl.Difficulty == recommended {
			score += 10
		}
		if tpl.GapModule != "" && gaps[tpl.GapModule] {
			score += 15
		}
		ranked = append(ranked, scored{tpl: tpl, score: score})
	}

	// Устойчивая сортировка: ничьи сохраняют порядок каталога.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	picked := make([]Template, 0, DailySetSize)
	usedTypes := make(map[Type]bool)
	for _, c := range ranked {
		if len(picked) >= DailySetSize {
			break
		}
		if len(picked) > diversityFreeSlots && usedTypes[c.tpl.Type] {
			continue
		}
		picked = append(picked, c.tpl)
		usedTypes[c.tpl.Type] = true
	}

	// Каталог не позволил набрать полный набор с учётом разнообразия -
	// добираем пропущенные шаблоны в порядке очков.
	if len(picked) < DailySetSize {
		inSet := make(map[string]bool, len(picked))
		for _, tpl := range picked {
			inSet[tpl.ID] = true
		}
		for _, c := range ranked {
			if len(picked) >= DailySetSize {
				break
			}
			if !inSet[c.tpl.ID] {
				picked = append(picked, c.tpl)
				inSet[c.tpl.ID] = true
			}
		}
	}

	instances := make([]Instance, 0, len(picked))
	for _, tpl := range picked {
		instances = append(instances, instantiate(tpl, today, params.Now, params.Rand))
	}
	return instances
}

// instantiate воплощает шаблон в челлендж на указанный день.
func instantiate(tpl Template, date string, now time.Time, rng Rand) Instance {
	target := TargetFor(tpl.Difficulty, tpl.Type)

	inst := Instance{
		TemplateID:        tpl.ID,
		Type:              tpl.Type,
		Difficulty:        tpl.Difficulty,
		Title:             tpl.Title,
		Date:              date,
		Current:           0,
		Target:            target,
		StartedAt:         now,
		ExpiresAt:         timeutil.NextMidnight(now),
		Reward:            tpl.Reward,
		SpeedLimitSeconds: tpl.SpeedLimitSeconds,
		WindowStartHour:   tpl.WindowStartHour,
		WindowEndHour:     tpl.WindowEndHour,
	}

	// Заглушка общего счётчика: реальное значение приходит с сервера
	// сообщества, локально сеем псевдослучайный стартовый вклад.
	if tpl.Type == TypeCommunity && rng != nil && target > 1 {
		inst.CommunitySeed = rng.Intn(target*3/4 + 1)
	}

	return inst
}

// LearningGaps вычисляет пробелы в знаниях: модуль без единого
// выполненного урока либо с метрикой навыка ниже порога.
func LearningGaps(completedLessonIDs map[string]bool, skills Skills) map[string]bool {
	covered := make(map[string]bool)
	for lessonID := range completedLessonIDs {
		covered[ModuleOf(lessonID)] = true
	}

	gaps := make(map[string]bool)
	for _, module := range TrackedModules() {
		if !covered[module] {
			gaps[module] = true
		}
	}

	if skills.SpeedScore < gapSpeedScore {
		gaps[ModuleQuiz] = true
	}
	if skills.VocabularyScore < gapVocabularyScore {
		gaps[ModuleVocabulary] = true
	}
	if skills.ScenarioCount < gapScenarioCount {
		gaps[ModuleScenarios] = true
	}
	if skills.PredictionAccuracy < gapPredictionAccuracy {
		gaps[ModulePrediction] = true
	}

	return gaps
}

// RecommendDifficulty - монотонная ступенчатая функция рекомендуемой
// сложности от уровня, числа выполненных уроков и недавней точности.
func RecommendDifficulty(level, totalCompleted int, recentAccuracy float64) Difficulty {
	switch {
	case level < 3 || totalCompleted < 5:
		return DifficultyEasy
	case level < 6 || recentAccuracy < 0.6:
		return DifficultyMedium
	case level < 10 || recentAccuracy < 0.8:
		return DifficultyHard
	default:
		return DifficultyExpert
	}
}

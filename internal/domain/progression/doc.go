// Package progression содержит каноническую модель прогресса пользователя FinQuest.
//
// Это ядро бизнес-логики движка прогрессии. Пакет определяет:
//
//   - Snapshot - единственная каноническая запись прогресса (XP, уровень,
//     монеты, стрик, жизни, комбо, состояния достижений, дневные челленджи)
//   - DeriveLevel - единая формула вычисления уровня из XP
//   - AdvanceCalendar - логика смены календарного дня и стрика
//   - Интерфейсы хранилищ: SnapshotStore, Journal
//
// # Архитектурные принципы
//
// Пакет следует принципам Clean Architecture и DDD:
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - интерфейсы хранилищ реализуются в infrastructure
//  3. Каждая транзакция порождает новый полный Snapshot - частичных записей
//     не существует, читатель никогда не видит промежуточное состояние
//
// # Производные поля
//
// Уровень никогда не хранится как независимая переменная. Он всегда
// вычисляется из TotalXP через DeriveLevel:
//
//	level, levelXP := progression.DeriveLevel(snap.TotalXP)
//
// Recompute() вызывается после каждого изменения TotalXP и приводит
// Level/CurrentLevelXP в соответствие с инвариантом.
//
// # Смена дня
//
// Стрик работает по календарным дням, а не по прошедшим часам:
//
//	adv := progression.AdvanceCalendar(snap, now)
//	if adv.Fired {
//	    // стрик продолжен или сброшен, начислен бонус монет
//	}
package progression

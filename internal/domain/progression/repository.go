package progression

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// ErrNoSnapshot возвращается хранилищем, когда записи прогресса для
// пользователя ещё нет. Движок трактует это как первый запуск.
var ErrNoSnapshot = errors.New("progression: snapshot not found")

// SnapshotStore - хранилище канонических снапшотов прогресса.
// Реализации: Redis (продакшен) и память (тесты, локальный запуск).
type SnapshotStore interface {
	// Load загружает снапшот пользователя.
	// Возвращает ErrNoSnapshot, если записи нет.
	Load(ctx context.Context, userID string) (*Snapshot, error)

	// Save атомарно заменяет снапшот пользователя.
	Save(ctx context.Context, userID string, snap *Snapshot) error
}

// JournalEntry - запись журнала наград: что именно начислила одна
// транзакция движка. Журнал только добавляется, записи неизменяемы.
type JournalEntry struct {
	ID                 string
	UserID             string
	LessonID           string
	XPGained           int
	CoinsGained        int
	LeveledUp          bool
	Achievements       []string
	ChallengeCompleted bool
	AppliedAt          time.Time
}

// Journal - журнал наград (append-only).
type Journal interface {
	// Append добавляет запись в журнал.
	Append(ctx context.Context, entry JournalEntry) error
}

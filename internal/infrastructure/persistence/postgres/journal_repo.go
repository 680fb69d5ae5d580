package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finquest-app/progression-engine/internal/domain/progression"
)

// JournalRepository implements progression.Journal on PostgreSQL.
type JournalRepository struct {
	conn *Connection
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(conn *Connection) *JournalRepository {
	return &JournalRepository{conn: conn}
}

// Append writes one journal row. Rows are immutable; there is no update
// path and no delete path.
func (r *JournalRepository) Append(ctx context.Context, entry progression.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.AppliedAt.IsZero() {
		entry.AppliedAt = time.Now().UTC()
	}
	achievements := entry.Achievements
	if achievements == nil {
		achievements = []string{}
	}

	query := `
		INSERT INTO reward_journal
			(id, user_id, lesson_id, xp_gained, coins_gained, leveled_up, achievements, challenge_completed, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.conn.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.LessonID,
		entry.XPGained,
		entry.CoinsGained,
		entry.LeveledUp,
		achievements,
		entry.ChallengeCompleted,
		entry.AppliedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: journal append: %w", err)
	}
	return nil
}

// RecentByUser returns the newest journal entries for a user, newest first.
// Serves the reward-history view; the engine itself never calls this.
func (r *JournalRepository) RecentByUser(ctx context.Context, userID string, limit int) ([]progression.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, lesson_id, xp_gained, coins_gained, leveled_up, achievements, challenge_completed, applied_at
		FROM reward_journal
		WHERE user_id = $1
		ORDER BY applied_at DESC
		LIMIT $2
	`
	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: journal query: %w", err)
	}
	defer rows.Close()

	var entries []progression.JournalEntry
	for rows.Next() {
		var entry progression.JournalEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.LessonID,
			&entry.XPGained,
			&entry.CoinsGained,
			&entry.LeveledUp,
			&entry.Achievements,
			&entry.ChallengeCompleted,
			&entry.AppliedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: journal scan: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

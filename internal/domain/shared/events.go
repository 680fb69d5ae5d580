// Package shared contains common domain types, errors, events, and numeric
// sanitization used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event marks something significant the engine did;
// outer layers (notification scheduling, analytics) subscribe to these
// instead of polling snapshot state.
const (
	// Progression events
	EventXPGained      EventType = "progression.xp_gained"
	EventLevelUp       EventType = "progression.level_up"
	EventStreakUpdated EventType = "progression.streak_updated"
	EventStreakBroken  EventType = "progression.streak_broken"
	EventCoinsSpent    EventType = "progression.coins_spent"
	EventLivesChanged  EventType = "progression.lives_changed"
	EventProgressReset EventType = "progression.reset"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Daily challenge events
	EventChallengeAssigned  EventType = "challenge.assigned"
	EventChallengeCompleted EventType = "challenge.completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a transaction adds XP.
type XPGainedEvent struct {
	BaseEvent
	LessonID string `json:"lesson_id,omitempty"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // "lesson", "achievement", "challenge", "streak"
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lesson_id": e.LessonID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID, lessonID string, amount, newTotal int, source string, at time.Time) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID, at),
		LessonID:  lessonID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when derived level increases.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
	TotalXP  int `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"total_xp":  e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel, totalXP int, at time.Time) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID, at),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// StreakUpdatedEvent is emitted when the daily streak advances.
type StreakUpdatedEvent struct {
	BaseEvent
	Streak     int `json:"streak"`
	BonusCoins int `json:"bonus_coins"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"streak":      e.Streak,
		"bonus_coins": e.BonusCoins,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(userID string, streak, bonusCoins int, at time.Time) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:  NewBaseEvent(EventStreakUpdated, userID, at),
		Streak:     streak,
		BonusCoins: bonusCoins,
	}
}

// StreakBrokenEvent is emitted when a missed day resets the streak.
type StreakBrokenEvent struct {
	BaseEvent
	PreviousStreak int `json:"previous_streak"`
	DaysMissed     int `json:"days_missed"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID string, previousStreak, daysMissed int, at time.Time) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID, at),
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
	}
}

// CoinsSpentEvent is emitted on a successful coin debit.
type CoinsSpentEvent struct {
	BaseEvent
	Amount    int `json:"amount"`
	Remaining int `json:"remaining"`
}

// Payload implements Event interface.
func (e CoinsSpentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"amount":    e.Amount,
		"remaining": e.Remaining,
	}
}

// NewCoinsSpentEvent creates a new CoinsSpentEvent.
func NewCoinsSpentEvent(userID string, amount, remaining int, at time.Time) CoinsSpentEvent {
	return CoinsSpentEvent{
		BaseEvent: NewBaseEvent(EventCoinsSpent, userID, at),
		Amount:    amount,
		Remaining: remaining,
	}
}

// LivesChangedEvent is emitted when lives are lost or refilled.
type LivesChangedEvent struct {
	BaseEvent
	Lives  int    `json:"lives"`
	Reason string `json:"reason"` // "lost", "refill", "challenge_reward"
}

// Payload implements Event interface.
func (e LivesChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lives":  e.Lives,
		"reason": e.Reason,
	}
}

// NewLivesChangedEvent creates a new LivesChangedEvent.
func NewLivesChangedEvent(userID string, lives int, reason string, at time.Time) LivesChangedEvent {
	return LivesChangedEvent{
		BaseEvent: NewBaseEvent(EventLivesChanged, userID, at),
		Lives:     lives,
		Reason:    reason,
	}
}

// ProgressResetEvent is emitted when the snapshot is replaced with defaults.
type ProgressResetEvent struct {
	BaseEvent
}

// Payload implements Event interface.
func (e ProgressResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewProgressResetEvent creates a new ProgressResetEvent.
func NewProgressResetEvent(userID string, at time.Time) ProgressResetEvent {
	return ProgressResetEvent{BaseEvent: NewBaseEvent(EventProgressReset, userID, at)}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when a tier threshold is crossed.
type AchievementUnlockedEvent struct {
	BaseEvent
	AchievementID string `json:"achievement_id"`
	Tier          string `json:"tier"`
	BonusXP       int    `json:"bonus_xp"`
	BonusCoins    int    `json:"bonus_coins"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementID,
		"tier":           e.Tier,
		"bonus_xp":       e.BonusXP,
		"bonus_coins":    e.BonusCoins,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementID, tier string, bonusXP, bonusCoins int, at time.Time) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, userID, at),
		AchievementID: achievementID,
		Tier:          tier,
		BonusXP:       bonusXP,
		BonusCoins:    bonusCoins,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Challenge Events
// ═══════════════════════════════════════════════════════════════════════════

// ChallengeAssignedEvent is emitted when a new daily set is generated.
type ChallengeAssignedEvent struct {
	BaseEvent
	Date        string   `json:"date"`
	TemplateIDs []string `json:"template_ids"`
}

// Payload implements Event interface.
func (e ChallengeAssignedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date":         e.Date,
		"template_ids": e.TemplateIDs,
	}
}

// NewChallengeAssignedEvent creates a new ChallengeAssignedEvent.
func NewChallengeAssignedEvent(userID, date string, templateIDs []string, at time.Time) ChallengeAssignedEvent {
	return ChallengeAssignedEvent{
		BaseEvent:   NewBaseEvent(EventChallengeAssigned, userID, at),
		Date:        date,
		TemplateIDs: templateIDs,
	}
}

// ChallengeCompletedEvent is emitted when a daily objective reaches its target.
type ChallengeCompletedEvent struct {
	BaseEvent
	TemplateID string `json:"template_id"`
	RewardXP   int    `json:"reward_xp"`
	RewardCoin int    `json:"reward_coins"`
}

// Payload implements Event interface.
func (e ChallengeCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"template_id":  e.TemplateID,
		"reward_xp":    e.RewardXP,
		"reward_coins": e.RewardCoin,
	}
}

// NewChallengeCompletedEvent creates a new ChallengeCompletedEvent.
func NewChallengeCompletedEvent(userID, templateID string, rewardXP, rewardCoins int, at time.Time) ChallengeCompletedEvent {
	return ChallengeCompletedEvent{
		BaseEvent:  NewBaseEvent(EventChallengeCompleted, userID, at),
		TemplateID: templateID,
		RewardXP:   rewardXP,
		RewardCoin: rewardCoins,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Publisher interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish delivers an event to all matching subscribers.
	Publish(event Event) error
}

// EventBus combines publishing with subscription management.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for every event.
	SubscribeAll(handler EventHandler) error
}

// Package events defines the payloads emitted through the outbox for
// downstream consumers.
package events

import "time"

// WorkoutCommitted is emitted once per first-time committed session.
// Idempotent replays never re-emit it.
type WorkoutCommitted struct {
	WorkoutID     string    `json:"workout_id"`
	TenantID      string    `json:"tenant_id"`
	UserID        string    `json:"user_id"`
	Date          time.Time `json:"date"`
	Source        string    `json:"source"`
	ExerciseIDs   []string  `json:"exercise_ids"`
	TotalSets     int       `json:"total_sets"`
	TotalVolumeLb float64   `json:"total_volume_lb"`
	XPEarned      int64     `json:"xp_earned"`
	CommittedAt   time.Time `json:"committed_at"`
}

// RecordSet is emitted for each personal record a committed session sets.
type RecordSet struct {
	RecordID   string    `json:"record_id"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	ExerciseID string    `json:"exercise_id"`
	PRType     string    `json:"pr_type"`
	Value      float64   `json:"value"`
	WeightLb   float64   `json:"weight_lb,omitempty"`
	AchievedAt time.Time `json:"achieved_at"`
}

// ProgressAdvanced tracks per-commit progression state for optimistic UI
// flows and notification fan-out.
type ProgressAdvanced struct {
	TenantID      string    `json:"tenant_id"`
	UserID        string    `json:"user_id"`
	TotalXP       int64     `json:"total_xp"`
	Level         int       `json:"level"`
	Rank          string    `json:"rank"`
	CurrentStreak int       `json:"current_streak"`
	LeveledUp     bool      `json:"leveled_up"`
	OccurredAt    time.Time `json:"occurred_at"`
}

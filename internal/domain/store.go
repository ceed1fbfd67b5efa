package domain

import (
	"context"
	"time"
)

// WorkoutCommit bundles everything one committed session changes: the
// session rows, any personal records it set, the advanced progression state,
// and quest/achievement transitions. Stores apply the whole commit
// atomically; partial application is a correctness violation.
type WorkoutCommit struct {
	Session      WorkoutSession
	Records      []PersonalRecord
	Progress     UserProgress // new state; Version carries the version that was read
	Quests       []QuestState
	Achievements []UserAchievement
	XPEarned     int64
	Rank         string // rank after the commit, for event emission
	LeveledUp    bool
}

// QuestClaim bundles an idempotent quest claim: the claimed quest state and
// the progress row with the reward applied.
type QuestClaim struct {
	Quest    QuestState
	Progress UserProgress
	XPEarned int64
}

// WeightReps is a historical rep-max data point.
type WeightReps struct {
	WeightLb float64
	Reps     int
}

// ExerciseBests summarises the prior bests for one exercise.
type ExerciseBests struct {
	BestE1RM   float64
	BestVolume float64      // best single-session volume
	RepMaxes   []WeightReps // prior rep-max-at-weight records
}

// Bests maps exercise id to its historical bests.
type Bests map[string]ExerciseBests

// WorkoutStore persists sessions.
type WorkoutStore interface {
	// FindWorkoutByClientID implements the idempotency lookup. A nil result
	// with nil error means no prior commit.
	FindWorkoutByClientID(ctx context.Context, tenantID, userID, clientID string) (*WorkoutSession, error)
	// CommitWorkout applies the commit atomically. Returns
	// ErrVersionConflict when the progress row moved underneath the commit.
	CommitWorkout(ctx context.Context, commit WorkoutCommit) error
	GetWorkout(ctx context.Context, tenantID, workoutID string) (*WorkoutSession, error)
	ListWorkouts(ctx context.Context, tenantID, userID string, cursor *Cursor, limit int) ([]WorkoutSession, *Cursor, error)
	SoftDeleteWorkout(ctx context.Context, tenantID, userID, workoutID string) error
}

// ProgressStore reads and advances the per-user progression row.
type ProgressStore interface {
	// GetProgress returns the current row, or a zero-valued row with
	// Version 0 for users without one yet.
	GetProgress(ctx context.Context, tenantID, userID string) (UserProgress, error)
	// CommitQuestClaim applies a claim atomically, subject to the same
	// version check as workout commits.
	CommitQuestClaim(ctx context.Context, claim QuestClaim) error
}

// RecordStore reads personal-record history.
type RecordStore interface {
	BestRecords(ctx context.Context, tenantID, userID string) (Bests, error)
	ListRecords(ctx context.Context, tenantID, userID, exerciseID string) ([]PersonalRecord, error)
}

// QuestStore reads per-user quest state.
type QuestStore interface {
	QuestStates(ctx context.Context, tenantID, userID string) ([]QuestState, error)
}

// AchievementStore reads unlocked achievements.
type AchievementStore interface {
	Achievements(ctx context.Context, tenantID, userID string) ([]UserAchievement, error)
}

// BodyweightStore persists bodyweight entries.
type BodyweightStore interface {
	FindBodyweightByClientID(ctx context.Context, tenantID, userID, clientID string) (*BodyweightEntry, error)
	CreateBodyweight(ctx context.Context, entry BodyweightEntry) error
	ListBodyweight(ctx context.Context, tenantID, userID string, limit int) ([]BodyweightEntry, error)
}

// ExerciseUsage is one row of the consumer-maintained popularity projection.
type ExerciseUsage struct {
	ExerciseID   string     `json:"exercise_id"`
	SessionCount int64      `json:"session_count"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
}

// UsageStore reads the exercise popularity projection.
type UsageStore interface {
	ListExerciseUsage(ctx context.Context, tenantID string) ([]ExerciseUsage, error)
}

// ProfileStore persists the client-editable profile blob.
type ProfileStore interface {
	GetProfile(ctx context.Context, tenantID, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, profile Profile) error
}

// Store is the full persistence surface consumed by the engine.
type Store interface {
	WorkoutStore
	ProgressStore
	RecordStore
	QuestStore
	AchievementStore
	BodyweightStore
	ProfileStore
	UsageStore
}

package domain

import "time"

// PRType scopes a personal record comparison.
type PRType string

const (
	PRTypeE1RM           PRType = "e1rm"
	PRTypeRepMaxAtWeight PRType = "rep-max-at-weight"
	PRTypeSessionVolume  PRType = "volume"
)

// PersonalRecord is append-only; a newer record supersedes but never deletes
// the prior one.
type PersonalRecord struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	ExerciseID string    `json:"exercise_id"`
	Type       PRType    `json:"pr_type"`
	Value      float64   `json:"value"`
	WeightLb   float64   `json:"weight_lb,omitempty"` // rep-max records carry the weight they were set at
	SessionID  string    `json:"session_id"`
	AchievedAt time.Time `json:"achieved_at"`
}

// UserProgress is the single mutable progression row per user. Version backs
// the optimistic per-user serialization of updates.
type UserProgress struct {
	TenantID        string     `json:"tenant_id"`
	UserID          string     `json:"user_id"`
	TotalXP         int64      `json:"total_xp"`
	Level           int        `json:"level"`
	CurrentStreak   int        `json:"current_streak"`
	LongestStreak   int        `json:"longest_streak"`
	LastWorkoutDate *time.Time `json:"last_workout_date,omitempty"`
	TotalWorkouts   int64      `json:"total_workouts"`
	TotalVolumeLb   float64    `json:"total_volume_lb"`
	TotalPRs        int64      `json:"total_prs"`
	PolicyVersion   string     `json:"policy_version"`
	Version         int64      `json:"-"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// QuestState tracks one user's progress against a quest template for the
// current refresh period. Progress is monotonic until refresh; claiming is a
// one-time transition.
type QuestState struct {
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	QuestID     string    `json:"quest_id"`
	Progress    float64   `json:"progress"`
	TargetValue float64   `json:"target_value"`
	IsCompleted bool      `json:"is_completed"`
	IsClaimed   bool      `json:"is_claimed"`
	RefreshAt   time.Time `json:"refresh_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserAchievement records a monotonic, first-time-only unlock.
type UserAchievement struct {
	TenantID      string    `json:"tenant_id"`
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

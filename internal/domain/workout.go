// Package domain defines the canonical strength-training records and the
// persistence contracts the engine is built on.
package domain

import (
	"time"
)

// WeightUnit is accepted at the boundary; storage is always pounds.
type WeightUnit string

const (
	UnitLb WeightUnit = "lb"
	UnitKg WeightUnit = "kg"
)

// LbPerKg converts kilogram inputs at the boundary.
const LbPerKg = 2.2046226218

// Source records how an entry reached the engine.
type Source string

const (
	SourceManual     Source = "manual"
	SourceExtracted  Source = "extracted"
	SourceDeviceSync Source = "device-sync"
)

// ExerciseSet is a single performed set. Weight is stored in pounds. The
// cached e1RM is stale until a caller recomputes it; mutation never triggers
// an implicit recompute.
type ExerciseSet struct {
	ID        string   `json:"id"`
	Weight    float64  `json:"weight"`
	Reps      int      `json:"reps"`
	RPE       *float64 `json:"rpe,omitempty"`
	RIR       *float64 `json:"rir,omitempty"`
	SetNumber int      `json:"set_number"`
	E1RM      float64  `json:"e1rm"`
	E1RMStale bool     `json:"e1rm_stale"`
}

// Volume is the set's weight x reps contribution in pounds.
func (s ExerciseSet) Volume() float64 {
	return s.Weight * float64(s.Reps)
}

// WorkoutExercise groups the ordered sets performed for one catalog exercise.
type WorkoutExercise struct {
	ID         string        `json:"id"`
	ExerciseID string        `json:"exercise_id"`
	OrderIndex int           `json:"order_index"`
	Sets       []ExerciseSet `json:"sets"`
}

// WorkoutSession is the canonical session record. Sessions are soft-deleted
// only, so sync convergence and applied progression stay intact.
type WorkoutSession struct {
	ID              string            `json:"id"`
	TenantID        string            `json:"tenant_id"`
	UserID          string            `json:"user_id"`
	ClientID        string            `json:"client_id,omitempty"` // idempotency key
	Date            time.Time         `json:"date"`
	DurationMinutes *int              `json:"duration_minutes,omitempty"`
	SessionRPE      *float64          `json:"session_rpe,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Source          Source            `json:"source"`
	Exercises       []WorkoutExercise `json:"exercises"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       *time.Time        `json:"deleted_at,omitempty"`
}

// TotalVolume sums weight x reps across all sets, in pounds.
func (w *WorkoutSession) TotalVolume() float64 {
	total := 0.0
	for _, ex := range w.Exercises {
		for _, set := range ex.Sets {
			total += set.Volume()
		}
	}
	return total
}

// TotalSets counts sets across all exercises.
func (w *WorkoutSession) TotalSets() int {
	n := 0
	for _, ex := range w.Exercises {
		n += len(ex.Sets)
	}
	return n
}

// ExerciseIDs returns the distinct catalog ids in session order.
func (w *WorkoutSession) ExerciseIDs() []string {
	seen := make(map[string]struct{}, len(w.Exercises))
	out := make([]string, 0, len(w.Exercises))
	for _, ex := range w.Exercises {
		if _, dup := seen[ex.ExerciseID]; dup {
			continue
		}
		seen[ex.ExerciseID] = struct{}{}
		out = append(out, ex.ExerciseID)
	}
	return out
}

// BodyweightEntry is a dated bodyweight sample in pounds.
type BodyweightEntry struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	ClientID  string    `json:"client_id,omitempty"`
	Date      time.Time `json:"date"`
	WeightLb  float64   `json:"weight_lb"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile holds the client-editable profile fields merged last-write-wins
// during sync.
type Profile struct {
	TenantID      string     `json:"tenant_id"`
	UserID        string     `json:"user_id"`
	DisplayName   string     `json:"display_name"`
	GoalWeightLb  *float64   `json:"goal_weight_lb,omitempty"`
	PreferredUnit WeightUnit `json:"preferred_unit"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Cursor models the pagination token for workout listings.
type Cursor struct {
	Date time.Time
	ID   string
}

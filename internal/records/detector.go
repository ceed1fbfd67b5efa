// Package records detects personal records on newly-committed sessions.
package records

import (
	"time"

	"github.com/google/uuid"

	"example.com/liftlog/internal/domain"
)

// Detect scans a committed session against the user's historical bests and
// returns the personal records it sets. Ties never produce a record; the new
// value must be strictly greater. The returned records are appended to
// history, never written over it.
func Detect(session *domain.WorkoutSession, bests domain.Bests, achievedAt time.Time) []domain.PersonalRecord {
	if achievedAt.IsZero() {
		achievedAt = session.Date
	}

	out := make([]domain.PersonalRecord, 0)
	for _, ex := range session.Exercises {
		prior := bests[ex.ExerciseID]

		bestE1RM := 0.0
		volume := 0.0
		// Working copy so one session cannot emit two rep-max records the
		// second of which the first already covers.
		repMaxes := append([]domain.WeightReps(nil), prior.RepMaxes...)

		for _, set := range ex.Sets {
			if set.E1RM > bestE1RM {
				bestE1RM = set.E1RM
			}
			volume += set.Volume()

			if set.Weight > 0 && set.Reps > bestRepsAtOrAbove(repMaxes, set.Weight) {
				out = append(out, record(session, ex.ExerciseID, domain.PRTypeRepMaxAtWeight, float64(set.Reps), set.Weight, achievedAt))
				repMaxes = append(repMaxes, domain.WeightReps{WeightLb: set.Weight, Reps: set.Reps})
			}
		}

		if bestE1RM > prior.BestE1RM {
			out = append(out, record(session, ex.ExerciseID, domain.PRTypeE1RM, bestE1RM, 0, achievedAt))
		}
		if volume > prior.BestVolume {
			out = append(out, record(session, ex.ExerciseID, domain.PRTypeSessionVolume, volume, 0, achievedAt))
		}
	}
	return out
}

// bestRepsAtOrAbove returns the most reps previously recorded at a weight
// equal to or heavier than weightLb.
func bestRepsAtOrAbove(repMaxes []domain.WeightReps, weightLb float64) int {
	best := 0
	for _, rm := range repMaxes {
		if rm.WeightLb >= weightLb && rm.Reps > best {
			best = rm.Reps
		}
	}
	return best
}

func record(session *domain.WorkoutSession, exerciseID string, prType domain.PRType, value, weightLb float64, achievedAt time.Time) domain.PersonalRecord {
	return domain.PersonalRecord{
		ID:         uuid.NewString(),
		TenantID:   session.TenantID,
		UserID:     session.UserID,
		ExerciseID: exerciseID,
		Type:       prType,
		Value:      value,
		WeightLb:   weightLb,
		SessionID:  session.ID,
		AchievedAt: achievedAt,
	}
}

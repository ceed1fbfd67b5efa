package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/liftlog/internal/domain"
)

func session(sets ...domain.ExerciseSet) *domain.WorkoutSession {
	return &domain.WorkoutSession{
		ID:       "w-1",
		TenantID: "t-1",
		UserID:   "u-1",
		Date:     time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		Exercises: []domain.WorkoutExercise{
			{ID: "we-1", ExerciseID: "bench-press", OrderIndex: 0, Sets: sets},
		},
	}
}

func byType(recs []domain.PersonalRecord, prType domain.PRType) []domain.PersonalRecord {
	out := make([]domain.PersonalRecord, 0)
	for _, r := range recs {
		if r.Type == prType {
			out = append(out, r)
		}
	}
	return out
}

func TestFirstSessionSetsAllRecordTypes(t *testing.T) {
	s := session(domain.ExerciseSet{ID: "s1", Weight: 225, Reps: 5, SetNumber: 1, E1RM: 262.5})
	recs := Detect(s, domain.Bests{}, s.Date)

	require.Len(t, byType(recs, domain.PRTypeE1RM), 1)
	require.Len(t, byType(recs, domain.PRTypeSessionVolume), 1)
	require.Len(t, byType(recs, domain.PRTypeRepMaxAtWeight), 1)

	e1rm := byType(recs, domain.PRTypeE1RM)[0]
	require.Equal(t, 262.5, e1rm.Value)
	require.Equal(t, "w-1", e1rm.SessionID)
}

func TestTieDoesNotSetRecord(t *testing.T) {
	bests := domain.Bests{
		"bench-press": {
			BestE1RM:   262.5,
			BestVolume: 1125,
			RepMaxes:   []domain.WeightReps{{WeightLb: 225, Reps: 5}},
		},
	}
	s := session(domain.ExerciseSet{ID: "s1", Weight: 225, Reps: 5, SetNumber: 1, E1RM: 262.5})
	recs := Detect(s, bests, s.Date)
	require.Empty(t, recs)
}

func TestRepMaxComparesAgainstHeavierHistory(t *testing.T) {
	// 8 reps at 225 is no record when 10 reps at 245 already exist.
	bests := domain.Bests{
		"bench-press": {RepMaxes: []domain.WeightReps{{WeightLb: 245, Reps: 10}}},
	}
	s := session(domain.ExerciseSet{ID: "s1", Weight: 225, Reps: 8, SetNumber: 1, E1RM: 100})
	recs := Detect(s, bests, s.Date)
	require.Empty(t, byType(recs, domain.PRTypeRepMaxAtWeight))
}

func TestSecondIdenticalSetInSessionDoesNotDoubleEmit(t *testing.T) {
	s := session(
		domain.ExerciseSet{ID: "s1", Weight: 225, Reps: 5, SetNumber: 1, E1RM: 262.5},
		domain.ExerciseSet{ID: "s2", Weight: 225, Reps: 5, SetNumber: 2, E1RM: 262.5},
	)
	recs := Detect(s, domain.Bests{}, s.Date)
	require.Len(t, byType(recs, domain.PRTypeRepMaxAtWeight), 1)
}

func TestStrictlyGreaterVolumeSetsRecord(t *testing.T) {
	bests := domain.Bests{"bench-press": {BestVolume: 1000}}
	s := session(domain.ExerciseSet{ID: "s1", Weight: 225, Reps: 5, SetNumber: 1, E1RM: 262.5})
	recs := Detect(s, bests, s.Date)
	vols := byType(recs, domain.PRTypeSessionVolume)
	require.Len(t, vols, 1)
	require.Equal(t, 1125.0, vols[0].Value)
}

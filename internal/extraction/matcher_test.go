package extraction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/liftlog/internal/catalog"
)

func newMatcher() *Matcher {
	return NewMatcher(catalog.New())
}

func TestRepeatShorthandExpands(t *testing.T) {
	m := newMatcher()
	result := m.Match([]Block{{
		Name: "Bench Press",
		Sets: []SetDescriptor{{WeightLb: 135, Reps: 10, RepeatCount: 3}},
	}})

	require.Equal(t, 1, result.Matched)
	require.Len(t, result.Convertible, 1)
	sets := result.Convertible[0].Sets
	require.Len(t, sets, 3)
	for i, set := range sets {
		require.Equal(t, i+1, set.SetNumber)
		require.Equal(t, 135.0, set.Weight)
		require.Equal(t, 10, set.Reps)
		require.True(t, set.E1RMStale)
	}
}

func TestWarmupSetsAreDiscarded(t *testing.T) {
	m := newMatcher()
	result := m.Match([]Block{{
		Name: "Squat",
		Sets: []SetDescriptor{
			{WeightLb: 95, Reps: 5, RepeatCount: 2, IsWarmup: true},
			{WeightLb: 225, Reps: 5, RepeatCount: 3},
		},
	}})

	require.Len(t, result.Convertible, 1)
	sets := result.Convertible[0].Sets
	require.Len(t, sets, 3)
	// Set numbers stay continuous from one even after warm-ups are dropped.
	require.Equal(t, []int{1, 2, 3}, []int{sets[0].SetNumber, sets[1].SetNumber, sets[2].SetNumber})
	require.Equal(t, 1, result.Raw[0].WarmupsDrop)
}

func TestWarmupOnlyBlockIsSkippedButRetainedRaw(t *testing.T) {
	m := newMatcher()
	result := m.Match([]Block{{
		Name: "Deadlift",
		Sets: []SetDescriptor{{WeightLb: 135, Reps: 5, RepeatCount: 2, IsWarmup: true}},
	}})

	require.Empty(t, result.Convertible)
	require.Equal(t, 1, result.Skipped)
	require.Len(t, result.Raw, 1)
	require.Equal(t, StatusSkipped, result.Raw[0].Status)
	require.Equal(t, "deadlift", result.Raw[0].ExerciseID)
}

func TestUnmatchedBlockDoesNotBlockMatchedOnes(t *testing.T) {
	m := newMatcher()
	result := m.Match([]Block{
		{Name: "Quantum Flux Press", Sets: []SetDescriptor{{WeightLb: 100, Reps: 8}}},
		{Name: "Bench Press", Sets: []SetDescriptor{{WeightLb: 185, Reps: 8}}},
	})

	require.Equal(t, 1, result.Unmatched)
	require.Equal(t, 1, result.Matched)
	require.Len(t, result.Convertible, 1)
	require.Equal(t, "bench-press", result.Convertible[0].ExerciseID)
	require.Equal(t, StatusUnmatched, result.Raw[0].Status)
}

func TestConvertibleNeverExceedsRawMinusWarmups(t *testing.T) {
	m := newMatcher()
	blocks := []Block{
		{Name: "Bench Press", Sets: []SetDescriptor{{WeightLb: 135, Reps: 10, RepeatCount: 3}, {WeightLb: 95, Reps: 10, IsWarmup: true}}},
		{Name: "Squat", Sets: []SetDescriptor{{WeightLb: 225, Reps: 5, RepeatCount: 5}}},
		{Name: "Mystery Machine", Sets: []SetDescriptor{{WeightLb: 50, Reps: 12, RepeatCount: 2}}},
	}
	result := m.Match(blocks)

	raw, warmups := 0, 0
	for _, b := range blocks {
		for _, d := range b.Sets {
			n := d.RepeatCount
			if n < 1 {
				n = 1
			}
			if d.IsWarmup {
				warmups += n
			}
			raw += n
		}
	}
	convertible := 0
	for _, ex := range result.Convertible {
		convertible += len(ex.Sets)
	}
	require.LessOrEqual(t, convertible, raw-warmups)
}

func TestMultiImageUnionMatchesLikeSingleBatch(t *testing.T) {
	m := newMatcher()
	imageOne := []Block{{Name: "Bench Press", Sets: []SetDescriptor{{WeightLb: 185, Reps: 8}}}}
	imageTwo := []Block{{Name: "Barbell Row", Sets: []SetDescriptor{{WeightLb: 155, Reps: 10, RepeatCount: 2}}}}

	union := m.Match(Union(imageOne, imageTwo))
	single := m.Match(append(append([]Block{}, imageOne...), imageTwo...))

	require.Equal(t, single.Matched, union.Matched)
	require.Len(t, union.Convertible, 2)
	require.Equal(t, 0, union.Convertible[0].OrderIndex)
	require.Equal(t, 1, union.Convertible[1].OrderIndex)
}

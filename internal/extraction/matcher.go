// Package extraction turns AI-extracted workout blocks into convertible
// logged exercises backed by catalog entries.
package extraction

import (
	"strings"

	"github.com/google/uuid"

	"example.com/liftlog/internal/catalog"
	"example.com/liftlog/internal/domain"
)

// SetDescriptor is one extracted line of set data. RepeatCount carries
// shorthand like "3x10" as a multiplier over one descriptor.
type SetDescriptor struct {
	WeightLb    float64 `json:"weight_lb"`
	Reps        int     `json:"reps"`
	RepeatCount int     `json:"repeat_count"`
	IsWarmup    bool    `json:"is_warmup"`
}

// Block is one extracted exercise block as produced by the external
// extraction service.
type Block struct {
	Name      string          `json:"name"`
	Equipment string          `json:"equipment,omitempty"`
	Sets      []SetDescriptor `json:"sets"`
}

// BlockStatus classifies a block after matching.
type BlockStatus string

const (
	// StatusMatched blocks resolve to a catalog entry and carry sets.
	StatusMatched BlockStatus = "matched"
	// StatusUnmatched blocks found no catalog entry; they are surfaced but
	// excluded from conversion and never block the rest of the batch.
	StatusUnmatched BlockStatus = "unmatched"
	// StatusSkipped blocks had only warm-up sets left; retained in the raw
	// result so callers can show what was dropped.
	StatusSkipped BlockStatus = "skipped"
)

// ClassifiedBlock is the raw per-block outcome. The raw list always covers
// every input block; convertible exercises are derived from the matched
// subset only.
type ClassifiedBlock struct {
	Block       Block       `json:"block"`
	Status      BlockStatus `json:"status"`
	ExerciseID  string      `json:"exercise_id,omitempty"`
	Confidence  float64     `json:"confidence,omitempty"`
	WarmupsDrop int         `json:"warmups_dropped"`
}

// ConvertedExercise is a convertible logged exercise ready to enter a
// workout aggregate.
type ConvertedExercise struct {
	ExerciseID string
	Confidence float64
	OrderIndex int
	Sets       []domain.ExerciseSet
}

// Result separates the raw extraction outcome from the convertible subset.
// The distinction is load-bearing: the UI renders every raw block, the
// commit path consumes only Convertible.
type Result struct {
	Raw         []ClassifiedBlock
	Convertible []ConvertedExercise
	Matched     int
	Unmatched   int
	Skipped     int
}

// Matcher resolves blocks against the exercise catalog.
type Matcher struct {
	catalog *catalog.Catalog
}

// NewMatcher constructs a Matcher.
func NewMatcher(c *catalog.Catalog) *Matcher {
	return &Matcher{catalog: c}
}

// Union merges per-image block lists into one logical session. Matching a
// union must behave identically to matching a single-image batch.
func Union(batches ...[]Block) []Block {
	out := make([]Block, 0)
	for _, batch := range batches {
		out = append(out, batch...)
	}
	return out
}

// Match classifies every block and expands the matched ones into individual
// sets. Warm-up descriptors are discarded from the canonical record; repeat
// shorthand expands into RepeatCount sets with continuous set numbers
// starting at one per exercise.
func (m *Matcher) Match(blocks []Block) Result {
	result := Result{
		Raw:         make([]ClassifiedBlock, 0, len(blocks)),
		Convertible: make([]ConvertedExercise, 0, len(blocks)),
	}

	for _, block := range blocks {
		classified := ClassifiedBlock{Block: block}

		match, matched := m.resolve(block)
		if matched {
			classified.ExerciseID = match.ExerciseID
			classified.Confidence = match.Confidence
		}

		sets, warmups := expandSets(block.Sets)
		classified.WarmupsDrop = warmups

		switch {
		case !matched:
			classified.Status = StatusUnmatched
			result.Unmatched++
		case len(sets) == 0:
			classified.Status = StatusSkipped
			result.Skipped++
		default:
			classified.Status = StatusMatched
			result.Matched++
			result.Convertible = append(result.Convertible, ConvertedExercise{
				ExerciseID: match.ExerciseID,
				Confidence: match.Confidence,
				OrderIndex: len(result.Convertible),
				Sets:       sets,
			})
		}
		result.Raw = append(result.Raw, classified)
	}
	return result
}

// resolve tries the block name with and without the equipment string; the
// catalog already strips common qualifiers from the name itself.
func (m *Matcher) resolve(block Block) (catalog.Match, bool) {
	if match, ok := m.catalog.Resolve(block.Name); ok {
		return match, true
	}
	if block.Equipment != "" {
		combined := strings.TrimSpace(block.Equipment + " " + block.Name)
		if match, ok := m.catalog.Resolve(combined); ok {
			return match, true
		}
	}
	return catalog.Match{}, false
}

// expandSets drops warm-ups and expands repeat shorthand into individual
// sets numbered continuously from one.
func expandSets(descriptors []SetDescriptor) ([]domain.ExerciseSet, int) {
	sets := make([]domain.ExerciseSet, 0, len(descriptors))
	warmups := 0
	number := 0
	for _, d := range descriptors {
		if d.IsWarmup {
			warmups++
			continue
		}
		repeat := d.RepeatCount
		if repeat < 1 {
			repeat = 1
		}
		for i := 0; i < repeat; i++ {
			number++
			sets = append(sets, domain.ExerciseSet{
				ID:        uuid.NewString(),
				Weight:    d.WeightLb,
				Reps:      d.Reps,
				SetNumber: number,
				E1RMStale: true,
			})
		}
	}
	return sets, warmups
}

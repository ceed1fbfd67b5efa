// Package catalog holds the canonical exercise registry and resolves
// free-text exercise names to catalog entries.
package catalog

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Category buckets exercises by movement pattern.
type Category string

const (
	CategoryPush      Category = "push"
	CategoryPull      Category = "pull"
	CategoryLegs      Category = "legs"
	CategoryCore      Category = "core"
	CategoryAccessory Category = "accessory"
)

// Exercise is a catalog entry. Entries are immutable once created except the
// favorite flag on custom entries.
type Exercise struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         Category `json:"category"`
	PrimaryMuscle    string   `json:"primary_muscle"`
	SecondaryMuscles []string `json:"secondary_muscles"`
	Aliases          []string `json:"aliases,omitempty"`
	IsCustom         bool     `json:"is_custom"`
}

// Match is a successful resolution.
type Match struct {
	ExerciseID string
	Confidence float64
}

// similarityThreshold is the floor below which fuzzy candidates are rejected.
const similarityThreshold = 0.6

var nonAlphaNumeric = regexp.MustCompile(`[^a-z0-9 ]+`)

// equipmentQualifiers are stripped before name comparison; "barbell bench
// press" and "bench press" resolve to the same entry.
var equipmentQualifiers = map[string]struct{}{
	"barbell": {}, "bb": {}, "dumbbell": {}, "db": {}, "dumbbells": {},
	"machine": {}, "cable": {}, "smith": {}, "kettlebell": {}, "kb": {},
	"band": {}, "banded": {}, "ez": {}, "trap": {}, "bar": {}, "bodyweight": {},
	"seated": {}, "standing": {}, "weighted": {},
}

// Catalog resolves names against the registered exercises.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[string]Exercise
	index map[string]string // normalized name/alias -> exercise id
}

var errUnknownExercise = errors.New("unknown exercise")

// ErrUnknownExercise reports a Get on an id the catalog does not hold.
func ErrUnknownExercise() error { return errUnknownExercise }

// New constructs a Catalog populated with the seed registry.
func New() *Catalog {
	c := &Catalog{
		byID:  make(map[string]Exercise),
		index: make(map[string]string),
	}
	for _, ex := range seedExercises {
		c.register(ex)
	}
	return c
}

func (c *Catalog) register(ex Exercise) {
	c.byID[ex.ID] = ex
	c.index[Normalize(ex.Name)] = ex.ID
	for _, alias := range ex.Aliases {
		c.index[Normalize(alias)] = ex.ID
	}
}

// AddCustom registers a user-defined exercise and returns it.
func (c *Catalog) AddCustom(name string, category Category, primaryMuscle string) (Exercise, error) {
	if strings.TrimSpace(name) == "" {
		return Exercise{}, errors.New("name is required")
	}
	ex := Exercise{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		Category:      category,
		PrimaryMuscle: primaryMuscle,
		IsCustom:      true,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.index[Normalize(ex.Name)]; taken {
		return Exercise{}, errors.New("name already registered")
	}
	c.register(ex)
	return ex, nil
}

// Get returns the exercise for id.
func (c *Catalog) Get(id string) (Exercise, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ex, ok := c.byID[id]
	if !ok {
		return Exercise{}, errUnknownExercise
	}
	return ex, nil
}

// Has reports whether id is registered.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byID[id]
	return ok
}

// List returns all exercises ordered by name.
func (c *Catalog) List() []Exercise {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Exercise, 0, len(c.byID))
	for _, ex := range c.byID {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve maps a free-text name to a catalog entry. A miss is not an error:
// the second return is false and the caller keeps the raw item as unmatched.
func (c *Catalog) Resolve(name string) (Match, bool) {
	normalized := Normalize(name)
	if normalized == "" {
		return Match{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if id, ok := c.index[normalized]; ok {
		return Match{ExerciseID: id, Confidence: 1}, true
	}

	stripped := stripQualifiers(normalized)
	if stripped != normalized {
		if id, ok := c.index[stripped]; ok {
			return Match{ExerciseID: id, Confidence: 0.95}, true
		}
	}

	bestID := ""
	bestScore := 0.0
	for key, id := range c.index {
		score := trigramSimilarity(stripped, key)
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	if bestScore >= similarityThreshold {
		return Match{ExerciseID: bestID, Confidence: bestScore}, true
	}
	return Match{}, false
}

// Normalize lowercases, drops punctuation, and collapses whitespace.
func Normalize(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	cleaned := nonAlphaNumeric.ReplaceAllString(lowered, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

func stripQualifiers(normalized string) string {
	fields := strings.Fields(normalized)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, qualifier := equipmentQualifiers[f]; qualifier {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return normalized
	}
	return strings.Join(kept, " ")
}

// trigramSimilarity computes Jaccard similarity over character trigrams of
// the padded inputs.
func trigramSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func trigrams(s string) map[string]struct{} {
	padded := "  " + s + " "
	out := make(map[string]struct{})
	for i := 0; i+3 <= len(padded); i++ {
		out[padded[i:i+3]] = struct{}{}
	}
	return out
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkoutNotFound is returned when a session cannot be located.
	ErrWorkoutNotFound = errors.New("workout not found")
	// ErrQuestNotFound is returned when a quest id is unknown for the user.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrVersionConflict signals a concurrent update to user progress. The
	// engine retries the whole apply on it.
	ErrVersionConflict = errors.New("user progress version conflict")
	// ErrDuplicateClientID signals that a rival commit already claimed the
	// session's client id. The engine resolves it to an idempotent replay.
	ErrDuplicateClientID = errors.New("client id already committed")
)

// Reason codes attached to individually rejected batch items.
const (
	ReasonNegativeWeight  = "negative_weight"
	ReasonZeroReps        = "zero_reps"
	ReasonUnknownExercise = "unknown_exercise"
	ReasonMissingDate     = "missing_date"
	ReasonNoExercises     = "no_exercises"
	ReasonBadWeightUnit   = "invalid_weight_unit"
)

// ValidationError rejects one item without failing its batch.
type ValidationError struct {
	Code   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func newValidationError(code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

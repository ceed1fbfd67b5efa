package domain

// ExerciseChecker reports whether a catalog id is registered.
type ExerciseChecker func(exerciseID string) bool

// ValidateSession checks a session before commit. The first violation is
// returned as a *ValidationError so batch callers can reject the single item
// with a reason code.
func ValidateSession(session *WorkoutSession, knownExercise ExerciseChecker) error {
	if session.Date.IsZero() {
		return newValidationError(ReasonMissingDate, "session date is required")
	}
	if len(session.Exercises) == 0 {
		return newValidationError(ReasonNoExercises, "session has no exercises")
	}
	for _, ex := range session.Exercises {
		if knownExercise != nil && !knownExercise(ex.ExerciseID) {
			return newValidationError(ReasonUnknownExercise, "exercise %q is not in the catalog", ex.ExerciseID)
		}
		for _, set := range ex.Sets {
			if set.Weight < 0 {
				return newValidationError(ReasonNegativeWeight, "set %d of %s has negative weight", set.SetNumber, ex.ExerciseID)
			}
			if set.Reps < 1 {
				return newValidationError(ReasonZeroReps, "set %d of %s has reps < 1", set.SetNumber, ex.ExerciseID)
			}
		}
	}
	return nil
}

// ValidateBodyweight checks a bodyweight entry.
func ValidateBodyweight(entry *BodyweightEntry) error {
	if entry.Date.IsZero() {
		return newValidationError(ReasonMissingDate, "bodyweight date is required")
	}
	if entry.WeightLb <= 0 {
		return newValidationError(ReasonNegativeWeight, "bodyweight must be > 0")
	}
	return nil
}

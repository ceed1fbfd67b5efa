package engine

import (
	"context"

	"example.com/liftlog/internal/domain"
	"example.com/liftlog/internal/progression"
)

// ProgressView bundles everything a progress read returns.
type ProgressView struct {
	Progress      domain.UserProgress
	Level         int
	LevelProgress float64
	Rank          string
	Quests        []domain.QuestState
	Achievements  []domain.UserAchievement
}

// GetProgress returns the derived progression view for a user.
func (s *Service) GetProgress(ctx context.Context, tenantID, userID string) (*ProgressView, error) {
	progress, err := s.store.GetProgress(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	quests, err := s.store.QuestStates(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	achievements, err := s.store.Achievements(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	level := progression.LevelForXP(progress.TotalXP)
	return &ProgressView{
		Progress:      progress,
		Level:         level,
		LevelProgress: progression.LevelProgress(progress.TotalXP),
		Rank:          progression.RankForLevel(level),
		Quests:        quests,
		Achievements:  achievements,
	}, nil
}

// GetWorkout fetches one session by id.
func (s *Service) GetWorkout(ctx context.Context, tenantID, workoutID string) (*domain.WorkoutSession, error) {
	workout, err := s.store.GetWorkout(ctx, tenantID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, domain.ErrWorkoutNotFound
	}
	return workout, nil
}

// ListWorkouts pages through a user's sessions, newest first.
func (s *Service) ListWorkouts(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.WorkoutSession, *domain.Cursor, error) {
	return s.store.ListWorkouts(ctx, tenantID, userID, cursor, limit)
}

// DeleteWorkout soft-deletes a session. Already-applied XP and streak
// history is immutable; deletion only excludes the session from listings
// and future record baselines.
func (s *Service) DeleteWorkout(ctx context.Context, tenantID, userID, workoutID string) error {
	return s.store.SoftDeleteWorkout(ctx, tenantID, userID, workoutID)
}

// ListBodyweight returns recent bodyweight entries.
func (s *Service) ListBodyweight(ctx context.Context, tenantID, userID string, limit int) ([]domain.BodyweightEntry, error) {
	return s.store.ListBodyweight(ctx, tenantID, userID, limit)
}

// ListRecords returns personal-record history for an exercise.
func (s *Service) ListRecords(ctx context.Context, tenantID, userID, exerciseID string) ([]domain.PersonalRecord, error) {
	return s.store.ListRecords(ctx, tenantID, userID, exerciseID)
}

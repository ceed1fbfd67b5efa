// Package engine orchestrates the commit path: validation, idempotency,
// e1RM computation, record detection, and the atomic progression update.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/liftlog/internal/catalog"
	"example.com/liftlog/internal/domain"
	"example.com/liftlog/internal/e1rm"
	"example.com/liftlog/internal/observability"
	"example.com/liftlog/internal/progression"
	"example.com/liftlog/internal/records"
)

// defaultRetries bounds optimistic progress-update attempts per request.
const defaultRetries = 3

// ErrRetriesExhausted is returned when concurrent submissions kept moving
// the progress row. The whole request is safe to retry.
var ErrRetriesExhausted = errors.New("progress update retries exhausted")

// Service is the single mutation authority for workouts, records, and
// progression state.
type Service struct {
	store       domain.Store
	catalog     *catalog.Catalog
	progression *progression.Engine
	formula     e1rm.Formula
	retries     int
	now         func() time.Time
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithRetries overrides the optimistic-update attempt budget.
func WithRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a Service.
func NewService(store domain.Store, cat *catalog.Catalog, prog *progression.Engine, opts ...Option) *Service {
	s := &Service{
		store:       store,
		catalog:     cat,
		progression: prog,
		formula:     e1rm.Epley,
		retries:     defaultRetries,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog exposes the exercise registry for callers that classify input.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// SubmitWorkoutInput carries one session from the API or sync layer.
// Set weights are already canonical pounds.
type SubmitWorkoutInput struct {
	TenantID        string
	UserID          string
	ClientID        string // idempotency key; empty disables dedupe
	Date            time.Time
	DurationMinutes *int
	SessionRPE      *float64
	Notes           string
	Source          domain.Source
	Exercises       []domain.WorkoutExercise
}

// SubmitResult reports the committed session and every progression fact the
// commit produced.
type SubmitResult struct {
	Workout       domain.WorkoutSession
	Replay        bool
	XPEarned      int64
	Breakdown     progression.XPBreakdown
	TotalXP       int64
	Level         int
	LevelProgress float64
	LeveledUp     bool
	NewLevel      int
	Rank          string
	RankChanged   bool
	NewRank       string
	CurrentStreak int
	Records       []domain.PersonalRecord
	Achievements  []progression.Achievement
}

// SubmitWorkout validates, commits, and applies progression for one session.
// Resubmitting the same client id returns the prior commit with zero XP.
func (s *Service) SubmitWorkout(ctx context.Context, input SubmitWorkoutInput) (*SubmitResult, error) {
	session := s.buildSession(input)
	if err := domain.ValidateSession(&session, s.catalog.Has); err != nil {
		return nil, err
	}

	s.computeE1RMs(&session)

	now := s.now()
	for attempt := 0; attempt < s.retries; attempt++ {
		// The lookup runs on every attempt: a version conflict can mean a
		// rival request committed this client id moments ago, and re-reading
		// inside the loop turns that loser into a replay, not a second row.
		if input.ClientID != "" {
			existing, err := s.store.FindWorkoutByClientID(ctx, input.TenantID, input.UserID, input.ClientID)
			if err != nil {
				return nil, fmt.Errorf("idempotency lookup: %w", err)
			}
			if existing != nil {
				return s.replayResult(ctx, existing)
			}
		}

		result, err := s.tryCommit(ctx, session, now)
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, domain.ErrDuplicateClientID) {
			return s.replayExisting(ctx, input)
		}
		if err != nil {
			return nil, err
		}
		observability.RecordWorkoutCommitted(now)
		observability.RecordXPAwarded(float64(result.XPEarned))
		observability.RecordPersonalRecords(len(result.Records))
		return result, nil
	}
	return nil, ErrRetriesExhausted
}

// replayExisting resolves a duplicate-client-id commit failure to the rival's
// committed session.
func (s *Service) replayExisting(ctx context.Context, input SubmitWorkoutInput) (*SubmitResult, error) {
	existing, err := s.store.FindWorkoutByClientID(ctx, input.TenantID, input.UserID, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrDuplicateClientID
	}
	return s.replayResult(ctx, existing)
}

func (s *Service) tryCommit(ctx context.Context, session domain.WorkoutSession, now time.Time) (*SubmitResult, error) {
	progress, err := s.store.GetProgress(ctx, session.TenantID, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	bests, err := s.store.BestRecords(ctx, session.TenantID, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load record history: %w", err)
	}
	questStates, err := s.store.QuestStates(ctx, session.TenantID, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load quests: %w", err)
	}
	unlockedRows, err := s.store.Achievements(ctx, session.TenantID, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	unlocked := make(map[string]struct{}, len(unlockedRows))
	for _, row := range unlockedRows {
		unlocked[row.AchievementID] = struct{}{}
	}

	prs := records.Detect(&session, bests, session.Date)

	progress.TenantID = session.TenantID
	progress.UserID = session.UserID
	outcome := s.progression.ApplyWorkout(progress, questStates, unlocked, progression.WorkoutFacts{
		Date:        session.Date,
		VolumeLb:    session.TotalVolume(),
		Sets:        session.TotalSets(),
		Variety:     len(session.ExerciseIDs()),
		RecordCount: len(prs),
	}, now)

	achievementRows := make([]domain.UserAchievement, 0, len(outcome.Achievements))
	for _, a := range outcome.Achievements {
		achievementRows = append(achievementRows, domain.UserAchievement{
			TenantID:      session.TenantID,
			UserID:        session.UserID,
			AchievementID: a.ID,
			UnlockedAt:    now,
		})
	}

	commit := domain.WorkoutCommit{
		Session:      session,
		Records:      prs,
		Progress:     outcome.Progress,
		Quests:       outcome.QuestStates,
		Achievements: achievementRows,
		XPEarned:     outcome.XPEarned,
		Rank:         outcome.Rank,
		LeveledUp:    outcome.LeveledUp,
	}
	if err := s.store.CommitWorkout(ctx, commit); err != nil {
		return nil, err
	}

	return &SubmitResult{
		Workout:       session,
		XPEarned:      outcome.XPEarned,
		Breakdown:     outcome.Breakdown,
		TotalXP:       outcome.Progress.TotalXP,
		Level:         outcome.Progress.Level,
		LevelProgress: progression.LevelProgress(outcome.Progress.TotalXP),
		LeveledUp:     outcome.LeveledUp,
		NewLevel:      outcome.NewLevel,
		Rank:          outcome.Rank,
		RankChanged:   outcome.RankChanged,
		NewRank:       outcome.NewRank,
		CurrentStreak: outcome.Progress.CurrentStreak,
		Records:       prs,
		Achievements:  outcome.Achievements,
	}, nil
}

// replayResult reports a duplicate submission as success with the existing
// identifiers and a current progress snapshot, without re-awarding anything.
func (s *Service) replayResult(ctx context.Context, existing *domain.WorkoutSession) (*SubmitResult, error) {
	progress, err := s.store.GetProgress(ctx, existing.TenantID, existing.UserID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	level := progression.LevelForXP(progress.TotalXP)
	return &SubmitResult{
		Workout:       *existing,
		Replay:        true,
		TotalXP:       progress.TotalXP,
		Level:         level,
		LevelProgress: progression.LevelProgress(progress.TotalXP),
		Rank:          progression.RankForLevel(level),
		CurrentStreak: progress.CurrentStreak,
		Records:       []domain.PersonalRecord{},
		Achievements:  []progression.Achievement{},
	}, nil
}

func (s *Service) buildSession(input SubmitWorkoutInput) domain.WorkoutSession {
	now := s.now()
	session := domain.WorkoutSession{
		ID:              uuid.NewString(),
		TenantID:        input.TenantID,
		UserID:          input.UserID,
		ClientID:        input.ClientID,
		Date:            input.Date.UTC(),
		DurationMinutes: input.DurationMinutes,
		SessionRPE:      input.SessionRPE,
		Notes:           input.Notes,
		Source:          input.Source,
		Exercises:       input.Exercises,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if session.Source == "" {
		session.Source = domain.SourceManual
	}
	for i := range session.Exercises {
		ex := &session.Exercises[i]
		if ex.ID == "" {
			ex.ID = uuid.NewString()
		}
		ex.OrderIndex = i
		for j := range ex.Sets {
			if ex.Sets[j].ID == "" {
				ex.Sets[j].ID = uuid.NewString()
			}
			if ex.Sets[j].SetNumber == 0 {
				ex.Sets[j].SetNumber = j + 1
			}
		}
	}
	return session
}

// computeE1RMs fills the cached estimate on every set and clears the stale
// flag. Later mutation requires explicit invalidation by the mutator.
func (s *Service) computeE1RMs(session *domain.WorkoutSession) {
	for i := range session.Exercises {
		for j := range session.Exercises[i].Sets {
			set := &session.Exercises[i].Sets[j]
			set.E1RM = e1rm.Estimate(set.Weight, set.Reps, set.RPE, set.RIR, s.formula)
			set.E1RMStale = false
		}
	}
}

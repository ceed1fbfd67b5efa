// Package memory provides an in-memory Store for local development and
// tests. It honours the same version discipline as the Postgres store so the
// engine's optimistic retry path behaves identically.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/liftlog/internal/domain"
)

type userKey struct {
	tenantID string
	userID   string
}

type questKey struct {
	userKey
	questID string
}

type achievementKey struct {
	userKey
	achievementID string
}

// Store implements domain.Store backed by maps.
type Store struct {
	mu           sync.RWMutex
	workouts     map[string]domain.WorkoutSession // by workout id
	byClientID   map[string]string                // tenant|user|client -> workout id
	records      map[userKey][]domain.PersonalRecord
	progress     map[userKey]domain.UserProgress
	quests       map[questKey]domain.QuestState
	achievements map[achievementKey]domain.UserAchievement
	bodyweight   map[userKey][]domain.BodyweightEntry
	bwByClientID map[string]string // tenant|user|client -> entry id
	profiles     map[userKey]domain.Profile
}

var _ domain.Store = (*Store)(nil)

// New constructs an empty Store.
func New() *Store {
	return &Store{
		workouts:     make(map[string]domain.WorkoutSession),
		byClientID:   make(map[string]string),
		records:      make(map[userKey][]domain.PersonalRecord),
		progress:     make(map[userKey]domain.UserProgress),
		quests:       make(map[questKey]domain.QuestState),
		achievements: make(map[achievementKey]domain.UserAchievement),
		bodyweight:   make(map[userKey][]domain.BodyweightEntry),
		bwByClientID: make(map[string]string),
		profiles:     make(map[userKey]domain.Profile),
	}
}

func clientKey(tenantID, userID, clientID string) string {
	return strings.Join([]string{tenantID, userID, clientID}, "|")
}

// FindWorkoutByClientID implements the idempotency lookup.
func (s *Store) FindWorkoutByClientID(_ context.Context, tenantID, userID, clientID string) (*domain.WorkoutSession, error) {
	if clientID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byClientID[clientKey(tenantID, userID, clientID)]
	if !ok {
		return nil, nil
	}
	workout := s.workouts[id]
	return &workout, nil
}

// CommitWorkout applies the commit under one lock, rejecting stale progress
// versions and already-claimed client ids exactly like the Postgres store.
func (s *Store) CommitWorkout(_ context.Context, commit domain.WorkoutCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userKey{commit.Session.TenantID, commit.Session.UserID}
	if commit.Session.ClientID != "" {
		ck := clientKey(commit.Session.TenantID, commit.Session.UserID, commit.Session.ClientID)
		if existing, taken := s.byClientID[ck]; taken && existing != commit.Session.ID {
			return domain.ErrDuplicateClientID
		}
	}
	current := s.progress[key].Version
	if commit.Progress.Version != current {
		return domain.ErrVersionConflict
	}

	s.workouts[commit.Session.ID] = commit.Session
	if commit.Session.ClientID != "" {
		s.byClientID[clientKey(commit.Session.TenantID, commit.Session.UserID, commit.Session.ClientID)] = commit.Session.ID
	}

	s.records[key] = append(s.records[key], commit.Records...)

	next := commit.Progress
	next.Version = current + 1
	s.progress[key] = next

	for _, q := range commit.Quests {
		s.quests[questKey{key, q.QuestID}] = q
	}
	for _, a := range commit.Achievements {
		k := achievementKey{key, a.AchievementID}
		if _, unlocked := s.achievements[k]; !unlocked {
			s.achievements[k] = a
		}
	}
	return nil
}

// GetWorkout returns the session or nil.
func (s *Store) GetWorkout(_ context.Context, tenantID, workoutID string) (*domain.WorkoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workout, ok := s.workouts[workoutID]
	if !ok || workout.TenantID != tenantID {
		return nil, nil
	}
	return &workout, nil
}

// ListWorkouts pages newest-first over non-deleted sessions.
func (s *Store) ListWorkouts(_ context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.WorkoutSession, *domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.WorkoutSession, 0)
	for _, w := range s.workouts {
		if w.TenantID != tenantID || w.UserID != userID || w.DeletedAt != nil {
			continue
		}
		if cursor != nil {
			if w.Date.After(cursor.Date) || (w.Date.Equal(cursor.Date) && w.ID >= cursor.ID) {
				continue
			}
		}
		all = append(all, w)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID > all[j].ID
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	var next *domain.Cursor
	if limit > 0 && len(all) == limit {
		last := all[len(all)-1]
		next = &domain.Cursor{Date: last.Date, ID: last.ID}
	}
	return all, next, nil
}

// SoftDeleteWorkout marks the session deleted without touching history.
func (s *Store) SoftDeleteWorkout(_ context.Context, tenantID, userID, workoutID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	workout, ok := s.workouts[workoutID]
	if !ok || workout.TenantID != tenantID || workout.UserID != userID {
		return domain.ErrWorkoutNotFound
	}
	if workout.DeletedAt == nil {
		now := time.Now().UTC()
		workout.DeletedAt = &now
		workout.UpdatedAt = now
		s.workouts[workoutID] = workout
	}
	return nil
}

// GetProgress returns the row, or a zero row with Version 0.
func (s *Store) GetProgress(_ context.Context, tenantID, userID string) (domain.UserProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress, ok := s.progress[userKey{tenantID, userID}]
	if !ok {
		return domain.UserProgress{TenantID: tenantID, UserID: userID}, nil
	}
	return progress, nil
}

// CommitQuestClaim applies a claim atomically with the version check.
func (s *Store) CommitQuestClaim(_ context.Context, claim domain.QuestClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userKey{claim.Progress.TenantID, claim.Progress.UserID}
	current := s.progress[key].Version
	if claim.Progress.Version != current {
		return domain.ErrVersionConflict
	}

	next := claim.Progress
	next.Version = current + 1
	s.progress[key] = next
	s.quests[questKey{key, claim.Quest.QuestID}] = claim.Quest
	return nil
}

// BestRecords summarises personal-record history per exercise. Records from
// soft-deleted sessions are excluded so the same performance can set a PR
// again; ListRecords still shows the full history.
func (s *Store) BestRecords(_ context.Context, tenantID, userID string) (domain.Bests, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bests := make(domain.Bests)
	for _, r := range s.records[userKey{tenantID, userID}] {
		if source, ok := s.workouts[r.SessionID]; ok && source.DeletedAt != nil {
			continue
		}
		entry := bests[r.ExerciseID]
		switch r.Type {
		case domain.PRTypeE1RM:
			if r.Value > entry.BestE1RM {
				entry.BestE1RM = r.Value
			}
		case domain.PRTypeSessionVolume:
			if r.Value > entry.BestVolume {
				entry.BestVolume = r.Value
			}
		case domain.PRTypeRepMaxAtWeight:
			entry.RepMaxes = append(entry.RepMaxes, domain.WeightReps{WeightLb: r.WeightLb, Reps: int(r.Value)})
		}
		bests[r.ExerciseID] = entry
	}
	return bests, nil
}

// ListRecords returns record history for one exercise, newest first.
func (s *Store) ListRecords(_ context.Context, tenantID, userID, exerciseID string) ([]domain.PersonalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PersonalRecord, 0)
	for _, r := range s.records[userKey{tenantID, userID}] {
		if exerciseID == "" || r.ExerciseID == exerciseID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AchievedAt.After(out[j].AchievedAt) })
	return out, nil
}

// QuestStates returns the user's quest rows.
func (s *Store) QuestStates(_ context.Context, tenantID, userID string) ([]domain.QuestState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.QuestState, 0)
	for key, q := range s.quests {
		if key.tenantID == tenantID && key.userID == userID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestID < out[j].QuestID })
	return out, nil
}

// Achievements returns unlocked achievements.
func (s *Store) Achievements(_ context.Context, tenantID, userID string) ([]domain.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserAchievement, 0)
	for key, a := range s.achievements {
		if key.tenantID == tenantID && key.userID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AchievementID < out[j].AchievementID })
	return out, nil
}

// FindBodyweightByClientID implements the idempotency lookup for bodyweight.
func (s *Store) FindBodyweightByClientID(_ context.Context, tenantID, userID, clientID string) (*domain.BodyweightEntry, error) {
	if clientID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bwByClientID[clientKey(tenantID, userID, clientID)]
	if !ok {
		return nil, nil
	}
	for _, entry := range s.bodyweight[userKey{tenantID, userID}] {
		if entry.ID == id {
			e := entry
			return &e, nil
		}
	}
	return nil, nil
}

// CreateBodyweight appends an entry.
func (s *Store) CreateBodyweight(_ context.Context, entry domain.BodyweightEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userKey{entry.TenantID, entry.UserID}
	s.bodyweight[key] = append(s.bodyweight[key], entry)
	if entry.ClientID != "" {
		s.bwByClientID[clientKey(entry.TenantID, entry.UserID, entry.ClientID)] = entry.ID
	}
	return nil
}

// ListBodyweight returns entries newest first.
func (s *Store) ListBodyweight(_ context.Context, tenantID, userID string, limit int) ([]domain.BodyweightEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := append([]domain.BodyweightEntry(nil), s.bodyweight[userKey{tenantID, userID}]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.After(entries[j].Date) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// GetProfile returns the profile or nil.
func (s *Store) GetProfile(_ context.Context, tenantID, userID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userKey{tenantID, userID}]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

// UpsertProfile writes the profile blob.
func (s *Store) UpsertProfile(_ context.Context, profile domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userKey{profile.TenantID, profile.UserID}] = profile
	return nil
}

// ListExerciseUsage derives the popularity projection from committed
// sessions. The Postgres store reads the consumer-maintained table instead.
func (s *Store) ListExerciseUsage(_ context.Context, tenantID string) ([]domain.ExerciseUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]*domain.ExerciseUsage)
	for _, session := range s.workouts {
		if session.TenantID != tenantID || session.DeletedAt != nil {
			continue
		}
		date := session.Date
		for _, id := range session.ExerciseIDs() {
			row, ok := counts[id]
			if !ok {
				row = &domain.ExerciseUsage{ExerciseID: id}
				counts[id] = row
			}
			row.SessionCount++
			if row.LastUsedAt == nil || date.After(*row.LastUsedAt) {
				last := date
				row.LastUsedAt = &last
			}
		}
	}

	usage := make([]domain.ExerciseUsage, 0, len(counts))
	for _, row := range counts {
		usage = append(usage, *row)
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].SessionCount != usage[j].SessionCount {
			return usage[i].SessionCount > usage[j].SessionCount
		}
		return usage[i].ExerciseID < usage[j].ExerciseID
	})
	return usage, nil
}

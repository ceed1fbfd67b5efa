package api

import (
	"errors"
	"strings"
	"time"

	"example.com/liftlog/internal/catalog"
	"example.com/liftlog/internal/domain"
	"example.com/liftlog/internal/engine"
	"example.com/liftlog/internal/extraction"
	"example.com/liftlog/internal/progression"
	"example.com/liftlog/internal/reconcile"
)

// SetRequest is one performed set. Weight is interpreted in the request's
// weight_unit and stored in pounds.
type SetRequest struct {
	Weight    float64  `json:"weight"`
	Reps      int      `json:"reps"`
	RPE       *float64 `json:"rpe,omitempty"`
	RIR       *float64 `json:"rir,omitempty"`
	SetNumber int      `json:"set_number,omitempty"`
}

// ExerciseRequest groups sets under one catalog exercise.
type ExerciseRequest struct {
	ExerciseID string       `json:"exercise_id"`
	Sets       []SetRequest `json:"sets"`
}

// SubmitWorkoutRequest is the payload for POST /v1/workouts.
type SubmitWorkoutRequest struct {
	ClientID        string            `json:"client_id,omitempty"`
	Date            time.Time         `json:"date"`
	DurationMinutes *int              `json:"duration_minutes,omitempty"`
	SessionRPE      *float64          `json:"session_rpe,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	WeightUnit      string            `json:"weight_unit,omitempty"`
	Exercises       []ExerciseRequest `json:"exercises"`
}

func (r SubmitWorkoutRequest) toInput(tenantID, userID string) (engine.SubmitWorkoutInput, error) {
	factor, err := weightFactor(r.WeightUnit)
	if err != nil {
		return engine.SubmitWorkoutInput{}, err
	}

	exercises := make([]domain.WorkoutExercise, 0, len(r.Exercises))
	for _, ex := range r.Exercises {
		sets := make([]domain.ExerciseSet, 0, len(ex.Sets))
		for _, set := range ex.Sets {
			sets = append(sets, domain.ExerciseSet{
				Weight:    set.Weight * factor,
				Reps:      set.Reps,
				RPE:       set.RPE,
				RIR:       set.RIR,
				SetNumber: set.SetNumber,
			})
		}
		exercises = append(exercises, domain.WorkoutExercise{
			ExerciseID: ex.ExerciseID,
			Sets:       sets,
		})
	}

	return engine.SubmitWorkoutInput{
		TenantID:        tenantID,
		UserID:          userID,
		ClientID:        r.ClientID,
		Date:            r.Date,
		DurationMinutes: r.DurationMinutes,
		SessionRPE:      r.SessionRPE,
		Notes:           r.Notes,
		Source:          domain.SourceManual,
		Exercises:       exercises,
	}, nil
}

// weightFactor maps the request unit to the stored-pounds multiplier.
func weightFactor(unit string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", string(domain.UnitLb):
		return 1, nil
	case string(domain.UnitKg):
		return domain.LbPerKg, nil
	default:
		return 0, errors.New("weight_unit must be lb or kg")
	}
}

// SetView is one stored set with its cached e1RM.
type SetView struct {
	ID        string   `json:"id"`
	WeightLb  float64  `json:"weight_lb"`
	Reps      int      `json:"reps"`
	RPE       *float64 `json:"rpe,omitempty"`
	RIR       *float64 `json:"rir,omitempty"`
	SetNumber int      `json:"set_number"`
	E1RM      float64  `json:"e1rm"`
}

// WorkoutExerciseView groups the stored sets for one exercise of a session.
type WorkoutExerciseView struct {
	ExerciseID string    `json:"exercise_id"`
	OrderIndex int       `json:"order_index"`
	Sets       []SetView `json:"sets"`
}

// WorkoutView is a full session.
type WorkoutView struct {
	WorkoutID       string                `json:"workout_id"`
	ClientID        string                `json:"client_id,omitempty"`
	Date            time.Time             `json:"date"`
	DurationMinutes *int                  `json:"duration_minutes,omitempty"`
	SessionRPE      *float64              `json:"session_rpe,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	Source          string                `json:"source"`
	TotalVolumeLb   float64               `json:"total_volume_lb"`
	TotalSets       int                   `json:"total_sets"`
	Exercises       []WorkoutExerciseView `json:"exercises"`
	CreatedAt       time.Time             `json:"created_at"`
}

func toWorkoutView(session domain.WorkoutSession) WorkoutView {
	exercises := make([]WorkoutExerciseView, 0, len(session.Exercises))
	for _, ex := range session.Exercises {
		sets := make([]SetView, 0, len(ex.Sets))
		for _, set := range ex.Sets {
			sets = append(sets, SetView{
				ID:        set.ID,
				WeightLb:  set.Weight,
				Reps:      set.Reps,
				RPE:       set.RPE,
				RIR:       set.RIR,
				SetNumber: set.SetNumber,
				E1RM:      set.E1RM,
			})
		}
		exercises = append(exercises, WorkoutExerciseView{
			ExerciseID: ex.ExerciseID,
			OrderIndex: ex.OrderIndex,
			Sets:       sets,
		})
	}
	return WorkoutView{
		WorkoutID:       session.ID,
		ClientID:        session.ClientID,
		Date:            session.Date,
		DurationMinutes: session.DurationMinutes,
		SessionRPE:      session.SessionRPE,
		Notes:           session.Notes,
		Source:          string(session.Source),
		TotalVolumeLb:   session.TotalVolume(),
		TotalSets:       session.TotalSets(),
		Exercises:       exercises,
		CreatedAt:       session.CreatedAt,
	}
}

// AchievementView is one unlocked achievement with its reward.
type AchievementView struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Rarity   string `json:"rarity"`
	XPReward int64  `json:"xp_reward"`
}

// SubmitWorkoutResponse reports the committed session and every progression
// fact the commit produced.
type SubmitWorkoutResponse struct {
	Workout       WorkoutView             `json:"workout"`
	Replay        bool                    `json:"idempotent_replay"`
	XPEarned      int64                   `json:"xp_earned"`
	Breakdown     progression.XPBreakdown `json:"xp_breakdown"`
	TotalXP       int64                   `json:"total_xp"`
	Level         int                     `json:"level"`
	LevelProgress float64                 `json:"level_progress"`
	LeveledUp     bool                    `json:"leveled_up"`
	NewLevel      int                     `json:"new_level,omitempty"`
	Rank          string                  `json:"rank"`
	RankChanged   bool                    `json:"rank_changed"`
	NewRank       string                  `json:"new_rank,omitempty"`
	CurrentStreak int                     `json:"current_streak"`
	Records       []domain.PersonalRecord `json:"records"`
	Achievements  []AchievementView       `json:"achievements_unlocked"`
}

func toSubmitView(result *engine.SubmitResult) SubmitWorkoutResponse {
	achievements := make([]AchievementView, 0, len(result.Achievements))
	for _, a := range result.Achievements {
		achievements = append(achievements, AchievementView{
			ID:       a.ID,
			Category: a.Category,
			Rarity:   a.Rarity,
			XPReward: a.XPReward,
		})
	}
	return SubmitWorkoutResponse{
		Workout:       toWorkoutView(result.Workout),
		Replay:        result.Replay,
		XPEarned:      result.XPEarned,
		Breakdown:     result.Breakdown,
		TotalXP:       result.TotalXP,
		Level:         result.Level,
		LevelProgress: result.LevelProgress,
		LeveledUp:     result.LeveledUp,
		NewLevel:      result.NewLevel,
		Rank:          result.Rank,
		RankChanged:   result.RankChanged,
		NewRank:       result.NewRank,
		CurrentStreak: result.CurrentStreak,
		Records:       result.Records,
		Achievements:  achievements,
	}
}

// ListWorkoutsResponse packages list results.
type ListWorkoutsResponse struct {
	Items      []WorkoutView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// SyncWorkoutItem is one offline-captured session in a sync batch.
type SyncWorkoutItem struct {
	SubmitWorkoutRequest
}

// SyncBodyweightItem is one offline bodyweight sample.
type SyncBodyweightItem struct {
	ClientID   string    `json:"client_id"`
	Date       time.Time `json:"date"`
	Weight     float64   `json:"weight"`
	WeightUnit string    `json:"weight_unit,omitempty"`
}

// SyncProfile carries the client's profile copy for last-write-wins merge.
type SyncProfile struct {
	DisplayName   string    `json:"display_name"`
	GoalWeightLb  *float64  `json:"goal_weight_lb,omitempty"`
	PreferredUnit string    `json:"preferred_unit,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SyncRequest is the payload for POST /v1/sync.
type SyncRequest struct {
	Workouts        []SyncWorkoutItem    `json:"workouts,omitempty"`
	Bodyweight      []SyncBodyweightItem `json:"bodyweight,omitempty"`
	Profile         *SyncProfile         `json:"profile,omitempty"`
	ClientTimestamp time.Time            `json:"client_timestamp,omitempty"`
	DeviceID        string               `json:"device_id,omitempty"`
}

func (r SyncRequest) toBatch() (reconcile.Batch, error) {
	batch := reconcile.Batch{
		ClientTimestamp: r.ClientTimestamp,
		DeviceID:        r.DeviceID,
	}

	for _, item := range r.Workouts {
		input, err := item.toInput("", "")
		if err != nil {
			return reconcile.Batch{}, err
		}
		input.Source = domain.SourceDeviceSync
		batch.Workouts = append(batch.Workouts, input)
	}

	for _, item := range r.Bodyweight {
		factor, err := weightFactor(item.WeightUnit)
		if err != nil {
			return reconcile.Batch{}, err
		}
		batch.Bodyweight = append(batch.Bodyweight, domain.BodyweightEntry{
			ClientID: item.ClientID,
			Date:     item.Date,
			WeightLb: item.Weight * factor,
		})
	}

	if r.Profile != nil {
		unit := domain.WeightUnit(r.Profile.PreferredUnit)
		if unit == "" {
			unit = domain.UnitLb
		}
		batch.Profile = &domain.Profile{
			DisplayName:   r.Profile.DisplayName,
			GoalWeightLb:  r.Profile.GoalWeightLb,
			PreferredUnit: unit,
			UpdatedAt:     r.Profile.UpdatedAt,
		}
	}
	return batch, nil
}

// SyncResponse reports per-item outcomes plus batch-level counts.
type SyncResponse struct {
	Success          bool                   `json:"success"`
	Workouts         []reconcile.ItemResult `json:"workouts"`
	Bodyweight       []reconcile.ItemResult `json:"bodyweight"`
	WorkoutsSynced   int                    `json:"workouts_synced"`
	BodyweightSynced int                    `json:"bodyweight_entries_synced"`
	ProfileSynced    bool                   `json:"profile_synced"`
	SyncedAt         time.Time              `json:"synced_at"`
}

func toSyncView(result *reconcile.Result) SyncResponse {
	resp := SyncResponse{
		Success:       true,
		Workouts:      result.Workouts,
		Bodyweight:    result.Bodyweight,
		ProfileSynced: result.ProfileApplied,
		SyncedAt:      result.SyncedAt,
	}
	for _, item := range result.Workouts {
		if item.Status != reconcile.StatusRejected {
			resp.WorkoutsSynced++
		}
	}
	for _, item := range result.Bodyweight {
		if item.Status != reconcile.StatusRejected {
			resp.BodyweightSynced++
		}
	}
	return resp
}

// ExtractionRequest carries per-image block batches from the external
// extraction service.
type ExtractionRequest struct {
	Batches [][]extraction.Block `json:"batches"`
}

// ConfirmExtractionRequest commits the convertible subset as a workout.
type ConfirmExtractionRequest struct {
	ExtractionRequest
	ClientID string    `json:"client_id,omitempty"`
	Date     time.Time `json:"date"`
	Notes    string    `json:"notes,omitempty"`
}

// ExtractionBlockView is the per-block classification result.
type ExtractionBlockView struct {
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	ExerciseID     string  `json:"exercise_id,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	WarmupsDropped int     `json:"warmups_dropped"`
	SetCount       int     `json:"set_count"`
}

// ExtractionResponse separates raw outcomes from the convertible preview.
type ExtractionResponse struct {
	Blocks      []ExtractionBlockView `json:"blocks"`
	Matched     int                   `json:"matched"`
	Unmatched   int                   `json:"unmatched"`
	Skipped     int                   `json:"skipped"`
	Convertible int                   `json:"convertible"`
	TotalSets   int                   `json:"total_sets"`
}

func toExtractionView(result extraction.Result) ExtractionResponse {
	blocks := make([]ExtractionBlockView, 0, len(result.Raw))
	for _, raw := range result.Raw {
		blocks = append(blocks, ExtractionBlockView{
			Name:           raw.Block.Name,
			Status:         string(raw.Status),
			ExerciseID:     raw.ExerciseID,
			Confidence:     raw.Confidence,
			WarmupsDropped: raw.WarmupsDrop,
			SetCount:       len(raw.Block.Sets),
		})
	}
	totalSets := 0
	for _, conv := range result.Convertible {
		totalSets += len(conv.Sets)
	}
	return ExtractionResponse{
		Blocks:      blocks,
		Matched:     result.Matched,
		Unmatched:   result.Unmatched,
		Skipped:     result.Skipped,
		Convertible: len(result.Convertible),
		TotalSets:   totalSets,
	}
}

// ConfirmExtractionResponse pairs the commit outcome with the extraction
// summary so clients can show both.
type ConfirmExtractionResponse struct {
	Submit     SubmitWorkoutResponse `json:"submit"`
	Extraction ExtractionResponse    `json:"extraction"`
}

// ClaimQuestResponse is the outcome of a quest claim.
type ClaimQuestResponse struct {
	Success     bool   `json:"success"`
	XPEarned    int64  `json:"xp_earned"`
	TotalXP     int64  `json:"total_xp"`
	Level       int    `json:"level"`
	LeveledUp   bool   `json:"leveled_up"`
	Rank        string `json:"rank"`
	RankChanged bool   `json:"rank_changed"`
}

// ProgressResponse bundles the progression view for GET /v1/progress.
type ProgressResponse struct {
	TotalXP       int64                    `json:"total_xp"`
	Level         int                      `json:"level"`
	LevelProgress float64                  `json:"level_progress"`
	Rank          string                   `json:"rank"`
	CurrentStreak int                      `json:"current_streak"`
	LongestStreak int                      `json:"longest_streak"`
	TotalWorkouts int64                    `json:"total_workouts"`
	TotalVolumeLb float64                  `json:"total_volume_lb"`
	TotalPRs      int64                    `json:"total_prs"`
	Quests        []domain.QuestState      `json:"quests"`
	Achievements  []domain.UserAchievement `json:"achievements"`
}

func toProgressView(view *engine.ProgressView) ProgressResponse {
	return ProgressResponse{
		TotalXP:       view.Progress.TotalXP,
		Level:         view.Level,
		LevelProgress: view.LevelProgress,
		Rank:          view.Rank,
		CurrentStreak: view.Progress.CurrentStreak,
		LongestStreak: view.Progress.LongestStreak,
		TotalWorkouts: view.Progress.TotalWorkouts,
		TotalVolumeLb: view.Progress.TotalVolumeLb,
		TotalPRs:      view.Progress.TotalPRs,
		Quests:        view.Quests,
		Achievements:  view.Achievements,
	}
}

// RecordsResponse lists personal-record history.
type RecordsResponse struct {
	Records []domain.PersonalRecord `json:"records"`
}

// ExerciseView merges a catalog entry with its usage projection.
type ExerciseView struct {
	catalog.Exercise
	SessionCount int64      `json:"session_count"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
}

// ExercisesResponse lists the catalog.
type ExercisesResponse struct {
	Items []ExerciseView `json:"items"`
}

// CreateExerciseRequest registers a custom exercise.
type CreateExerciseRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	PrimaryMuscle string `json:"primary_muscle"`
}

// BodyweightResponse lists recent bodyweight entries.
type BodyweightResponse struct {
	Entries []domain.BodyweightEntry `json:"entries"`
}

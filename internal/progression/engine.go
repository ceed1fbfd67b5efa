package progression

import (
	"math"
	"time"

	"example.com/liftlog/internal/domain"
)

// WorkoutFacts are the session-derived inputs to one progression update.
type WorkoutFacts struct {
	Date        time.Time
	VolumeLb    float64
	Sets        int
	Variety     int // distinct exercises
	RecordCount int
}

// Outcome is the result of applying one committed workout. Everything in it
// must be persisted together with the session or not at all.
type Outcome struct {
	Progress     domain.UserProgress
	XPEarned     int64
	Breakdown    XPBreakdown
	LeveledUp    bool
	NewLevel     int
	Rank         string
	RankChanged  bool
	NewRank      string
	Achievements []Achievement
	QuestStates  []domain.QuestState
}

// ClaimOutcome is the result of a quest claim. Success is false for
// already-claimed or incomplete quests; that is a no-op, not an error.
type ClaimOutcome struct {
	Success     bool
	XPEarned    int64
	Progress    domain.UserProgress
	Quest       domain.QuestState
	LeveledUp   bool
	Rank        string
	RankChanged bool
}

// Engine computes progression transitions from static tables. It is pure:
// all state comes in and goes out through arguments and results.
type Engine struct {
	policy       Policy
	achievements []Achievement
	quests       []QuestTemplate
}

// NewEngine builds an Engine from explicit tables.
func NewEngine(policy Policy, achievements []Achievement, quests []QuestTemplate) *Engine {
	return &Engine{policy: policy, achievements: achievements, quests: quests}
}

// Default builds an Engine from the built-in registry tables.
func Default() *Engine {
	return NewEngine(DefaultPolicy, AchievementRegistry, QuestRegistry)
}

// ApplyWorkout advances the progression state for one newly-committed
// session. unlocked holds the already-unlocked achievement ids; quests holds
// the user's current quest states (missing templates are initialised).
func (e *Engine) ApplyWorkout(progress domain.UserProgress, quests []domain.QuestState, unlocked map[string]struct{}, facts WorkoutFacts, now time.Time) Outcome {
	prevLevel := LevelForXP(progress.TotalXP)
	prevRank := RankForLevel(prevLevel)

	breakdown := XPBreakdown{
		VolumeXP:     int64(math.Floor(facts.VolumeLb * e.policy.XPPerVolumeLb)),
		RecordXP:     int64(facts.RecordCount) * e.policy.XPPerRecord,
		CompletionXP: e.policy.CompletionBonus,
	}

	progress.TotalXP += breakdown.VolumeXP + breakdown.RecordXP + breakdown.CompletionXP
	progress.TotalWorkouts++
	progress.TotalVolumeLb += facts.VolumeLb
	progress.TotalPRs += int64(facts.RecordCount)
	progress.PolicyVersion = e.policy.Version

	e.applyStreak(&progress, facts.Date)

	stats := Stats{
		TotalWorkouts: progress.TotalWorkouts,
		TotalVolumeLb: progress.TotalVolumeLb,
		TotalPRs:      progress.TotalPRs,
		CurrentStreak: progress.CurrentStreak,
		LongestStreak: progress.LongestStreak,
		Level:         LevelForXP(progress.TotalXP),
	}

	newlyUnlocked := make([]Achievement, 0)
	for _, a := range e.achievements {
		if _, done := unlocked[a.ID]; done {
			continue
		}
		if a.Unlocked(stats) {
			newlyUnlocked = append(newlyUnlocked, a)
			breakdown.AchievementXP += a.XPReward
		}
	}
	progress.TotalXP += breakdown.AchievementXP

	progress.Level = LevelForXP(progress.TotalXP)
	progress.UpdatedAt = now

	rank := RankForLevel(progress.Level)

	return Outcome{
		Progress:     progress,
		XPEarned:     breakdown.Total(),
		Breakdown:    breakdown,
		LeveledUp:    progress.Level > prevLevel,
		NewLevel:     progress.Level,
		Rank:         rank,
		RankChanged:  rank != prevRank,
		NewRank:      rank,
		Achievements: newlyUnlocked,
		QuestStates:  e.advanceQuests(progress.TenantID, progress.UserID, quests, facts, now),
	}
}

// applyStreak implements the calendar-day streak rules: consecutive day
// increments, same day holds, anything else resets to one.
func (e *Engine) applyStreak(progress *domain.UserProgress, sessionDate time.Time) {
	day := calendarDay(sessionDate)
	switch {
	case progress.LastWorkoutDate == nil:
		progress.CurrentStreak = 1
	case calendarDay(*progress.LastWorkoutDate).Equal(day):
		// same day, streak unchanged
	case calendarDay(*progress.LastWorkoutDate).AddDate(0, 0, 1).Equal(day):
		progress.CurrentStreak++
	default:
		progress.CurrentStreak = 1
	}
	if progress.CurrentStreak > progress.LongestStreak {
		progress.LongestStreak = progress.CurrentStreak
	}
	progress.LastWorkoutDate = &day
}

// advanceQuests refreshes expired states, initialises missing ones, and
// increments progress monotonically up to each target.
func (e *Engine) advanceQuests(tenantID, userID string, states []domain.QuestState, facts WorkoutFacts, now time.Time) []domain.QuestState {
	byID := make(map[string]domain.QuestState, len(states))
	for _, s := range states {
		byID[s.QuestID] = s
	}

	out := make([]domain.QuestState, 0, len(e.quests))
	for _, tmpl := range e.quests {
		state, ok := byID[tmpl.ID]
		if !ok || !now.Before(state.RefreshAt) {
			state = domain.QuestState{
				TenantID:    tenantID,
				UserID:      userID,
				QuestID:     tmpl.ID,
				TargetValue: tmpl.TargetValue,
				RefreshAt:   periodEnd(tmpl.Period, now),
			}
		}

		if !state.IsCompleted {
			state.Progress += questMetricValue(tmpl.Metric, facts)
			if state.Progress >= state.TargetValue {
				state.Progress = state.TargetValue
				state.IsCompleted = true
			}
		}
		state.UpdatedAt = now
		out = append(out, state)
	}
	return out
}

func questMetricValue(metric QuestMetric, facts WorkoutFacts) float64 {
	switch metric {
	case MetricSets:
		return float64(facts.Sets)
	case MetricVolume:
		return facts.VolumeLb
	case MetricVariety:
		return float64(facts.Variety)
	case MetricWorkouts:
		return 1
	default:
		return 0
	}
}

// Claim transfers a completed quest's reward into total XP exactly once.
func (e *Engine) Claim(progress domain.UserProgress, quest domain.QuestState, now time.Time) ClaimOutcome {
	prevLevel := LevelForXP(progress.TotalXP)
	prevRank := RankForLevel(prevLevel)

	if !quest.IsCompleted || quest.IsClaimed {
		return ClaimOutcome{
			Success:  false,
			Progress: progress,
			Quest:    quest,
			Rank:     prevRank,
		}
	}

	tmpl, ok := questTemplate(quest.QuestID)
	if !ok {
		return ClaimOutcome{Success: false, Progress: progress, Quest: quest, Rank: prevRank}
	}

	quest.IsClaimed = true
	quest.UpdatedAt = now

	progress.TotalXP += tmpl.XPReward
	progress.Level = LevelForXP(progress.TotalXP)
	progress.UpdatedAt = now

	rank := RankForLevel(progress.Level)
	return ClaimOutcome{
		Success:     true,
		XPEarned:    tmpl.XPReward,
		Progress:    progress,
		Quest:       quest,
		LeveledUp:   progress.Level > prevLevel,
		Rank:        rank,
		RankChanged: rank != prevRank,
	}
}

func calendarDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package progression

import "time"

// Stats is the cumulative input to achievement unlock conditions.
type Stats struct {
	TotalWorkouts int64
	TotalVolumeLb float64
	TotalPRs      int64
	CurrentStreak int
	LongestStreak int
	Level         int
}

// Achievement describes one unlockable entry in the registry. Unlocks are
// monotonic and first-time-only; conditions are evaluated against updated
// cumulative stats at commit time, never retroactively.
type Achievement struct {
	ID       string
	Category string
	Rarity   string
	XPReward int64
	Unlocked func(Stats) bool
}

// AchievementRegistry is the static unlock catalog loaded at process start.
var AchievementRegistry = []Achievement{
	{ID: "first-workout", Category: "milestones", Rarity: "common", XPReward: 50,
		Unlocked: func(s Stats) bool { return s.TotalWorkouts >= 1 }},
	{ID: "ten-workouts", Category: "milestones", Rarity: "common", XPReward: 100,
		Unlocked: func(s Stats) bool { return s.TotalWorkouts >= 10 }},
	{ID: "hundred-workouts", Category: "milestones", Rarity: "rare", XPReward: 500,
		Unlocked: func(s Stats) bool { return s.TotalWorkouts >= 100 }},
	{ID: "first-pr", Category: "records", Rarity: "common", XPReward: 50,
		Unlocked: func(s Stats) bool { return s.TotalPRs >= 1 }},
	{ID: "fifty-prs", Category: "records", Rarity: "epic", XPReward: 300,
		Unlocked: func(s Stats) bool { return s.TotalPRs >= 50 }},
	{ID: "week-streak", Category: "streaks", Rarity: "common", XPReward: 100,
		Unlocked: func(s Stats) bool { return s.CurrentStreak >= 7 }},
	{ID: "month-streak", Category: "streaks", Rarity: "epic", XPReward: 400,
		Unlocked: func(s Stats) bool { return s.CurrentStreak >= 30 }},
	{ID: "hundred-tons", Category: "volume", Rarity: "rare", XPReward: 250,
		Unlocked: func(s Stats) bool { return s.TotalVolumeLb >= 200_000 }},
	{ID: "silver-rank", Category: "ranks", Rarity: "rare", XPReward: 200,
		Unlocked: func(s Stats) bool { return s.Level >= 20 }},
	{ID: "gold-rank", Category: "ranks", Rarity: "epic", XPReward: 350,
		Unlocked: func(s Stats) bool { return s.Level >= 30 }},
}

// QuestMetric selects which session fact advances a quest.
type QuestMetric string

const (
	MetricSets     QuestMetric = "sets"
	MetricVolume   QuestMetric = "volume"
	MetricVariety  QuestMetric = "variety"
	MetricWorkouts QuestMetric = "workouts"
)

// QuestPeriod is the refresh cadence.
type QuestPeriod string

const (
	PeriodDaily  QuestPeriod = "daily"
	PeriodWeekly QuestPeriod = "weekly"
)

// QuestTemplate is a static quest definition.
type QuestTemplate struct {
	ID          string
	Metric      QuestMetric
	TargetValue float64
	XPReward    int64
	Period      QuestPeriod
}

// QuestRegistry is the static quest catalog loaded at process start.
var QuestRegistry = []QuestTemplate{
	{ID: "daily-session", Metric: MetricWorkouts, TargetValue: 1, XPReward: 25, Period: PeriodDaily},
	{ID: "weekly-sets", Metric: MetricSets, TargetValue: 60, XPReward: 100, Period: PeriodWeekly},
	{ID: "weekly-volume", Metric: MetricVolume, TargetValue: 50_000, XPReward: 150, Period: PeriodWeekly},
	{ID: "weekly-variety", Metric: MetricVariety, TargetValue: 10, XPReward: 75, Period: PeriodWeekly},
}

// questTemplate looks a template up by id.
func questTemplate(id string) (QuestTemplate, bool) {
	for _, tmpl := range QuestRegistry {
		if tmpl.ID == id {
			return tmpl, true
		}
	}
	return QuestTemplate{}, false
}

// periodEnd returns the next refresh boundary strictly after now, in UTC.
func periodEnd(period QuestPeriod, now time.Time) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodDaily:
		return day.AddDate(0, 0, 1)
	default:
		// Weekly quests refresh Monday 00:00 UTC.
		offset := (int(day.Weekday()) + 6) % 7 // days since Monday
		return day.AddDate(0, 0, 7-offset)
	}
}

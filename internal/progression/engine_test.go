package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/liftlog/internal/domain"
)

var testDay = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

func facts(date time.Time) WorkoutFacts {
	return WorkoutFacts{Date: date, VolumeLb: 10_000, Sets: 15, Variety: 4, RecordCount: 2}
}

func TestXPBreakdownFollowsPolicy(t *testing.T) {
	engine := Default()
	out := engine.ApplyWorkout(domain.UserProgress{TenantID: "t", UserID: "u"}, nil, map[string]struct{}{}, facts(testDay), testDay)

	require.Equal(t, int64(100), out.Breakdown.VolumeXP) // 10000 * 0.01
	require.Equal(t, int64(50), out.Breakdown.RecordXP)  // 2 * 25
	require.Equal(t, int64(50), out.Breakdown.CompletionXP)
	// first-workout (50) and first-pr (50) unlock on this session
	require.Equal(t, int64(100), out.Breakdown.AchievementXP)
	require.Equal(t, out.Breakdown.Total(), out.XPEarned)
	require.Equal(t, out.Progress.TotalXP, out.XPEarned)
	require.Equal(t, "v1", out.Progress.PolicyVersion)
}

func TestLevelThresholdsAreStrictlyIncreasing(t *testing.T) {
	for l := 2; l <= maxLevel; l++ {
		require.Greater(t, Threshold(l), Threshold(l-1), "level %d", l)
	}
	require.Equal(t, 1, LevelForXP(0))
	require.Equal(t, 1, LevelForXP(99))
	require.Equal(t, 2, LevelForXP(100))
	require.InDelta(t, 0.5, LevelProgress(Threshold(3)+(Threshold(4)-Threshold(3))/2), 0.01)
}

func TestRankTiers(t *testing.T) {
	require.Equal(t, "Iron", RankForLevel(1))
	require.Equal(t, "Bronze", RankForLevel(10))
	require.Equal(t, "Silver", RankForLevel(25))
	require.Equal(t, "Diamond", RankForLevel(55))
}

func TestStreakConsecutiveDays(t *testing.T) {
	engine := Default()
	progress := domain.UserProgress{TenantID: "t", UserID: "u"}
	unlocked := map[string]struct{}{}

	for i := 0; i < 3; i++ {
		day := testDay.AddDate(0, 0, i)
		out := engine.ApplyWorkout(progress, nil, unlocked, facts(day), day)
		progress = out.Progress
		for _, a := range out.Achievements {
			unlocked[a.ID] = struct{}{}
		}
	}
	require.Equal(t, 3, progress.CurrentStreak)
	require.Equal(t, 3, progress.LongestStreak)

	// Same calendar day leaves the streak unchanged.
	out := engine.ApplyWorkout(progress, nil, unlocked, facts(testDay.AddDate(0, 0, 2)), testDay)
	require.Equal(t, 3, out.Progress.CurrentStreak)

	// A gap resets to one but preserves the longest streak.
	gapDay := testDay.AddDate(0, 0, 4)
	out = engine.ApplyWorkout(out.Progress, nil, unlocked, facts(gapDay), gapDay)
	require.Equal(t, 1, out.Progress.CurrentStreak)
	require.Equal(t, 3, out.Progress.LongestStreak)
}

func TestAchievementsUnlockOnce(t *testing.T) {
	engine := Default()
	out := engine.ApplyWorkout(domain.UserProgress{TenantID: "t", UserID: "u"}, nil, map[string]struct{}{}, facts(testDay), testDay)

	ids := make([]string, 0, len(out.Achievements))
	for _, a := range out.Achievements {
		ids = append(ids, a.ID)
	}
	require.Contains(t, ids, "first-workout")
	require.Contains(t, ids, "first-pr")

	unlocked := map[string]struct{}{}
	for _, id := range ids {
		unlocked[id] = struct{}{}
	}
	next := engine.ApplyWorkout(out.Progress, out.QuestStates, unlocked, facts(testDay.AddDate(0, 0, 1)), testDay.AddDate(0, 0, 1))
	for _, a := range next.Achievements {
		require.NotContains(t, ids, a.ID)
	}
}

func TestQuestProgressIsMonotonicAndCapped(t *testing.T) {
	engine := Default()
	out := engine.ApplyWorkout(domain.UserProgress{TenantID: "t", UserID: "u"}, nil, map[string]struct{}{}, facts(testDay), testDay)

	var sets domain.QuestState
	for _, q := range out.QuestStates {
		if q.QuestID == "weekly-sets" {
			sets = q
		}
	}
	require.Equal(t, 15.0, sets.Progress)
	require.False(t, sets.IsCompleted)

	// Four more sessions in the same week complete and cap the quest.
	states := out.QuestStates
	progress := out.Progress
	for i := 1; i <= 4; i++ {
		day := testDay.Add(time.Duration(i) * time.Hour)
		next := engine.ApplyWorkout(progress, states, map[string]struct{}{"first-workout": {}, "first-pr": {}}, facts(day), day)
		states = next.QuestStates
		progress = next.Progress
	}
	for _, q := range states {
		if q.QuestID == "weekly-sets" {
			require.True(t, q.IsCompleted)
			require.Equal(t, q.TargetValue, q.Progress)
		}
	}
}

func TestQuestRefreshResetsState(t *testing.T) {
	engine := Default()
	stale := []domain.QuestState{{
		TenantID: "t", UserID: "u", QuestID: "weekly-sets",
		Progress: 60, TargetValue: 60, IsCompleted: true, IsClaimed: true,
		RefreshAt: testDay.Add(-time.Hour),
	}}
	out := engine.ApplyWorkout(domain.UserProgress{TenantID: "t", UserID: "u"}, stale, map[string]struct{}{}, facts(testDay), testDay)
	for _, q := range out.QuestStates {
		if q.QuestID == "weekly-sets" {
			require.False(t, q.IsCompleted)
			require.False(t, q.IsClaimed)
			require.Equal(t, 15.0, q.Progress)
			require.True(t, q.RefreshAt.After(testDay))
		}
	}
}

func TestClaimIsIdempotent(t *testing.T) {
	engine := Default()
	progress := domain.UserProgress{TenantID: "t", UserID: "u", TotalXP: 500, Level: LevelForXP(500)}
	quest := domain.QuestState{
		TenantID: "t", UserID: "u", QuestID: "weekly-sets",
		Progress: 60, TargetValue: 60, IsCompleted: true,
		RefreshAt: testDay.AddDate(0, 0, 7),
	}

	first := engine.Claim(progress, quest, testDay)
	require.True(t, first.Success)
	require.Equal(t, int64(100), first.XPEarned)
	require.Equal(t, int64(600), first.Progress.TotalXP)
	require.True(t, first.Quest.IsClaimed)

	second := engine.Claim(first.Progress, first.Quest, testDay)
	require.False(t, second.Success)
	require.Equal(t, int64(0), second.XPEarned)
	require.Equal(t, int64(600), second.Progress.TotalXP)
}

func TestClaimIncompleteQuestFails(t *testing.T) {
	engine := Default()
	quest := domain.QuestState{QuestID: "weekly-sets", Progress: 10, TargetValue: 60}
	out := engine.Claim(domain.UserProgress{}, quest, testDay)
	require.False(t, out.Success)
}

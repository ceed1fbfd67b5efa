// Package progression derives XP, levels, ranks, streaks, achievements, and
// quests from committed workout events.
package progression

// Policy is the XP weighting table. It is data, not logic: swapping weights
// never touches the engine, and PolicyVersion is stamped onto progress rows
// so historical awards stay attributable.
type Policy struct {
	Version         string
	XPPerVolumeLb   float64
	XPPerRecord     int64
	CompletionBonus int64
}

// DefaultPolicy awards 1 XP per 100 lb of volume, 25 XP per personal record,
// and a 50 XP session-completion bonus.
var DefaultPolicy = Policy{
	Version:         "v1",
	XPPerVolumeLb:   0.01,
	XPPerRecord:     25,
	CompletionBonus: 50,
}

// XPBreakdown itemises one award.
type XPBreakdown struct {
	VolumeXP      int64 `json:"volume_xp"`
	RecordXP      int64 `json:"record_xp"`
	CompletionXP  int64 `json:"completion_xp"`
	AchievementXP int64 `json:"achievement_xp"`
}

// Total sums the breakdown.
func (b XPBreakdown) Total() int64 {
	return b.VolumeXP + b.RecordXP + b.CompletionXP + b.AchievementXP
}

const maxLevel = 60

// levelThresholds[i] is the cumulative XP required for level i+1. Strictly
// increasing; level 1 starts at zero.
var levelThresholds = buildLevelThresholds()

func buildLevelThresholds() []int64 {
	out := make([]int64, maxLevel)
	for l := 1; l <= maxLevel; l++ {
		// 100, 300, 600, ... per-level cost grows by 100 each level.
		out[l-1] = int64(50 * (l - 1) * l)
	}
	return out
}

// Threshold returns the cumulative XP required to reach level.
func Threshold(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > maxLevel {
		level = maxLevel
	}
	return levelThresholds[level-1]
}

// LevelForXP returns the largest level whose threshold totalXP meets.
func LevelForXP(totalXP int64) int {
	level := 1
	for l := 2; l <= maxLevel; l++ {
		if totalXP < levelThresholds[l-1] {
			break
		}
		level = l
	}
	return level
}

// LevelProgress returns the fraction of the way from the current level's
// threshold to the next one, in [0,1]. The max level always reports 1.
func LevelProgress(totalXP int64) float64 {
	level := LevelForXP(totalXP)
	if level >= maxLevel {
		return 1
	}
	lower := Threshold(level)
	upper := Threshold(level + 1)
	return float64(totalXP-lower) / float64(upper-lower)
}

// RankTier maps a level range to a named tier.
type RankTier struct {
	Name     string
	MinLevel int
}

// rankTable is ordered by MinLevel ascending.
var rankTable = []RankTier{
	{Name: "Iron", MinLevel: 1},
	{Name: "Bronze", MinLevel: 10},
	{Name: "Silver", MinLevel: 20},
	{Name: "Gold", MinLevel: 30},
	{Name: "Platinum", MinLevel: 40},
	{Name: "Diamond", MinLevel: 50},
}

// RankForLevel returns the tier containing level.
func RankForLevel(level int) string {
	rank := rankTable[0].Name
	for _, tier := range rankTable {
		if level >= tier.MinLevel {
			rank = tier.Name
		}
	}
	return rank
}

package progression

import (
	"math"

	"github.com/julianstephens/questlog/internal/constants"
	"github.com/julianstephens/questlog/internal/models"
)

// Level returns the character level for a cumulative experience total:
// floor(sqrt(totalExp/100)) + 1. Negative totals are level 1.
func Level(totalExp int64) int {
	if totalExp < 0 {
		return constants.StartingLevel
	}
	return int(isqrt(totalExp/constants.ExpPerLevelUnit)) + 1
}

// LevelFloor returns the cumulative experience at which level begins.
// It is the exact inverse of Level, so every total lands in exactly one
// band [LevelFloor(L), LevelFloor(L+1)).
func LevelFloor(level int) int64 {
	if level <= constants.StartingLevel {
		return 0
	}
	n := int64(level - 1)
	return n * n * constants.ExpPerLevelUnit
}

// LegacyLevelFloor is the threshold formula ((level-1)^2 - 1) * 100 used by
// the first release's level display. It disagrees with Level from level 3
// upward and is kept only for comparison.
func LegacyLevelFloor(level int) int64 {
	if level <= constants.StartingLevel {
		return 0
	}
	n := int64(level - 1)
	return (n*n - 1) * constants.ExpPerLevelUnit
}

// ExpBand returns the experience accrued inside the current level and the
// width of that level's band.
func ExpBand(totalExp int64) (currentExp, expToNext int64) {
	level := Level(totalExp)
	floor := LevelFloor(level)
	return totalExp - floor, LevelFloor(level+1) - floor
}

// ApplyTotalExp sets the profile's total experience and recomputes the
// derived level fields.
func ApplyTotalExp(p *models.Profile, totalExp int64) {
	p.TotalExp = totalExp
	p.CharacterLevel = Level(totalExp)
	p.CurrentExp, p.ExpToNext = ExpBand(totalExp)
}

// ProgressPct is the rounded percentage of the current band completed,
// clamped to [0, 100].
func ProgressPct(p models.Profile) int {
	if p.ExpToNext <= 0 || p.CurrentExp <= 0 {
		return 0
	}
	pct := int(math.Round(float64(p.CurrentExp) / float64(p.ExpToNext) * 100))
	return min(pct, 100)
}

// NextMilestone returns the next multiple of five at or above level.
func NextMilestone(level int) int {
	if level < constants.StartingLevel {
		level = constants.StartingLevel
	}
	m := constants.MilestoneInterval
	return (level + m - 1) / m * m
}

// IsMilestoneLevel reports whether level opens a five-level band and
// therefore grants free items.
func IsMilestoneLevel(level int) bool {
	return level > constants.StartingLevel && level%constants.MilestoneInterval == 1
}

func isqrt(n int64) int64 {
	if n <= 0 {
		return 0
	}
	r := int64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

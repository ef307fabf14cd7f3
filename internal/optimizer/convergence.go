package optimizer

import (
	"fmt"
	"math"

	"github.com/balancelab/balance-core/pkg/param"
)

// snapshot captures the incumbent at a trial boundary
type snapshot struct {
	score  float64
	params param.Set
}

// convergenceChecker detects convergence from incumbent snapshots taken
// at trial boundaries: the run has converged once both the incumbent
// score range and the largest per-dimension parameter change across the
// window fall below the tolerance.
type convergenceChecker struct {
	window    int
	tolerance float64
	snapshots []snapshot
}

func newConvergenceChecker(tolerance float64) *convergenceChecker {
	return &convergenceChecker{
		window:    3,
		tolerance: tolerance,
	}
}

// observe records the incumbent at a trial boundary
func (c *convergenceChecker) observe(score float64, params param.Set) {
	c.snapshots = append(c.snapshots, snapshot{score: score, params: params.Clone()})
	if len(c.snapshots) > c.window {
		c.snapshots = c.snapshots[len(c.snapshots)-c.window:]
	}
}

// converged reports whether the observed window has stabilized
func (c *convergenceChecker) converged() (bool, string) {
	if len(c.snapshots) < c.window {
		return false, ""
	}

	minScore := c.snapshots[0].score
	maxScore := c.snapshots[0].score
	for _, s := range c.snapshots[1:] {
		minScore = math.Min(minScore, s.score)
		maxScore = math.Max(maxScore, s.score)
	}
	scoreRange := maxScore - minScore
	if scoreRange >= c.tolerance {
		return false, ""
	}

	maxChange := 0.0
	for i := 1; i < len(c.snapshots); i++ {
		prev, curr := c.snapshots[i-1].params, c.snapshots[i].params
		for name, v := range curr {
			change := math.Abs(v - prev[name])
			maxChange = math.Max(maxChange, change)
		}
	}
	if maxChange >= c.tolerance {
		return false, ""
	}

	return true, fmt.Sprintf("incumbent stable over %d trials (score range %.6f, max parameter change %.6f)",
		c.window, scoreRange, maxChange)
}

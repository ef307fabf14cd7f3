// Package sensitivity ranks tuning parameters by how strongly score
// changes track their movement across a recorded optimization history.
package sensitivity

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/balancelab/balance-core/internal/optimizer"
	"github.com/balancelab/balance-core/pkg/param"
)

// ErrInsufficientHistory is returned when the history is too short for a
// meaningful analysis.
var ErrInsufficientHistory = errors.New("insufficient history for sensitivity analysis")

// MinHistory is the smallest history length Analyze accepts.
const MinHistory = 10

// paramEpsilon is the smallest parameter movement that counts as a
// usable pair; smaller deltas would blow up the ratio numerically.
const paramEpsilon = 1e-9

// Impact is one parameter's estimated influence on the score.
type Impact struct {
	// Name is the parameter name
	Name string `json:"name"`
	// Influence is the mean |Δscore/Δparam| over consecutive history
	// pairs where the parameter actually moved; always >= 0
	Influence float64 `json:"influence"`
}

// Ranking lists every bounded parameter, highest influence first.
type Ranking []Impact

// Names returns the parameter names in ranked order.
func (r Ranking) Names() []string {
	out := make([]string, len(r))
	for i, im := range r {
		out[i] = im.Name
	}
	return out
}

// Analyze estimates per-parameter influence from consecutive history
// pairs: for each pair where a parameter moved, the absolute score
// change per unit of parameter change is collected, and the parameter's
// influence is the mean of those ratios. Parameters that never moved
// get influence zero. The history must hold at least MinHistory
// entries.
func Analyze(history optimizer.History, bounds param.Bounds) (Ranking, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if len(history) < MinHistory {
		return nil, ErrInsufficientHistory
	}

	names := bounds.Names()
	ratios := make(map[string][]float64, len(names))

	for i := 1; i < len(history); i++ {
		prev, curr := &history[i-1], &history[i]
		scoreDelta := math.Abs(curr.Score - prev.Score)
		for _, name := range names {
			paramDelta := math.Abs(curr.Params[name] - prev.Params[name])
			if paramDelta <= paramEpsilon {
				continue
			}
			ratios[name] = append(ratios[name], scoreDelta/paramDelta)
		}
	}

	ranking := make(Ranking, 0, len(names))
	for _, name := range names {
		influence := 0.0
		if samples := ratios[name]; len(samples) > 0 {
			influence = stat.Mean(samples, nil)
		}
		ranking = append(ranking, Impact{Name: name, Influence: influence})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Influence > ranking[j].Influence
	})
	return ranking, nil
}

// Package report assembles the final balance report from a finished
// optimization run.
package report

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/balancelab/balance-core/internal/optimizer"
	"github.com/balancelab/balance-core/internal/sensitivity"
	"github.com/balancelab/balance-core/pkg/param"
	"github.com/balancelab/balance-core/pkg/utils"
)

// histogramBuckets is the fixed bucket count over the score range
const histogramBuckets = 10

// Bucket is one score histogram bin [Lo, Hi) with Hi inclusive for the
// top bin.
type Bucket struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Summary holds descriptive statistics over all recorded trial scores,
// rounded to four decimal places.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Report is the JSON-serializable outcome of a run.
type Report struct {
	BestParams         param.Set           `json:"bestParams"`
	BestScore          float64             `json:"bestScore"`
	IterationsRun      int                 `json:"iterationsRun"`
	ElapsedMs          int64               `json:"elapsedMs"`
	Status             string              `json:"status"`
	SensitivityRanking sensitivity.Ranking `json:"sensitivityRanking,omitempty"`
	ScoreSummary       Summary             `json:"scoreSummary"`
	ScoreHistogram     []Bucket            `json:"scoreHistogram"`
	GeneratedAt        time.Time           `json:"generatedAt"`
}

// Build assembles a report from the run outcome. best may be nil when
// the run produced no usable trial; the ranking may be nil when the
// history was too short for sensitivity analysis.
func Build(best *optimizer.TrialResult, history optimizer.History, ranking sensitivity.Ranking, status string, elapsed time.Duration) *Report {
	r := &Report{
		IterationsRun:      len(history),
		ElapsedMs:          elapsed.Milliseconds(),
		Status:             status,
		SensitivityRanking: ranking,
		ScoreSummary:       scoreSummary(history.Scores()),
		ScoreHistogram:     scoreHistogram(history.Scores()),
		GeneratedAt:        time.Now().UTC(),
	}
	if best != nil {
		r.BestParams = best.Params.Clone()
		r.BestScore = best.Score
	}
	return r
}

// scoreSummary reduces the score series to descriptive statistics.
// An empty history yields the zero summary.
func scoreSummary(scores []float64) Summary {
	if len(scores) == 0 {
		return Summary{}
	}
	return Summary{
		Mean:   utils.Round(utils.Mean(scores), 4),
		StdDev: utils.Round(utils.StdDev(scores), 4),
		Median: utils.Round(utils.Percentile(scores, 50), 4),
		Min:    utils.Round(utils.Percentile(scores, 0), 4),
		Max:    utils.Round(utils.Percentile(scores, 100), 4),
	}
}

// scoreHistogram buckets scores over [0, 100] into fixed-width bins.
func scoreHistogram(scores []float64) []Bucket {
	dividers := make([]float64, histogramBuckets+1)
	floats.Span(dividers, 0, 100)

	buckets := make([]Bucket, histogramBuckets)
	for i := range buckets {
		buckets[i] = Bucket{Lo: dividers[i], Hi: dividers[i+1]}
	}
	if len(scores) == 0 {
		return buckets
	}

	sorted := make([]float64, len(scores))
	for i, s := range scores {
		sorted[i] = utils.ClampFloat64(s, 0, 100)
	}
	sort.Float64s(sorted)

	// The top divider is nudged past 100 so a perfect score lands in the
	// last bin instead of falling off the range.
	dividers[histogramBuckets] = math.Nextafter(100, 101)
	counts := stat.Histogram(nil, dividers, sorted, nil)
	for i := range buckets {
		buckets[i].Count = int(counts[i])
	}
	return buckets
}

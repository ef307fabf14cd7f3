package balance

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/balancelab/balance-core/pkg/param"
	"github.com/balancelab/balance-core/pkg/utils"
)

// DefaultUnitTypes are the unit categories the heuristic simulator tracks
var DefaultUnitTypes = []string{"infantry", "archer", "cavalry", "mage", "siege"}

// HeuristicSimulator is a stand-in scoring collaborator: a parametrized
// formula plus injected noise rather than a real battle simulation. Each
// tuning coefficient pushes unit win rates and economy metrics away from
// their balanced baseline in proportion to its normalized deviation from
// the center of its range; parameter influence per unit type is a stable
// function of the names, so the landscape is reproducible across runs.
//
// The optimization engine never depends on this type; it accepts any
// Evaluator.
type HeuristicSimulator struct {
	bounds    param.Bounds
	unitTypes []string
	weights   Weights
	noise     float64

	mu  sync.Mutex
	rng *utils.RandSource
}

// NewHeuristicSimulator creates a simulator over the given bounds.
// noise is the peak magnitude of the win-rate noise injected per
// evaluation; 0 makes the simulator fully deterministic.
func NewHeuristicSimulator(bounds param.Bounds, seed int64, noise float64) *HeuristicSimulator {
	return &HeuristicSimulator{
		bounds:    bounds,
		unitTypes: DefaultUnitTypes,
		weights:   DefaultWeights(),
		noise:     noise,
		rng:       utils.NewRandSource(seed),
	}
}

// WithUnitTypes overrides the simulated unit categories
func (s *HeuristicSimulator) WithUnitTypes(types []string) *HeuristicSimulator {
	s.unitTypes = types
	return s
}

// WithWeights overrides the scoring weights
func (s *HeuristicSimulator) WithWeights(w Weights) *HeuristicSimulator {
	s.weights = w
	return s
}

// Evaluate derives win rates and economy metrics from the parameter set
// and scores them. Safe for concurrent use.
func (s *HeuristicSimulator) Evaluate(_ context.Context, params param.Set) (*Result, error) {
	names := s.bounds.Names()

	metrics := &Metrics{
		WinRates: make(map[string]float64, len(s.unitTypes)),
	}

	for _, unit := range s.unitTypes {
		wr := 0.5
		for _, name := range names {
			wr += 0.2 * influence(unit, name) * s.deviation(name, params)
		}
		wr += s.drawNoise()
		metrics.WinRates[unit] = utils.ClampFloat64(wr, 0, 1)
	}

	metrics.Economy = EconomyMetrics{
		GoldEfficiency:  s.economyMetric("gold_efficiency", names, params),
		ItemUtilization: s.economyMetric("item_utilization", names, params),
		ResourcePenalty: 1 - s.economyMetric("resource_balance", names, params),
		UnitEconomy:     s.economyMetric("unit_economy", names, params),
		MarketDynamics:  s.economyMetric("market_dynamics", names, params),
	}

	// Parameters named after counter or bond bonuses feed the dedicated
	// penalty terms directly.
	for _, name := range names {
		dev := s.deviation(name, params)
		switch {
		case strings.Contains(name, "counter"):
			metrics.CounterEffects = append(metrics.CounterEffects, dev)
		case strings.Contains(name, "bond"):
			metrics.BondEffects = append(metrics.BondEffects, dev)
		}
	}

	return &Result{
		Score:   Score(metrics, s.weights),
		Metrics: metrics,
	}, nil
}

// deviation returns the parameter's offset from the center of its range,
// normalized into [-1, 1]. Constant dimensions contribute 0.
func (s *HeuristicSimulator) deviation(name string, params param.Set) float64 {
	r, ok := s.bounds[name]
	if !ok || r.Span() == 0 {
		return 0
	}
	mid := r.Min + r.Span()/2
	return (params[name] - mid) / (r.Span() / 2)
}

// economyMetric aggregates parameter deviations into one normalized
// sub-metric: 1 at the balanced center, falling off as coefficients drift.
func (s *HeuristicSimulator) economyMetric(metric string, names []string, params param.Set) float64 {
	if len(names) == 0 {
		return 1
	}
	drift := 0.0
	for _, name := range names {
		w := influence(metric, name)
		d := s.deviation(name, params)
		drift += w * w * d * d
	}
	drift /= float64(len(names))
	return utils.ClampFloat64(1-drift, 0, 1)
}

func (s *HeuristicSimulator) drawNoise() float64 {
	if s.noise == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.UniformFloat64(-s.noise, s.noise)
}

// influence is a stable pseudo-weight in [-1, 1] derived from the pair of
// names, so the same parameter always pushes the same unit the same way.
func influence(a, b string) float64 {
	h := fnv.New32a()
	h.Write([]byte(a))
	h.Write([]byte{0})
	h.Write([]byte(b))
	return float64(h.Sum32())/float64(1<<32)*2 - 1
}

// Package balance computes the balance score that the optimization engine
// maximizes: a single number in [0, 100] summarizing how close a set of
// game-tuning coefficients brings the game to even win rates, a healthy
// economy, and restrained counter/bond bonuses.
package balance

import (
	"github.com/balancelab/balance-core/pkg/utils"
)

// EconomyMetrics holds the normalized economy sub-metrics produced by a
// simulation. Every field is expected in [0, 1]. ResourcePenalty is a
// penalty: 0 means resources are perfectly balanced.
type EconomyMetrics struct {
	GoldEfficiency  float64 `json:"goldEfficiency" yaml:"goldEfficiency"`
	ItemUtilization float64 `json:"itemUtilization" yaml:"itemUtilization"`
	ResourcePenalty float64 `json:"resourcePenalty" yaml:"resourcePenalty"`
	UnitEconomy     float64 `json:"unitEconomy" yaml:"unitEconomy"`
	MarketDynamics  float64 `json:"marketDynamics" yaml:"marketDynamics"`
}

// Metrics is the structured outcome of one simulated evaluation
type Metrics struct {
	// WinRates maps unit type to its observed win rate in [0, 1]
	WinRates map[string]float64 `json:"winRates" yaml:"winRates"`
	Economy  EconomyMetrics     `json:"economy" yaml:"economy"`
	// CounterEffects are the average counter-relationship bonuses in play,
	// as signed deviations from neutral
	CounterEffects []float64 `json:"counterEffects,omitempty" yaml:"counterEffects,omitempty"`
	// BondEffects are the average bond bonuses in play
	BondEffects []float64 `json:"bondEffects,omitempty" yaml:"bondEffects,omitempty"`
}

// Weights controls how the score components combine. Component weights
// should sum to 1, as should the economy sub-weights.
type Weights struct {
	WinRate float64 `yaml:"winRate" json:"winRate"`
	Economy float64 `yaml:"economy" json:"economy"`
	Counter float64 `yaml:"counter" json:"counter"`
	Bond    float64 `yaml:"bond" json:"bond"`

	GoldEfficiency  float64 `yaml:"goldEfficiency" json:"goldEfficiency"`
	ItemUtilization float64 `yaml:"itemUtilization" json:"itemUtilization"`
	ResourceBalance float64 `yaml:"resourceBalance" json:"resourceBalance"`
	UnitEconomy     float64 `yaml:"unitEconomy" json:"unitEconomy"`
	MarketDynamics  float64 `yaml:"marketDynamics" json:"marketDynamics"`
}

// DefaultWeights returns the standard component weighting
func DefaultWeights() Weights {
	return Weights{
		WinRate: 0.4,
		Economy: 0.3,
		Counter: 0.15,
		Bond:    0.15,

		GoldEfficiency:  0.3,
		ItemUtilization: 0.2,
		ResourceBalance: 0.2,
		UnitEconomy:     0.15,
		MarketDynamics:  0.15,
	}
}

// Score computes the balance score in [0, 100] from simulation metrics.
// It is a pure, deterministic transform: all stochasticity lives upstream
// in whatever produced the metrics.
func Score(m *Metrics, w Weights) float64 {
	winRateDeviation := winRateDeviation(m.WinRates)
	economy := economyBalance(m.Economy, w)
	counter := effectBalance(m.CounterEffects)
	bond := effectBalance(m.BondEffects)

	score := 100 * (w.WinRate*(1-10*winRateDeviation) +
		w.Economy*economy +
		w.Counter*counter +
		w.Bond*bond)

	return utils.ClampFloat64(score, 0, 100)
}

// winRateDeviation is the mean squared deviation of win rates from 0.5
func winRateDeviation(winRates map[string]float64) float64 {
	if len(winRates) == 0 {
		return 0
	}
	sum := 0.0
	for _, wr := range winRates {
		d := wr - 0.5
		sum += d * d
	}
	return sum / float64(len(winRates))
}

// economyBalance is the weighted sum of the normalized economy
// sub-metrics; the resource penalty enters inverted.
func economyBalance(e EconomyMetrics, w Weights) float64 {
	balance := w.GoldEfficiency*e.GoldEfficiency +
		w.ItemUtilization*e.ItemUtilization +
		w.ResourceBalance*(1-e.ResourcePenalty) +
		w.UnitEconomy*e.UnitEconomy +
		w.MarketDynamics*e.MarketDynamics
	return utils.ClampFloat64(balance, 0, 1)
}

// effectBalance penalizes a large squared average effect magnitude.
// No recorded effects means the term is neutral.
func effectBalance(effects []float64) float64 {
	if len(effects) == 0 {
		return 1
	}
	avg := utils.Mean(effects)
	return utils.ClampFloat64(1-avg*avg, 0, 1)
}

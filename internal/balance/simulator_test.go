package balance

import (
	"context"
	"testing"

	"github.com/balancelab/balance-core/pkg/param"
)

func simBounds() param.Bounds {
	return param.Bounds{
		"attack_multiplier":  {Min: 0.5, Max: 2.0},
		"defense_multiplier": {Min: 0.5, Max: 2.0},
		"counter_bonus":      {Min: 0.0, Max: 0.5},
		"bond_bonus":         {Min: 0.0, Max: 0.5},
		"gold_rate":          {Min: 0.5, Max: 1.5},
	}
}

func centerParams(bounds param.Bounds) param.Set {
	return param.Set{}.Complete(bounds)
}

func TestHeuristicSimulatorDeterministicWithoutNoise(t *testing.T) {
	bounds := simBounds()
	sim := NewHeuristicSimulator(bounds, 1, 0)
	params := centerParams(bounds)

	a, err := sim.Evaluate(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := sim.Evaluate(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Score != b.Score {
		t.Fatalf("noiseless simulator not deterministic: %f != %f", a.Score, b.Score)
	}
}

func TestHeuristicSimulatorCenterScoresHigh(t *testing.T) {
	bounds := simBounds()
	sim := NewHeuristicSimulator(bounds, 1, 0)

	center, err := sim.Evaluate(context.Background(), centerParams(bounds))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The extreme corner drifts every coefficient to its maximum.
	corner := param.Set{}
	for name, r := range bounds {
		corner[name] = r.Max
	}
	extreme, err := sim.Evaluate(context.Background(), corner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if center.Score <= extreme.Score {
		t.Fatalf("expected balanced center to outscore extreme corner: center=%f corner=%f", center.Score, extreme.Score)
	}
}

func TestHeuristicSimulatorMetricsShape(t *testing.T) {
	bounds := simBounds()
	sim := NewHeuristicSimulator(bounds, 3, 0.02)

	res, err := sim.Evaluate(context.Background(), centerParams(bounds))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Metrics == nil {
		t.Fatalf("expected metrics")
	}
	if len(res.Metrics.WinRates) != len(DefaultUnitTypes) {
		t.Fatalf("expected %d win rates, got %d", len(DefaultUnitTypes), len(res.Metrics.WinRates))
	}
	for unit, wr := range res.Metrics.WinRates {
		if wr < 0 || wr > 1 {
			t.Fatalf("win rate for %s out of range: %f", unit, wr)
		}
	}
	if len(res.Metrics.CounterEffects) != 1 {
		t.Fatalf("expected one counter effect, got %d", len(res.Metrics.CounterEffects))
	}
	if len(res.Metrics.BondEffects) != 1 {
		t.Fatalf("expected one bond effect, got %d", len(res.Metrics.BondEffects))
	}
	if res.Score < 0 || res.Score > 100 {
		t.Fatalf("score out of range: %f", res.Score)
	}
}

func TestHeuristicSimulatorDoesNotMutateInput(t *testing.T) {
	bounds := simBounds()
	sim := NewHeuristicSimulator(bounds, 5, 0.05)

	params := centerParams(bounds)
	before := params.Clone()
	if _, err := sim.Evaluate(context.Background(), params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for name, v := range before {
		if params[name] != v {
			t.Fatalf("simulator mutated input parameter %s", name)
		}
	}
}

func TestInfluenceStable(t *testing.T) {
	a := influence("infantry", "attack_multiplier")
	b := influence("infantry", "attack_multiplier")
	if a != b {
		t.Fatalf("influence is not stable: %f != %f", a, b)
	}
	if a < -1 || a > 1 {
		t.Fatalf("influence %f outside [-1, 1]", a)
	}
}

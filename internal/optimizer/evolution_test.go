package optimizer

import (
	"testing"

	"github.com/balancelab/balance-core/pkg/param"
	"github.com/balancelab/balance-core/pkg/utils"
)

func evolutionHistory() History {
	return History{
		{Params: param.Set{"x": 1, "y": 9}, Score: 40},
		{Params: param.Set{"x": 2, "y": 8}, Score: 70},
		{Params: param.Set{"x": 3, "y": 7}, Score: 95},
		{Params: param.Set{"x": 9, "y": 1}, Score: 10},
		{Params: param.Set{"x": 4, "y": 6}, Score: 85},
	}
}

func TestEvolverGenerateCount(t *testing.T) {
	ev := newEvolver(testBounds(), utils.NewRandSource(1))
	batch := ev.generate(evolutionHistory(), 6)
	if len(batch) != 6 {
		t.Fatalf("expected 6 candidates, got %d", len(batch))
	}
}

func TestEvolverCandidatesWithinBounds(t *testing.T) {
	bounds := testBounds()
	ev := newEvolver(bounds, utils.NewRandSource(2))
	batch := ev.generate(evolutionHistory(), 20)
	for i, c := range batch {
		if err := c.Validate(bounds); err != nil {
			t.Fatalf("candidate %d out of bounds: %v (%v)", i, err, c)
		}
	}
}

func TestEvolverFallsBackToRandomOnEmptyHistory(t *testing.T) {
	bounds := testBounds()
	ev := newEvolver(bounds, utils.NewRandSource(3))
	batch := ev.generate(nil, 4)
	if len(batch) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(batch))
	}
	for i, c := range batch {
		if len(c) != 2 {
			t.Fatalf("candidate %d missing dimensions: %v", i, c)
		}
		if err := c.Validate(bounds); err != nil {
			t.Fatalf("candidate %d out of bounds: %v", i, err)
		}
	}
}

func TestEvolverDeterministicWithSeed(t *testing.T) {
	history := evolutionHistory()
	b1 := newEvolver(testBounds(), utils.NewRandSource(7)).generate(history, 5)
	b2 := newEvolver(testBounds(), utils.NewRandSource(7)).generate(history, 5)
	for i := range b1 {
		for name, v := range b1[i] {
			if b2[i][name] != v {
				t.Fatalf("candidate %d differs at %q: %v vs %v", i, name, v, b2[i][name])
			}
		}
	}
}

func TestNormalizedDistance(t *testing.T) {
	ev := newEvolver(testBounds(), utils.NewRandSource(1))

	a := param.Set{"x": 2, "y": 4}
	if d := ev.normalizedDistance(a, a.Clone()); d != 0 {
		t.Fatalf("identical sets must have distance 0, got %v", d)
	}

	b := param.Set{"x": 0, "y": 0}
	c := param.Set{"x": 10, "y": 10}
	if d := ev.normalizedDistance(b, c); d != 1 {
		t.Fatalf("opposite corners must have distance 1, got %v", d)
	}

	if !ev.tooSimilar(a, []param.Set{a.Clone()}) {
		t.Fatal("duplicate candidate not flagged as similar")
	}
	if ev.tooSimilar(b, []param.Set{c}) {
		t.Fatal("distant candidate wrongly flagged as similar")
	}
}

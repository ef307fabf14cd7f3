package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/balancelab/balance-core/pkg/param"
)

const validJob = `
name: archer-rebalance
bounds:
  archerDamage: {min: 0.5, max: 2.0}
  archerCost: {min: 50, max: 200}
initial:
  archerDamage: 1.0
engine:
  maxTrials: 25
  iterationsPerTrial: 8
  explorationWeight: 0.3
  randomSeed: 42
weights:
  winRate: 0.4
  economy: 0.3
  counter: 0.15
  bond: 0.15
  goldEfficiency: 0.3
  itemUtilization: 0.2
  resourceBalance: 0.2
  unitEconomy: 0.15
  marketDynamics: 0.15
simulation:
  seed: 7
  noise: 0.02
`

func TestParseValidJob(t *testing.T) {
	job, err := Parse([]byte(validJob))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if job.Name != "archer-rebalance" {
		t.Errorf("Name = %q", job.Name)
	}
	if len(job.Bounds) != 2 {
		t.Fatalf("expected 2 bounds, got %d", len(job.Bounds))
	}
	if r := job.Bounds["archerDamage"]; r.Min != 0.5 || r.Max != 2.0 {
		t.Errorf("archerDamage range = %+v", r)
	}
	if job.Initial["archerDamage"] != 1.0 {
		t.Errorf("initial = %v", job.Initial)
	}
	if job.Engine.MaxTrials != 25 || job.Engine.RandomSeed != 42 {
		t.Errorf("engine = %+v", job.Engine)
	}
	if job.Weights == nil || job.Weights.WinRate != 0.4 {
		t.Errorf("weights = %+v", job.Weights)
	}
	if job.Simulation.Seed != 7 || job.Simulation.Noise != 0.02 {
		t.Errorf("simulation = %+v", job.Simulation)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	doc := `
bounds:
  x: {min: 0, max: 1}
engnie:
  maxTrials: 10
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for misspelled field")
	}
}

func TestParseRejectsMissingBounds(t *testing.T) {
	if _, err := Parse([]byte(`name: empty`)); !errors.Is(err, ErrNoBounds) {
		t.Fatalf("expected ErrNoBounds, got %v", err)
	}
}

func TestParseRejectsInvertedRange(t *testing.T) {
	doc := `
bounds:
  x: {min: 5, max: 1}
`
	if _, err := Parse([]byte(doc)); !errors.Is(err, param.ErrInvalidBounds) {
		t.Fatalf("expected ErrInvalidBounds, got %v", err)
	}
}

func TestParseRejectsUnknownInitialParameter(t *testing.T) {
	doc := `
bounds:
  x: {min: 0, max: 1}
initial:
  y: 0.5
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for initial value outside the bounds keys")
	}
}

func TestParseRejectsBadWeights(t *testing.T) {
	doc := `
bounds:
  x: {min: 0, max: 1}
weights:
  winRate: 0.9
  economy: 0.9
  counter: 0.1
  bond: 0.1
  goldEfficiency: 0.3
  itemUtilization: 0.2
  resourceBalance: 0.2
  unitEconomy: 0.15
  marketDynamics: 0.15
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for component weights not summing to 1")
	}
}

func TestParseRejectsNegativeNoise(t *testing.T) {
	doc := `
bounds:
  x: {min: 0, max: 1}
simulation:
  noise: -0.1
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for negative noise")
	}
}

func TestEffectiveWeightsDefaults(t *testing.T) {
	job, err := Parse([]byte("bounds:\n  x: {min: 0, max: 1}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	w := job.EffectiveWeights()
	if w.WinRate != 0.4 || w.Economy != 0.3 {
		t.Fatalf("expected default weights, got %+v", w)
	}
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte(validJob), 0o644); err != nil {
		t.Fatalf("write temp job: %v", err)
	}

	job, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if job.Name != "archer-rebalance" {
		t.Errorf("Name = %q", job.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

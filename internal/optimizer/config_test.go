package optimizer

import (
	"testing"

	"github.com/balancelab/balance-core/internal/sampler"
)

func TestWithDefaultsFillsUnsetFields(t *testing.T) {
	got := Config{}.withDefaults()
	def := DefaultConfig()

	if got.MaxTrials != def.MaxTrials {
		t.Errorf("MaxTrials = %d, want %d", got.MaxTrials, def.MaxTrials)
	}
	if got.IterationsPerTrial != def.IterationsPerTrial {
		t.Errorf("IterationsPerTrial = %d, want %d", got.IterationsPerTrial, def.IterationsPerTrial)
	}
	if got.LearningRate != def.LearningRate {
		t.Errorf("LearningRate = %v, want %v", got.LearningRate, def.LearningRate)
	}
	if got.ConvergenceTolerance != def.ConvergenceTolerance {
		t.Errorf("ConvergenceTolerance = %v, want %v", got.ConvergenceTolerance, def.ConvergenceTolerance)
	}
	if got.ParallelTrials != 1 {
		t.Errorf("ParallelTrials = %d, want 1", got.ParallelTrials)
	}
	if got.SamplerMethod != sampler.MethodSobol {
		t.Errorf("SamplerMethod = %q, want %q", got.SamplerMethod, sampler.MethodSobol)
	}
}

func TestWithDefaultsKeepsZeroInitialSamples(t *testing.T) {
	// Zero disables sampler seeding and must survive withDefaults;
	// negative values are clamped to that same "off" setting.
	if got := (Config{}).withDefaults().InitialSamples; got != 0 {
		t.Errorf("InitialSamples = %d, want 0", got)
	}
	if got := (Config{InitialSamples: -3}).withDefaults().InitialSamples; got != 0 {
		t.Errorf("negative InitialSamples = %d, want 0", got)
	}
	if got := (Config{InitialSamples: 8}).withDefaults().InitialSamples; got != 8 {
		t.Errorf("InitialSamples = %d, want 8", got)
	}
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		MaxTrials:         7,
		ExplorationWeight: 0.9,
		EarlyStopping:     false,
		SamplerMethod:     sampler.MethodRandom,
	}
	got := cfg.withDefaults()
	if got.MaxTrials != 7 {
		t.Errorf("MaxTrials = %d, want 7", got.MaxTrials)
	}
	if got.ExplorationWeight != 0.9 {
		t.Errorf("ExplorationWeight = %v, want 0.9", got.ExplorationWeight)
	}
	if got.EarlyStopping {
		t.Error("EarlyStopping flipped to true")
	}
	if got.SamplerMethod != sampler.MethodRandom {
		t.Errorf("SamplerMethod = %q, want %q", got.SamplerMethod, sampler.MethodRandom)
	}
}

func TestWithDefaultsClampsExplorationWeight(t *testing.T) {
	if got := (Config{ExplorationWeight: 1.5}).withDefaults().ExplorationWeight; got != 1 {
		t.Errorf("ExplorationWeight = %v, want 1", got)
	}
	if got := (Config{ExplorationWeight: -0.5}).withDefaults().ExplorationWeight; got != 0 {
		t.Errorf("ExplorationWeight = %v, want 0", got)
	}
}

func TestValidateRejectsUnknownSampler(t *testing.T) {
	cfg := Config{SamplerMethod: "halton"}.withDefaults()
	cfg.SamplerMethod = "halton"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown sampler method")
	}
}

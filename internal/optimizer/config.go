package optimizer

import (
	"fmt"

	"github.com/balancelab/balance-core/internal/sampler"
)

// Config holds the engine settings. Zero values are replaced field by
// field with the recognized defaults at construction; there is no
// dynamic merging of partial configuration objects.
type Config struct {
	// MaxTrials caps the number of outer trials
	MaxTrials int `yaml:"maxTrials" json:"maxTrials"`
	// IterationsPerTrial is the number of inner steps per outer trial
	IterationsPerTrial int `yaml:"iterationsPerTrial" json:"iterationsPerTrial"`
	// ExplorationWeight is the probability that a step explores a fresh
	// random point instead of exploiting the gradient, in [0, 1]
	ExplorationWeight float64 `yaml:"explorationWeight" json:"explorationWeight"`
	// LearningRate scales the gradient step
	LearningRate float64 `yaml:"learningRate" json:"learningRate"`
	// RegularizationStrength pulls parameters toward zero each step
	RegularizationStrength float64 `yaml:"regularizationStrength" json:"regularizationStrength"`
	// ConvergenceTolerance bounds both the incumbent score range and the
	// per-dimension parameter change below which a run converges
	ConvergenceTolerance float64 `yaml:"convergenceTolerance" json:"convergenceTolerance"`
	// EarlyStopping enables the convergence check at trial boundaries
	EarlyStopping bool `yaml:"earlyStopping" json:"earlyStopping"`
	// ParallelTrials is the batch width for concurrent evaluations; a
	// value above 1 switches the engine to the evolutionary batch variant
	ParallelTrials int `yaml:"parallelTrials" json:"parallelTrials"`
	// RandomSeed makes the run reproducible; 0 draws a seed from entropy
	RandomSeed int64 `yaml:"randomSeed" json:"randomSeed"`
	// InitialSamples is the number of sampler-seeded candidates evaluated
	// before the trial loop starts. Unlike the other numeric knobs, zero
	// is meaningful rather than unset: it disables seeding entirely, so
	// withDefaults never replaces it.
	InitialSamples int `yaml:"initialSamples" json:"initialSamples"`
	// SamplerMethod selects how the initial candidates cover the space
	SamplerMethod sampler.Method `yaml:"samplerMethod" json:"samplerMethod"`
}

// DefaultConfig returns the recognized default settings
func DefaultConfig() Config {
	return Config{
		MaxTrials:              50,
		IterationsPerTrial:     10,
		ExplorationWeight:      0.3,
		LearningRate:           0.01,
		RegularizationStrength: 0.001,
		ConvergenceTolerance:   0.001,
		EarlyStopping:          true,
		ParallelTrials:         1,
		InitialSamples:         5,
		SamplerMethod:          sampler.MethodSobol,
	}
}

// withDefaults fills unset fields with defaults. EarlyStopping keeps its
// explicit value; a bool zero value is a deliberate "off".
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxTrials <= 0 {
		c.MaxTrials = def.MaxTrials
	}
	if c.IterationsPerTrial <= 0 {
		c.IterationsPerTrial = def.IterationsPerTrial
	}
	if c.ExplorationWeight < 0 {
		c.ExplorationWeight = 0
	}
	if c.ExplorationWeight > 1 {
		c.ExplorationWeight = 1
	}
	if c.LearningRate <= 0 {
		c.LearningRate = def.LearningRate
	}
	if c.RegularizationStrength < 0 {
		c.RegularizationStrength = 0
	}
	if c.ConvergenceTolerance <= 0 {
		c.ConvergenceTolerance = def.ConvergenceTolerance
	}
	if c.ParallelTrials < 1 {
		c.ParallelTrials = 1
	}
	if c.InitialSamples < 0 {
		c.InitialSamples = 0
	}
	if c.SamplerMethod == "" {
		c.SamplerMethod = def.SamplerMethod
	}
	return c
}

// Validate rejects settings no default can repair
func (c Config) Validate() error {
	if _, err := sampler.ParseMethod(string(c.SamplerMethod)); err != nil {
		return fmt.Errorf("invalid sampler method: %w", err)
	}
	return nil
}

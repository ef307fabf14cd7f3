// Package config loads and validates optimization job files. A job file
// describes one run: the parameter bounds, optional starting point,
// engine settings, scoring weights, and simulation settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/balancelab/balance-core/internal/balance"
	"github.com/balancelab/balance-core/internal/optimizer"
	"github.com/balancelab/balance-core/pkg/param"
)

// ErrNoBounds is returned for a job file without parameter bounds.
var ErrNoBounds = errors.New("job defines no parameter bounds")

// weightTolerance is how far a weight group's sum may drift from 1
const weightTolerance = 1e-6

// Simulation configures the built-in heuristic simulator used when no
// external evaluator is attached.
type Simulation struct {
	// Seed drives the simulator's noise stream; 0 draws from entropy
	Seed int64 `yaml:"seed"`
	// Noise is the win-rate noise amplitude, typically well below 0.1
	Noise float64 `yaml:"noise"`
}

// Job is one optimization job specification.
type Job struct {
	// Name identifies the job in logs and reports
	Name string `yaml:"name"`
	// Bounds is the search space, one range per tuning parameter
	Bounds param.Bounds `yaml:"bounds"`
	// Initial optionally pins starting values; missing parameters start
	// at their range midpoint
	Initial param.Set `yaml:"initial"`
	// Engine holds the optimizer settings; unset fields get defaults
	Engine optimizer.Config `yaml:"engine"`
	// Weights optionally overrides the scoring weights
	Weights *balance.Weights `yaml:"weights"`
	// Simulation configures the built-in evaluator
	Simulation Simulation `yaml:"simulation"`
}

// Load reads and validates a job file.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	job, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	return job, nil
}

// Parse decodes and validates a job document. Unknown fields are
// rejected so typos fail loudly instead of silently using defaults.
func Parse(data []byte) (*Job, error) {
	var job Job
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks the job for consistency before any evaluation runs.
func (j *Job) Validate() error {
	if len(j.Bounds) == 0 {
		return ErrNoBounds
	}
	if err := j.Bounds.Validate(); err != nil {
		return err
	}
	for name := range j.Initial {
		if _, ok := j.Bounds[name]; !ok {
			return fmt.Errorf("initial value for unknown parameter %q", name)
		}
	}
	if err := j.Engine.Validate(); err != nil {
		return err
	}
	if j.Weights != nil {
		if err := validateWeights(*j.Weights); err != nil {
			return err
		}
	}
	if j.Simulation.Noise < 0 {
		return fmt.Errorf("simulation noise must not be negative, got %v", j.Simulation.Noise)
	}
	return nil
}

// EffectiveWeights returns the job's scoring weights, or the defaults
// when the job does not override them.
func (j *Job) EffectiveWeights() balance.Weights {
	if j.Weights != nil {
		return *j.Weights
	}
	return balance.DefaultWeights()
}

func validateWeights(w balance.Weights) error {
	components := map[string]float64{
		"winRate": w.WinRate, "economy": w.Economy,
		"counter": w.Counter, "bond": w.Bond,
	}
	economy := map[string]float64{
		"goldEfficiency": w.GoldEfficiency, "itemUtilization": w.ItemUtilization,
		"resourceBalance": w.ResourceBalance, "unitEconomy": w.UnitEconomy,
		"marketDynamics": w.MarketDynamics,
	}
	for name, v := range components {
		if v < 0 {
			return fmt.Errorf("weight %q must not be negative, got %v", name, v)
		}
	}
	for name, v := range economy {
		if v < 0 {
			return fmt.Errorf("economy weight %q must not be negative, got %v", name, v)
		}
	}
	if sum := w.WinRate + w.Economy + w.Counter + w.Bond; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("component weights must sum to 1, got %v", sum)
	}
	ecoSum := w.GoldEfficiency + w.ItemUtilization + w.ResourceBalance + w.UnitEconomy + w.MarketDynamics
	if math.Abs(ecoSum-1) > weightTolerance {
		return fmt.Errorf("economy weights must sum to 1, got %v", ecoSum)
	}
	return nil
}

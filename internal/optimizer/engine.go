package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/balancelab/balance-core/internal/balance"
	"github.com/balancelab/balance-core/internal/sampler"
	"github.com/balancelab/balance-core/pkg/logger"
	"github.com/balancelab/balance-core/pkg/param"
	"github.com/balancelab/balance-core/pkg/utils"
)

var (
	// ErrAlreadyRunning is returned when Optimize is called on an engine
	// that is currently executing a run.
	ErrAlreadyRunning = errors.New("optimization already running")

	// ErrAllTrialsFailed is returned when every evaluation of a run
	// failed and no usable result exists.
	ErrAllTrialsFailed = errors.New("all trials failed")

	// ErrEvaluatorRequired is returned when Optimize is called without
	// an evaluator.
	ErrEvaluatorRequired = errors.New("evaluator is required")
)

// State describes the engine lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateConverged State = "converged"
	StateExhausted State = "exhausted"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateConverged, StateExhausted, StateCancelled:
		return true
	}
	return false
}

// ProgressFunc receives the completed fraction of the run in [0, 1] and
// the best score seen so far.
type ProgressFunc func(fraction float64, bestScore float64)

// Engine drives a single optimization run over a parameter space. It
// alternates random exploration with finite-difference gradient steps,
// or evolves candidate batches when parallel trials are configured. An
// engine can be reused for consecutive runs but never for concurrent
// ones.
type Engine struct {
	cfg Config

	mu      sync.Mutex
	state   State
	history History
	best    *TrialResult

	cancelled atomic.Bool
}

// NewEngine validates the configuration, fills unset fields with
// defaults, and returns an idle engine.
func NewEngine(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("optimizer config: %w", err)
	}
	return &Engine{cfg: cfg, state: StateIdle}, nil
}

// Config returns the effective configuration of the engine.
func (e *Engine) Config() Config {
	return e.cfg
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// History returns a copy of the recorded trial results so far. Safe to
// call while a run is in progress.
func (e *Engine) History() History {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(History, len(e.history))
	for i := range e.history {
		out[i] = *e.history[i].clone()
	}
	return out
}

// Best returns a copy of the best trial recorded so far, or nil before
// any trial has been recorded.
func (e *Engine) Best() *TrialResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.best.clone()
}

// Cancel requests cooperative cancellation of the active run. The run
// stops at the next evaluation boundary and returns its best result so
// far. Calling Cancel on an idle engine is a no-op.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)
}

func (e *Engine) interrupted(ctx context.Context) bool {
	return e.cancelled.Load() || ctx.Err() != nil
}

// run bundles the per-run working set so consecutive runs do not share
// mutable state beyond the engine's recorded history.
type run struct {
	bounds   param.Bounds
	names    []string
	evaluate balance.Evaluator
	rng      *utils.RandSource
	seed     int64
	current  param.Set
	started  time.Time
	trial    int
}

// Optimize executes a full run: evaluate the starting point, seed the
// space with low-discrepancy samples, then iterate trials of
// exploration and gradient exploitation until convergence, exhaustion
// of the trial budget, or cancellation. The best trial found is
// returned along with the terminal state recorded on the engine.
func (e *Engine) Optimize(ctx context.Context, initial param.Set, bounds param.Bounds, evaluate balance.Evaluator, onProgress ProgressFunc) (*TrialResult, error) {
	if evaluate == nil {
		return nil, ErrEvaluatorRequired
	}
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	e.state = StateRunning
	e.history = nil
	e.best = nil
	e.mu.Unlock()
	e.cancelled.Store(false)

	rng := utils.NewRandSource(e.cfg.RandomSeed)
	r := &run{
		bounds:   bounds,
		names:    bounds.Names(),
		evaluate: evaluate,
		rng:      rng,
		seed:     rng.Seed(),
		started:  time.Now(),
	}

	start := initial.Clone().Complete(bounds)
	r.current = start.Clone()

	logger.Info("optimization started",
		"seed", r.seed,
		"maxTrials", e.cfg.MaxTrials,
		"dimensions", len(r.names),
	)

	e.record(r, e.evaluatePoint(ctx, r, start))
	e.seedSamples(ctx, r)

	checker := newConvergenceChecker(e.cfg.ConvergenceTolerance)
	terminal := StateExhausted

	for r.trial = 1; r.trial <= e.cfg.MaxTrials; r.trial++ {
		if e.interrupted(ctx) {
			terminal = StateCancelled
			break
		}

		if e.cfg.ParallelTrials > 1 {
			e.runBatchTrial(ctx, r)
		} else {
			e.runSequentialTrial(ctx, r)
		}

		best := e.Best()
		if onProgress != nil && best != nil {
			onProgress(float64(r.trial)/float64(e.cfg.MaxTrials), best.Score)
		}

		if best != nil {
			checker.observe(best.Score, best.Params)
			if e.cfg.EarlyStopping {
				if ok, reason := checker.converged(); ok {
					logger.Info("optimization converged", "trial", r.trial, "reason", reason)
					terminal = StateConverged
					break
				}
			}
		}

		if e.interrupted(ctx) {
			terminal = StateCancelled
			break
		}
	}

	e.mu.Lock()
	e.state = terminal
	best := e.best
	allFailed := true
	for i := range e.history {
		if !e.history[i].Failed {
			allFailed = false
			break
		}
	}
	e.mu.Unlock()

	if best == nil || allFailed {
		return nil, ErrAllTrialsFailed
	}

	logger.Info("optimization finished",
		"state", string(terminal),
		"bestScore", best.Score,
		"trials", len(e.History()),
		"elapsed", time.Since(r.started),
	)
	return best.clone(), nil
}

// seedSamples evaluates the configured number of low-discrepancy points
// before the trial loop so the first gradient steps start from a
// reasonable incumbent.
func (e *Engine) seedSamples(ctx context.Context, r *run) {
	if e.cfg.InitialSamples <= 0 {
		return
	}
	points, err := sampler.Sample(r.bounds, e.cfg.InitialSamples, e.cfg.SamplerMethod, r.rng)
	if err != nil {
		logger.Warn("initial sampling failed", "error", err)
		return
	}
	for _, p := range points {
		if e.interrupted(ctx) {
			return
		}
		e.record(r, e.evaluatePoint(ctx, r, p))
	}
}

// runSequentialTrial performs one trial of IterationsPerTrial steps,
// each either a random exploration or a gradient step from the current
// working point.
func (e *Engine) runSequentialTrial(ctx context.Context, r *run) {
	for iter := 0; iter < e.cfg.IterationsPerTrial; iter++ {
		if e.interrupted(ctx) {
			return
		}

		var point param.Set
		explored := r.rng.BernoulliBool(e.cfg.ExplorationWeight)
		if explored {
			point = e.randomPoint(r)
		} else {
			point = e.gradientStep(ctx, r)
		}

		result := e.evaluatePoint(ctx, r, point)
		result.Iteration = iter
		improved := e.record(r, result)

		if explored {
			// exploration only redirects the trajectory on improvement
			if improved {
				r.current = point.Clone()
			}
		} else {
			r.current = point.Clone()
		}
	}
}

// runBatchTrial performs one trial as an evolutionary batch of
// ParallelTrials candidates evaluated concurrently.
func (e *Engine) runBatchTrial(ctx context.Context, r *run) {
	ev := newEvolver(r.bounds, r.rng)
	batch := ev.generate(e.History(), e.cfg.ParallelTrials)
	results := e.evaluateBatch(ctx, r, batch)
	for i := range results {
		results[i].Iteration = i
		if e.record(r, results[i]) {
			r.current = results[i].Params.Clone()
		}
	}
}

// gradientStep estimates the score gradient at the current point by
// central finite differences and takes one ascent step with L2
// shrinkage. Probe evaluations are not recorded in the history.
func (e *Engine) gradientStep(ctx context.Context, r *run) param.Set {
	next := r.current.Clone()
	for _, name := range r.names {
		if e.interrupted(ctx) {
			return next
		}
		value := r.current[name]
		h := 0.01 * math.Abs(value)
		if h == 0 {
			h = 1e-6
		}

		up := r.current.Clone()
		up[name] = r.bounds[name].Clamp(value + h)
		down := r.current.Clone()
		down[name] = r.bounds[name].Clamp(value - h)
		span := up[name] - down[name]
		if span == 0 {
			continue
		}

		upScore, upErr := e.probe(ctx, r, up)
		downScore, downErr := e.probe(ctx, r, down)
		if upErr != nil || downErr != nil {
			continue
		}

		gradient := (upScore - downScore) / span
		stepped := value + e.cfg.LearningRate*gradient - e.cfg.RegularizationStrength*value
		next[name] = r.bounds[name].Clamp(stepped)
	}
	return next
}

func (e *Engine) probe(ctx context.Context, r *run, point param.Set) (float64, error) {
	res, err := r.evaluate.Evaluate(ctx, point)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

func (e *Engine) randomPoint(r *run) param.Set {
	point := make(param.Set, len(r.names))
	for _, name := range r.names {
		rg := r.bounds[name]
		point[name] = r.rng.UniformFloat64(rg.Min, rg.Max)
	}
	return point
}

// evaluatePoint runs the evaluator on a candidate and wraps the outcome
// as a trial result. Evaluation errors become a zero-score failed trial
// so a flaky evaluator does not abort the whole run.
func (e *Engine) evaluatePoint(ctx context.Context, r *run, point param.Set) TrialResult {
	result := TrialResult{
		Params:  point.Clone(),
		Trial:   r.trial,
		Seed:    r.seed,
		Elapsed: time.Since(r.started),
	}
	res, err := r.evaluate.Evaluate(ctx, point)
	if err != nil {
		logger.Warn("trial evaluation failed", "trial", r.trial, "error", err)
		result.Failed = true
		return result
	}
	// A score outside [0, 100] or non-finite is an evaluator defect and
	// counts as a failed trial.
	if math.IsNaN(res.Score) || res.Score < 0 || res.Score > 100 {
		logger.Warn("evaluator returned invalid score", "trial", r.trial, "score", res.Score)
		result.Failed = true
		return result
	}
	result.Score = res.Score
	result.Metrics = res.Metrics
	return result
}

// evaluateBatch evaluates candidates concurrently, bounded by the batch
// size, and returns results in candidate order.
func (e *Engine) evaluateBatch(ctx context.Context, r *run, batch []param.Set) []TrialResult {
	results := make([]TrialResult, len(batch))
	p := newBatchPool(len(batch))
	for i := range batch {
		i := i
		p.Go(func() {
			results[i] = e.evaluatePoint(ctx, r, batch[i])
		})
	}
	p.Wait()
	return results
}

// record appends a trial to the history, attaching its confidence
// interval, and updates the incumbent. Reports whether the trial
// improved on the best score (strictly, so earlier ties win).
func (e *Engine) record(r *run, result TrialResult) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.history)
	half := result.Score * math.Min(0.2, 1/float64(n+1))
	result.Confidence = [2]float64{result.Score - half, result.Score + half}
	result.Elapsed = time.Since(r.started)
	e.history = append(e.history, result)

	if result.Failed {
		return false
	}
	if e.best == nil || result.Score > e.best.Score {
		e.best = result.clone()
		return true
	}
	return false
}

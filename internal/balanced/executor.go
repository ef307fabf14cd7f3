package balanced

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/balancelab/balance-core/internal/balance"
	"github.com/balancelab/balance-core/internal/optimizer"
	"github.com/balancelab/balance-core/internal/report"
	"github.com/balancelab/balance-core/internal/sensitivity"
	"github.com/balancelab/balance-core/pkg/logger"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
)

// RunExecutor manages asynchronous run execution and per-run
// cancellation.
type RunExecutor struct {
	store *RunStore

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	engines map[string]*optimizer.Engine
}

func NewRunExecutor(store *RunStore) *RunExecutor {
	return &RunExecutor{
		store:   store,
		cancels: make(map[string]context.CancelFunc),
		engines: make(map[string]*optimizer.Engine),
	}
}

// Start begins executing a pending run asynchronously. Starting an
// already running run is a no-op returning the current record.
func (e *RunExecutor) Start(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	switch {
	case rec.Status == StatusRunning:
		return rec, nil
	case rec.Status.Terminal():
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	engine, err := optimizer.NewEngine(rec.Job.Engine)
	if err != nil {
		return nil, err
	}

	updated, err := e.store.SetStatus(runID, StatusRunning, "")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	if old, exists := e.cancels[runID]; exists {
		old()
	}
	e.cancels[runID] = cancel
	e.engines[runID] = engine
	e.mu.Unlock()

	go e.executeRun(ctx, runID, engine)
	return updated, nil
}

// Stop requests cooperative cancellation of a running run. The run
// finishes its in-flight evaluation and lands in the cancelled state
// with its best result so far attached.
func (e *RunExecutor) Stop(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	e.mu.Lock()
	if engine, ok := e.engines[runID]; ok {
		engine.Cancel()
	}
	if cancel, ok := e.cancels[runID]; ok {
		cancel()
	}
	e.mu.Unlock()

	logger.Info("run stop requested", "run_id", runID)
	updated, _ := e.store.Get(runID)
	return updated, nil
}

// Engine exposes the live engine of a run for progress inspection.
func (e *RunExecutor) Engine(runID string) (*optimizer.Engine, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	engine, ok := e.engines[runID]
	return engine, ok
}

func (e *RunExecutor) cleanup(runID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[runID]; ok {
		cancel()
		delete(e.cancels, runID)
	}
	delete(e.engines, runID)
	e.mu.Unlock()
}

// executeRun drives one optimization run to completion and records the
// outcome.
func (e *RunExecutor) executeRun(ctx context.Context, runID string, engine *optimizer.Engine) {
	defer e.cleanup(runID)

	rec, ok := e.store.Get(runID)
	if !ok {
		logger.Error("run not found", "run_id", runID)
		return
	}
	job := rec.Job
	started := time.Now()

	sim := balance.NewHeuristicSimulator(job.Bounds, job.Simulation.Seed, job.Simulation.Noise).
		WithWeights(job.EffectiveWeights())

	onProgress := func(fraction, bestScore float64) {
		if err := e.store.SetProgress(runID, Progress{Fraction: fraction, BestScore: bestScore}); err != nil {
			logger.Warn("progress update failed", "run_id", runID, "error", err)
		}
	}

	best, err := engine.Optimize(ctx, job.Initial, job.Bounds, sim, onProgress)
	history := engine.History()
	elapsed := time.Since(started)

	if err != nil {
		logger.Error("run failed", "run_id", runID, "error", err)
		rep := report.Build(nil, history, nil, string(StatusFailed), elapsed)
		if storeErr := e.store.SetOutcome(runID, rep, history); storeErr != nil {
			logger.Error("store outcome failed", "run_id", runID, "error", storeErr)
		}
		if _, storeErr := e.store.SetStatus(runID, StatusFailed, err.Error()); storeErr != nil {
			logger.Error("store status failed", "run_id", runID, "error", storeErr)
		}
		return
	}

	status := statusFromEngineState(engine.State())
	ranking, rankErr := sensitivity.Analyze(history, job.Bounds)
	if rankErr != nil {
		// A short run simply ships without a ranking.
		logger.Warn("sensitivity analysis skipped", "run_id", runID, "error", rankErr)
		ranking = nil
	}

	rep := report.Build(best, history, ranking, string(engine.State()), elapsed)
	if storeErr := e.store.SetOutcome(runID, rep, history); storeErr != nil {
		logger.Error("store outcome failed", "run_id", runID, "error", storeErr)
	}
	if _, storeErr := e.store.SetStatus(runID, status, ""); storeErr != nil {
		logger.Error("store status failed", "run_id", runID, "error", storeErr)
	}

	logger.Info("run finished",
		"run_id", runID,
		"status", string(status),
		"best_score", best.Score,
		"trials", len(history),
	)
}

func statusFromEngineState(s optimizer.State) Status {
	if s == optimizer.StateCancelled {
		return StatusCancelled
	}
	return StatusCompleted
}

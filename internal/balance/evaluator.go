package balance

import (
	"context"

	"github.com/balancelab/balance-core/pkg/param"
)

// Result is one scored evaluation of a candidate parameter set. Score is
// in [0, 100]; Metrics may be nil when the evaluator only produces a
// scalar.
type Result struct {
	Score   float64  `json:"score"`
	Metrics *Metrics `json:"metrics,omitempty"`
}

// Evaluator is the scoring collaborator: an asynchronous, possibly slow,
// possibly stochastic black box that scores a parameter set. It must not
// mutate its input.
type Evaluator interface {
	Evaluate(ctx context.Context, params param.Set) (*Result, error)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface
type EvaluatorFunc func(ctx context.Context, params param.Set) (*Result, error)

// Evaluate calls the wrapped function
func (f EvaluatorFunc) Evaluate(ctx context.Context, params param.Set) (*Result, error) {
	return f(ctx, params)
}

// ScoreFunc adapts a synchronous scalar objective to the Evaluator
// interface, for tests and simple callers.
func ScoreFunc(f func(params param.Set) float64) Evaluator {
	return EvaluatorFunc(func(_ context.Context, params param.Set) (*Result, error) {
		return &Result{Score: f(params)}, nil
	})
}

package orchestrator

// #region imports
import (
	"context"
	"fmt"
	"log"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #endregion

// #region constants

const defaultMaxRetries = 2 // 3 total attempts

// reframes are prepended to the step description on successive retries.
var reframes = []string{
	"Respond directly to: ",
	"Give a concrete, specific result for: ",
}

// #endregion

// #region executor

// RetryExecutor wraps a StepExecutor and retries outcomes that evaluate as
// failures, reframing the step description each time.
type RetryExecutor struct {
	next       StepExecutor
	maxRetries int
}

// NewRetryExecutor wraps next. maxRetries < 0 uses the default.
func NewRetryExecutor(next StepExecutor, maxRetries int) *RetryExecutor {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &RetryExecutor{next: next, maxRetries: maxRetries}
}

// #endregion

// #region execute

// Execute runs the step, retrying on errors and failed evaluations. The best
// scoring outcome wins when every attempt fails evaluation.
func (r *RetryExecutor) Execute(ctx context.Context, step reasoning.Step, rc *reasoning.Context) (reasoning.StepOutcome, error) {
	var (
		best     reasoning.StepOutcome
		bestQ    = -1.0
		lastErr  error
		attempts = r.maxRetries + 1
	)
	for i := 0; i < attempts; i++ {
		s := step
		if i > 0 {
			s.Description = reframes[(i-1)%len(reframes)] + step.Description
		}

		out, err := r.next.Execute(ctx, s, rc)
		if err != nil {
			if ctx.Err() != nil {
				return reasoning.StepOutcome{}, err
			}
			lastErr = err
			log.Printf("[CHAIN] step %s attempt %d failed: %v", step.ID, i+1, err)
			continue
		}

		ev := EvaluateOutcome(step, out.Outcome)
		if !ev.ShouldRetry {
			return out, nil
		}
		log.Printf("[CHAIN] step %s attempt %d: quality=%.2f failure=%s, retrying", step.ID, i+1, ev.Quality, ev.FailureType)
		if ev.Quality > bestQ {
			best, bestQ = out, ev.Quality
		}
	}

	if bestQ >= 0 {
		return best, nil
	}
	return reasoning.StepOutcome{}, fmt.Errorf("%d attempts failed: %w", attempts, lastErr)
}

// #endregion

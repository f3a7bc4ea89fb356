package orchestrator

// #region imports
import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #endregion

// #region echo

// EchoExecutor is the default step executor. It restates the step so the
// chain can run without a content generator.
type EchoExecutor struct{}

// Execute returns a canned outcome and records the step in Facts.
func (EchoExecutor) Execute(ctx context.Context, step reasoning.Step, _ *reasoning.Context) (reasoning.StepOutcome, error) {
	if err := ctx.Err(); err != nil {
		return reasoning.StepOutcome{}, err
	}
	out := fmt.Sprintf("Completed: %s.", step.Description)
	if step.ExpectedOutput != "" {
		out += fmt.Sprintf(" Produced: %s.", step.ExpectedOutput)
	}
	return reasoning.StepOutcome{
		Outcome: out,
		Data: map[string]string{
			"last_step":        step.ID,
			step.ID + ".state": "done",
		},
	}, nil
}

// #endregion

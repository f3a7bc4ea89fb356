package orchestrator

// #region imports
import (
	"context"
	"time"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/branching"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/complexity"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/eval"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #endregion

// #region state

// State is the lifecycle position of a chain.
type State string

const (
	StateInitialized State = "initialized"
	StateAnalyzing   State = "analyzing"
	StateReasoning   State = "reasoning"
	StateReflecting  State = "reflecting"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// #endregion

// #region failure-type

// FailureType categorizes why a step outcome looks unusable.
type FailureType string

const (
	FailureNone       FailureType = "none"
	FailureEmpty      FailureType = "empty"
	FailureRepetition FailureType = "repetition"
	FailureDeflection FailureType = "deflection"
)

// #endregion

// #region input

// Input is what the caller supplies alongside the problem statement.
type Input struct {
	Domain      string
	Constraints []string
	Metadata    map[string]string
	// PlannedSteps run after the initial analysis step, in order.
	PlannedSteps []reasoning.Step
}

// #endregion

// #region outcome-evaluation

// OutcomeEvaluation is the output of evaluating one step outcome.
type OutcomeEvaluation struct {
	Quality     float64     `json:"quality"`
	FailureType FailureType `json:"failure_type"`
	ShouldRetry bool        `json:"should_retry"`
}

// StepRecord is one executed step with its outcome.
type StepRecord struct {
	Step       reasoning.Step    `json:"step"`
	Outcome    string            `json:"outcome"`
	Evaluation OutcomeEvaluation `json:"evaluation"`
	ExecutedAt time.Time         `json:"executed_at"`
}

// #endregion

// #region chain-of-thought

// ThoughtProcess is the narrative part of the output.
type ThoughtProcess struct {
	InitialAnalysis  string   `json:"initial_analysis"`
	Decomposition    []string `json:"decomposition"`
	SolutionApproach string   `json:"solution_approach"`
	Suggestions      []string `json:"suggestions,omitempty"`
	Summary          string   `json:"summary"`
}

// ChainOfThought is the assembled result of a completed session.
type ChainOfThought struct {
	SessionID        string                           `json:"session_id"`
	Problem          string                           `json:"problem"`
	Domain           string                           `json:"domain"`
	Steps            []reasoning.Step                 `json:"steps"`
	Records          []StepRecord                     `json:"records"`
	ThoughtProcess   ThoughtProcess                   `json:"thought_process"`
	ValidationChecks []eval.EvalMetric                `json:"validation_checks"`
	EmergentInsights []string                         `json:"emergent_insights"`
	Reflections      []reasoning.ReflectionSession    `json:"reflections,omitempty"`
	Adjustments      []reasoning.ComplexityAdjustment `json:"adjustments,omitempty"`
	Activations      []branching.Activation           `json:"activations,omitempty"`
	Prediction       *complexity.Prediction           `json:"prediction,omitempty"`
	BaseComplexity   float64                          `json:"base_complexity"`
	FinalComplexity  float64                          `json:"final_complexity"`
	Level            reasoning.ComplexityLevel        `json:"level"`
	Elapsed          time.Duration                    `json:"elapsed_ns"`
}

// #endregion

// #region interfaces

// StepExecutor produces the content of one step. It is the only blocking
// call in a session.
type StepExecutor interface {
	Execute(ctx context.Context, step reasoning.Step, rc *reasoning.Context) (reasoning.StepOutcome, error)
}

// Recorder persists session history. Failures are logged, never fatal.
type Recorder interface {
	SaveSession(rec reasoning.SessionRecord) error
	SaveReflection(sessionID string, s reasoning.ReflectionSession) error
	SaveAdjustment(sessionID string, a reasoning.ComplexityAdjustment) error
}

// DecisionLogger receives engine decisions as provenance.
type DecisionLogger interface {
	LogDecision(d reasoning.Decision) error
}

// #endregion

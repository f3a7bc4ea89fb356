package orchestrator

// #region imports
import (
	"fmt"
	"log"
	"strings"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reflection"
)

// #endregion

const solutionApproach = "systematic step-by-step reasoning"

// #region assemble

// assemble builds the session output from executed steps and engine history.
func (c *Chain) assemble() *ChainOfThought {
	executed := make([]reasoning.Step, len(c.rc.PreviousSteps))
	for i, s := range c.rc.PreviousSteps {
		executed[i] = s.Clone()
	}

	res := c.harness.Run(executed)
	if !res.Passed {
		log.Printf("[CHAIN] session %s validation: %s", c.sessionID, res.Reason)
	}

	return &ChainOfThought{
		SessionID:        c.sessionID,
		Problem:          c.problem,
		Domain:           c.rc.Domain,
		Steps:            executed,
		Records:          append([]StepRecord(nil), c.records...),
		ThoughtProcess:   c.thoughtProcess(executed),
		ValidationChecks: res.Metrics,
		EmergentInsights: c.emergentInsights(),
		Reflections:      append([]reasoning.ReflectionSession(nil), c.reflections...),
		Adjustments:      append([]reasoning.ComplexityAdjustment(nil), c.adjustments...),
		Activations:      c.activations,
		Prediction:       c.prediction,
		BaseComplexity:   c.baseComplexity,
		FinalComplexity:  c.rc.Complexity,
		Level:            reasoning.LevelForScore(c.rc.Complexity),
		Elapsed:          c.clock().Sub(c.started),
	}
}

// #endregion

// #region thought-process

func (c *Chain) thoughtProcess(executed []reasoning.Step) ThoughtProcess {
	tp := ThoughtProcess{SolutionApproach: solutionApproach}
	if len(c.records) > 0 {
		tp.InitialAnalysis = c.records[0].Outcome
	}
	for _, s := range executed {
		tp.Decomposition = append(tp.Decomposition, s.Description)
	}

	seen := make(map[string]bool)
	for _, r := range c.reflections {
		for _, sug := range r.Suggestions(reflection.CriterionNames()) {
			if !seen[sug] {
				seen[sug] = true
				tp.Suggestions = append(tp.Suggestions, sug)
			}
		}
	}

	tp.Summary = fmt.Sprintf("Completed %d steps at %s complexity (%.2f) with %d reflection passes and %d complexity adjustments.",
		len(executed), reasoning.LevelForScore(c.rc.Complexity), c.rc.Complexity, len(c.reflections), len(c.adjustments))
	if n := len(c.records); n > 0 {
		tp.Summary += " Final outcome: " + clip(strings.TrimSpace(c.records[n-1].Outcome), 200)
	}
	return tp
}

// #endregion

// #region emergent-insights

func (c *Chain) emergentInsights() []string {
	var out []string
	if c.rc.Complexity > 0.7 {
		out = append(out, "High complexity requires sophisticated reasoning approaches")
	}
	if len(c.reflections) > 0 {
		var sum float64
		for _, r := range c.reflections {
			sum += r.AverageConfidence()
		}
		out = append(out, fmt.Sprintf("Self-reflection average confidence: %.2f over %d passes", sum/float64(len(c.reflections)), len(c.reflections)))
	}
	if active := c.rc.Metadata.Branching.Activations; active > 0 {
		out = append(out, fmt.Sprintf("Conditional branching activated %d branches: %s",
			active, strings.Join(activatedIDs(c), ", ")))
	}
	if n := len(c.adjustments); n > 0 {
		last := c.adjustments[n-1]
		out = append(out, fmt.Sprintf("Complexity adjusted %d times, ending at %s", n, last.To))
	}
	if c.prediction != nil {
		out = append(out, fmt.Sprintf("Predicted complexity trend: %s (%.2f, confidence %.2f)",
			c.prediction.Level, c.prediction.Score, c.prediction.Confidence))
	}
	if c.config.EnableMetacognition {
		for _, a := range c.alerts {
			out = append(out, "Metacognitive alert: "+a.Message)
		}
	}
	return out
}

func activatedIDs(c *Chain) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, a := range c.activations {
		if a.Activated && !seen[a.BranchID] {
			seen[a.BranchID] = true
			ids = append(ids, a.BranchID)
		}
	}
	return ids
}

// #endregion

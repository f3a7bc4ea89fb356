// Package replay re-runs recorded or hand-written problems through the
// reasoning chain and checks each session against expected bounds. It is the
// regression harness for classifier, branching and reflection tuning.
package replay

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/config"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/orchestrator"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region types

// ReplayResult captures the outcome of replaying one case.
type ReplayResult struct {
	Name     string
	Action   string // "pass" | "mismatch" | "error"
	Reason   string
	State    string
	Steps    []string
	Base     float64
	Final    float64
	Level    reasoning.ComplexityLevel
	Failures []string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases int
	Passed     int
	Mismatches int
	Errors     int
}

// #endregion types

// #region replay

// Replay runs every case in a fresh chain built from cfg. newExec supplies a
// step executor per case; nil uses the chain default.
func Replay(ctx context.Context, cfg config.Config, cases []FixtureCase, newExec func() orchestrator.StepExecutor) []ReplayResult {
	results := make([]ReplayResult, 0, len(cases))
	for _, fc := range cases {
		results = append(results, replayCase(ctx, cfg, fc, newExec))
	}
	return results
}

func replayCase(ctx context.Context, cfg config.Config, fc FixtureCase, newExec func() orchestrator.StepExecutor) ReplayResult {
	res := ReplayResult{Name: fc.Name}

	var opts []orchestrator.Option
	if newExec != nil {
		opts = append(opts, orchestrator.WithExecutor(newExec()))
	}
	chain, err := orchestrator.NewChain(cfg, opts...)
	if err != nil {
		res.Action, res.Reason = "error", err.Error()
		return res
	}

	out, runErr := chain.Reason(ctx, fc.Problem, fc.ToInput())
	res.State = string(chain.State())
	var executed []reasoning.Step
	if rc := chain.Context(); rc != nil {
		executed = rc.PreviousSteps
	}
	if out != nil {
		executed = out.Steps
		res.Base, res.Final, res.Level = out.BaseComplexity, out.FinalComplexity, out.Level
	}
	for _, s := range executed {
		res.Steps = append(res.Steps, s.ID)
	}

	res.Failures = check(fc.Expected, res, runErr)
	switch {
	case len(res.Failures) > 0:
		res.Action, res.Reason = "mismatch", strings.Join(res.Failures, "; ")
	case runErr != nil && fc.Expected.ErrorContains == "":
		res.Action, res.Reason = "error", runErr.Error()
	default:
		res.Action = "pass"
		if runErr != nil {
			res.Reason = runErr.Error()
		}
	}
	return res
}

func check(want Expectation, got ReplayResult, runErr error) []string {
	var fails []string
	if want.State != "" && want.State != got.State {
		fails = append(fails, fmt.Sprintf("state %s, want %s", got.State, want.State))
	}
	if want.ErrorContains != "" && (runErr == nil || !strings.Contains(runErr.Error(), want.ErrorContains)) {
		fails = append(fails, fmt.Sprintf("error %v, want one containing %q", runErr, want.ErrorContains))
	}
	if runErr == nil {
		if want.MinComplexity != nil && got.Base < *want.MinComplexity {
			fails = append(fails, fmt.Sprintf("base complexity %.3f below %.3f", got.Base, *want.MinComplexity))
		}
		if want.MaxComplexity != nil && got.Base > *want.MaxComplexity {
			fails = append(fails, fmt.Sprintf("base complexity %.3f above %.3f", got.Base, *want.MaxComplexity))
		}
		if want.BaseLevel != "" && string(reasoning.LevelForScore(got.Base)) != want.BaseLevel {
			fails = append(fails, fmt.Sprintf("base level %s, want %s", reasoning.LevelForScore(got.Base), want.BaseLevel))
		}
	}
	if want.MinSteps > 0 && len(got.Steps) < want.MinSteps {
		fails = append(fails, fmt.Sprintf("%d steps, want at least %d", len(got.Steps), want.MinSteps))
	}
	if want.MaxSteps > 0 && len(got.Steps) > want.MaxSteps {
		fails = append(fails, fmt.Sprintf("%d steps, want at most %d", len(got.Steps), want.MaxSteps))
	}
	for i, id := range want.StepIDs {
		if i >= len(got.Steps) || got.Steps[i] != id {
			fails = append(fails, fmt.Sprintf("step %d is not %s", i+1, id))
			break
		}
	}
	return fails
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalCases: len(results)}
	for _, r := range results {
		switch r.Action {
		case "pass":
			s.Passed++
		case "mismatch":
			s.Mismatches++
		case "error":
			s.Errors++
		}
	}
	return s
}

// #endregion replay

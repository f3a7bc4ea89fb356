package complexity

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region generate

// GenerateSteps reshapes steps for a complexity level. Output orders restart
// at the first input step's order, and dependencies between input steps are
// remapped onto the generated set. Dependencies on steps outside the input are
// kept; dependencies on steps dropped by truncation are removed.
func GenerateSteps(steps []reasoning.Step, level reasoning.ComplexityLevel) []reasoning.Step {
	if len(steps) == 0 {
		return nil
	}
	base := steps[0].Order
	inSet := make(map[string]bool, len(steps))
	for _, s := range steps {
		inSet[s.ID] = true
	}

	var out []reasoning.Step
	// finalID maps an input step id to the generated step that completes it.
	finalID := make(map[string]string, len(steps))

	switch level {
	case reasoning.LevelMinimal:
		out = truncate(steps, 3, 1, finalID)
	case reasoning.LevelLow:
		out = truncate(steps, 5, 2, finalID)
	case reasoning.LevelHigh:
		out = withIntermediateValidation(steps, finalID)
	case reasoning.LevelExtreme:
		out = decompose(steps, finalID)
	default:
		for _, s := range steps {
			out = append(out, s.Clone())
			finalID[s.ID] = s.ID
		}
	}

	generated := make(map[string]bool, len(out))
	for _, s := range out {
		generated[s.ID] = true
	}
	for i := range out {
		out[i].Order = base + float64(i)
		var deps []string
		for _, d := range out[i].Dependencies {
			switch {
			case generated[d]:
			case inSet[d]:
				mapped, ok := finalID[d]
				if !ok {
					continue // dropped by truncation
				}
				d = mapped
			}
			if d != out[i].ID && !contains(deps, d) {
				deps = append(deps, d)
			}
		}
		out[i].Dependencies = deps
	}
	return out
}

func truncate(steps []reasoning.Step, keep, maxRules int, finalID map[string]string) []reasoning.Step {
	keep = min(keep, len(steps))
	out := make([]reasoning.Step, 0, keep)
	for _, s := range steps[:keep] {
		c := s.Clone()
		if len(c.ValidationRules) > maxRules {
			c.ValidationRules = c.ValidationRules[:maxRules]
		}
		out = append(out, c)
		finalID[s.ID] = s.ID
	}
	return out
}

// tierSuffixes mark steps produced by the high and extreme generators.
var tierSuffixes = []string{"_validation", "_analyze", "_plan", "_execute", "_validate"}

// IsGenerated reports whether id was produced by a tier generator. Such steps
// pass through later regeneration unchanged.
func IsGenerated(id string) bool {
	for _, suf := range tierSuffixes {
		if strings.HasSuffix(id, suf) {
			return true
		}
	}
	return false
}

func withIntermediateValidation(steps []reasoning.Step, finalID map[string]string) []reasoning.Step {
	have := make(map[string]bool, len(steps))
	for _, s := range steps {
		have[s.ID] = true
	}
	var out []reasoning.Step
	n := 0
	windowStart := ""
	for _, s := range steps {
		c := s.Clone()
		finalID[s.ID] = s.ID
		if IsGenerated(s.ID) {
			out = append(out, c)
			continue
		}
		c.ValidationRules = addRules(c.ValidationRules, "cross_validation", "logical_consistency")
		out = append(out, c)
		if windowStart == "" {
			windowStart = s.ID
		}

		n++
		if n%3 != 0 {
			continue
		}
		if !have[s.ID+"_validation"] {
			out = append(out, reasoning.Step{
				ID:              s.ID + "_validation",
				Description:     fmt.Sprintf("Intermediate validation of steps %s through %s", windowStart, s.ID),
				ExpectedOutput:  "Confirmed or corrected intermediate results",
				Dependencies:    []string{s.ID},
				ValidationRules: []string{"consistency", "completeness", "cross_validation"},
			})
		}
		windowStart = ""
	}
	return out
}

func decompose(steps []reasoning.Step, finalID map[string]string) []reasoning.Step {
	out := make([]reasoning.Step, 0, len(steps)*4)
	for _, s := range steps {
		if IsGenerated(s.ID) {
			out = append(out, s.Clone())
			finalID[s.ID] = s.ID
			continue
		}
		analyze := reasoning.Step{
			ID:              s.ID + "_analyze",
			Description:     "Analyze: " + s.Description,
			ExpectedOutput:  "Requirements and unknowns for " + s.ID,
			Dependencies:    append([]string(nil), s.Dependencies...),
			ValidationRules: []string{"completeness"},
		}
		plan := reasoning.Step{
			ID:              s.ID + "_plan",
			Description:     "Plan: " + s.Description,
			ExpectedOutput:  "Approach and ordering for " + s.ID,
			Dependencies:    []string{analyze.ID},
			ValidationRules: []string{"consistency"},
		}
		execute := reasoning.Step{
			ID:              s.ID + "_execute",
			Description:     "Execute: " + s.Description,
			ExpectedOutput:  s.ExpectedOutput,
			Dependencies:    []string{plan.ID},
			ValidationRules: addRules(append([]string(nil), s.ValidationRules...), "accuracy"),
		}
		validate := reasoning.Step{
			ID:              s.ID + "_validate",
			Description:     "Comprehensive validation of " + s.ID + " against its plan and requirements",
			ExpectedOutput:  "Validation verdict for " + s.ID,
			Dependencies:    []string{execute.ID},
			ValidationRules: []string{"consistency", "completeness", "accuracy", "cross_validation"},
		}
		out = append(out, analyze, plan, execute, validate)
		finalID[s.ID] = validate.ID
	}
	return out
}

func addRules(rules []string, extra ...string) []string {
	for _, r := range extra {
		if !contains(rules, r) {
			rules = append(rules, r)
		}
	}
	return rules
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// #endregion generate

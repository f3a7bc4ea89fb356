package branching

import "github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"

// #region defaults

// DefaultBranches returns the registry every session starts with.
func DefaultBranches() []reasoning.Branch {
	return []reasoning.Branch{
		{
			ID:        "high_complexity_decomposition",
			Condition: "complexity above 0.7",
			Conditions: []reasoning.Condition{
				{Source: reasoning.SourceComplexity, Operator: reasoning.OpGt, Target: 0.7},
			},
			Logic:    reasoning.LogicAnd,
			Priority: 10,
			Enabled:  true,
			StepTemplates: []reasoning.StepTemplate{
				{
					Key:             "decompose",
					Description:     "Decompose the {domain} problem into independent sub-problems (complexity {complexity})",
					ExpectedOutput:  "List of sub-problems with their interfaces",
					Dependencies:    []string{"{current}"},
					ValidationRules: []string{"completeness", "consistency"},
				},
				{
					Key:             "integrate",
					Description:     "Integrate the sub-problem solutions into one coherent answer",
					ExpectedOutput:  "Combined solution with integration notes",
					Dependencies:    []string{"{previous}"},
					ValidationRules: []string{"consistency", "accuracy"},
				},
			},
		},
		{
			ID:        "reflection_review",
			Condition: "last reflection asked for more validation",
			Conditions: []reasoning.Condition{
				{
					Source:   reasoning.SourceCustom,
					Operator: reasoning.OpEq,
					Target:   true,
					Evaluator: func(rc *reasoning.Context) (any, error) {
						return rc.Metadata.Reflection.Adjustments.IncreaseValidation, nil
					},
				},
			},
			Logic:    reasoning.LogicAnd,
			Priority: 9,
			Enabled:  true,
			StepTemplates: []reasoning.StepTemplate{
				{
					Key:             "review",
					Description:     "Review the last {stepCount} steps for gaps raised by reflection",
					ExpectedOutput:  "Corrections for each weak step",
					Dependencies:    []string{"{current}"},
					ValidationRules: []string{"accuracy", "completeness", "consistency"},
				},
			},
		},
		{
			ID:        "constraint_analysis",
			Condition: "caller supplied constraints",
			Conditions: []reasoning.Condition{
				{
					Source:   reasoning.SourceCustom,
					Operator: reasoning.OpGt,
					Target:   0,
					Evaluator: func(rc *reasoning.Context) (any, error) {
						return len(rc.Constraints), nil
					},
				},
			},
			Logic:    reasoning.LogicAnd,
			Priority: 8,
			Enabled:  true,
			StepTemplates: []reasoning.StepTemplate{
				{
					Key:             "constraints",
					Description:     "Check the current approach against constraints: {constraints}",
					ExpectedOutput:  "Each constraint marked satisfied or violated",
					Dependencies:    []string{"{current}"},
					ValidationRules: []string{"consistency", "constraint_check"},
				},
			},
		},
		{
			ID:        "domain_expertise",
			Condition: "domain is not general",
			Conditions: []reasoning.Condition{
				{Source: reasoning.SourceDomain, Operator: reasoning.OpNe, Target: reasoning.DomainGeneral},
			},
			Logic:    reasoning.LogicAnd,
			Priority: 6,
			Enabled:  true,
			StepTemplates: []reasoning.StepTemplate{
				{
					Key:             "domain",
					Description:     "Apply {domain} best practices and known pitfalls",
					ExpectedOutput:  "Domain-specific refinements",
					Dependencies:    []string{"{current}"},
					ValidationRules: []string{"domain_accuracy", "accuracy"},
				},
			},
		},
		{
			ID:        "extended_review",
			Condition: "long chain on a moderately complex problem",
			Conditions: []reasoning.Condition{
				{Source: reasoning.SourceStepCount, Operator: reasoning.OpGte, Target: 5},
				{Source: reasoning.SourceComplexity, Operator: reasoning.OpGt, Target: 0.5},
			},
			Logic:    reasoning.LogicAnd,
			Priority: 4,
			Enabled:  true,
			StepTemplates: []reasoning.StepTemplate{
				{
					Key:             "synthesis",
					Description:     "Synthesize the {stepCount} steps so far into intermediate conclusions",
					ExpectedOutput:  "Intermediate summary with open questions",
					Dependencies:    []string{"{current}"},
					ValidationRules: []string{"completeness"},
				},
			},
		},
		{
			ID:        "simple_path",
			Condition: "complexity below 0.3",
			Conditions: []reasoning.Condition{
				{Source: reasoning.SourceComplexity, Operator: reasoning.OpLt, Target: 0.3},
			},
			Logic:    reasoning.LogicAnd,
			Priority: 2,
			Enabled:  true,
			StepTemplates: []reasoning.StepTemplate{
				{
					Key:             "direct",
					Description:     "Solve the problem directly",
					ExpectedOutput:  "Direct answer",
					Dependencies:    []string{"{current}"},
					ValidationRules: []string{"accuracy"},
				},
			},
		},
	}
}

// RegisterDefaults registers DefaultBranches on e.
func RegisterDefaults(e *Engine) error {
	for _, b := range DefaultBranches() {
		if err := e.Register(b); err != nil {
			return err
		}
	}
	return nil
}

// #endregion defaults

package reflection

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

func bareSteps() []reasoning.Step {
	return []reasoning.Step{
		{ID: "s1", Order: 1, Description: "Analyze the problem statement", ExpectedOutput: "Problem summary"},
		{ID: "s2", Order: 2, Description: "Identify the main sub-problems", ExpectedOutput: "Sub-problem list", Dependencies: []string{"s1"}},
		{ID: "s3", Order: 3, Description: "Propose a solution for each part", ExpectedOutput: "Draft solution", Dependencies: []string{"s2"}},
	}
}

func richSteps() []reasoning.Step {
	return []reasoning.Step{
		{ID: "r1", Order: 1, Description: "Analyze requirements and constraints in depth", ExpectedOutput: "Requirement list",
			ValidationRules: []string{"completeness", "consistency", "accuracy"}},
		{ID: "r2", Order: 2, Description: "Explore alternative designs for the scheduler", ExpectedOutput: "Two candidate designs",
			Dependencies: []string{"r1"}, ValidationRules: []string{"consistency", "completeness", "verification"}},
		{ID: "r3", Order: 3, Description: "Verify the chosen design against every requirement", ExpectedOutput: "Verification report",
			Dependencies: []string{"r2"}, ValidationRules: []string{"accuracy", "completeness", "consistency"}},
	}
}

func TestAssess_StepsWithoutRulesAreInvalid(t *testing.T) {
	rc := reasoning.NewContext("", nil, nil)
	s := Assess(bareSteps(), rc, DefaultConfig())

	if s.IsValid {
		t.Fatalf("expected invalid session, score %.3f", s.OverallScore)
	}
	found := false
	for _, sug := range s.Suggestions(CriterionNames()) {
		if strings.Contains(strings.ToLower(sug), "validation rules") {
			found = true
		}
	}
	if !found {
		t.Errorf("no suggestion to add validation rules: %v", s.Suggestions(CriterionNames()))
	}
	if !s.Adjustments.IncreaseValidation || s.Adjustments.AdditionalReviewSteps < 1 {
		t.Errorf("adjustments = %+v, want increased validation", s.Adjustments)
	}
}

func TestAssess_ScoresBoundedAndWeighted(t *testing.T) {
	cases := map[string][]reasoning.Step{
		"bare":  bareSteps(),
		"rich":  richSteps(),
		"empty": nil,
		"broken": {
			{ID: "x", Order: 2, Dependencies: []string{"ghost"}},
			{ID: "y", Order: 1, Description: "y", Dependencies: []string{"phantom"}},
		},
	}
	for name, steps := range cases {
		t.Run(name, func(t *testing.T) {
			rc := reasoning.NewContext("finance", []string{"budget"}, nil)
			rc.Complexity = 0.9
			s := Assess(steps, rc, DefaultConfig())

			var want, weights float64
			for _, c := range Criteria() {
				r := s.Criteria[c.Name]
				if r.Score < 0 || r.Score > 1 || r.Confidence < 0 || r.Confidence > 1 {
					t.Errorf("%s out of bounds: %+v", c.Name, r)
				}
				want += c.Weight * r.Score
				weights += c.Weight
			}
			if math.Abs(weights-1) > 1e-9 {
				t.Fatalf("weights sum to %f", weights)
			}
			if math.Abs(s.OverallScore-want) > 1e-9 {
				t.Errorf("overall %.6f, weighted sum %.6f", s.OverallScore, want)
			}
		})
	}
}

func TestAssess_Deterministic(t *testing.T) {
	rc := reasoning.NewContext("software-engineering", []string{"latency"}, nil)
	rc.Complexity = 0.85
	rc.PreviousSteps = append(bareSteps(), richSteps()...)

	a := Assess(richSteps(), rc, DefaultConfig())
	b := Assess(richSteps(), rc, DefaultConfig())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("assessment differs between calls:\n%+v\n%+v", a, b)
	}

	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	first := e.Reflect(richSteps(), 1, rc)
	second := e.Reflect(richSteps(), 1, rc)
	if first.OverallScore != second.OverallScore || first.Recommendation != second.Recommendation ||
		!reflect.DeepEqual(first.Insights, second.Insights) {
		t.Error("engine history leaked into scoring")
	}
}

func TestAssess_RichStepsContinue(t *testing.T) {
	rc := reasoning.NewContext("", nil, nil)
	s := Assess(richSteps(), rc, DefaultConfig())
	if !s.IsValid || s.Recommendation != reasoning.RecommendContinue {
		t.Errorf("valid=%v recommendation=%s score=%.3f insights=%+v", s.IsValid, s.Recommendation, s.OverallScore, s.Insights)
	}
}

func TestInsights_Contextual(t *testing.T) {
	rc := reasoning.NewContext("", nil, nil)
	rc.Complexity = 0.9
	rc.PreviousSteps = make([]reasoning.Step, 9)

	var opportunity, threat bool
	for _, in := range Insights(map[string]reasoning.CriterionResult{}, rc) {
		switch in.Type {
		case reasoning.InsightOpportunity:
			opportunity = true
		case reasoning.InsightThreat:
			threat = true
		}
	}
	if !opportunity || !threat {
		t.Errorf("opportunity=%v threat=%v", opportunity, threat)
	}

	adj := Adjustments(map[string]reasoning.CriterionResult{}, rc)
	if !adj.DecomposeFurther || adj.ReasoningDepth != "deep" {
		t.Errorf("complexity adjustment missing: %+v", adj)
	}
}

func TestRecommend(t *testing.T) {
	cfg := DefaultConfig()
	high := reasoning.Insight{Impact: reasoning.ImpactHigh}
	tests := []struct {
		name     string
		overall  float64
		insights []reasoning.Insight
		want     reasoning.Recommendation
	}{
		{"critical-stops", 0.95, []reasoning.Insight{{Impact: reasoning.ImpactCritical}}, reasoning.RecommendStop},
		{"low-score-restarts", 0.4, nil, reasoning.RecommendRestart},
		{"many-high-restarts", 0.9, []reasoning.Insight{high, high, high}, reasoning.RecommendRestart},
		{"two-high-adjusts", 0.6, []reasoning.Insight{high, high}, reasoning.RecommendAdjust},
		{"below-quality-adjusts", 0.65, nil, reasoning.RecommendAdjust},
		{"good-continues", 0.8, nil, reasoning.RecommendContinue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recommend(tt.overall, tt.insights, cfg); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateConsistency_BrokenDependencies(t *testing.T) {
	rc := reasoning.NewContext("", nil, nil)
	steps := []reasoning.Step{
		{ID: "a", Order: 1, Dependencies: []string{"missing"}},
		{ID: "b", Order: 2, Dependencies: []string{"a"}},
	}
	r := EvaluateConsistency(steps, rc)
	// 0.5*0.5 dependency validity + 0.3 monotonic.
	if math.Abs(r.Score-0.55) > 1e-9 {
		t.Errorf("score = %.3f, want 0.55", r.Score)
	}
	if len(r.Suggestions) == 0 {
		t.Error("expected a dependency suggestion")
	}
}

func TestEvaluateEfficiency_LongChain(t *testing.T) {
	rc := reasoning.NewContext("", nil, nil)
	steps := make([]reasoning.Step, 10)
	for i := range steps {
		steps[i] = reasoning.Step{ID: string(rune('a' + i)), Description: "step " + string(rune('a'+i))}
	}
	r := EvaluateEfficiency(steps, rc)
	if math.Abs(r.Score-0.5) > 1e-9 {
		t.Errorf("score = %.3f, want 0.5 (bound 5 over 10 steps)", r.Score)
	}
}

func TestEngine_HistoryBoundAndLearning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistory = 2
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	rc := reasoning.NewContext("", nil, nil)
	for i := 0; i < 3; i++ {
		e.Reflect(bareSteps(), 1, rc)
	}

	h := e.History()
	if len(h) != 2 {
		t.Fatalf("history = %d, want 2", len(h))
	}
	if h[0].ID != "reflection-2" || h[1].ID != "reflection-3" {
		t.Errorf("oldest not dropped first: %s, %s", h[0].ID, h[1].ID)
	}
	if h[1].StepRange != (reasoning.StepRange{Start: 1, End: 3}) {
		t.Errorf("step range = %+v", h[1].StepRange)
	}

	total := 0
	for k, v := range e.Frequencies() {
		if !strings.Contains(k, ":") {
			t.Errorf("bad frequency key %q", k)
		}
		total += v
	}
	if total != 3 {
		t.Errorf("frequency total = %d, want 3", total)
	}

	k := e.Knowledge()
	if len(k) == 0 {
		t.Fatal("no actionable insights remembered")
	}
	if k[0].Seen != 3 {
		t.Errorf("seen = %d, want 3", k[0].Seen)
	}
}

func TestEngine_LearningDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableLearning = false
	e, _ := NewEngine(cfg)
	e.Reflect(bareSteps(), 1, reasoning.NewContext("", nil, nil))
	if len(e.Frequencies()) != 0 || len(e.Knowledge()) != 0 {
		t.Error("learning bookkeeping ran while disabled")
	}
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/complexity"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/config"
	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

const hardProblem = "Design a recursive algorithm that can integrate dynamic data sources and optimize query throughput"

// quietConfig disables every engine so only planned steps run.
func quietConfig() config.Config {
	cfg := config.Default()
	cfg.EnableSelfReflection = false
	cfg.EnableConditionalBranching = false
	cfg.EnableDynamicComplexity = false
	return cfg
}

type fakeRecorder struct {
	sessions    []reasoning.SessionRecord
	reflections []reasoning.ReflectionSession
	adjustments []reasoning.ComplexityAdjustment
}

func (r *fakeRecorder) SaveSession(rec reasoning.SessionRecord) error {
	r.sessions = append(r.sessions, rec)
	return nil
}

func (r *fakeRecorder) SaveReflection(_ string, s reasoning.ReflectionSession) error {
	r.reflections = append(r.reflections, s)
	return nil
}

func (r *fakeRecorder) SaveAdjustment(_ string, a reasoning.ComplexityAdjustment) error {
	r.adjustments = append(r.adjustments, a)
	return nil
}

type fakeDecisions struct{ got []reasoning.Decision }

func (f *fakeDecisions) LogDecision(d reasoning.Decision) error {
	f.got = append(f.got, d)
	return nil
}

func richSteps(n int) []reasoning.Step {
	steps := make([]reasoning.Step, n)
	prev := "step_1"
	for i := range steps {
		id := fmt.Sprintf("r%d", i+1)
		steps[i] = reasoning.Step{
			ID:              id,
			Description:     fmt.Sprintf("Work through sub-problem %d in detail", i+1),
			ExpectedOutput:  fmt.Sprintf("Verified result for sub-problem %d", i+1),
			Dependencies:    []string{prev},
			ValidationRules: []string{"consistency", "completeness", "accuracy"},
		}
		prev = id
	}
	return steps
}

func bareSteps(n int) []reasoning.Step {
	steps := make([]reasoning.Step, n)
	for i := range steps {
		steps[i] = reasoning.Step{Description: fmt.Sprintf("do %d", i+1)}
	}
	return steps
}

func assertDependencyOrder(t *testing.T, steps []reasoning.Step) {
	t.Helper()
	seen := make(map[string]bool)
	for _, s := range steps {
		if seen[s.ID] {
			t.Errorf("step %s executed twice", s.ID)
		}
		for _, d := range s.Dependencies {
			if !seen[d] {
				t.Errorf("%s ran before its dependency %s", s.ID, d)
			}
		}
		seen[s.ID] = true
	}
}

func TestNewChain_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ReflectionInterval = -1
	_, err := NewChain(cfg)
	var ce *reasoning.ConfigurationError
	if !errors.As(err, &ce) || ce.Field != "reflection_interval" {
		t.Errorf("err = %v, want configuration error on reflection_interval", err)
	}
}

func TestReason_PlannedStepsOnly(t *testing.T) {
	rec := &fakeRecorder{}
	c, err := NewChain(quietConfig(), WithRecorder(rec))
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Reason(context.Background(), "Plan a small migration", Input{PlannedSteps: richSteps(2)})
	if err != nil {
		t.Fatal(err)
	}
	if c.State() != StateCompleted {
		t.Errorf("state = %s", c.State())
	}

	var ids []string
	for _, s := range out.Steps {
		ids = append(ids, s.ID)
	}
	if got := strings.Join(ids, ","); got != "step_1,r1,r2" {
		t.Errorf("executed %s", got)
	}
	if len(out.Records) != 3 || out.SessionID == "" || out.SessionID != c.SessionID() {
		t.Errorf("records=%d session=%q", len(out.Records), out.SessionID)
	}

	var names []string
	for _, m := range out.ValidationChecks {
		names = append(names, m.Name)
	}
	if got := strings.Join(names, ","); got != "logical,completeness,consistency,rule_coverage" {
		t.Errorf("validation checks = %s", got)
	}
	if out.ThoughtProcess.SolutionApproach != "systematic step-by-step reasoning" {
		t.Errorf("approach = %q", out.ThoughtProcess.SolutionApproach)
	}
	if len(out.ThoughtProcess.Decomposition) != 3 || out.ThoughtProcess.InitialAnalysis == "" {
		t.Errorf("thought process = %+v", out.ThoughtProcess)
	}
	if v := c.Context().Metadata.Facts["last_step"]; v != "r2" {
		t.Errorf("facts last_step = %q", v)
	}

	if len(rec.sessions) != 2 {
		t.Fatalf("saved %d session records, want 2", len(rec.sessions))
	}
	if rec.sessions[0].State != string(StateAnalyzing) || rec.sessions[1].State != string(StateCompleted) {
		t.Errorf("session states %s -> %s", rec.sessions[0].State, rec.sessions[1].State)
	}
	if rec.sessions[1].StepCount != 3 {
		t.Errorf("step count = %d", rec.sessions[1].StepCount)
	}
}

func TestRun_MaxSteps(t *testing.T) {
	cfg := quietConfig()
	cfg.MaxSteps = 2
	c, _ := NewChain(cfg)
	out, err := c.Reason(context.Background(), "Plan a small migration", Input{PlannedSteps: richSteps(5)})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Steps) != 2 {
		t.Errorf("executed %d steps, want 2", len(out.Steps))
	}
}

func TestRun_UnresolvedDependency(t *testing.T) {
	rec := &fakeRecorder{}
	c, _ := NewChain(quietConfig(), WithRecorder(rec))
	planned := []reasoning.Step{{ID: "needs", Description: "Use the ghost result", Dependencies: []string{"ghost"}}}

	_, err := c.Reason(context.Background(), "Plan a small migration", Input{PlannedSteps: planned})
	var ve *reasoning.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.StepID != "needs" || len(ve.Missing) != 1 || ve.Missing[0] != "ghost" {
		t.Errorf("validation error = %+v", ve)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s", c.State())
	}
	last := rec.sessions[len(rec.sessions)-1]
	if last.State != string(StateFailed) || last.Error == "" {
		t.Errorf("last record = %+v", last)
	}
}

func TestRun_Timeout(t *testing.T) {
	cfg := quietConfig()
	cfg.TimeoutMs = 1
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	c, _ := NewChain(cfg, WithClock(clock))

	_, err := c.Reason(context.Background(), "Plan a small migration", Input{PlannedSteps: richSteps(3)})
	var te *reasoning.TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
	if te.Limit != time.Millisecond || te.Elapsed <= te.Limit {
		t.Errorf("timeout error = %+v", te)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s", c.State())
	}
	if n := len(c.Context().PreviousSteps); n != 1 {
		t.Errorf("executed %d steps before timing out, want 1", n)
	}
}

func TestRun_Cancelled(t *testing.T) {
	c, _ := NewChain(quietConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Reason(ctx, "Plan a small migration", Input{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s", c.State())
	}
}

func TestRun_StateGuards(t *testing.T) {
	c, _ := NewChain(quietConfig())
	if _, err := c.Run(context.Background()); err == nil {
		t.Error("run before initialize should fail")
	}
	if err := c.Initialize("   ", Input{}); err == nil {
		t.Error("empty problem should fail")
	}
	if _, err := c.Reason(context.Background(), "Plan a small migration", Input{}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background()); err == nil {
		t.Error("second run should fail")
	}
}

func TestInitialize_DuplicatePlannedID(t *testing.T) {
	c, _ := NewChain(quietConfig())
	err := c.Initialize("Plan a small migration", Input{PlannedSteps: []reasoning.Step{{ID: "step_1"}}})
	if err == nil {
		t.Fatal("duplicate id should fail")
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s", c.State())
	}
}

func TestRun_ReflectionStop(t *testing.T) {
	cfg := quietConfig()
	cfg.EnableSelfReflection = true
	cfg.ReflectionInterval = 12
	cfg.ConfidenceThreshold = 0
	rec := &fakeRecorder{}
	c, _ := NewChain(cfg, WithRecorder(rec))

	_, err := c.Reason(context.Background(), "Plan a small migration", Input{PlannedSteps: bareSteps(11)})
	var ra *reasoning.ReflectionAbortError
	if !errors.As(err, &ra) {
		t.Fatalf("err = %v, want ReflectionAbortError", err)
	}
	if ra.Session.Recommendation != reasoning.RecommendStop || len(ra.Issues) == 0 {
		t.Errorf("abort = %+v", ra)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s", c.State())
	}
	if len(rec.reflections) != 1 {
		t.Errorf("recorded %d reflections, want 1", len(rec.reflections))
	}
}

func TestRun_ReflectionWindows(t *testing.T) {
	cfg := quietConfig()
	cfg.EnableSelfReflection = true
	cfg.ReflectionInterval = 3
	c, _ := NewChain(cfg)

	out, err := c.Reason(context.Background(), "Plan a small migration", Input{PlannedSteps: richSteps(5)})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Reflections) != 2 {
		t.Fatalf("reflections = %d, want 2", len(out.Reflections))
	}
	want := []reasoning.StepRange{{Start: 1, End: 3}, {Start: 4, End: 6}}
	for i, r := range out.Reflections {
		if r.StepRange != want[i] {
			t.Errorf("pass %d range = %+v, want %+v", i, r.StepRange, want[i])
		}
		if r.Recommendation != reasoning.RecommendContinue {
			t.Errorf("pass %d recommendation = %s", i, r.Recommendation)
		}
	}
	sig := c.Context().Metadata.Reflection
	if sig.Passes != 2 || sig.LastRecommendation != reasoning.RecommendContinue {
		t.Errorf("reflection signal = %+v", sig)
	}
	if !strings.Contains(strings.Join(out.EmergentInsights, "\n"), "average confidence") {
		t.Errorf("insights = %v", out.EmergentInsights)
	}
}

func TestRun_BranchingHighComplexity(t *testing.T) {
	cfg := quietConfig()
	cfg.EnableConditionalBranching = true
	dec := &fakeDecisions{}
	c, _ := NewChain(cfg, WithDecisionLogger(dec))

	out, err := c.Reason(context.Background(), hardProblem, Input{Domain: "software-engineering"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Steps) < 3 {
		t.Fatalf("executed %d steps", len(out.Steps))
	}
	if out.Steps[1].ID != "high_complexity_decomposition_1_decompose" || out.Steps[2].ID != "high_complexity_decomposition_1_integrate" {
		t.Errorf("steps after analysis: %s, %s", out.Steps[1].ID, out.Steps[2].ID)
	}
	assertDependencyOrder(t, out.Steps)

	found := false
	for _, d := range dec.got {
		if d.Source == "branching" && d.Decision == "activate high_complexity_decomposition" {
			found = d.SessionID == c.SessionID()
		}
	}
	if !found {
		t.Errorf("activation decision not logged: %+v", dec.got)
	}
	if c.Context().Metadata.Branching.Activations == 0 {
		t.Error("branching signal not written")
	}
	if !strings.Contains(strings.Join(out.EmergentInsights, "\n"), "High complexity requires sophisticated reasoning approaches") {
		t.Errorf("insights = %v", out.EmergentInsights)
	}
}

func TestReason_DefaultConfig(t *testing.T) {
	rec := &fakeRecorder{}
	cfg := config.Default()
	cfg.EnablePredictiveAdjustment = true
	c, _ := NewChain(cfg, WithRecorder(rec))

	out, err := c.Reason(context.Background(), hardProblem, Input{
		Domain:      "software-engineering",
		Constraints: []string{"p99 latency under 50ms", "no downtime"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Steps) > cfg.MaxSteps {
		t.Errorf("executed %d steps, max %d", len(out.Steps), cfg.MaxSteps)
	}
	assertDependencyOrder(t, out.Steps)
	if out.FinalComplexity < 0 || out.FinalComplexity > 1 {
		t.Errorf("final complexity = %f", out.FinalComplexity)
	}
	if out.Level != reasoning.LevelForScore(out.FinalComplexity) {
		t.Errorf("level %s does not match %.2f", out.Level, out.FinalComplexity)
	}
	if out.Prediction == nil {
		t.Error("prediction missing")
	}
	if len(rec.adjustments) != len(out.Adjustments) || len(rec.reflections) != len(out.Reflections) {
		t.Errorf("recorder saw %d adjustments, %d reflections; output has %d, %d",
			len(rec.adjustments), len(rec.reflections), len(out.Adjustments), len(out.Reflections))
	}
	if m := c.Context().Metadata.Complexity.Metrics; m.Overall <= 0 {
		t.Errorf("complexity metrics not written: %+v", m)
	}
}

func TestReason_TierStepsNotRegeneratedTwice(t *testing.T) {
	cfg := config.Default()
	cfg.EnablePredictiveAdjustment = true
	cfg.EnableMetacognition = true
	c, _ := NewChain(cfg)

	out, err := c.Reason(context.Background(), hardProblem, Input{
		Domain:      "software-engineering",
		Constraints: []string{"p99 latency under 50ms", "no downtime"},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range append(out.Steps, c.Steps()...) {
		for _, suf := range []string{"_validation", "_analyze", "_plan", "_execute", "_validate"} {
			if strings.Contains(s.ID, suf+"_") {
				t.Errorf("step %s was reshaped more than once", s.ID)
			}
		}
	}

	kinds := map[string]int{}
	for _, in := range out.EmergentInsights {
		for _, k := range []string{"extreme complexity", "high cognitive load", "long chain"} {
			if strings.HasPrefix(in, "Metacognitive alert: "+k) {
				kinds[k]++
			}
		}
	}
	for k, n := range kinds {
		if n > 1 {
			t.Errorf("alert %q reported %d times", k, n)
		}
	}
}

func TestRecordAlert_KeepsLatestPerKind(t *testing.T) {
	c, _ := NewChain(quietConfig())
	c.recordAlert(complexity.Alert{Kind: complexity.AlertLongChain, Message: "long chain (11 steps) with rising complexity"})
	c.recordAlert(complexity.Alert{Kind: complexity.AlertExtreme, Message: "extreme complexity (0.83)"})
	c.recordAlert(complexity.Alert{Kind: complexity.AlertLongChain, Message: "long chain (12 steps) with rising complexity"})

	if len(c.alerts) != 2 {
		t.Fatalf("alerts = %+v", c.alerts)
	}
	if c.alerts[0].Message != "long chain (12 steps) with rising complexity" {
		t.Errorf("first alert = %+v, want refreshed message", c.alerts[0])
	}
}

func TestClip_RuneBoundary(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"héllo wörld", 2, "h..."},
		{"日本語テキスト", 4, "日..."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := clip(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("clip(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("clip produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestApplyReflection_TightensPendingSteps(t *testing.T) {
	c, _ := NewChain(quietConfig())
	if err := c.Initialize("Plan a small migration", Input{PlannedSteps: bareSteps(2)}); err != nil {
		t.Fatal(err)
	}
	c.applyReflection(reasoning.ReflectionAdjustments{
		RequireExpectedOutputs: true,
		StrengthenVerification: true,
		EnableCrossReferencing: true,
	})
	for _, s := range c.Steps()[1:] {
		if s.ExpectedOutput == "" || !s.HasRule("accuracy") || !s.HasRule("consistency") {
			t.Errorf("step %s not tightened: %+v", s.ID, s)
		}
	}
}

func TestWithBranches_Duplicate(t *testing.T) {
	c, _ := NewChain(quietConfig(), WithBranches(reasoning.Branch{ID: "simple_path", Enabled: true}))
	if err := c.Initialize("Plan a small migration", Input{}); err == nil {
		t.Error("duplicate branch id should fail")
	}
}

package branching

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

func complexityBranch(id string, priority int, threshold float64) reasoning.Branch {
	return reasoning.Branch{
		ID:        id,
		Condition: "complexity above threshold",
		Conditions: []reasoning.Condition{
			{Source: reasoning.SourceComplexity, Operator: reasoning.OpGt, Target: threshold},
		},
		Priority: priority,
		Enabled:  true,
		StepTemplates: []reasoning.StepTemplate{
			{Key: "a", Description: "first {domain}", Dependencies: []string{"{current}"}},
			{Key: "b", Description: "second at {complexity}", Dependencies: []string{"{previous}"}},
		},
	}
}

func newCtx(complexity float64) *reasoning.Context {
	rc := reasoning.NewContext("", nil, nil)
	rc.Complexity = complexity
	cur := reasoning.Step{ID: "step_1", Order: 1}
	rc.CurrentStep = &cur
	return rc
}

func TestEvaluate_ActivatesOnce(t *testing.T) {
	e := NewEngine(DefaultConfig())
	if err := e.Register(complexityBranch("hc", 10, 0.7)); err != nil {
		t.Fatal(err)
	}
	rc := newCtx(0.8)

	res, err := e.Evaluate(rc)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(res.Activated) != 1 || res.Activated[0].BranchID != "hc" {
		t.Fatalf("activated = %+v, want hc", res.Activated)
	}
	if len(res.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(res.Steps))
	}

	res, err = e.Evaluate(rc)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(res.Activated) != 0 || len(res.Steps) != 0 {
		t.Errorf("branch re-activated while already active: %+v", res.Activated)
	}
	if got := e.ActiveBranches(); len(got) != 1 || got[0] != "hc" {
		t.Errorf("active = %v, want [hc]", got)
	}
}

func TestEvaluate_LapsedBranchCanFireAgain(t *testing.T) {
	e := NewEngine(DefaultConfig())
	_ = e.Register(complexityBranch("hc", 10, 0.7))
	rc := newCtx(0.8)

	if _, err := e.Evaluate(rc); err != nil {
		t.Fatal(err)
	}
	rc.Complexity = 0.2
	res, err := e.Evaluate(rc)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Deactivated) != 1 {
		t.Fatalf("deactivated = %+v, want hc", res.Deactivated)
	}
	rc.Complexity = 0.9
	res, err = e.Evaluate(rc)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Steps) != 2 || !strings.HasPrefix(res.Steps[0].ID, "hc_2_") {
		t.Errorf("second activation steps = %+v", res.Steps)
	}
}

func TestEvaluate_NeverExceedsMaxActive(t *testing.T) {
	for _, resolve := range []bool{true, false} {
		cfg := DefaultConfig()
		cfg.MaxActiveBranches = 2
		cfg.EnableConflictResolution = resolve
		e := NewEngine(cfg)
		for i, id := range []string{"a", "b", "c", "d", "e"} {
			_ = e.Register(complexityBranch(id, i, 0.1))
		}
		rc := newCtx(0.9)
		for pass := 0; pass < 4; pass++ {
			if _, err := e.Evaluate(rc); err != nil {
				t.Fatal(err)
			}
			if n := len(e.ActiveBranches()); n > cfg.MaxActiveBranches {
				t.Fatalf("resolve=%v pass %d: %d active, max %d", resolve, pass, n, cfg.MaxActiveBranches)
			}
		}
	}
}

func TestEvaluate_ConflictResolutionKeepsHighestPriority(t *testing.T) {
	e := NewEngine(DefaultConfig())
	_ = e.Register(complexityBranch("low", 1, 0.5))
	_ = e.Register(complexityBranch("high", 9, 0.5))

	res, err := e.Evaluate(newCtx(0.8))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Activated) != 1 || res.Activated[0].BranchID != "high" {
		t.Fatalf("activated = %+v, want high", res.Activated)
	}
	for _, s := range res.Steps {
		if strings.HasPrefix(s.ID, "low_") {
			t.Errorf("loser step %s was not retracted", s.ID)
		}
	}
	if len(res.Deactivated) != 1 || res.Deactivated[0].BranchID != "low" {
		t.Errorf("deactivated = %+v, want low", res.Deactivated)
	}
}

func TestEvaluate_Cadence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EvaluationInterval = 3
	e := NewEngine(cfg)
	_ = e.Register(complexityBranch("hc", 1, 0.1))
	rc := newCtx(0.9)

	for i := 1; i <= 3; i++ {
		res, err := e.Evaluate(rc)
		if err != nil {
			t.Fatal(err)
		}
		if want := i != 3; res.Skipped != want {
			t.Errorf("call %d: skipped=%v, want %v", i, res.Skipped, want)
		}
	}
}

func TestEvaluate_ErrorLeavesRegistryUntouched(t *testing.T) {
	e := NewEngine(DefaultConfig())
	_ = e.Register(complexityBranch("good", 10, 0.1))
	_ = e.Register(reasoning.Branch{
		ID:      "broken",
		Enabled: true,
		Conditions: []reasoning.Condition{
			{Source: reasoning.SourceCustom, Operator: reasoning.OpEq, Target: true},
		},
	})

	if _, err := e.Evaluate(newCtx(0.9)); err == nil {
		t.Fatal("expected error from custom condition without evaluator")
	}
	if got := e.ActiveBranches(); len(got) != 0 {
		t.Errorf("active after failed pass = %v, want none", got)
	}
	if len(e.History()) != 0 {
		t.Errorf("history recorded on failed pass")
	}
}

func TestEvaluate_PlaceholdersAndDependencies(t *testing.T) {
	e := NewEngine(DefaultConfig())
	_ = e.Register(complexityBranch("hc", 1, 0.1))
	rc := newCtx(0.9)
	rc.Domain = "finance"

	res, err := e.Evaluate(rc)
	if err != nil {
		t.Fatal(err)
	}
	first, second := res.Steps[0], res.Steps[1]
	if first.Description != "first finance" {
		t.Errorf("description = %q", first.Description)
	}
	if second.Description != "second at 0.90" {
		t.Errorf("description = %q", second.Description)
	}
	if len(first.Dependencies) != 1 || first.Dependencies[0] != "step_1" {
		t.Errorf("first deps = %v, want [step_1]", first.Dependencies)
	}
	if len(second.Dependencies) != 1 || second.Dependencies[0] != first.ID {
		t.Errorf("second deps = %v, want [%s]", second.Dependencies, first.ID)
	}
}

func TestEvaluate_DynamicBranchesAreStable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableDynamicGeneration = true
	cfg.EnableConflictResolution = false

	run := func() []string {
		e := NewEngine(cfg)
		rc := newCtx(0.9)
		rc.Domain = "medicine"
		res, err := e.Evaluate(rc)
		if err != nil {
			t.Fatal(err)
		}
		return res.Generated
	}

	a, b := run(), run()
	if len(a) != 2 {
		t.Fatalf("generated = %v, want 2 branches", a)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("dynamic id %d differs across runs: %s vs %s", i, a[i], b[i])
		}
		if !strings.HasPrefix(a[i], "dynamic_") {
			t.Errorf("id %s lacks dynamic_ prefix", a[i])
		}
	}

	e := NewEngine(cfg)
	rc := newCtx(0.9)
	rc.Domain = "medicine"
	_, _ = e.Evaluate(rc)
	res, _ := e.Evaluate(rc)
	if len(res.Generated) != 0 {
		t.Errorf("same pattern registered twice: %v", res.Generated)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	e := NewEngine(DefaultConfig())
	if err := RegisterDefaults(e); err != nil {
		t.Fatal(err)
	}
	if err := e.Register(reasoning.Branch{ID: "simple_path"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if len(e.Branches()) != len(DefaultBranches()) {
		t.Errorf("registry size = %d", len(e.Branches()))
	}
}

func TestDefaultBranches_ReflectionReview(t *testing.T) {
	e := NewEngine(DefaultConfig())
	_ = RegisterDefaults(e)
	rc := newCtx(0.5)
	rc.Metadata.Reflection.Adjustments.IncreaseValidation = true

	res, err := e.Evaluate(rc)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Activated) != 1 || res.Activated[0].BranchID != "reflection_review" {
		t.Errorf("activated = %+v, want reflection_review", res.Activated)
	}
}

func TestDefaultBranches_NoErrors(t *testing.T) {
	e := NewEngine(DefaultConfig())
	_ = RegisterDefaults(e)
	rc := reasoning.NewContext("software-engineering", []string{"O(n)"}, map[string]string{"k": "v"})
	rc.Complexity = 0.75
	res, err := e.Evaluate(rc)
	if err != nil {
		t.Fatalf("default branches failed: %v", err)
	}
	// Conflict resolution leaves only the highest-priority winner.
	if len(res.Activated) != 1 || res.Activated[0].BranchID != "high_complexity_decomposition" {
		t.Errorf("activated = %+v", res.Activated)
	}
}

package branching

import (
	"testing"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		actual  any
		op      reasoning.Operator
		target  any
		want    bool
		wantErr bool
	}{
		{"eq-numeric-mixed", 3, reasoning.OpEq, 3.0, true, false},
		{"eq-string", "finance", reasoning.OpEq, "finance", true, false},
		{"ne-string", "finance", reasoning.OpNe, "general", true, false},
		{"gt", 0.8, reasoning.OpGt, 0.7, true, false},
		{"gt-equal", 0.7, reasoning.OpGt, 0.7, false, false},
		{"gte-equal", 0.7, reasoning.OpGte, 0.7, true, false},
		{"lt", 0.1, reasoning.OpLt, 0.3, true, false},
		{"lte-numeric-string", "5", reasoning.OpLte, 5, true, false},
		{"gt-non-numeric", "abc", reasoning.OpGt, 1, false, true},
		{"contains-string", "optimize the graph", reasoning.OpContains, "graph", true, false},
		{"contains-slice", []string{"a", "b"}, reasoning.OpContains, "b", true, false},
		{"contains-slice-miss", []string{"a", "b"}, reasoning.OpContains, "c", false, false},
		{"matches", "software-engineering", reasoning.OpMatches, "^soft", true, false},
		{"matches-bad-pattern", "x", reasoning.OpMatches, "(", false, true},
		{"matches-non-string", "x", reasoning.OpMatches, 3, false, true},
		{"nil-ne", nil, reasoning.OpNe, "x", true, false},
		{"nil-gt", nil, reasoning.OpGt, 1, false, false},
		{"bool-eq", true, reasoning.OpEq, true, true, false},
		{"unknown-op", 1, reasoning.Operator("approx"), 1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.actual, tt.op, tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSatisfied_Logic(t *testing.T) {
	rc := reasoning.NewContext("finance", nil, map[string]string{"mode": "strict"})
	rc.Complexity = 0.6

	yes := reasoning.Condition{Source: reasoning.SourceDomain, Operator: reasoning.OpEq, Target: "finance"}
	no := reasoning.Condition{Source: reasoning.SourceComplexity, Operator: reasoning.OpGt, Target: 0.9}

	tests := []struct {
		name  string
		logic reasoning.Logic
		conds []reasoning.Condition
		want  bool
	}{
		{"and-default", "", []reasoning.Condition{yes, no}, false},
		{"and-all", reasoning.LogicAnd, []reasoning.Condition{yes, yes}, true},
		{"or", reasoning.LogicOr, []reasoning.Condition{no, yes}, true},
		{"or-none", reasoning.LogicOr, []reasoning.Condition{no, no}, false},
		{"not", reasoning.LogicNot, []reasoning.Condition{no}, true},
		{"not-any", reasoning.LogicNot, []reasoning.Condition{no, yes}, false},
		{"empty", reasoning.LogicOr, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Satisfied(reasoning.Branch{Logic: tt.logic, Conditions: tt.conds}, rc)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := Satisfied(reasoning.Branch{Logic: "xor", Conditions: []reasoning.Condition{yes}}, rc); err == nil {
		t.Error("expected error for unknown logic")
	}
}

func TestEvaluateCondition_MetadataNamespaces(t *testing.T) {
	rc := reasoning.NewContext("", nil, map[string]string{"mode": "strict"})
	rc.Metadata.MergeFacts(map[string]string{"mode": "loose"})

	input := reasoning.Condition{
		Source: reasoning.SourceMetadata, Namespace: reasoning.NamespaceInput, Field: "mode",
		Operator: reasoning.OpEq, Target: "strict",
	}
	step := input
	step.Namespace = reasoning.NamespaceStep

	if ok, err := EvaluateCondition(input, rc); err != nil || !ok {
		t.Errorf("input namespace: ok=%v err=%v", ok, err)
	}
	if ok, err := EvaluateCondition(step, rc); err != nil || ok {
		t.Errorf("step namespace should read its own value: ok=%v err=%v", ok, err)
	}

	missing := input
	missing.Field = "absent"
	missing.Operator = reasoning.OpNe
	if ok, err := EvaluateCondition(missing, rc); err != nil || !ok {
		t.Errorf("missing field with ne: ok=%v err=%v", ok, err)
	}
}

func TestEvaluateCondition_StepCount(t *testing.T) {
	rc := reasoning.NewContext("", nil, nil)
	rc.PreviousSteps = make([]reasoning.Step, 5)
	c := reasoning.Condition{Source: reasoning.SourceStepCount, Operator: reasoning.OpGte, Target: 5}
	if ok, err := EvaluateCondition(c, rc); err != nil || !ok {
		t.Errorf("step count: ok=%v err=%v", ok, err)
	}
}

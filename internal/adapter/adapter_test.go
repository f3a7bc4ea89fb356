package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

type mockAdapter struct {
	reply Completion
	err   error
	req   Request
}

func (m *mockAdapter) Name() string { return "anthropic" }

func (m *mockAdapter) Complete(_ context.Context, req Request) (Completion, error) {
	m.req = req
	return m.reply, m.err
}

var step = reasoning.Step{
	ID:              "step_4",
	Description:     "Estimate the cost of the migration",
	ExpectedOutput:  "Cost estimate with assumptions",
	ValidationRules: []string{"accuracy", "completeness"},
}

func TestBuildPrompt(t *testing.T) {
	rc := reasoning.NewContext("finance", []string{"budget under 50k", "no downtime"}, nil)
	rc.Complexity = 0.65
	for i := 1; i <= 7; i++ {
		rc.PreviousSteps = append(rc.PreviousSteps, reasoning.Step{ID: "p" + string(rune('0'+i)), Description: "previous work"})
	}
	rc.Metadata.MergeFacts(map[string]string{"owner": "ops"})

	p := BuildPrompt(step, rc)
	for _, want := range []string{
		"Domain: finance",
		"Complexity: high (0.65)",
		"Constraints: budget under 50k; no downtime",
		"- owner: ops",
		"Step step_4: Estimate the cost of the migration",
		"Expected output: Cost estimate with assumptions",
		"checked for: accuracy, completeness",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	// Only the last five completed steps are shown.
	if strings.Contains(p, "[p2]") || !strings.Contains(p, "[p3]") || !strings.Contains(p, "[p7]") {
		t.Errorf("history window wrong:\n%s", p)
	}
}

func TestBuildPrompt_NoContext(t *testing.T) {
	p := BuildPrompt(reasoning.Step{ID: "s", Description: "Do it"}, nil)
	if strings.Contains(p, "Domain:") || !strings.Contains(p, "Step s: Do it") {
		t.Errorf("prompt = %q", p)
	}
}

func TestExecutor_DefaultModelAndData(t *testing.T) {
	m := &mockAdapter{reply: Completion{Text: "  About 42k including contingency.  "}}
	e := NewExecutor(m, "")

	out, err := e.Execute(context.Background(), step, reasoning.NewContext("", nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if m.req.Model != DefaultModels["anthropic"] {
		t.Errorf("model = %q", m.req.Model)
	}
	if m.req.System != systemPrompt || m.req.MaxTokens != DefaultMaxTokens {
		t.Errorf("request = %+v", m.req)
	}
	if !strings.Contains(m.req.Prompt, "Step step_4:") {
		t.Errorf("prompt = %q", m.req.Prompt)
	}
	if out.Outcome != "About 42k including contingency." {
		t.Errorf("outcome = %q", out.Outcome)
	}
	if out.Data["last_step"] != "step_4" || out.Data["step_4.model"] != "anthropic/"+DefaultModels["anthropic"] {
		t.Errorf("data = %v", out.Data)
	}
	if _, ok := out.Data["step_4.tokens"]; ok {
		t.Errorf("tokens recorded without usage: %v", out.Data)
	}
}

func TestExecutor_RecordsCompletionFacts(t *testing.T) {
	tests := []struct {
		name  string
		reply Completion
		want  map[string]string
	}{
		{
			name:  "reported model and usage",
			reply: Completion{Text: "ok", Model: "claude-x-0501", Finish: "end_turn", InputTokens: 812, OutputTokens: 64},
			want: map[string]string{
				"step_4.model":  "anthropic/claude-x-0501",
				"step_4.tokens": "812/64",
				"step_4.finish": "end_turn",
			},
		},
		{
			name:  "anthropic cap",
			reply: Completion{Text: "partial", Finish: "max_tokens", OutputTokens: 4096},
			want:  map[string]string{"step_4.model": "anthropic/claude-x", "step_4.truncated": "true"},
		},
		{
			name:  "openai cap",
			reply: Completion{Text: "partial", Finish: "length"},
			want:  map[string]string{"step_4.truncated": "true"},
		},
		{
			name:  "google cap",
			reply: Completion{Text: "partial", Finish: "MAX_TOKENS"},
			want:  map[string]string{"step_4.truncated": "true"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExecutor(&mockAdapter{reply: tt.reply}, "claude-x")
			out, err := e.Execute(context.Background(), step, nil)
			if err != nil {
				t.Fatal(err)
			}
			for k, v := range tt.want {
				if out.Data[k] != v {
					t.Errorf("%s = %q, want %q (data %v)", k, out.Data[k], v, out.Data)
				}
			}
			if tt.reply.Finish == "end_turn" && out.Data["step_4.truncated"] != "" {
				t.Errorf("complete reply marked truncated: %v", out.Data)
			}
		})
	}
}

func TestExecutor_Error(t *testing.T) {
	boom := errors.New("rate limited")
	e := NewExecutor(&mockAdapter{err: boom}, "claude-x")
	_, err := e.Execute(context.Background(), step, nil)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		key      string
		wantErr  bool
	}{
		{"anthropic", "k", false},
		{"openai", "k", false},
		{"anthropic", "", true},
		{"openai", "", true},
		{"google", "", true},
		{"mystery", "k", true},
	}
	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.key, func(t *testing.T) {
			a, err := New(tt.provider, tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && a.Name() != tt.provider {
				t.Errorf("name = %q", a.Name())
			}
		})
	}
}

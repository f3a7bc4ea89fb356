package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// scriptedExecutor returns one scripted reply per call and records the
// descriptions it was asked to execute.
type scriptedExecutor struct {
	replies []string
	errs    []error
	seen    []string
}

func (s *scriptedExecutor) Execute(_ context.Context, step reasoning.Step, _ *reasoning.Context) (reasoning.StepOutcome, error) {
	i := len(s.seen)
	s.seen = append(s.seen, step.Description)
	if i < len(s.errs) && s.errs[i] != nil {
		return reasoning.StepOutcome{}, s.errs[i]
	}
	reply := ""
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	return reasoning.StepOutcome{Outcome: reply}, nil
}

func TestRetryExecutor_GoodOutcomeNoRetry(t *testing.T) {
	inner := &scriptedExecutor{replies: []string{goodOutcome}}
	out, err := NewRetryExecutor(inner, -1).Execute(context.Background(), costStep, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Outcome != goodOutcome {
		t.Errorf("outcome = %q", out.Outcome)
	}
	if len(inner.seen) != 1 {
		t.Errorf("attempts = %d, want 1", len(inner.seen))
	}
}

func TestRetryExecutor_ReframesOnFailure(t *testing.T) {
	inner := &scriptedExecutor{replies: []string{"I cannot help with that.", goodOutcome}}
	out, err := NewRetryExecutor(inner, 2).Execute(context.Background(), costStep, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Outcome != goodOutcome {
		t.Errorf("outcome = %q", out.Outcome)
	}
	if len(inner.seen) != 2 {
		t.Fatalf("attempts = %d, want 2", len(inner.seen))
	}
	if !strings.HasPrefix(inner.seen[1], "Respond directly to: ") {
		t.Errorf("retry not reframed: %q", inner.seen[1])
	}
}

func TestRetryExecutor_MaxRetries(t *testing.T) {
	inner := &scriptedExecutor{replies: []string{"I cannot help with that.", "", ""}}
	out, err := NewRetryExecutor(inner, 2).Execute(context.Background(), costStep, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(inner.seen) != 3 {
		t.Errorf("attempts = %d, want 3", len(inner.seen))
	}
	// Best of the failed attempts wins.
	if out.Outcome != "I cannot help with that." {
		t.Errorf("outcome = %q", out.Outcome)
	}
}

func TestRetryExecutor_AllErrors(t *testing.T) {
	boom := errors.New("backend down")
	inner := &scriptedExecutor{errs: []error{boom, boom}}
	_, err := NewRetryExecutor(inner, 1).Execute(context.Background(), costStep, nil)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped backend error", err)
	}
}

func TestEchoExecutor(t *testing.T) {
	out, err := EchoExecutor{}.Execute(context.Background(), costStep, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Outcome, costStep.Description) || out.Data["last_step"] != "cost" {
		t.Errorf("outcome = %+v", out)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (EchoExecutor{}).Execute(ctx, costStep, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// Package adapter turns hosted LLM APIs into step executors for the
// reasoning chain.
package adapter

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region interface

// Request is one prompt sent to a provider.
type Request struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// Completion is a provider reply reduced to what the chain records.
type Completion struct {
	Text         string
	Model        string // model that answered, when the provider reports it
	Finish       string // provider stop or finish reason
	InputTokens  int64
	OutputTokens int64
}

// Adapter is one LLM provider.
type Adapter interface {
	// Complete sends a request to the model and returns its reply.
	Complete(ctx context.Context, req Request) (Completion, error)

	// Name returns the adapter's identifier.
	Name() string
}

// DefaultMaxTokens caps each step's reply.
const DefaultMaxTokens = 4096

// truncatedFinish lists the finish reasons each provider uses for a reply
// cut off by the token cap.
var truncatedFinish = map[string]bool{
	"max_tokens": true, // anthropic
	"length":     true, // openai
	"MAX_TOKENS": true, // google
}

// DefaultModels is used when the configuration leaves the model empty.
var DefaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-20250514",
	"openai":    "gpt-4o-mini",
	"google":    "gemini-2.0-flash",
}

// New builds the adapter for provider.
func New(provider, apiKey string) (Adapter, error) {
	switch strings.ToLower(provider) {
	case "anthropic":
		return NewAnthropicAdapter(apiKey)
	case "openai":
		return NewOpenAIAdapter(apiKey)
	case "google":
		return NewGoogleAdapter(apiKey)
	}
	return nil, fmt.Errorf("unknown adapter %q", provider)
}

// #endregion interface

// #region executor

// Executor runs reasoning steps through an Adapter.
type Executor struct {
	adapter   Adapter
	model     string
	maxTokens int
}

// NewExecutor binds an adapter to a model. An empty model uses the
// provider default.
func NewExecutor(a Adapter, model string) *Executor {
	if model == "" {
		model = DefaultModels[a.Name()]
	}
	return &Executor{adapter: a, model: model, maxTokens: DefaultMaxTokens}
}

// Execute prompts the model with the step and its session context. The
// answering model, token usage and finish reason are recorded as facts
// keyed by step id.
func (e *Executor) Execute(ctx context.Context, step reasoning.Step, rc *reasoning.Context) (reasoning.StepOutcome, error) {
	c, err := e.adapter.Complete(ctx, Request{
		Model:     e.model,
		System:    systemPrompt,
		Prompt:    BuildPrompt(step, rc),
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return reasoning.StepOutcome{}, fmt.Errorf("%s step %s: %w", e.adapter.Name(), step.ID, err)
	}

	model := c.Model
	if model == "" {
		model = e.model
	}
	data := map[string]string{
		"last_step":        step.ID,
		step.ID + ".model": e.adapter.Name() + "/" + model,
	}
	if c.InputTokens > 0 || c.OutputTokens > 0 {
		data[step.ID+".tokens"] = fmt.Sprintf("%d/%d", c.InputTokens, c.OutputTokens)
	}
	if c.Finish != "" {
		data[step.ID+".finish"] = c.Finish
	}
	if truncatedFinish[c.Finish] {
		data[step.ID+".truncated"] = "true"
		log.Printf("[ADAPTER] %s step %s: reply cut at %d tokens", e.adapter.Name(), step.ID, e.maxTokens)
	}
	return reasoning.StepOutcome{Outcome: strings.TrimSpace(c.Text), Data: data}, nil
}

// #endregion executor

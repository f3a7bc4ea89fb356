package adapter

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GoogleAdapter implements the Adapter interface for Gemini models.
type GoogleAdapter struct {
	client *genai.Client
}

// NewGoogleAdapter creates a new Google Gemini adapter.
func NewGoogleAdapter(apiKey string) (*GoogleAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}
	return &GoogleAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *GoogleAdapter) Name() string {
	return "google"
}

// Complete sends a request to Gemini and joins the first candidate's parts.
func (a *GoogleAdapter) Complete(ctx context.Context, req Request) (Completion, error) {
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	resp, err := a.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return Completion{}, fmt.Errorf("google API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return Completion{}, fmt.Errorf("google returned no candidates")
	}

	cand := resp.Candidates[0]
	var text strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
	}
	c := Completion{
		Text:   text.String(),
		Model:  resp.ModelVersion,
		Finish: string(cand.FinishReason),
	}
	if u := resp.UsageMetadata; u != nil {
		c.InputTokens = int64(u.PromptTokenCount)
		c.OutputTokens = int64(u.CandidatesTokenCount)
	}
	return c, nil
}

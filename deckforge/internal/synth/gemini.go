package synth

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// TextModel produces a single text completion for a prompt.
type TextModel interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// GeminiModel talks to the Gemini API. A fresh client is built per call
// because the API key can change between syntheses.
type GeminiModel struct {
	apiKey string
}

func NewGeminiModel(apiKey string) *GeminiModel {
	return &GeminiModel{apiKey: apiKey}
}

func (g *GeminiModel) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("synth: gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("synth: generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("synth: generate: empty response")
	}
	return text, nil
}

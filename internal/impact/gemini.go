package impact

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiNarrator generates messages with Google Gemini
type GeminiNarrator struct {
	client *genai.Client
	model  string
}

// NewGeminiNarrator creates a Gemini-backed Narrator
func NewGeminiNarrator(ctx context.Context, apiKey, model string) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiNarrator{client: client, model: model}, nil
}

// Narrate implements Narrator
func (g *GeminiNarrator) Narrate(ctx context.Context, s Summary) (string, error) {
	model := g.client.GenerativeModel(g.model)

	res, err := model.GenerateContent(ctx, genai.Text(Prompt(s)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var b strings.Builder
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		// first candidate only
		break
	}

	return b.String(), nil
}

// Close releases the underlying client
func (g *GeminiNarrator) Close() error {
	return g.client.Close()
}

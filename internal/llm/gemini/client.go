package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"resume-feedback/internal/llm"
)

const defaultModel = "gemini-2.0-flash"

// Generator implements llm.Generator with the Google GenAI client.
type Generator struct {
	client    *genai.Client
	modelName string
	config    *genai.GenerateContentConfig
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	temp := float32(0.2)
	return &Generator{
		client:    client,
		modelName: model,
		config:    &genai.GenerateContentConfig{Temperature: &temp},
	}, nil
}

// Generate sends the prompt to Gemini and joins the textual parts of every candidate.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	output := joinCandidateText(resp)
	if output == "" {
		return "", fmt.Errorf("gemini: %w", llm.ErrEmptyResponse)
	}
	return output, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func joinCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

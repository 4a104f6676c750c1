package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"
)

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), "  ", ""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestJoinCandidateText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{{Text: " first "}, nil, {Text: ""}}}},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "second"}}}},
		},
	}
	if got := joinCandidateText(resp); got != "first\nsecond" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := joinCandidateText(nil); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

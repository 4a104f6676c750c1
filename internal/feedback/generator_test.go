package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resume-feedback/internal/llm"
	"resume-feedback/internal/prompts"
)

type stubInvoker struct {
	out     string
	err     error
	prompts []string
}

func (s *stubInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.out, s.err
}

func loadRegistry(t *testing.T) *prompts.Registry {
	t.Helper()
	reg, err := prompts.Load("")
	if err != nil {
		t.Fatalf("prompts.Load: %v", err)
	}
	return reg
}

func sampleContent() map[string]any {
	return map[string]any{
		"summary": "Backend engineer",
		"skills": map[string]any{
			"hard_skills": []any{"Go", "SQL"},
			"soft_skills": nil,
		},
		"relevant_work_experience": []any{map[string]any{"company": "Acme"}},
		"education":                nil,
		"languages":                []any{"Spanish"},
	}
}

func TestAnalysisVars(t *testing.T) {
	vars := AnalysisVars(sampleContent())
	if vars["Hard_Skills"] != "Go, SQL" {
		t.Fatalf("unexpected hard skills %q", vars["Hard_Skills"])
	}
	if vars["Soft_Skills"] != "None specified" {
		t.Fatalf("unexpected soft skills %q", vars["Soft_Skills"])
	}
	if vars["Education"] != "null" {
		t.Fatalf("unexpected education %q", vars["Education"])
	}
	if !strings.Contains(vars["Work_Experience"], "\n  {") {
		t.Fatalf("expected indented work experience, got %q", vars["Work_Experience"])
	}
}

func TestGenerateParsesFencedJSON(t *testing.T) {
	inv := &stubInvoker{out: "```json\n{\"sections\":{\"summary\":{\"feedback\":\"ok\",\"example\":\"x\"}}}\n```"}
	gen := NewGenerator(loadRegistry(t), inv)

	res := gen.Generate(context.Background(), sampleContent())
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if _, ok := res.Sections()["summary"]; !ok {
		t.Fatalf("expected summary section, got %v", res.Feedback)
	}
	if !strings.Contains(inv.prompts[0], "Hard skills: Go, SQL") {
		t.Fatalf("prompt missing skills: %s", inv.prompts[0])
	}
}

func TestGenerateReturnsErrorObject(t *testing.T) {
	t.Run("unparseable", func(t *testing.T) {
		gen := NewGenerator(loadRegistry(t), &stubInvoker{out: "not json at all"})
		res := gen.Generate(context.Background(), sampleContent())
		if !res.Failed() || !errors.Is(res.Err, llm.ErrMalformedResponse) {
			t.Fatalf("expected malformed failure, got %+v", res)
		}
		doc := res.Document()
		if doc["raw_response"] != "not json at all" {
			t.Fatalf("expected raw_response, got %v", doc)
		}
		if doc["error"] == "" || doc["timestamp"] == "" {
			t.Fatalf("expected error and timestamp, got %v", doc)
		}
	})
	t.Run("invoke error", func(t *testing.T) {
		gen := NewGenerator(loadRegistry(t), &stubInvoker{err: llm.ErrRateLimitExceeded})
		res := gen.Generate(context.Background(), sampleContent())
		if !errors.Is(res.Err, llm.ErrRateLimitExceeded) {
			t.Fatalf("expected rate limit failure, got %v", res.Err)
		}
		if _, ok := res.Document()["raw_response"]; ok {
			t.Fatalf("did not expect raw_response on invoke failure")
		}
	})
}

func TestQuestions(t *testing.T) {
	gen := NewGenerator(loadRegistry(t), &stubInvoker{out: `{"questions":["¿Fechas?", "  ", "¿Logros?"]}`})
	qs, err := gen.Questions(context.Background(), sampleContent())
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(qs) != 2 || qs[1] != "¿Logros?" {
		t.Fatalf("unexpected questions %v", qs)
	}
}

func TestPolishEmailStripsFences(t *testing.T) {
	gen := NewGenerator(loadRegistry(t), &stubInvoker{out: "```\nHola Ana\n```"})
	body, err := gen.PolishEmail(context.Background(), map[string]any{"sections": map[string]any{}})
	if err != nil {
		t.Fatalf("PolishEmail: %v", err)
	}
	if body != "Hola Ana" {
		t.Fatalf("unexpected body %q", body)
	}
}

package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-feedback/internal/llm"
	"resume-feedback/internal/prompts"
	"resume-feedback/internal/shared/telemetry"
)

const noneSpecified = "None specified"

// Invoker sends a prompt to the model with the retry policy applied.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Result is either a parsed feedback tree or a failure record.
type Result struct {
	// Feedback holds email_intro, sections and closing as returned by the model.
	Feedback    map[string]any
	Error       string
	RawResponse string
	Timestamp   time.Time
	Err         error
}

// Failed reports whether generation produced an error object instead of feedback.
func (r Result) Failed() bool {
	return r.Err != nil || r.Feedback == nil
}

// Document is the JSON shape persisted for this result.
func (r Result) Document() map[string]any {
	if !r.Failed() {
		return r.Feedback
	}
	doc := map[string]any{
		"error":     r.Error,
		"timestamp": r.Timestamp.Format(time.RFC3339),
	}
	if r.RawResponse != "" {
		doc["raw_response"] = r.RawResponse
	}
	return doc
}

// Sections returns the per-section feedback map.
func (r Result) Sections() map[string]any {
	return SectionsOf(r.Feedback)
}

// SectionsOf finds the section map inside a stored feedback tree.
func SectionsOf(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}
	if s, ok := tree["sections"].(map[string]any); ok {
		return s
	}
	if gf, ok := tree["general_feedback"].(map[string]any); ok {
		return SectionsOf(gf)
	}
	return nil
}

type Generator struct {
	prompts *prompts.Registry
	invoker Invoker
	now     func() time.Time
}

func NewGenerator(reg *prompts.Registry, invoker Invoker) *Generator {
	return &Generator{
		prompts: reg,
		invoker: invoker,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Generate asks the model for feedback on a stored section tree. Failures are
// reported inside the Result rather than as an error.
func (g *Generator) Generate(ctx context.Context, content map[string]any) Result {
	prompt, err := g.prompts.Format(prompts.KeyResumeAnalysis, AnalysisVars(content))
	if err != nil {
		return g.failure(err, "")
	}

	raw, err := g.invoker.Invoke(ctx, prompt)
	if err != nil {
		telemetry.Error("feedback.generate_failed", map[string]any{"error": err})
		return g.failure(err, "")
	}

	tree, err := llm.NormalizeObject(raw)
	if err != nil {
		telemetry.Warn("feedback.response_not_json", map[string]any{
			"preview": telemetry.Truncate(raw, 300),
		})
		return g.failure(fmt.Errorf("failed to parse model response as JSON: %w", err), raw)
	}
	return Result{Feedback: tree, Timestamp: g.now()}
}

func (g *Generator) failure(err error, raw string) Result {
	return Result{
		Error:       err.Error(),
		RawResponse: raw,
		Timestamp:   g.now(),
		Err:         err,
	}
}

// Questions asks the model for clarifying questions about a section tree.
func (g *Generator) Questions(ctx context.Context, content map[string]any) ([]string, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, err
	}
	prompt, err := g.prompts.Format(prompts.KeyQuestionsForUsers, map[string]string{"resume_data": string(data)})
	if err != nil {
		return nil, err
	}
	raw, err := g.invoker.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}
	tree, err := llm.NormalizeObject(raw)
	if err != nil {
		return nil, err
	}
	items, _ := tree["questions"].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("model returned no questions")
	}
	return out, nil
}

// PolishEmail rewrites a feedback tree into a plain-text email body with the model.
func (g *Generator) PolishEmail(ctx context.Context, tree map[string]any) (string, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return "", err
	}
	prompt, err := g.prompts.Format(prompts.KeyEmailFormat, map[string]string{"json_api_response": string(data)})
	if err != nil {
		return "", err
	}
	out, err := g.invoker.Invoke(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(llm.StripFences(out)), nil
}

// AnalysisVars builds the resume_analysis placeholders from an extracted section tree.
func AnalysisVars(content map[string]any) map[string]string {
	skills, _ := content["skills"].(map[string]any)
	return map[string]string{
		"Summary":         scalarString(content["summary"]),
		"Hard_Skills":     joinSkills(skills["hard_skills"]),
		"Soft_Skills":     joinSkills(skills["soft_skills"]),
		"Work_Experience": indentJSON(content["relevant_work_experience"]),
		"Education":       indentJSON(content["education"]),
		"Languages":       indentJSON(content["languages"]),
	}
}

func joinSkills(v any) string {
	items, _ := v.([]any)
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(scalarString(item)); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return noneSpecified
	}
	return strings.Join(parts, ", ")
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(data)
}

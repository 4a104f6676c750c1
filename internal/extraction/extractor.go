package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"resume-feedback/internal/llm"
	"resume-feedback/internal/prompts"
	"resume-feedback/internal/shared/telemetry"
)

// Invoker sends a prompt to the model with the retry policy applied.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Result is a validated section tree.
type Result map[string]any

// Extractor turns resume text into a validated section tree.
type Extractor struct {
	prompts *prompts.Registry
	invoker Invoker
	schema  *gojsonschema.Schema
}

// NewExtractor builds an extractor validating against ResumeSchema.
func NewExtractor(reg *prompts.Registry, invoker Invoker) (*Extractor, error) {
	return NewExtractorWithSchema(reg, invoker, ResumeSchema)
}

// NewExtractorWithSchema builds an extractor for a custom schema.
func NewExtractorWithSchema(reg *prompts.Registry, invoker Invoker, schema Schema) (*Extractor, error) {
	compiled, err := schema.Compile()
	if err != nil {
		return nil, err
	}
	return &Extractor{prompts: reg, invoker: invoker, schema: compiled}, nil
}

// Extract runs the prompt identified by promptKey over resumeText.
func (e *Extractor) Extract(ctx context.Context, resumeText, promptKey string) (Result, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, ErrInputEmpty
	}
	prompt, err := e.prompts.Format(promptKey, map[string]string{"resume_data": resumeText})
	if err != nil {
		return nil, err
	}

	raw, err := e.invoker.Invoke(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract sections: %w", err)
	}

	obj, err := llm.NormalizeObject(raw)
	if err != nil {
		telemetry.Warn("extraction response not json", map[string]any{
			"prompt_key": promptKey,
			"preview":    telemetry.Truncate(raw, 300),
		})
		return nil, fmt.Errorf("extract sections: %w", err)
	}

	if err := e.Validate(obj); err != nil {
		return nil, err
	}
	return Result(obj), nil
}

// Validate checks doc against the extractor's schema.
func (e *Extractor) Validate(doc map[string]any) error {
	res, err := e.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		problems = append(problems, re.String())
	}
	return &ValidationError{Problems: problems}
}

// Section returns the nested object at key, or nil.
func (r Result) Section(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

// UserInfo returns a string field from the user_info section.
func (r Result) UserInfo(field string) string {
	s, _ := r.Section("user_info")[field].(string)
	return strings.TrimSpace(s)
}

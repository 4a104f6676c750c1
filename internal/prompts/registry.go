package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// Prompt keys used by the pipeline.
const (
	KeyExtractAllSections = "user_extract_all_sections"
	KeyResumeAnalysis     = "resume_analysis"
	KeyEmailFormat        = "email_format"
	KeyQuestionsForUsers  = "questions_for_users"
)

// RequiredKeys must be present for the service to start.
var RequiredKeys = []string{KeyExtractAllSections, KeyResumeAnalysis, KeyEmailFormat}

var (
	// ErrUnknownPromptKey is returned when a template is not registered.
	ErrUnknownPromptKey = errors.New("unknown prompt key")
	// ErrMissingPlaceholder is returned when a template references an unset variable.
	ErrMissingPlaceholder = errors.New("missing prompt placeholder")
)

//go:embed templates/*.txt
var embedded embed.FS

// Registry holds prompt templates keyed by name. It is immutable after construction.
type Registry struct {
	templates map[string]string
}

// New builds a registry and fails fast when a required key is absent or empty.
func New(templates map[string]string, required ...string) (*Registry, error) {
	copied := make(map[string]string, len(templates))
	for k, v := range templates {
		copied[k] = strings.TrimSpace(v)
	}
	var missing []string
	for _, key := range required {
		if copied[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("prompt registry missing required keys: %s", strings.Join(missing, ", "))
	}
	return &Registry{templates: copied}, nil
}

// Load reads *.txt templates from dir, or the embedded defaults when dir is empty.
func Load(dir string) (*Registry, error) {
	var fsys fs.FS
	root := "templates"
	if strings.TrimSpace(dir) != "" {
		fsys = os.DirFS(dir)
		root = "."
	} else {
		fsys = embedded
	}

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read prompt dir: %w", err)
	}
	templates := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", entry.Name(), err)
		}
		templates[strings.TrimSuffix(entry.Name(), ".txt")] = string(data)
	}
	return New(templates, RequiredKeys...)
}

// Get returns the raw template for key.
func (r *Registry) Get(key string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownPromptKey, key)
	}
	tpl, ok := r.templates[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPromptKey, key)
	}
	return tpl, nil
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	_, err := r.Get(key)
	return err == nil
}

// Keys lists registered template names in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.templates))
	for k := range r.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format renders the template for key with the given variables.
func (r *Registry) Format(key string, vars map[string]string) (string, error) {
	tpl, err := r.Get(key)
	if err != nil {
		return "", err
	}
	out, err := Render(tpl, vars)
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", key, err)
	}
	return out, nil
}

// Render replaces {name} placeholders. "{{" and "}}" produce literal braces.
func Render(tpl string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tpl))
	for i := 0; i < len(tpl); i++ {
		ch := tpl[i]
		switch {
		case ch == '{' && i+1 < len(tpl) && tpl[i+1] == '{':
			b.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(tpl) && tpl[i+1] == '}':
			b.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			name := tpl[i+1 : i+1+end]
			val, ok := vars[name]
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrMissingPlaceholder, name)
			}
			b.WriteString(val)
			i += end + 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), nil
}

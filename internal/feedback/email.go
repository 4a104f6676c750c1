package feedback

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoFeedback is returned when a tree has no section carrying feedback text.
var ErrNoFeedback = errors.New("feedback has no sections")

// SectionOrder is the order sections appear in emails and rendered documents.
var SectionOrder = []string{"summary", "hard_skills", "soft_skills", "work_experience", "education", "languages"}

// Title turns a section key like "work_experience" into "Work Experience".
func Title(key string) string {
	return cases.Title(language.Spanish).String(strings.ReplaceAll(key, "_", " "))
}

// OrderedKeys returns the keys of sections in SectionOrder, followed by any extras sorted.
func OrderedKeys(sections map[string]any) []string {
	keys := make([]string, 0, len(sections))
	seen := make(map[string]bool, len(SectionOrder))
	for _, k := range SectionOrder {
		if _, ok := sections[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range sections {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// FormatEmailBody renders a feedback tree as the plain-text body of the feedback email.
func FormatEmailBody(name string, tree map[string]any) (string, error) {
	name = Title(strings.TrimSpace(name))
	sections := SectionsOf(tree)

	var b strings.Builder
	for _, key := range OrderedKeys(sections) {
		details, ok := sections[key].(map[string]any)
		if !ok {
			continue
		}
		text, ok := details["feedback"].(string)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", Title(key))
		fmt.Fprintf(&b, "%s\n", cleanMarkdown(text))
		if example, ok := details["example"]; ok && example != nil {
			b.WriteString(formatExample(example))
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "", ErrNoFeedback
	}

	opening := fmt.Sprintf("Hola %s,\nRevisé tu CV a detalle y tengo algunas observaciones.", name)
	closing := fmt.Sprintf("Esas son mis observaciones %s, espero que sean de ayuda.", name)
	return opening + "\n" + b.String() + "\n" + closing, nil
}

func cleanMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "*", "•")
}

func formatExample(example any) string {
	switch t := example.(type) {
	case []any:
		var b strings.Builder
		for _, item := range t {
			switch item.(type) {
			case map[string]any, []any:
				b.WriteString(FormatStructured(item, 1))
				b.WriteString("\n")
			default:
				fmt.Fprintf(&b, "- %v\n", item)
			}
		}
		return b.String()
	case map[string]any:
		return FormatStructured(t, 0) + "\n"
	default:
		return fmt.Sprintf("- %v\n", t)
	}
}

// FormatStructured renders nested maps as "Key: value" lines and lists as bullets,
// indenting two spaces per level.
func FormatStructured(data any, indent int) string {
	pad := strings.Repeat("  ", indent)
	var lines []string
	switch t := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := t[k]
			switch v.(type) {
			case map[string]any, []any:
				lines = append(lines, pad+Title(k)+":")
				lines = append(lines, FormatStructured(v, indent+1))
			default:
				lines = append(lines, fmt.Sprintf("%s%s: %v", pad, Title(k), printable(v)))
			}
		}
	case []any:
		for _, item := range t {
			switch item.(type) {
			case map[string]any, []any:
				lines = append(lines, FormatStructured(item, indent+1))
			default:
				lines = append(lines, fmt.Sprintf("%s• %v", pad, printable(item)))
			}
		}
	default:
		return fmt.Sprint(printable(data))
	}
	return strings.Join(lines, "\n")
}

func printable(v any) any {
	if v == nil {
		return ""
	}
	return v
}

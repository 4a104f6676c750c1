package rendering

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"google.golang.org/api/docs/v1"

	"resume-feedback/internal/feedback"
)

const documentHeading = "Resume Feedback Analysis\n"

// BuildRequests lays out the feedback sections as Docs API requests: a title,
// then a heading per section followed by its feedback and example blocks.
// Indexes are UTF-16 offsets starting at 1.
func BuildRequests(tree map[string]any) []*docs.Request {
	sections := feedback.SectionsOf(tree)
	if sections == nil {
		sections = tree
	}

	b := &requestBuilder{index: 1}
	b.styled(documentHeading, "TITLE")
	for _, key := range feedback.OrderedKeys(sections) {
		details, ok := sections[key].(map[string]any)
		if !ok {
			continue
		}
		text := strings.TrimSpace(stringValue(details["feedback"]))
		example := strings.TrimSpace(exampleText(details["example"]))
		if text == "" && example == "" {
			continue
		}
		b.styled(feedback.Title(key)+"\n", "HEADING_1")
		if text != "" {
			b.text(fmt.Sprintf("Feedback:\n%s\n\n", text))
		}
		if example != "" {
			b.text(fmt.Sprintf("Example:\n%s\n\n", example))
		}
	}
	return b.requests
}

type requestBuilder struct {
	index    int64
	requests []*docs.Request
}

func (b *requestBuilder) text(s string) {
	b.requests = append(b.requests, &docs.Request{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: b.index},
			Text:     s,
		},
	})
	b.index += utf16Len(s)
}

func (b *requestBuilder) styled(s, namedStyle string) {
	start := b.index
	b.text(s)
	b.requests = append(b.requests, &docs.Request{
		UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
			Range:          &docs.Range{StartIndex: start, EndIndex: b.index},
			ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: namedStyle},
			Fields:         "namedStyleType",
		},
	})
}

func utf16Len(s string) int64 {
	return int64(len(utf16.Encode([]rune(s))))
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func exampleText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return feedback.FormatStructured(t, 0)
	}
}

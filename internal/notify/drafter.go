package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/gomail.v2"

	"resume-feedback/internal/shared/storage/object"
	"resume-feedback/internal/shared/telemetry"
)

const (
	emlContentType = "message/rfc822"
	signOff        = "¡Éxito en tu búsqueda laboral!"
)

var ErrMissingRecipient = errors.New("draft recipient is required")

// Draft is the content of a feedback email to be prepared for review.
type Draft struct {
	UserID   string
	ResumeID string
	To       string
	Name     string
	// Body is plain text; newlines become <br> in the HTML part.
	Body string
}

// DraftMetadata describes a stored draft.
type DraftMetadata struct {
	DraftID    string    `json:"draftId"`
	StorageKey string    `json:"storageKey"`
	To         string    `json:"to"`
	From       string    `json:"from"`
	Cc         []string  `json:"cc,omitempty"`
	Subject    string    `json:"subject"`
	SizeBytes  int64     `json:"sizeBytes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Drafter builds MIME drafts and stores them; it never sends mail.
type Drafter struct {
	Store object.ObjectStore
	From  string
	Cc    []string
	NewID func() string
	Now   func() time.Time
}

func NewDrafter(store object.ObjectStore, from string, cc []string) *Drafter {
	return &Drafter{
		Store: store,
		From:  from,
		Cc:    cc,
		NewID: uuid.NewString,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Subject is the feedback email subject line.
func Subject(name string) string {
	return fmt.Sprintf("Hola %s, aquí la retro de tu cv", cases.Title(language.Spanish).String(strings.TrimSpace(name)))
}

// HTMLBody converts a plain-text body to the HTML part of the draft. The body
// is escaped before line breaks become <br>.
func HTMLBody(body string) string {
	return strings.ReplaceAll(html.EscapeString(body), "\n", "<br>") + "<br>" + signOff
}

func (d *Drafter) Draft(ctx context.Context, draft Draft) (DraftMetadata, error) {
	to := strings.TrimSpace(draft.To)
	if to == "" {
		return DraftMetadata{}, ErrMissingRecipient
	}
	if d.Store == nil {
		return DraftMetadata{}, errors.New("draft store not configured")
	}

	subject := Subject(draft.Name)
	m := gomail.NewMessage()
	m.SetHeader("From", d.From)
	m.SetHeader("To", to)
	if len(d.Cc) > 0 {
		m.SetHeader("Cc", d.Cc...)
	}
	m.SetHeader("Subject", subject)
	m.SetDateHeader("Date", d.Now())
	m.SetBody("text/plain", draft.Body)
	m.AddAlternative("text/html", HTMLBody(draft.Body))

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return DraftMetadata{}, fmt.Errorf("build draft: %w", err)
	}

	id := d.NewID()
	key := object.DraftKey(draft.UserID, id)
	size, err := d.Store.SaveWithKey(ctx, key, emlContentType, &buf)
	if err != nil {
		return DraftMetadata{}, fmt.Errorf("store draft: %w", err)
	}

	telemetry.Info("notify.draft_created", map[string]any{
		"draft_id":  id,
		"resume_id": draft.ResumeID,
		"user_id":   draft.UserID,
		"size":      size,
	})
	return DraftMetadata{
		DraftID:    id,
		StorageKey: key,
		To:         to,
		From:       d.From,
		Cc:         d.Cc,
		Subject:    subject,
		SizeBytes:  size,
		CreatedAt:  d.Now(),
	}, nil
}

package object

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCleanKey(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "drafts/a.eml", want: "drafts/a.eml"},
		{in: "resumes//u/./cv.pdf", want: "resumes/u/cv.pdf"},
		{in: `drafts\a.eml`, want: "drafts/a.eml"},
		{in: "../escape.txt", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := CleanKey(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("CleanKey(%q): expected ErrInvalidKey, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("CleanKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestUploadKey(t *testing.T) {
	key, err := UploadKey("user-1", "my/cv.pdf")
	if err != nil {
		t.Fatalf("UploadKey: %v", err)
	}
	if !strings.HasPrefix(key, UploadsPrefix+"/") || !strings.HasSuffix(key, "_my_cv.pdf") {
		t.Fatalf("unexpected key %q", key)
	}
	if _, err := UploadKey("user-1", "../cv.pdf"); err == nil {
		t.Fatalf("expected traversal in file name to be rejected")
	}
}

func TestSniffKeepsStream(t *testing.T) {
	mime, body, err := Sniff(strings.NewReader("%PDF-1.4 body"))
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if mime != "application/pdf" {
		t.Fatalf("unexpected mime %q", mime)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "%PDF-1.4 body" {
		t.Fatalf("stream lost bytes: %q", data)
	}
}

func TestOwnerKeyIsStableHex(t *testing.T) {
	got := OwnerKey("user-12345")
	if got != OwnerKey("user-12345") {
		t.Fatalf("expected stable hash, got %s", got)
	}
	if len(got) != 64 || strings.Trim(got, "0123456789abcdef") != "" {
		t.Fatalf("expected 64 hex characters, got %q", got)
	}
	if got == OwnerKey("user-12346") {
		t.Fatalf("distinct users must not share a key")
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: " cv.pdf ", want: "cv.pdf"},
		{in: `a\b/c.pdf`, want: "a_b_c.pdf"},
		{in: "cv\x00\n.pdf", want: "cv.pdf"},
		{in: "../cv.pdf", wantErr: true},
		{in: "   ", wantErr: true},
		{in: strings.Repeat("x", 200) + ".docx", want: strings.Repeat("x", maxFileNameLen-5) + ".docx"},
	}
	for _, tc := range cases {
		got, err := sanitizeFileName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeFileName(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeFileName(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestDraftKey(t *testing.T) {
	if got := DraftKey("u", "d1"); got != "drafts/"+OwnerKey("u")+"/d1.eml" {
		t.Fatalf("unexpected draft key %q", got)
	}
}

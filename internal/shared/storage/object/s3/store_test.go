package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"resume-feedback/internal/shared/storage/object"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "resumes/u/cv.pdf", want: "resumes/u/cv.pdf"},
		{name: "simple prefix", prefix: "feedback", key: "drafts/u/a.eml", want: "feedback/drafts/u/a.eml"},
		{name: "prefix trailing slash", prefix: "feedback/", key: "drafts/u/a.eml", want: "feedback/drafts/u/a.eml"},
		{name: "prefix and key slashes", prefix: "/feedback/", key: "/drafts/u/a.eml", want: "feedback/drafts/u/a.eml"},
		{name: "nested prefix", prefix: "prod/feedback", key: "resumes/u/cv.pdf", want: "prod/feedback/resumes/u/cv.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestObjectKeyRejectsTraversal(t *testing.T) {
	s := &Store{prefix: "feedback"}
	if _, err := s.objectKey("../other-tenant/cv.pdf"); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	got, err := s.objectKey("drafts/u/a.eml")
	if err != nil || got != "feedback/drafts/u/a.eml" {
		t.Fatalf("objectKey = %q, %v", got, err)
	}
}

func TestPutInputEncryption(t *testing.T) {
	body := strings.NewReader("x")

	in := (&Store{bucket: "b"}).putInput("k", "message/rfc822", body)
	if in.ServerSideEncryption != s3types.ServerSideEncryptionAes256 || in.SSEKMSKeyId != nil {
		t.Fatalf("expected SSE-S3 without kms key, got %+v", in)
	}
	if in.ContentType == nil || *in.ContentType != "message/rfc822" {
		t.Fatalf("unexpected content type %v", in.ContentType)
	}

	in = (&Store{bucket: "b", kmsKeyID: "kms-1"}).putInput("k", "", body)
	if in.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || in.SSEKMSKeyId == nil || *in.SSEKMSKeyId != "kms-1" {
		t.Fatalf("expected kms encryption, got %+v", in)
	}
	if in.ContentType != nil {
		t.Fatalf("empty content type should be omitted")
	}
}

func TestSaveWithKeyHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Store{}).SaveWithKey(ctx, "drafts/a.eml", "message/rfc822", io.NopCloser(strings.NewReader("x"))); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

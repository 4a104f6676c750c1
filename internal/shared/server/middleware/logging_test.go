package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), Auth(testSecret), Logging())
	router.POST("/api/v1/resumes/:id/feedback", func(c *gin.Context) {
		c.Set("resumeId", "resume-1")
		c.Set("runId", "run-1")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	telemetry.Init(telemetry.Options{})
	defer func() {
		os.Stdout = origStdout
		telemetry.Init(telemetry.Options{})
	}()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/resume-1/feedback", nil)
	req.Header.Set("X-User-Id", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	_ = telemetry.Sync()
	_ = w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read log output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	if payload["msg"] != "request.complete" {
		t.Fatalf("unexpected message: %v", payload["msg"])
	}
	required := []string{"request_id", "user_id", "resume_id", "run_id", "duration_ms", "status", "route"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["user_id"] != "guest:user-1" || payload["is_guest"] != true {
		t.Fatalf("unexpected identity: %v guest=%v", payload["user_id"], payload["is_guest"])
	}
	if payload["resume_id"] != "resume-1" || payload["run_id"] != "run-1" {
		t.Fatalf("unexpected ids: %v %v", payload["resume_id"], payload["run_id"])
	}
	if payload["route"] != "/api/v1/resumes/:id/feedback" {
		t.Fatalf("unexpected route: %v", payload["route"])
	}
}

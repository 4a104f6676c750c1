package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/resumes"
	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/users"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterDeps{
		Config:        config.Config{Env: "dev", JWTSecret: "router-secret"},
		UserHandler:   users.NewHandler(users.NewService(users.NewMemoryRepo())),
		ResumeHandler: resumes.NewHandler(resumes.NewService(resumes.NewMemoryRepo(nil))),
	})
}

func TestRouterPublicRoutes(t *testing.T) {
	router := newTestRouter()
	for _, path := range []string{"/api/v1/health", "/api/v1/metrics"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestRouterMeRequiresIdentity(t *testing.T) {
	router := newTestRouter()

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-User-Id", "user-7")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["userId"] != "guest:user-7" || body["role"] != "candidate" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRouterReviewRoutesNeedHRRole(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/pending", nil)
	req.Header.Set("X-User-Id", "user-7")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", ":9000": ":9000", "3000": ":3000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRouterHeaderIdentityCannotActAsRegisteredUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userHandler := users.NewHandler(users.NewService(users.NewMemoryRepo()))
	userHandler.TokenSecret = []byte("router-secret")
	resumeSvc := resumes.NewService(resumes.NewMemoryRepo(nil))
	router := NewRouter(RouterDeps{
		Config:        config.Config{Env: "dev", JWTSecret: "router-secret"},
		UserHandler:   userHandler,
		ResumeHandler: resumes.NewHandler(resumeSvc),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"email":"ana@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.Code)
	}
	var created struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resumeID, err := resumeSvc.CreateOrUpdateUserVersion(context.Background(), created.ID, map[string]any{"summary": "x"}, resumes.UserVersionInput{})
	if err != nil {
		t.Fatalf("CreateOrUpdateUserVersion: %v", err)
	}

	cases := []struct {
		name    string
		path    string
		headers map[string]string
		status  int
	}{
		{name: "anonymous email lookup", path: "/api/v1/users/by-email?email=ana@example.com", status: http.StatusUnauthorized},
		{name: "header email lookup", path: "/api/v1/users/by-email?email=ana@example.com", headers: map[string]string{"X-User-Id": "someone"}, status: http.StatusNotFound},
		{name: "header id reads resume", path: "/api/v1/resumes/" + resumeID, headers: map[string]string{"X-User-Id": created.ID}, status: http.StatusNotFound},
		{name: "token reads resume", path: "/api/v1/resumes/" + resumeID, headers: map[string]string{"Authorization": "Bearer " + created.Token}, status: http.StatusOK},
		{name: "token email lookup", path: "/api/v1/users/by-email?email=ana@example.com", headers: map[string]string{"Authorization": "Bearer " + created.Token}, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
		})
	}
}

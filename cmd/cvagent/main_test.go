package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"resume-feedback/internal/shared/auth"
)

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Chdir(t.TempDir())
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--user", "hr-9", "--role", "hr", "--email", "hr@example.com"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	claims, err := auth.VerifyJWT([]byte("cli-secret"), strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Subject != "hr-9" || claims.Role != auth.RoleHR || claims.Email != "hr@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Cleanup(viper.Reset)
	viper.Set("provider", "OpenAI")
	viper.Set("model", "gpt-4o-mini")

	cfg := loadConfig()
	if cfg.LLMProvider != "openai" || cfg.LLMModel != "gpt-4o-mini" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

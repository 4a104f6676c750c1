package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resume-feedback/internal/bootstrap"
	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/shared/telemetry"
)

const app = "cvagent"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "cvagent runs the resume feedback pipeline from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig()
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cvagent.yaml in current directory, optional)")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider: gemini, openai or stub")
	rootCmd.PersistentFlags().String("model", "", "LLM model name")
	rootCmd.PersistentFlags().String("prompt-dir", "", "directory with prompt template overrides")
	rootCmd.PersistentFlags().String("log-level", "", "log level")

	for _, name := range []string{"provider", "model", "prompt-dir", "log-level"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	_ = viper.BindEnv("provider", "LLM_PROVIDER")
	_ = viper.BindEnv("model", "LLM_MODEL")
	_ = viper.BindEnv("prompt-dir", "PROMPT_DIR")
	_ = viper.BindEnv("log-level", "LOG_LEVEL")
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	telemetry.Init(telemetry.Options{Level: loadConfig().LogLevel})
	return nil
}

// loadConfig reads the environment configuration and applies flag and file overrides.
func loadConfig() config.Config {
	cfg := config.Load()
	if v := strings.TrimSpace(viper.GetString("provider")); v != "" {
		cfg.LLMProvider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(viper.GetString("model")); v != "" {
		cfg.LLMModel = v
	}
	if v := strings.TrimSpace(viper.GetString("prompt-dir")); v != "" {
		cfg.PromptDir = v
	}
	if v := strings.TrimSpace(viper.GetString("log-level")); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	return cfg
}

func buildApp(ctx context.Context) (*bootstrap.App, error) {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return bootstrap.Build(ctx, cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

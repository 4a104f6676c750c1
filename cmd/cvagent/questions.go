package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/prompts"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Suggest follow-up questions a reviewer could ask about a resume",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("pdf")
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("--pdf is required")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read resume: %w", err)
		}

		app, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		text, err := extract.ExtractTextFromBytes(cmd.Context(), data, "", filepath.Base(path))
		if err != nil {
			return err
		}
		sections, err := app.Extractor.Extract(cmd.Context(), text, prompts.KeyExtractAllSections)
		if err != nil {
			return err
		}
		questions, err := app.Feedback.Questions(cmd.Context(), sections)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"questions": questions})
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)
	questionsCmd.Flags().String("pdf", "", "path to the resume file (pdf or docx)")
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-feedback/internal/orchestrator"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Extract a resume file, store it for a user and generate feedback",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("pdf")
		userID, _ := cmd.Flags().GetString("user")
		if strings.TrimSpace(path) == "" || strings.TrimSpace(userID) == "" {
			return fmt.Errorf("--pdf and --user are required")
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

		out, err := app.Orchestrator.ProcessRawResume(cmd.Context(), orchestrator.Upload{
			UserID:   userID,
			FileName: filepath.Base(path),
			Data:     data,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Regenerate feedback for a stored resume",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resumeID, _ := cmd.Flags().GetString("resume")
		if strings.TrimSpace(resumeID) == "" {
			return fmt.Errorf("--resume is required")
		}
		app, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		out, err := app.Orchestrator.GenerateFeedback(cmd.Context(), resumeID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(processCmd, feedbackCmd)

	processCmd.Flags().String("pdf", "", "path to the resume file (pdf or docx)")
	processCmd.Flags().String("user", "", "registered user id that owns the resume")
	feedbackCmd.Flags().String("resume", "", "resume id")
}

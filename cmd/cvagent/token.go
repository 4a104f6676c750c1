package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"resume-feedback/internal/shared/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, _ := cmd.Flags().GetString("user")
		role, _ := cmd.Flags().GetString("role")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if strings.TrimSpace(userID) == "" {
			return fmt.Errorf("--user is required")
		}
		if role != auth.RoleCandidate && role != auth.RoleHR {
			return fmt.Errorf("unknown role %q", role)
		}

		now := time.Now()
		token, err := auth.SignJWT([]byte(loadConfig().JWTSecret), auth.Claims{
			Email: email,
			Role:  role,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("user", "", "subject user id")
	tokenCmd.Flags().String("role", auth.RoleCandidate, "role claim: candidate or hr")
	tokenCmd.Flags().String("email", "", "email claim")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}

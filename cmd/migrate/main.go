package main

// Run database migrations:
//   go run ./cmd/migrate            # apply pending migrations
//   go run ./cmd/migrate -cmd down  # revert the latest migration
//   go run ./cmd/migrate -cmd status

import (
	"context"
	"flag"
	"os"

	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/shared/storage/db"
	"resume-feedback/internal/shared/telemetry"
)

func main() {
	command := flag.String("cmd", "up", "migration command: up, down or status")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.Options{Level: cfg.LogLevel})
	defer telemetry.Sync()
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultCLIOptions()))
	if err != nil {
		telemetry.Error("failed to connect database", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch *command {
	case "up":
		err = db.RunMigrations(ctx, sqlDB)
	case "down":
		err = db.RollbackMigration(ctx, sqlDB)
	case "status":
		err = db.MigrationStatus(ctx, sqlDB)
	default:
		telemetry.Error("unknown migration command", map[string]any{"cmd": *command})
		os.Exit(2)
	}
	if err != nil {
		telemetry.Error("migration failed", map[string]any{"cmd": *command, "error": err})
		os.Exit(1)
	}
	telemetry.Info("migration finished", map[string]any{"cmd": *command})
}

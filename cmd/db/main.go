package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/urfave/cli/v3"
	"github.com/worldtrek/warden/cmd/db/commands"
	"github.com/worldtrek/warden/internal/database"
	"github.com/worldtrek/warden/internal/setup/config"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	deps, err := setupDependencies()
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}
	defer deps.DB.Close()

	app := &cli.Command{
		Name:  "db",
		Usage: "Database management tool",
		Commands: slices.Concat(
			commands.MigrationCommands(deps),
			commands.ReconcileCommands(deps),
			commands.StaffCommands(deps),
		),
	}

	return app.Run(context.Background(), os.Args)
}

// setupDependencies connects to the database without running migrations.
func setupDependencies() (*commands.CLIDependencies, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewConnection(context.Background(), &cfg.Common.PostgreSQL, logger, false)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &commands.CLIDependencies{
		DB:       db,
		Migrator: database.NewMigrator(db.DB()),
		Logger:   logger,
	}, nil
}

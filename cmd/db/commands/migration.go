package commands

import (
	"context"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MigrationCommands returns the schema migration commands.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "Create the migration bookkeeping tables",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return deps.Migrator.Init(ctx)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply pending migrations as one group",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return withMigrationLock(ctx, deps, "Applied", deps.Migrator.Migrate)
			},
		},
		{
			Name:  "rollback",
			Usage: "Revert the most recent migration group",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return withMigrationLock(ctx, deps, "Rolled back", deps.Migrator.Rollback)
			},
		},
		{
			Name:   "status",
			Usage:  "List every migration with its applied group",
			Action: handleStatus(deps),
		},
		{
			Name:      "create",
			Usage:     "Create a new Go migration file",
			ArgsUsage: "NAME",
			Action:    handleCreate(deps),
		},
	}
}

// withMigrationLock runs a migrator step while holding the migration lock so two
// deploys cannot apply the same group.
func withMigrationLock(
	ctx context.Context, deps *CLIDependencies, verb string,
	step func(context.Context, ...migrate.MigrationOption) (*migrate.MigrationGroup, error),
) error {
	if err := deps.Migrator.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := deps.Migrator.Unlock(ctx); err != nil {
			deps.Logger.Error("Failed to release migration lock", zap.Error(err))
		}
	}()

	group, err := step(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		deps.Logger.Info("Nothing to do")
		return nil
	}

	deps.Logger.Info(verb,
		zap.Int64("group", group.ID),
		zap.Int("migrations", len(group.Migrations)))
	return nil
}

func handleStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		ms, err := deps.Migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return err
		}

		for _, m := range ms {
			deps.Logger.Info("Migration",
				zap.String("name", m.Name),
				zap.Bool("applied", m.IsApplied()),
				zap.Int64("group", m.GroupID))
		}

		deps.Logger.Info("Summary",
			zap.Int("total", len(ms)),
			zap.Int("pending", len(ms.Unapplied())))
		return nil
	}
}

func handleCreate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrNameRequired
		}

		mf, err := deps.Migrator.CreateGoMigration(ctx, c.Args().First())
		if err != nil {
			return err
		}

		deps.Logger.Info("Created Go migration",
			zap.String("name", mf.Name),
			zap.String("path", mf.Path))
		return nil
	}
}

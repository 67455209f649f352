package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/types"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.User)(nil),
			(*types.Report)(nil),
			(*types.Match)(nil),
			(*types.MatchPlayer)(nil),
			(*types.ModerationLog)(nil),
			(*types.RatingAdjustment)(nil),
			(*types.NameChangeRequest)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		// Down migration - drop all tables
		models := []any{
			(*types.NameChangeRequest)(nil),
			(*types.RatingAdjustment)(nil),
			(*types.ModerationLog)(nil),
			(*types.MatchPlayer)(nil),
			(*types.Match)(nil),
			(*types.Report)(nil),
			(*types.User)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}

package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/types"
)

// index describes one secondary index created by this migration.
type index struct {
	model   any
	name    string
	columns []string
	where   string
}

func init() {
	indexes := []index{
		// Report queue lookups by target and state
		{(*types.Report)(nil), "idx_reports_target_status", []string{"reported_user_id", "status", "action_taken"}, ""},
		{(*types.Report)(nil), "idx_reports_moderation_log", []string{"moderation_log_id"}, "moderation_log_id IS NOT NULL"},

		// Refund scans
		{(*types.MatchPlayer)(nil), "idx_match_players_user", []string{"user_id", "match_id"}, "user_id IS NOT NULL"},
		{(*types.MatchPlayer)(nil), "idx_match_players_match", []string{"match_id"}, ""},
		{(*types.Match)(nil), "idx_matches_refund_log", []string{"refund_log_id"}, "refund_log_id IS NOT NULL"},

		// Rank computation
		{(*types.User)(nil), "idx_users_rating", []string{"rating", "banned"}, ""},
		{(*types.User)(nil), "idx_users_ban_expiry", []string{"ban_expires_at"}, "ban_expires_at IS NOT NULL"},

		// Audit log pagination
		{(*types.ModerationLog)(nil), "idx_moderation_logs_target", []string{"target_user_id", "sequence"}, ""},
		{(*types.ModerationLog)(nil), "idx_moderation_logs_moderator", []string{"moderator_id", "sequence"}, ""},
		{(*types.ModerationLog)(nil), "idx_moderation_logs_action", []string{"action", "sequence"}, ""},

		// Rating timeline
		{(*types.RatingAdjustment)(nil), "idx_rating_adjustments_user", []string{"user_id", "id"}, ""},
		{(*types.NameChangeRequest)(nil), "idx_name_change_requests_user", []string{"user_id", "status"}, ""},
	}

	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, idx := range indexes {
			query := db.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				Column(idx.columns...).
				IfNotExists()
			if idx.where != "" {
				query = query.Where(idx.where)
			}

			if _, err := query.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.name, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, idx := range indexes {
			_, err := db.NewDropIndex().
				Index(idx.name).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop index %s: %w", idx.name, err)
			}
		}

		return nil
	})
}

package models

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/dbretry"
	"github.com/worldtrek/warden/internal/database/types"
	"go.uber.org/zap"
)

// ReconcileModel finds records stamped by a moderation run whose audit entry was never written.
type ReconcileModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewReconcile creates a ReconcileModel.
func NewReconcile(db *bun.DB, logger *zap.Logger) *ReconcileModel {
	return &ReconcileModel{
		db:     db,
		logger: logger.Named("db_reconcile"),
	}
}

// OrphanedReportIDs returns reports claimed under an audit id that has no audit entry.
func (m *ReconcileModel) OrphanedReportIDs(ctx context.Context) ([]int64, error) {
	return m.orphanedIDs(ctx, (*types.Report)(nil), "moderation_log_id")
}

// OrphanedMatchIDs returns matches refunded under an audit id that has no audit entry.
func (m *ReconcileModel) OrphanedMatchIDs(ctx context.Context) ([]int64, error) {
	return m.orphanedIDs(ctx, (*types.Match)(nil), "refund_log_id")
}

// OrphanedAdjustmentIDs returns rating adjustments whose originating audit entry is missing.
func (m *ReconcileModel) OrphanedAdjustmentIDs(ctx context.Context) ([]int64, error) {
	return m.orphanedIDs(ctx, (*types.RatingAdjustment)(nil), "moderation_log_id")
}

func (m *ReconcileModel) orphanedIDs(ctx context.Context, model any, column string) ([]int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]int64, error) {
		var ids []int64
		err := m.db.NewSelect().
			Model(model).
			Column("id").
			Where("? IS NOT NULL", bun.Ident(column)).
			Where("? NOT IN (?)", bun.Ident(column), m.db.NewSelect().
				Model((*types.ModerationLog)(nil)).
				Column("id")).
			Order("id ASC").
			Scan(ctx, &ids)
		if err != nil {
			return nil, fmt.Errorf("failed to find orphaned %s references: %w", column, err)
		}

		return ids, nil
	})
}

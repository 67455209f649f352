package models

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/dbretry"
	"github.com/worldtrek/warden/internal/database/types"
	"go.uber.org/zap"
)

// RatingModel handles the per-user rating timeline.
type RatingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewRating creates a RatingModel.
func NewRating(db *bun.DB, logger *zap.Logger) *RatingModel {
	return &RatingModel{
		db:     db,
		logger: logger.Named("db_rating"),
	}
}

// AppendAdjustment records one rating timeline entry.
func (m *RatingModel) AppendAdjustment(ctx context.Context, adjustment *types.RatingAdjustment) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(adjustment).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to append rating adjustment: %w", err)
		}

		return nil
	})
}

// GetAdjustments returns a user's rating timeline, newest first.
func (m *RatingModel) GetAdjustments(ctx context.Context, userID int64, limit int) ([]*types.RatingAdjustment, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.RatingAdjustment, error) {
		var adjustments []*types.RatingAdjustment
		err := m.db.NewSelect().
			Model(&adjustments).
			Where("user_id = ?", userID).
			Order("id DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get rating adjustments: %w", err)
		}

		return adjustments, nil
	})
}

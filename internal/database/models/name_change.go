package models

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/dbretry"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"go.uber.org/zap"
)

// NameChangeModel handles database operations for user rename requests.
type NameChangeModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewNameChange creates a NameChangeModel.
func NewNameChange(db *bun.DB, logger *zap.Logger) *NameChangeModel {
	return &NameChangeModel{
		db:     db,
		logger: logger.Named("db_name_change"),
	}
}

// CreateRequest records a rename submitted by a user.
func (m *NameChangeModel) CreateRequest(ctx context.Context, request *types.NameChangeRequest) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(request).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create name change request: %w", err)
		}
		return nil
	})
}

// DeletePendingRequests removes any rename request still awaiting review for a user.
// Returns the number of requests removed.
func (m *NameChangeModel) DeletePendingRequests(ctx context.Context, userID int64) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		result, err := m.db.NewDelete().
			Model((*types.NameChangeRequest)(nil)).
			Where("user_id = ?", userID).
			Where("status = ?", enum.NameChangeRequestStatusPending).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to delete pending name change requests: %w", err)
		}

		return result.RowsAffected()
	})
}

// CountPendingRequests returns how many rename requests a user has awaiting review.
func (m *NameChangeModel) CountPendingRequests(ctx context.Context, userID int64) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.NameChangeRequest)(nil)).
			Where("user_id = ?", userID).
			Where("status = ?", enum.NameChangeRequestStatusPending).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count pending name change requests: %w", err)
		}
		return count, nil
	})
}

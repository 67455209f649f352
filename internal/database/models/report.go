package models

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/dbretry"
	"github.com/worldtrek/warden/internal/database/types"
	"go.uber.org/zap"
)

// ReportModel handles database operations for user reports.
type ReportModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewReport creates a ReportModel.
func NewReport(db *bun.DB, logger *zap.Logger) *ReportModel {
	return &ReportModel{
		db:     db,
		logger: logger.Named("db_report"),
	}
}

// CreateReports inserts reports filed by the reporting flow.
func (m *ReportModel) CreateReports(ctx context.Context, reports []*types.Report) error {
	if len(reports) == 0 {
		return nil
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(&reports).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create reports: %w", err)
		}

		return nil
	})
}

// GetByIDs retrieves reports by their IDs. Missing IDs are absent from the result.
func (m *ReportModel) GetByIDs(ctx context.Context, reportIDs []int64) ([]*types.Report, error) {
	if len(reportIDs) == 0 {
		return nil, nil
	}

	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Report, error) {
		var reports []*types.Report
		err := m.db.NewSelect().
			Model(&reports).
			Where("id IN (?)", bun.In(reportIDs)).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get reports: %w", err)
		}

		return reports, nil
	})
}

// ListForTarget returns reports filed against a user that match the filter, oldest first.
func (m *ReportModel) ListForTarget(
	ctx context.Context, targetUserID int64, filter types.ReportFilter,
) ([]*types.Report, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Report, error) {
		var reports []*types.Report
		query := m.db.NewSelect().
			Model(&reports).
			Where("reported_user_id = ?", targetUserID).
			Where("status = ?", filter.Status)

		if filter.Action != nil {
			query = query.Where("action_taken = ?", *filter.Action)
		}
		if filter.Reason != nil {
			query = query.Where("reason = ?", *filter.Reason)
		}

		err := query.Order("id ASC").Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}

		return reports, nil
	})
}

// ClaimReport moves a report to a new state only if it is still in the expected state.
// A false result means another operator claimed it first and is not an error.
func (m *ReportModel) ClaimReport(
	ctx context.Context, reportID int64, expected types.ReportState, next types.ReportTransition,
) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		query := m.db.NewUpdate().
			Model((*types.Report)(nil)).
			Set("status = ?", next.Status).
			Set("action_taken = ?", next.Action).
			Set("reviewed_by = ?", next.ReviewerID).
			Set("reviewed_at = ?", time.Now().UTC()).
			Set("moderator_notes = ?", next.Notes).
			Set("moderation_log_id = ?", next.ModerationLogID).
			Where("id = ?", reportID).
			Where("status = ?", expected.Status)

		if expected.Action != nil {
			query = query.Where("action_taken = ?", *expected.Action)
		}

		result, err := query.Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to claim report: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get rows affected: %w", err)
		}

		return affected > 0, nil
	})
}

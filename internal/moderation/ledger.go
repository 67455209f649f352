package moderation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/worldtrek/warden/internal/database/models"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"go.uber.org/zap"
)

// Ledger drives report status transitions through single-report claims.
type Ledger struct {
	reports    *models.ReportModel
	reputation *ReputationTracker
	logger     *zap.Logger
}

// NewLedger creates a Ledger.
func NewLedger(reports *models.ReportModel, reputation *ReputationTracker, logger *zap.Logger) *Ledger {
	return &Ledger{
		reports:    reports,
		reputation: reputation,
		logger:     logger.Named("ledger"),
	}
}

// ResolvePending claims every pending report against the target and records the reporter outcome
// for each report this call actually claimed. A reason filter limits which reports are touched.
// Returns the IDs of the claimed reports; reports claimed concurrently by someone else are skipped.
func (l *Ledger) ResolvePending(
	ctx context.Context,
	targetUserID int64,
	action enum.ReportAction,
	reviewerID int64,
	notes string,
	reasonFilter *enum.ReportReason,
	logID uuid.UUID,
) ([]int64, error) {
	pending, err := l.reports.ListForTarget(ctx, targetUserID, types.ReportFilter{
		Status: enum.ReportStatusPending,
		Reason: reasonFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}

	expected := types.ReportState{Status: enum.ReportStatusPending}
	transition := types.ReportTransition{
		Status:          action.Status(),
		Action:          action,
		ReviewerID:      reviewerID,
		Notes:           notes,
		ModerationLogID: logID,
	}

	claimed := make([]int64, 0, len(pending))
	for _, report := range pending {
		ok, err := l.reports.ClaimReport(ctx, report.ID, expected, transition)
		if err != nil {
			l.logger.Error("Failed to claim report",
				zap.Int64("report_id", report.ID),
				zap.Error(err))
			continue
		}
		if !ok {
			l.logger.Debug("Report already claimed", zap.Int64("report_id", report.ID))
			continue
		}

		l.reputation.RecordOutcome(ctx, report.ReporterID, action.Outcome())
		claimed = append(claimed, report.ID)
	}

	return claimed, nil
}

// PendingForTarget returns the pending report queue for a user.
func (l *Ledger) PendingForTarget(ctx context.Context, targetUserID int64) ([]*types.Report, error) {
	return l.reports.ListForTarget(ctx, targetUserID, types.ReportFilter{Status: enum.ReportStatusPending})
}

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

// RetroactiveNotePrefix marks moderator notes written by a retroactive promotion.
const RetroactiveNotePrefix = "[retroactive] "

// Promotion lists the reports a retroactive pass moved to action taken.
type Promotion struct {
	Count     int
	ReportIDs []int64
}

// Reclassifier promotes reports that were dismissed as ignored once the target is later punished.
type Reclassifier struct {
	reports    *models.ReportModel
	reputation *ReputationTracker
	logger     *zap.Logger
}

// NewReclassifier creates a Reclassifier.
func NewReclassifier(reports *models.ReportModel, reputation *ReputationTracker, logger *zap.Logger) *Reclassifier {
	return &Reclassifier{
		reports:    reports,
		reputation: reputation,
		logger:     logger.Named("reclassifier"),
	}
}

// PromotePreviouslyDismissed claims dismissed/ignored reports against the target as action taken
// and reverses the reporter outcome of each one claimed. A report can only pass through here once.
func (r *Reclassifier) PromotePreviouslyDismissed(
	ctx context.Context,
	targetUserID int64,
	newAction enum.ReportAction,
	reviewerID int64,
	internalReason string,
	reasonFilter *enum.ReportReason,
	logID uuid.UUID,
) (*Promotion, error) {
	ignored := enum.ReportActionIgnored
	dismissed, err := r.reports.ListForTarget(ctx, targetUserID, types.ReportFilter{
		Status: enum.ReportStatusDismissed,
		Action: &ignored,
		Reason: reasonFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dismissed reports: %w", err)
	}

	expected := types.ReportState{Status: enum.ReportStatusDismissed, Action: &ignored}
	transition := types.ReportTransition{
		Status:          enum.ReportStatusActionTaken,
		Action:          newAction,
		ReviewerID:      reviewerID,
		Notes:           RetroactiveNotePrefix + internalReason,
		ModerationLogID: logID,
	}

	promotion := &Promotion{ReportIDs: make([]int64, 0, len(dismissed))}
	for _, report := range dismissed {
		ok, err := r.reports.ClaimReport(ctx, report.ID, expected, transition)
		if err != nil {
			r.logger.Error("Failed to promote report",
				zap.Int64("report_id", report.ID),
				zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		r.reputation.Reverse(ctx, report.ReporterID)
		promotion.ReportIDs = append(promotion.ReportIDs, report.ID)
	}
	promotion.Count = len(promotion.ReportIDs)

	if promotion.Count > 0 {
		r.logger.Info("Promoted previously dismissed reports",
			zap.Int64("target_user_id", targetUserID),
			zap.String("action", string(newAction)),
			zap.Int64s("report_ids", promotion.ReportIDs))
	}

	return promotion, nil
}

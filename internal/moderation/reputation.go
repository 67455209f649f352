package moderation

import (
	"context"

	"github.com/worldtrek/warden/internal/database/models"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"go.uber.org/zap"
)

// ReputationTracker moves reporter helpful/unhelpful counters.
// It is only called after a successful report claim, and its failures never fail the caller.
type ReputationTracker struct {
	users  *models.UserModel
	logger *zap.Logger
}

// NewReputationTracker creates a ReputationTracker.
func NewReputationTracker(users *models.UserModel, logger *zap.Logger) *ReputationTracker {
	return &ReputationTracker{
		users:  users,
		logger: logger.Named("reputation"),
	}
}

// RecordOutcome increments exactly one of the reporter's counters by one.
func (t *ReputationTracker) RecordOutcome(ctx context.Context, reporterID int64, outcome enum.ReputationOutcome) {
	if err := t.users.IncrementReputation(ctx, reporterID, outcome); err != nil {
		t.logger.Error("Failed to record reporter outcome",
			zap.Int64("reporter_id", reporterID),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
	}
}

// Reverse turns one earlier unhelpful judgement into a helpful one.
func (t *ReputationTracker) Reverse(ctx context.Context, reporterID int64) {
	if err := t.users.ReverseReputation(ctx, reporterID); err != nil {
		t.logger.Error("Failed to reverse reporter outcome",
			zap.Int64("reporter_id", reporterID),
			zap.Error(err))
	}
}

package service

import (
	"context"
	"fmt"

	"github.com/worldtrek/warden/internal/database/models"
	"github.com/worldtrek/warden/internal/database/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReconcileService reports claims left behind by runs that stopped before writing their audit entry.
// It never repairs anything; the report is for operators.
type ReconcileService struct {
	model  *models.ReconcileModel
	logger *zap.Logger
}

// NewReconcile creates a new reconcile service.
func NewReconcile(model *models.ReconcileModel, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{
		model:  model,
		logger: logger.Named("reconcile_service"),
	}
}

// FindOrphans runs every orphan query concurrently.
func (s *ReconcileService) FindOrphans(ctx context.Context) (*types.OrphanedClaims, error) {
	var result types.OrphanedClaims

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ids, err := s.model.OrphanedReportIDs(ctx)
		if err != nil {
			return err
		}
		result.ReportIDs = ids
		return nil
	})

	g.Go(func() error {
		ids, err := s.model.OrphanedMatchIDs(ctx)
		if err != nil {
			return err
		}
		result.MatchIDs = ids
		return nil
	})

	g.Go(func() error {
		ids, err := s.model.OrphanedAdjustmentIDs(ctx)
		if err != nil {
			return err
		}
		result.RatingAdjustmentIDs = ids
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to find orphaned claims: %w", err)
	}

	if !result.IsEmpty() {
		s.logger.Warn("Found claims without an audit entry",
			zap.Int("reports", len(result.ReportIDs)),
			zap.Int("matches", len(result.MatchIDs)),
			zap.Int("rating_adjustments", len(result.RatingAdjustmentIDs)))
	}

	return &result, nil
}

package moderation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/worldtrek/warden/internal/database/models"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RefundOptions tunes the refund engine.
type RefundOptions struct {
	// RatingCeiling is the highest rating a refund can produce.
	RatingCeiling int
	// Concurrency bounds parallel opponent updates.
	Concurrency int
	// CASAttempts bounds compare-and-set retries per opponent.
	CASAttempts int
}

// RefundEngine returns rating that opponents lost to a punished user.
// Each match is refunded at most once, however often the user is punished.
type RefundEngine struct {
	matches *models.MatchModel
	users   *models.UserModel
	ratings *models.RatingModel
	opts    RefundOptions
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewRefundEngine creates a RefundEngine.
func NewRefundEngine(
	matches *models.MatchModel,
	users *models.UserModel,
	ratings *models.RatingModel,
	opts RefundOptions,
	tracer trace.Tracer,
	logger *zap.Logger,
) *RefundEngine {
	opts.Concurrency = max(opts.Concurrency, 1)
	opts.CASAttempts = max(opts.CASAttempts, 1)

	return &RefundEngine{
		matches: matches,
		users:   users,
		ratings: ratings,
		opts:    opts,
		tracer:  tracer,
		logger:  logger.Named("refund"),
	}
}

// opponentResult is the outcome of refunding one opponent.
type opponentResult struct {
	userID   int64
	credited int
	err      error
}

// RefundFromPunishedUser claims every unrefunded competitive match of the punished user and
// credits each opponent who lost rating in those matches. All opponent updates finish before it returns.
func (e *RefundEngine) RefundFromPunishedUser(
	ctx context.Context, punished types.UserRef, logID uuid.UUID,
) (*types.RefundSummary, error) {
	ctx, span := e.tracer.Start(ctx, "moderation.RefundFromPunishedUser",
		trace.WithAttributes(attribute.Int64("punished_user_id", punished.ID)))
	defer span.End()

	matches, err := e.matches.FindMatchesByParticipant(ctx, punished.ID, types.MatchFilter{
		CompetitiveOnly: true,
		UnrefundedOnly:  true,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to find matches: %w", err)
	}

	summary := &types.RefundSummary{}
	owed := make(map[int64]int)

	for _, match := range matches {
		claimed, err := e.matches.ClaimMatchRefund(ctx, match.ID, logID)
		if err != nil {
			e.logger.Error("Failed to claim match refund",
				zap.Int64("match_id", match.ID),
				zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}

		summary.MatchesProcessed++
		for _, player := range match.Players {
			if player.UserID == punished.ID || player.IsGuest() || player.RatingChange >= 0 {
				continue
			}
			owed[player.UserID] += -player.RatingChange
		}
	}

	if len(owed) == 0 {
		return summary, nil
	}

	p := pool.NewWithResults[opponentResult]().WithMaxGoroutines(e.opts.Concurrency)
	for _, userID := range slices.Sorted(maps.Keys(owed)) {
		amount := owed[userID]
		p.Go(func() opponentResult {
			credited, err := e.refundOpponent(ctx, userID, amount, punished, logID)
			return opponentResult{userID: userID, credited: credited, err: err}
		})
	}

	for _, result := range p.Wait() {
		if result.err != nil {
			summary.FailedOpponents++
			e.logger.Error("Failed to refund opponent",
				zap.Int64("user_id", result.userID),
				zap.Int("owed", owed[result.userID]),
				zap.Error(result.err))
			continue
		}
		if result.credited > 0 {
			summary.TotalRefunded += result.credited
			summary.OpponentsAffected++
		}
	}

	span.SetAttributes(
		attribute.Int("matches_processed", summary.MatchesProcessed),
		attribute.Int("opponents_affected", summary.OpponentsAffected),
		attribute.Int("total_refunded", summary.TotalRefunded),
	)

	e.logger.Info("Refunded rating lost to punished user",
		zap.Int64("punished_user_id", punished.ID),
		zap.Int("matches_processed", summary.MatchesProcessed),
		zap.Int("opponents_affected", summary.OpponentsAffected),
		zap.Int("total_refunded", summary.TotalRefunded),
		zap.Int("failed_opponents", summary.FailedOpponents))

	return summary, nil
}

// refundOpponent credits up to amount without passing the ceiling and returns what was credited.
// The rating write is a compare-and-set so concurrent refunds for the same opponent never lose updates.
func (e *RefundEngine) refundOpponent(
	ctx context.Context, userID int64, amount int, punished types.UserRef, logID uuid.UUID,
) (int, error) {
	for range e.opts.CASAttempts {
		current, err := e.users.GetRating(ctx, userID)
		if err != nil {
			if errors.Is(err, types.ErrUserNotFound) {
				return 0, nil
			}
			return 0, err
		}

		newRating := min(current+amount, e.opts.RatingCeiling)
		if newRating <= current {
			return 0, nil
		}

		ok, err := e.users.CompareAndSetRating(ctx, userID, current, newRating)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}

		credited := newRating - current
		e.recordAdjustment(ctx, userID, newRating, credited, punished, logID)

		return credited, nil
	}

	return 0, ErrRatingContention
}

// recordAdjustment appends the timeline entry for a credited refund.
// The rating is already written, so failures here are logged rather than returned.
func (e *RefundEngine) recordAdjustment(
	ctx context.Context, userID int64, newRating, credited int, punished types.UserRef, logID uuid.UUID,
) {
	rank, err := e.users.RankForRating(ctx, newRating)
	if err != nil {
		e.logger.Error("Failed to compute rating rank",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}

	adjustment := &types.RatingAdjustment{
		UserID:           userID,
		CreatedAt:        time.Now().UTC(),
		Rating:           newRating,
		RatingRank:       rank,
		Trigger:          enum.RatingTriggerRefund,
		RefundAmount:     credited,
		PunishedUserID:   punished.ID,
		PunishedUsername: punished.Username,
		ModerationLogID:  &logID,
	}

	if err := e.ratings.AppendAdjustment(ctx, adjustment); err != nil {
		e.logger.Error("Failed to append rating adjustment",
			zap.Int64("user_id", userID),
			zap.Int("credited", credited),
			zap.Error(err))
	}
}

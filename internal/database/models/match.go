package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/dbretry"
	"github.com/worldtrek/warden/internal/database/types"
	"go.uber.org/zap"
)

// MatchModel handles database operations for finished matches.
type MatchModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewMatch creates a MatchModel.
func NewMatch(db *bun.DB, logger *zap.Logger) *MatchModel {
	return &MatchModel{
		db:     db,
		logger: logger.Named("db_match"),
	}
}

// CreateMatch inserts a finished match and its players. Used by the match engine and fixtures.
func (m *MatchModel) CreateMatch(ctx context.Context, match *types.Match) error {
	if err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(match).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	if len(match.Players) == 0 {
		return nil
	}

	for _, player := range match.Players {
		player.MatchID = match.ID
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(&match.Players).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create match players: %w", err)
		}
		return nil
	})
}

// FindMatchesByParticipant returns matches the user played in, with every participant loaded.
func (m *MatchModel) FindMatchesByParticipant(
	ctx context.Context, userID int64, filter types.MatchFilter,
) ([]*types.Match, error) {
	matches, err := dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Match, error) {
		var matches []*types.Match
		query := m.db.NewSelect().
			Model(&matches).
			Where("id IN (?)", m.db.NewSelect().
				Model((*types.MatchPlayer)(nil)).
				Column("match_id").
				Where("user_id = ?", userID))

		if filter.CompetitiveOnly {
			query = query.Where("competitive = ?", true)
		}
		if filter.UnrefundedOnly {
			query = query.Where("rating_refunded = ?", false)
		}

		err := query.Order("id ASC").Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to find matches: %w", err)
		}

		return matches, nil
	})
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return matches, nil
	}

	if err := m.loadPlayers(ctx, matches); err != nil {
		return nil, err
	}

	return matches, nil
}

// loadPlayers attaches participants to each match.
func (m *MatchModel) loadPlayers(ctx context.Context, matches []*types.Match) error {
	matchIDs := make([]int64, 0, len(matches))
	byID := make(map[int64]*types.Match, len(matches))
	for _, match := range matches {
		matchIDs = append(matchIDs, match.ID)
		byID[match.ID] = match
	}

	players, err := dbretry.Operation(ctx, func(ctx context.Context) ([]*types.MatchPlayer, error) {
		var players []*types.MatchPlayer
		err := m.db.NewSelect().
			Model(&players).
			Where("match_id IN (?)", bun.In(matchIDs)).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load match players: %w", err)
		}
		return players, nil
	})
	if err != nil {
		return err
	}

	for _, player := range players {
		if match, ok := byID[player.MatchID]; ok {
			match.Players = append(match.Players, player)
		}
	}

	return nil
}

// ClaimMatchRefund flips the refund flag of a match from false to true.
// Returns false when the match was already refunded by an earlier or concurrent run.
func (m *MatchModel) ClaimMatchRefund(ctx context.Context, matchID int64, logID uuid.UUID) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewUpdate().
			Model((*types.Match)(nil)).
			Set("rating_refunded = ?", true).
			Set("rating_refunded_at = ?", time.Now().UTC()).
			Set("refund_log_id = ?", logID).
			Where("id = ?", matchID).
			Where("rating_refunded = ?", false).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to claim match refund: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get rows affected: %w", err)
		}

		return affected > 0, nil
	})
}

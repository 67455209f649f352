package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/worldtrek/warden/internal/database/dbretry"
	"github.com/worldtrek/warden/internal/database/types"
	"go.uber.org/zap"
)

// ModerationLogModel handles the append-only moderation audit log.
// It deliberately exposes no update or delete operation.
type ModerationLogModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewModerationLog creates a ModerationLogModel.
func NewModerationLog(db *bun.DB, logger *zap.Logger) *ModerationLogModel {
	return &ModerationLogModel{
		db:     db,
		logger: logger.Named("db_moderation_log"),
	}
}

// Append inserts a single audit entry.
func (m *ModerationLogModel) Append(ctx context.Context, entry *types.ModerationLog) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(entry).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to append moderation log: %w", err)
		}

		m.logger.Debug("Appended moderation log",
			zap.String("id", entry.ID.String()),
			zap.String("action", entry.Action.String()),
			zap.Int64("target_user_id", entry.TargetUserID),
			zap.Int64("moderator_id", entry.ModeratorID))

		return nil
	})
}

// GetByID retrieves one audit entry.
func (m *ModerationLogModel) GetByID(ctx context.Context, id uuid.UUID) (*types.ModerationLog, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.ModerationLog, error) {
		var entry types.ModerationLog
		err := m.db.NewSelect().
			Model(&entry).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrNoLogsFound
			}
			return nil, fmt.Errorf("failed to get moderation log: %w", err)
		}
		return &entry, nil
	})
}

// GetLogs retrieves audit entries newest first using cursor-based pagination.
func (m *ModerationLogModel) GetLogs(
	ctx context.Context, filter types.LogFilter, cursor *types.LogCursor, limit int,
) ([]*types.ModerationLog, *types.LogCursor, error) {
	var logs []*types.ModerationLog
	var nextCursor *types.LogCursor

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		logs = nil
		nextCursor = nil

		query := m.db.NewSelect().Model(&logs)

		if filter.TargetUserID != 0 {
			query = query.Where("target_user_id = ?", filter.TargetUserID)
		}
		if filter.ModeratorID != 0 {
			query = query.Where("moderator_id = ?", filter.ModeratorID)
		}
		if filter.Action != "" {
			query = query.Where("action = ?", filter.Action)
		}

		// Apply cursor conditions if cursor exists
		if cursor != nil {
			query = query.Where("sequence <= ?", cursor.Sequence)
		}

		err := query.
			Order("sequence DESC").
			Limit(limit + 1). // Get one extra to determine if there are more results
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}

		if len(logs) > limit {
			// Use the extra item as the next cursor
			nextCursor = &types.LogCursor{Sequence: logs[limit].Sequence}
			logs = logs[:limit]
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return logs, nextCursor, nil
}

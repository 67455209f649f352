package service

import (
	"context"

	"github.com/worldtrek/warden/internal/database/models"
	"github.com/worldtrek/warden/internal/database/types"
	"go.uber.org/zap"
)

const (
	// DefaultLogPageSize is used when a caller does not ask for a page size.
	DefaultLogPageSize = 20
	// MaxLogPageSize is the largest page a caller can request.
	MaxLogPageSize = 100
)

// LogService handles moderation audit log queries.
type LogService struct {
	model  *models.ModerationLogModel
	logger *zap.Logger
}

// NewLog creates a new log service.
func NewLog(model *models.ModerationLogModel, logger *zap.Logger) *LogService {
	return &LogService{
		model:  model,
		logger: logger.Named("log_service"),
	}
}

// GetLogs returns one page of audit entries newest first along with the cursor of the next page.
// The limit is clamped to [1, MaxLogPageSize]; zero selects DefaultLogPageSize.
func (s *LogService) GetLogs(
	ctx context.Context, filter types.LogFilter, cursor *types.LogCursor, limit int,
) ([]*types.ModerationLog, *types.LogCursor, error) {
	switch {
	case limit == 0:
		limit = DefaultLogPageSize
	case limit < 1:
		limit = 1
	case limit > MaxLogPageSize:
		limit = MaxLogPageSize
	}

	return s.model.GetLogs(ctx, filter, cursor, limit)
}

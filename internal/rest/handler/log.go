package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/uptrace/bunrouter"
	"github.com/worldtrek/warden/internal/database"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"github.com/worldtrek/warden/internal/moderation"
	"github.com/worldtrek/warden/internal/rest/convert"
	"github.com/worldtrek/warden/internal/rest/middleware/auth"
	restTypes "github.com/worldtrek/warden/internal/rest/types"
	"go.uber.org/zap"
)

// LogHandler handles audit log endpoints.
type LogHandler struct {
	db        database.Client
	processor *moderation.Processor
	logger    *zap.Logger
}

// NewLogHandler creates a new log handler.
func NewLogHandler(db database.Client, processor *moderation.Processor, logger *zap.Logger) *LogHandler {
	return &LogHandler{
		db:        db,
		processor: processor,
		logger:    logger.Named("log_handler"),
	}
}

// GetLogs returns one page of the audit log, newest first.
//
//	GET /v1/moderation/logs?targetUserId=&moderatorId=&action=&cursor=&limit=
func (h *LogHandler) GetLogs(w http.ResponseWriter, req bunrouter.Request) error {
	if _, err := h.processor.Authorize(req.Context(), auth.FromContext(req.Context())); err != nil {
		return writeError(w, h.logger, err)
	}

	query := req.URL.Query()

	var (
		filter types.LogFilter
		cursor *types.LogCursor
		limit  int64
		err    error
	)

	if filter.TargetUserID, err = optionalInt(query, "targetUserId"); err != nil {
		return writeError(w, h.logger, err)
	}
	if filter.ModeratorID, err = optionalInt(query, "moderatorId"); err != nil {
		return writeError(w, h.logger, err)
	}
	if limit, err = optionalInt(query, "limit"); err != nil {
		return writeError(w, h.logger, err)
	}

	if action := query.Get("action"); action != "" {
		filter.Action = enum.ModerationAction(action)
		if !filter.Action.IsValid() {
			return writeError(w, h.logger, moderation.ErrUnknownAction)
		}
	}

	sequence, err := optionalInt(query, "cursor")
	if err != nil {
		return writeError(w, h.logger, err)
	}
	if sequence > 0 {
		cursor = &types.LogCursor{Sequence: sequence}
	}

	logs, next, err := h.db.Service().Log().GetLogs(req.Context(), filter, cursor, int(limit))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	response := restTypes.GetLogsResponse{Logs: convert.LogEntries(logs)}
	if next != nil {
		response.NextCursor = &next.Sequence
	}

	return bunrouter.JSON(w, response)
}

// optionalInt parses a non-negative integer query parameter. Missing parameters are zero.
func optionalInt(query url.Values, name string) (int64, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", moderation.ErrValidation, name)
	}

	return value, nil
}

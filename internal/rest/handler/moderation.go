package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/uptrace/bunrouter"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"github.com/worldtrek/warden/internal/moderation"
	"github.com/worldtrek/warden/internal/rest/convert"
	"github.com/worldtrek/warden/internal/rest/middleware/auth"
	restTypes "github.com/worldtrek/warden/internal/rest/types"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// ModerationHandler handles moderation action endpoints.
type ModerationHandler struct {
	processor *moderation.Processor
	logger    *zap.Logger
}

// NewModerationHandler creates a new moderation handler.
func NewModerationHandler(processor *moderation.Processor, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{
		processor: processor,
		logger:    logger.Named("moderation_handler"),
	}
}

// ApplyAction applies one moderation action to a user.
//
//	POST /v1/moderation/actions
func (h *ModerationHandler) ApplyAction(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.ApplyActionRequest
	if err := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(&body); err != nil {
		return writeError(w, h.logger, fmt.Errorf("%w: malformed body: %w", moderation.ErrValidation, err))
	}

	if body.DurationSeconds < 0 {
		return writeError(w, h.logger, moderation.ErrDurationRequired)
	}
	// Checked before conversion so large values cannot wrap into a short ban
	if body.DurationSeconds > moderation.MaxBanSeconds {
		return writeError(w, h.logger, moderation.ErrDurationTooLong)
	}

	result, err := h.processor.Apply(req.Context(), moderation.Request{
		Credential:   auth.FromContext(req.Context()),
		Action:       enum.ModerationAction(body.Action),
		TargetUserID: body.TargetUserID,
		Reason:       body.Reason,
		PublicNote:   body.PublicNote,
		Duration:     time.Duration(body.DurationSeconds) * time.Second,
		ReportIDs:    body.ReportIDs,
		SkipRefund:   body.SkipRefund,
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Result(result))
}

// GetPendingReports lists the pending reports against a user.
//
//	GET /v1/moderation/reports?targetUserId=
func (h *ModerationHandler) GetPendingReports(w http.ResponseWriter, req bunrouter.Request) error {
	if _, err := h.processor.Authorize(req.Context(), auth.FromContext(req.Context())); err != nil {
		return writeError(w, h.logger, err)
	}

	targetUserID, err := strconv.ParseInt(req.URL.Query().Get("targetUserId"), 10, 64)
	if err != nil || targetUserID <= 0 {
		return writeError(w, h.logger, fmt.Errorf("%w: targetUserId must be a positive integer", moderation.ErrValidation))
	}

	reports, err := h.processor.Ledger().PendingForTarget(req.Context(), targetUserID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.GetReportsResponse{
		TargetUserID: targetUserID,
		Reports:      convert.PendingReports(reports),
	})
}

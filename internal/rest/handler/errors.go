package handler

import (
	"errors"
	"net/http"

	"github.com/uptrace/bunrouter"
	"github.com/worldtrek/warden/internal/moderation"
	restTypes "github.com/worldtrek/warden/internal/rest/types"
	"go.uber.org/zap"
)

// statusFor maps an error class to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, moderation.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, moderation.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, moderation.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, moderation.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the error response for err. Internal errors are logged and not echoed.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) error {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		message = "Internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return bunrouter.JSON(w, restTypes.ErrorResponse{Error: message})
}

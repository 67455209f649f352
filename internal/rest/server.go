package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/uptrace/bunrouter"
	"github.com/worldtrek/warden/internal/database"
	"github.com/worldtrek/warden/internal/moderation"
	"github.com/worldtrek/warden/internal/rest/handler"
	"github.com/worldtrek/warden/internal/rest/middleware/auth"
	"github.com/worldtrek/warden/internal/setup/config"
	"go.uber.org/zap"
)

// Server implements the staff REST API.
type Server struct {
	moderationHandler *handler.ModerationHandler
	logHandler        *handler.LogHandler
}

// NewServer creates a new REST API server.
func NewServer(
	db database.Client, processor *moderation.Processor, logger *zap.Logger, config *config.APIConfig,
) http.Handler {
	server := &Server{
		moderationHandler: handler.NewModerationHandler(processor, logger),
		logHandler:        handler.NewLogHandler(db, processor, logger),
	}

	authMiddleware := auth.New(logger)
	timeout := time.Duration(config.RequestTimeout) * time.Millisecond

	router := bunrouter.New()

	router.Use(
		timeoutMiddleware(timeout),
		authMiddleware.AsRESTMiddleware,
	).WithGroup("/v1/moderation", func(g *bunrouter.Group) {
		g.POST("/actions", server.moderationHandler.ApplyAction)
		g.GET("/reports", server.moderationHandler.GetPendingReports)
		g.GET("/logs", server.logHandler.GetLogs)
	})

	return gzhttp.GzipHandler(router)
}

// timeoutMiddleware bounds the request context. A zero timeout disables it.
func timeoutMiddleware(timeout time.Duration) bunrouter.MiddlewareFunc {
	return func(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
		if timeout <= 0 {
			return next
		}

		return func(w http.ResponseWriter, req bunrouter.Request) error {
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()

			return next(w, req.WithContext(ctx))
		}
	}
}

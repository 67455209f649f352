package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/worldtrek/warden/internal/moderation"
	"github.com/worldtrek/warden/internal/rest"
	"github.com/worldtrek/warden/internal/setup"
	"github.com/worldtrek/warden/internal/setup/telemetry"
	"go.uber.org/zap"
)

// RESTLogDir specifies where REST server log files are stored.
const RESTLogDir = "logs/rest_logs"

// Server timeouts.
const (
	ReadTimeout     = 5 * time.Second
	ShutdownTimeout = 30 * time.Second
)

func main() {
	app, err := setup.InitializeApp(context.Background(), telemetry.ServiceAPI, RESTLogDir, "")
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup(context.Background())

	processor := moderation.NewProcessor(
		app.DB, app.DB.Service().Staff(), app.Enforcer, &app.Config.Moderation, app.Logger,
	)
	handler := rest.NewServer(app.DB, processor, app.Logger, &app.Config.API)

	addr := fmt.Sprintf("%s:%d", app.Config.API.Server.Host, app.Config.API.Server.Port)

	// Writes may run a full refund, so allow the request timeout plus headroom
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: telemetry.ServiceAPI.GetRequestTimeout(app.Config) + ReadTimeout,
	}

	go func() {
		app.Logger.Info("REST server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("Failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	app.Logger.Info("Shutting down REST server...")

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")
}

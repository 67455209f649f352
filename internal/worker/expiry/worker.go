package expiry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/worldtrek/warden/internal/database"
	"github.com/worldtrek/warden/internal/database/types"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"github.com/worldtrek/warden/internal/moderation"
	"github.com/worldtrek/warden/internal/setup/config"
	"github.com/worldtrek/warden/internal/worker/core"
	"go.uber.org/zap"
)

// ExpiredReason is the internal reason recorded when a temporary ban runs out.
const ExpiredReason = "temporary ban expired"

// Worker lifts temporary bans once their expiry has passed.
type Worker struct {
	db        database.Client
	enforcer  moderation.Enforcer
	reporter  *core.StatusReporter
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
	processed int64
}

// New creates a new expiry worker.
func New(
	db database.Client, enforcer moderation.Enforcer, reporter *core.StatusReporter,
	cfg config.Expiry, logger *zap.Logger,
) *Worker {
	return &Worker{
		db:        db,
		enforcer:  enforcer,
		reporter:  reporter,
		logger:    logger.Named("expiry_worker"),
		interval:  time.Duration(max(cfg.Interval, 1)) * time.Second,
		batchSize: max(cfg.BatchSize, 1),
	}
}

// Start runs sweeps until the context is canceled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Expiry Worker started", zap.String("workerID", w.reporter.GetWorkerID()))
	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweepAll(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			w.logger.Info("Expiry Worker stopped")
			return
		}
	}
}

// sweepAll keeps sweeping while full batches come back.
func (w *Worker) sweepAll(ctx context.Context) {
	w.reporter.UpdateStatus("Lifting expired bans", w.processed)

	for ctx.Err() == nil {
		lifted, found, err := w.Sweep(ctx, time.Now().UTC())
		if err != nil {
			w.logger.Error("Failed to sweep expired bans", zap.Error(err))
			w.reporter.SetHealthy(false)
			return
		}

		w.processed += int64(lifted)
		w.reporter.SetHealthy(true)

		if found < w.batchSize {
			break
		}
	}

	w.reporter.UpdateStatus("Idle", w.processed)
}

// Sweep lifts one batch of temporary bans that expired at or before now.
// Returns how many bans this call lifted and how many expired bans it saw.
func (w *Worker) Sweep(ctx context.Context, now time.Time) (int, int, error) {
	users, err := w.db.Model().User().GetExpiredTemporaryBans(ctx, now, w.batchSize)
	if err != nil {
		return 0, 0, err
	}

	lifted := 0
	for _, user := range users {
		if user.BanExpiresAt == nil {
			continue
		}

		ok, err := w.db.Model().User().ClaimBanExpiry(ctx, user.ID, *user.BanExpiresAt)
		if err != nil {
			w.logger.Error("Failed to lift expired ban",
				zap.Int64("user_id", user.ID),
				zap.Error(err))
			continue
		}
		if !ok {
			// Lifted or replaced by someone else
			continue
		}

		lifted++
		w.enforcer.InvalidateAuthCache(user.ID)

		entry := &types.ModerationLog{
			ID:                uuid.New(),
			CreatedAt:         time.Now().UTC(),
			TargetUserID:      user.ID,
			TargetUsername:    user.Username,
			ModeratorID:       types.SystemModerator.ID,
			ModeratorUsername: types.SystemModerator.Username,
			Action:            enum.ModerationActionUnban,
			Reason:            ExpiredReason,
		}
		if err := w.db.Model().ModerationLog().Append(ctx, entry); err != nil {
			w.logger.Error("Failed to write audit entry for expired ban",
				zap.Int64("user_id", user.ID),
				zap.String("moderation_log_id", entry.ID.String()),
				zap.Error(err))
		}
	}

	if lifted > 0 {
		w.logger.Info("Lifted expired temporary bans", zap.Int("count", lifted))
	}

	return lifted, len(users), nil
}

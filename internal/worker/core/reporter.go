package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// StatusReporter periodically publishes a worker's heartbeat.
type StatusReporter struct {
	monitor  *Monitor
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStatusReporter creates a new status reporter for a worker.
func NewStatusReporter(client rueidis.Client, workerType, instanceID string, logger *zap.Logger) *StatusReporter {
	return &StatusReporter{
		monitor:  NewMonitor(client, logger),
		interval: HeartbeatInterval,
		logger:   logger.Named("status_reporter"),
		status: Status{
			WorkerID:   uuid.New().String(),
			WorkerType: workerType,
			InstanceID: instanceID,
			IsHealthy:  true,
		},
	}
}

// Start begins periodic status reporting. Calling Start twice has no effect.
func (r *StatusReporter) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.run(ctx, r.done)
}

func (r *StatusReporter) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.monitor.ReportStatus(ctx, r.snapshot()); err != nil && ctx.Err() == nil {
			r.logger.Error("Failed to report status", zap.Error(err))
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends status reporting and waits for the reporting goroutine.
func (r *StatusReporter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// UpdateStatus updates the current task and processed count.
func (r *StatusReporter) UpdateStatus(task string, processed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.CurrentTask = task
	r.status.Processed = processed
}

// SetHealthy updates the health status.
func (r *StatusReporter) SetHealthy(healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.IsHealthy = healthy
}

// GetWorkerID returns the unique worker ID.
func (r *StatusReporter) GetWorkerID() string {
	return r.status.WorkerID
}

// ReportNow publishes the current status immediately.
func (r *StatusReporter) ReportNow(ctx context.Context) error {
	return r.monitor.ReportStatus(ctx, r.snapshot())
}

func (r *StatusReporter) snapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

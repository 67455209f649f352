package enforcement

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"github.com/worldtrek/warden/internal/setup/config"
	"go.uber.org/zap"
)

// ErrDispatcherClosed is logged when a signal is pushed after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// attemptTimeout bounds a single delivery attempt.
const attemptTimeout = 5 * time.Second

type jobKind int

const (
	jobPublish jobKind = iota
	jobInvalidate
)

type job struct {
	kind   jobKind
	signal Signal
}

// Dispatcher delivers enforcement effects in the background.
// Pushes never block; when the queue is full the signal is dropped and logged.
type Dispatcher struct {
	sink       Sink
	jobs       chan job
	wg         conc.WaitGroup
	mu         sync.RWMutex
	closed     bool
	maxRetries uint64
	initial    time.Duration
	maxDelay   time.Duration
	logger     *zap.Logger
}

// NewDispatcher starts the delivery workers.
func NewDispatcher(sink Sink, cfg config.Enforcement, logger *zap.Logger) *Dispatcher {
	queueSize := max(cfg.QueueSize, 1)
	workers := max(cfg.Workers, 1)

	d := &Dispatcher{
		sink:       sink,
		jobs:       make(chan job, queueSize),
		maxRetries: cfg.MaxRetries,
		initial:    cfg.InitialIntervalDuration(),
		maxDelay:   cfg.MaxIntervalDuration(),
		logger:     logger.Named("enforcement"),
	}
	if d.initial <= 0 {
		d.initial = 100 * time.Millisecond
	}
	if d.maxDelay < d.initial {
		d.maxDelay = d.initial
	}

	for range workers {
		d.wg.Go(d.run)
	}

	return d
}

// PushEnforcement queues a live-session signal for the user.
func (d *Dispatcher) PushEnforcement(userID int64, kind enum.EnforcementKind) {
	d.enqueue(job{
		kind: jobPublish,
		signal: Signal{
			UserID:   userID,
			Kind:     kind,
			IssuedAt: time.Now().UTC(),
		},
	})
}

// InvalidateAuthCache queues eviction of the user's cached auth state.
func (d *Dispatcher) InvalidateAuthCache(userID int64) {
	d.enqueue(job{
		kind:   jobInvalidate,
		signal: Signal{UserID: userID},
	})
}

func (d *Dispatcher) enqueue(j job) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Dropped enforcement job",
			zap.Int64("user_id", j.signal.UserID),
			zap.Error(ErrDispatcherClosed))
		return
	}

	select {
	case d.jobs <- j:
	default:
		d.logger.Warn("Enforcement queue full, dropped job",
			zap.Int64("user_id", j.signal.UserID),
			zap.String("kind", string(j.signal.Kind)))
	}
}

// Close stops accepting jobs and waits for queued ones to be delivered or given up.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run() {
	for j := range d.jobs {
		d.deliver(j)
	}
}

// deliver retries one job with exponential backoff and logs the final failure.
func (d *Dispatcher) deliver(j job) {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(d.initial),
		backoff.WithMaxInterval(d.maxDelay),
	), d.maxRetries)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++

		ctx, cancel := context.WithTimeout(context.Background(), attemptTimeout)
		defer cancel()

		switch j.kind {
		case jobPublish:
			return d.sink.Publish(ctx, j.signal)
		case jobInvalidate:
			return d.sink.InvalidateSession(ctx, j.signal.UserID)
		default:
			return backoff.Permanent(errors.New("unknown enforcement job"))
		}
	}, b)
	if err != nil {
		d.logger.Error("Failed to deliver enforcement job",
			zap.Int64("user_id", j.signal.UserID),
			zap.String("kind", string(j.signal.Kind)),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return
	}

	d.logger.Debug("Delivered enforcement job",
		zap.Int64("user_id", j.signal.UserID),
		zap.String("kind", string(j.signal.Kind)))
}

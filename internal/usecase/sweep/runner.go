package sweep

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner sweeps on a fixed interval until stopped.
type Runner struct {
	svc      *Service
	interval time.Duration
	backfill bool
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a periodic sweeper. Start is a no-op when interval <= 0.
func NewRunner(svc *Service, interval time.Duration, backfill bool, logger *zap.Logger) *Runner {
	return &Runner{svc: svc, interval: interval, backfill: backfill, logger: logger}
}

// Start launches the loop. The first sweep runs after one interval.
func (r *Runner) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		r.logger.Info("Sweep runner started", zap.Duration("interval", r.interval))

		for {
			select {
			case <-ctx.Done():
				r.logger.Info("Sweep runner stopped")
				return
			case <-ticker.C:
				if _, err := r.svc.Run(ctx, r.backfill); err != nil && ctx.Err() == nil {
					r.logger.Error("Sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

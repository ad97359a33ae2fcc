package main

import (
	"context"
	"sync"
	"time"

	"smartsupply/internal/domain/inventory"
	"smartsupply/pkg/logger"
)

// Relay delivers pending audit intents to the mirror.
type Relay interface {
	ProcessBatch(ctx context.Context) (int, error)
	MoveToDLQ(ctx context.Context) (int64, error)
}

// Sweeper runs reconciliation checks.
type Sweeper interface {
	Sweep(ctx context.Context) (*inventory.SweepReport, error)
}

// KeyCleaner drops expired idempotency keys.
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Intervals drive the worker loops.
type Intervals struct {
	Relay     time.Duration
	Reconcile time.Duration
	Cleanup   time.Duration
}

// Worker runs the outbox relay, reconciliation sweeps and cleanup.
type Worker struct {
	relay     Relay
	sweeper   Sweeper
	cleaner   KeyCleaner
	intervals Intervals
	log       *logger.Logger
}

func NewWorker(relay Relay, sweeper Sweeper, cleaner KeyCleaner, intervals Intervals, log *logger.Logger) *Worker {
	return &Worker{
		relay:     relay,
		sweeper:   sweeper,
		cleaner:   cleaner,
		intervals: intervals,
		log:       log.WithComponent("worker"),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	loops := []struct {
		every time.Duration
		fn    func(context.Context)
	}{
		{w.intervals.Relay, w.relayOnce},
		{w.intervals.Reconcile, w.reconcileOnce},
		{w.intervals.Cleanup, w.cleanupOnce},
	}
	for _, l := range loops {
		wg.Add(1)
		go func() {
			defer wg.Done()
			every(ctx, l.every, l.fn)
		}()
	}
	wg.Wait()
}

func every(ctx context.Context, d time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (w *Worker) relayOnce(ctx context.Context) {
	// Drain: keep going while full batches come back.
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox relay failed", "error", err)
			return
		}
		if n == 0 {
			return
		}
		w.log.Debugw("relayed audit intents", "count", n)
	}
}

func (w *Worker) reconcileOnce(ctx context.Context) {
	report, err := w.sweeper.Sweep(ctx)
	if err != nil {
		w.log.Errorw("reconciliation sweep failed", "error", err)
		return
	}
	if report.Found > 0 {
		w.log.Errorw("reconciliation found inconsistencies",
			"found", report.Found,
			"recorded", report.Recorded,
			"by_kind", report.ByKind,
		)
		return
	}
	w.log.Debugw("reconciliation sweep clean")
}

func (w *Worker) cleanupOnce(ctx context.Context) {
	if moved, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("move failed intents to DLQ", "error", err)
	} else if moved > 0 {
		w.log.Warnw("moved failed intents to DLQ", "count", moved)
	}

	if w.cleaner == nil {
		return
	}
	if n, err := w.cleaner.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}

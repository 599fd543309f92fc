package sync

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/pulseflow/pulseflow/internal/store"
)

// Destination ships an export snapshot somewhere durable. Name identifies
// the target in logs.
type Destination interface {
	Name() string
	Write(ctx context.Context, data []byte) error
}

// Scheduler exports the store as JSONL on a fixed cadence and ships the
// snapshot to every configured destination. A destination failure is
// logged and does not stop the others.
type Scheduler struct {
	store    store.Store
	dests    []Destination
	interval time.Duration
	log      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(s store.Store, dests []Destination, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:    s,
		dests:    dests,
		interval: interval,
		log:      log,
	}
}

// Start ships one snapshot immediately, then one per interval, until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			s.ship(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight snapshot to finish.
// Calling Stop on a scheduler that never started is a no-op.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) ship(ctx context.Context) {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, &buf); err != nil {
		if ctx.Err() == nil {
			s.log.Error("snapshot export failed", "err", err)
		}
		return
	}
	snapshot := buf.Bytes()

	shipped := 0
	for _, dest := range s.dests {
		if err := dest.Write(ctx, snapshot); err != nil {
			s.log.Error("snapshot write failed", "destination", dest.Name(), "err", err)
			continue
		}
		shipped++
	}
	s.log.Info("snapshot shipped", "destinations", shipped, "bytes", len(snapshot))
}

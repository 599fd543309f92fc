package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pulseflow/pulseflow/internal/model"
)

// captureDestination is a Destination that records shipped snapshots and
// can be told to fail.
type captureDestination struct {
	name    string
	fail    error
	writes  atomic.Int64
	payload atomic.Value // []byte
}

func (d *captureDestination) Name() string { return d.name }

func (d *captureDestination) Write(_ context.Context, data []byte) error {
	if d.fail != nil {
		return d.fail
	}
	d.writes.Add(1)
	d.payload.Store(append([]byte(nil), data...))
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerShipsSnapshots(t *testing.T) {
	ms := newMockStore()
	now := time.Now().UTC()
	ms.automations["at-dca"] = &model.Automation{ID: "at-dca", Name: "Weekly DCA", Enabled: true, CreatedAt: now, UpdatedAt: now}
	ms.configs["view:active"] = &model.Config{Key: "view:active", Value: json.RawMessage(`{}`), CreatedAt: now, UpdatedAt: now}

	good := &captureDestination{name: "git:/tmp/snapshots@main"}
	broken := &captureDestination{name: "s3://pulse/export", fail: errors.New("bucket gone")}

	sched := NewScheduler(ms, []Destination{broken, good}, 50*time.Millisecond, quietLogger())
	sched.Start()
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	// Initial snapshot plus at least one tick, and the failing
	// destination must not have blocked the healthy one.
	if n := good.writes.Load(); n < 2 {
		t.Fatalf("healthy destination got %d snapshots, want at least 2", n)
	}

	data, _ := good.payload.Load().([]byte)
	lines := nonEmptyLines(string(data))
	// Header line, one automation, one config.
	if len(lines) != 3 {
		t.Fatalf("snapshot has %d lines, want 3:\n%s", len(lines), data)
	}
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &header); err != nil || header.Type != "header" {
		t.Errorf("first line is not a header: %s", lines[0])
	}
}

func TestSchedulerFansOut(t *testing.T) {
	ms := newMockStore()
	a := &captureDestination{name: "a"}
	b := &captureDestination{name: "b"}

	sched := NewScheduler(ms, []Destination{a, b}, time.Minute, quietLogger())
	sched.Start()
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	for _, dest := range []*captureDestination{a, b} {
		if dest.writes.Load() < 1 {
			t.Errorf("destination %s never received the initial snapshot", dest.name)
		}
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	sched := NewScheduler(newMockStore(), nil, time.Minute, quietLogger())
	sched.Stop()
}

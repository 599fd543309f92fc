package server

import (
	"fmt"
	"testing"
)

func TestTopicMatch(t *testing.T) {
	admit := []struct{ pattern, topic string }{
		{"pulse.node.appended", "pulse.node.appended"},
		{"pulse.run.*", "pulse.run.result"},
		{"pulse.*.added", "pulse.connection.added"},
		{"pulse.>", "pulse.run.finished"},
		{"pulse.>", "pulse.automation.deleted"},
		{"*", "pulse"},
	}
	for _, tc := range admit {
		if !topicMatch(tc.pattern, tc.topic) {
			t.Errorf("pattern %q should admit %q", tc.pattern, tc.topic)
		}
	}

	reject := []struct{ pattern, topic string }{
		{"pulse.node.appended", "pulse.run.started"},
		{"pulse.run.*", "pulse.run.status.extra"},
		{"pulse.run.*", "pulse.run"},
		{"pulse.>", "pulse"},
		{"pulse.run", "pulse.run.status"},
	}
	for _, tc := range reject {
		if topicMatch(tc.pattern, tc.topic) {
			t.Errorf("pattern %q should reject %q", tc.pattern, tc.topic)
		}
	}
}

func TestTopicFilterAdmits(t *testing.T) {
	if !(topicFilter)(nil).admits("pulse.run.status") {
		t.Error("empty filter should admit every topic")
	}

	f := parseTopicFilters(" pulse.run.* ,, pulse.automation.deleted")
	if len(f) != 2 {
		t.Fatalf("parsed %d patterns, want 2", len(f))
	}
	if !f.admits("pulse.run.started") {
		t.Error("filter should admit pulse.run.started")
	}
	if !f.admits("pulse.automation.deleted") {
		t.Error("filter should admit pulse.automation.deleted")
	}
	if f.admits("pulse.node.appended") {
		t.Error("filter should reject pulse.node.appended")
	}
}

func TestStreamHubFanOut(t *testing.T) {
	hub := newStreamHub()

	everything := hub.watch(nil)
	runsOnly := hub.watch(topicFilter{"pulse.run.*"})
	defer hub.drop(everything)
	defer hub.drop(runsOnly)

	hub.publish("pulse.run.started", []byte(`{"run_id":"rn-1"}`))
	hub.publish("pulse.node.appended", []byte(`{"node":{"id":"nd-2"}}`))

	if got := len(everything.events); got != 2 {
		t.Errorf("unfiltered watcher holds %d events, want 2", got)
	}
	if got := len(runsOnly.events); got != 1 {
		t.Fatalf("filtered watcher holds %d events, want 1", got)
	}
	evt := <-runsOnly.events
	if evt.topic != "pulse.run.started" || evt.seq != 1 {
		t.Errorf("filtered watcher got seq %d topic %q", evt.seq, evt.topic)
	}
}

func TestStreamHubReplay(t *testing.T) {
	hub := newStreamHub()
	for i := range 6 {
		hub.publish("pulse.run.status", fmt.Appendf(nil, `{"step":%d}`, i))
	}

	missed := hub.replay(4)
	if len(missed) != 2 {
		t.Fatalf("replay(4) returned %d events, want 2", len(missed))
	}
	if missed[0].seq != 5 || missed[1].seq != 6 {
		t.Errorf("replayed seqs %d,%d, want 5,6", missed[0].seq, missed[1].seq)
	}

	if got := hub.replay(6); got != nil {
		t.Errorf("replay past the newest event returned %d events", len(got))
	}
}

func TestStreamHubHistoryWindow(t *testing.T) {
	hub := newStreamHub()

	extra := 25
	for range streamHistoryLimit + extra {
		hub.publish("pulse.run.status", []byte(`{}`))
	}

	all := hub.replay(0)
	if len(all) != streamHistoryLimit {
		t.Fatalf("history holds %d events, want %d", len(all), streamHistoryLimit)
	}
	if oldest := all[0].seq; oldest != uint64(extra+1) {
		t.Errorf("oldest retained seq = %d, want %d", oldest, extra+1)
	}
	if newest := all[len(all)-1].seq; newest != uint64(streamHistoryLimit+extra) {
		t.Errorf("newest retained seq = %d, want %d", newest, streamHistoryLimit+extra)
	}
}

func TestStreamHubSlowWatcherDropsEvents(t *testing.T) {
	hub := newStreamHub()
	w := hub.watch(nil)
	defer hub.drop(w)

	// Publishing far past the watcher buffer must not block the hub.
	for range 3 * cap(w.events) {
		hub.publish("pulse.run.status", []byte(`{}`))
	}
	if got := len(w.events); got != cap(w.events) {
		t.Errorf("watcher buffer holds %d events, want full %d", got, cap(w.events))
	}
}

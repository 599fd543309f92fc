package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// streamHistoryLimit bounds the replay window kept for clients that
	// reconnect with Last-Event-ID.
	streamHistoryLimit = 1000

	// streamKeepalive is the interval between comment lines that keep
	// idle SSE connections from being reaped by proxies.
	streamKeepalive = 15 * time.Second
)

// streamEvent is one event on the SSE feed. seq is assigned by the hub and
// doubles as the SSE event id.
type streamEvent struct {
	seq   uint64
	topic string
	data  []byte
}

// streamWatcher is one connected SSE client. Its channel is buffered;
// publish drops events for watchers that fall behind.
type streamWatcher struct {
	filter topicFilter
	events chan streamEvent
}

// streamHub fans recorded events out to SSE watchers and keeps a bounded
// history so reconnecting clients can catch up.
type streamHub struct {
	mu       sync.Mutex
	seq      uint64
	watchers map[*streamWatcher]struct{}
	history  []streamEvent // oldest first, at most streamHistoryLimit
}

func newStreamHub() *streamHub {
	return &streamHub{watchers: make(map[*streamWatcher]struct{})}
}

// publish assigns the next sequence number, records the event in the
// history window, and hands it to every watcher whose filter admits it.
func (h *streamHub) publish(topic string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	evt := streamEvent{seq: h.seq, topic: topic, data: data}

	h.history = append(h.history, evt)
	if len(h.history) > streamHistoryLimit {
		h.history = h.history[len(h.history)-streamHistoryLimit:]
	}

	for w := range h.watchers {
		if !w.filter.admits(topic) {
			continue
		}
		select {
		case w.events <- evt:
		default:
		}
	}
}

func (h *streamHub) watch(filter topicFilter) *streamWatcher {
	w := &streamWatcher{
		filter: filter,
		events: make(chan streamEvent, 64),
	}
	h.mu.Lock()
	h.watchers[w] = struct{}{}
	h.mu.Unlock()
	return w
}

func (h *streamHub) drop(w *streamWatcher) {
	h.mu.Lock()
	delete(h.watchers, w)
	h.mu.Unlock()
}

// replay returns the retained events with sequence numbers above after,
// oldest first. Events that already fell out of the window are gone; the
// caller gets whatever the history still covers.
func (h *streamHub) replay(after uint64) []streamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := len(h.history)
	for i > 0 && h.history[i-1].seq > after {
		i--
	}
	if i == len(h.history) {
		return nil
	}
	out := make([]streamEvent, len(h.history)-i)
	copy(out, h.history[i:])
	return out
}

// topicFilter is the set of subject patterns a watcher asked for. An empty
// filter admits everything.
type topicFilter []string

// parseTopicFilters splits the topics query parameter into a filter,
// ignoring empty entries.
func parseTopicFilters(raw string) topicFilter {
	var f topicFilter
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f = append(f, p)
		}
	}
	return f
}

func (f topicFilter) admits(topic string) bool {
	if len(f) == 0 {
		return true
	}
	for _, pattern := range f {
		if topicMatch(pattern, topic) {
			return true
		}
	}
	return false
}

// topicMatch compares a dot-separated subject against a pattern using NATS
// wildcard rules: "*" stands for exactly one segment, a trailing ">" for
// one or more.
func topicMatch(pattern, topic string) bool {
	for pattern != "" {
		if pattern == ">" {
			return topic != ""
		}
		if topic == "" {
			return false
		}
		pseg, prest, _ := strings.Cut(pattern, ".")
		tseg, trest, _ := strings.Cut(topic, ".")
		if pseg != "*" && pseg != tseg {
			return false
		}
		pattern, topic = prest, trest
	}
	return topic == ""
}

// handleEventStream serves GET /v1/events/stream. Events go out in SSE
// framing with the hub sequence number as the event id; a client that
// reconnects with Last-Event-ID gets the missed window replayed first.
func (s *PulseServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	watcher := s.stream.watch(parseTopicFilters(r.URL.Query().Get("topics")))
	defer s.stream.drop(watcher)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if last := r.Header.Get("Last-Event-ID"); last != "" {
		if after, err := strconv.ParseUint(last, 10, 64); err == nil {
			for _, evt := range s.stream.replay(after) {
				if watcher.filter.admits(evt.topic) {
					writeStreamEvent(w, evt)
				}
			}
			flusher.Flush()
		}
	}

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-watcher.events:
			writeStreamEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, evt streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.seq, evt.topic, evt.data)
}

// notifyStream marshals an event for the SSE feed. Called from
// recordAndPublish alongside the NATS publish.
func (s *PulseServer) notifyStream(topic string, event any) {
	if s.stream == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("encoding event for SSE stream", "topic", topic, "error", err)
		return
	}
	s.stream.publish(topic, data)
}

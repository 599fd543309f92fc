package events

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// startEmbeddedNATS runs an in-process NATS server on a random port and
// returns its client URL. The server is shut down with the test.
func startEmbeddedNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

// testFeed wires a publisher and a wildcard subscription against one
// embedded server and cleans both up with the test.
func testFeed(t *testing.T, subject string) (*NATSPublisher, *Subscription) {
	t.Helper()
	url := startEmbeddedNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	t.Cleanup(func() { pub.Close() })

	bus, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("subscriber: %v", err)
	}
	t.Cleanup(func() { bus.Close() })

	feed, err := bus.Subscribe(subject)
	if err != nil {
		t.Fatalf("subscribe %s: %v", subject, err)
	}
	t.Cleanup(feed.Stop)
	return pub, feed
}

func TestSubscriptionReceives(t *testing.T) {
	pub, feed := testFeed(t, "pulse.>")

	if err := pub.conn.Publish(TopicNodeAppended, []byte(`{"node":{"id":"nd-1"}}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	pub.conn.Flush()

	select {
	case raw := <-feed.C():
		if string(raw) != `{"node":{"id":"nd-1"}}` {
			t.Errorf("payload = %s", raw)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscriptionSubjectFiltering(t *testing.T) {
	pub, feed := testFeed(t, "pulse.run.*")

	// Only run-family events should land on the feed.
	for _, topic := range []string{TopicAutomationCreated, TopicRunStatus, TopicConnectionAdded, TopicRunFinished} {
		if err := pub.conn.Publish(topic, []byte(`{}`)); err != nil {
			t.Fatalf("publish %s: %v", topic, err)
		}
	}
	pub.conn.Flush()

	received := 0
	deadline := time.After(time.Second)
	for received < 2 {
		select {
		case <-feed.C():
			received++
		case <-deadline:
			t.Fatalf("received %d run events, want 2", received)
		}
	}
	select {
	case raw := <-feed.C():
		t.Errorf("unexpected extra event: %s", raw)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscriptionStopClosesChannel(t *testing.T) {
	_, feed := testFeed(t, "pulse.>")

	feed.Stop()
	if _, ok := <-feed.C(); ok {
		t.Fatal("channel should be closed after Stop")
	}

	// A second Stop is a no-op, not a panic.
	feed.Stop()
}

func TestSubscriptionStopDuringDelivery(t *testing.T) {
	pub, feed := testFeed(t, "pulse.>")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			_ = pub.conn.Publish(TopicRunStatus, []byte(`{"status":"loading"}`))
		}
		pub.conn.Flush()
	}()

	// Stopping mid-stream must neither panic nor deadlock.
	feed.Stop()
	<-done

	if _, ok := <-feed.C(); ok {
		t.Fatal("channel should be closed after Stop")
	}
}

func TestSubscriberReconnectOptions(t *testing.T) {
	url := startEmbeddedNATS(t)

	reconnected := make(chan struct{}, 1)
	bus, err := NewNATSSubscriber(url,
		nats.ReconnectHandler(func(_ *nats.Conn) {
			select {
			case reconnected <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatalf("subscriber: %v", err)
	}
	defer bus.Close()

	if !bus.conn.IsConnected() {
		t.Fatal("expected a live connection with extra options applied")
	}
}

func TestNATSSubscriberImplementsSubscriber(t *testing.T) {
	var _ Subscriber = (*NATSSubscriber)(nil)
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// connect dials NATS with the connection defaults every PulseFlow component
// uses: a stable client name and unbounded reconnects, so a broker restart
// does not take the event feed down with it.
func connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	base := []nats.Option{
		nats.Name("pulseflow"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher emits JSON-encoded automation and run events on NATS
// subjects (the pulse.* topics).
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	return p.conn.Publish(topic, data)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber consumes pulse.* events. Extra nats.Option values (such as
// disconnect and reconnect handlers for the CLI's watch loop) are applied on
// top of the shared connection defaults.
type NATSSubscriber struct {
	conn *nats.Conn
}

func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}

// Subscribe opens a feed of raw event payloads for a subject pattern
// (NATS wildcards like "pulse.run.*" or "pulse.>" included). The
// subscription is flushed before returning so events published on other
// connections immediately after are not missed.
func (s *NATSSubscriber) Subscribe(subject string) (*Subscription, error) {
	feed := &Subscription{msgs: make(chan []byte, 64)}

	ns, err := s.conn.Subscribe(subject, func(m *nats.Msg) {
		feed.deliver(m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	if err := s.conn.Flush(); err != nil {
		_ = ns.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription to %s: %w", subject, err)
	}

	feed.unsub = func() { _ = ns.Unsubscribe() }
	return feed, nil
}

// Subscription is a live feed of raw event payloads for one subject
// pattern. Receive from C; call Stop to end the feed, after which C is
// closed. A full buffer drops events rather than blocking the NATS client;
// consumers treat any event as "something changed" and re-query.
type Subscription struct {
	msgs  chan []byte
	unsub func()

	mu      sync.Mutex
	stopped bool
	once    sync.Once
}

// C returns the feed channel. It is closed by Stop.
func (f *Subscription) C() <-chan []byte { return f.msgs }

// Stop unsubscribes and closes the feed channel. Safe to call more than
// once, and safe against deliveries racing the shutdown.
func (f *Subscription) Stop() {
	f.once.Do(func() {
		if f.unsub != nil {
			f.unsub()
		}
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
		for {
			select {
			case <-f.msgs:
			default:
				close(f.msgs)
				return
			}
		}
	})
}

func (f *Subscription) deliver(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	select {
	case f.msgs <- data:
	default:
	}
}

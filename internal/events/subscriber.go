package events

// Subscriber opens event feeds from the bus.
type Subscriber interface {
	Subscribe(subject string) (*Subscription, error)
	Close() error
}

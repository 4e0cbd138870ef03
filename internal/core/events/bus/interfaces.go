package bus

import "time"

// EventBus is a synchronous in-process pub/sub bus.
//
// - Handlers subscribe by Event.Type(). An empty type receives every event,
//   after the handlers of the exact type.
// - Publish calls handlers in the caller goroutine, in subscription order.
// - Handler errors are joined and returned from Publish.
// - All methods are safe for concurrent use. Handlers may publish or
//   unsubscribe; they must not assume any lock is held.
type EventBus interface {
	Publish(event Event) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	Unsubscribe(Subscription) error

	// SubscriberCount reports active subscriptions for eventType, or for all
	// types when eventType is empty.
	SubscriberCount(eventType string) int

	// Close cancels every subscription and rejects further subscribes.
	Close() error
}

// Event is an immutable message transported by the bus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	EventHandler func(event Event) error
)

// Subscription is a registered handler. Cancel is idempotent.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

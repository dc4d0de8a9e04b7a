// Package ports defines the interfaces that decouple the VizKit engines
// and services from their infrastructure: the event bus, the clock and
// the spectrum capture backends.
package ports

import (
	"vizkit/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
// It replaces the listener interfaces of a callback-driven design: the
// services publish, the UI and the web server subscribe, and neither
// side knows about the other.
//
// Thread-safety: implementations must be safe for concurrent publishing
// and subscribing from multiple goroutines.
type EventBus interface {
	// Publish delivers an event to all subscribers of its type. It must
	// not block for long periods; handlers that need to do slow work
	// should dispatch to their own goroutine.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the given type and
	// returns an ID that can later be passed to Unsubscribe.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered handler. Unknown IDs
	// are a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives every event
	// regardless of type. Useful for logging and debugging.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether anyone is listening for the given
	// event type, so publishers can skip expensive event construction.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts the bus down and drops all subscriptions.
	Close() error
}

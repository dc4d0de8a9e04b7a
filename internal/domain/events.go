// Package domain defines events for the event-driven architecture.
// Events replace listener interfaces and keep the engines decoupled from
// the UI layer that reacts to them.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Indicator events
	EventTimerExpired             EventType = "indicator.timer_expired"
	EventProgressChanged          EventType = "indicator.progress_changed"
	EventSecondaryProgressChanged EventType = "indicator.secondary_progress_changed"
	EventGlyphShown               EventType = "indicator.glyph_shown"

	// Visualizer events
	EventSourceStarted EventType = "spectrum.source_started"
	EventSourceStopped EventType = "spectrum.source_stopped"
	EventTrackInfo     EventType = "spectrum.track_info"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TimerExpiredEvent is published exactly once when a countdown indicator
// reaches its timeout.
type TimerExpiredEvent struct {
	baseEvent
	Timeout time.Duration
}

// Type returns the event type.
func (e TimerExpiredEvent) Type() EventType {
	return EventTimerExpired
}

// NewTimerExpiredEvent creates a new TimerExpiredEvent.
func NewTimerExpiredEvent(timeout time.Duration) TimerExpiredEvent {
	return TimerExpiredEvent{
		baseEvent: newBaseEvent(),
		Timeout:   timeout,
	}
}

// ProgressChangedEvent is published when the primary progress value is
// updated by the application.
type ProgressChangedEvent struct {
	baseEvent
	Progress    int
	MaxProgress int
}

// Type returns the event type.
func (e ProgressChangedEvent) Type() EventType {
	return EventProgressChanged
}

// NewProgressChangedEvent creates a new ProgressChangedEvent.
func NewProgressChangedEvent(progress, maxProgress int) ProgressChangedEvent {
	return ProgressChangedEvent{
		baseEvent:   newBaseEvent(),
		Progress:    progress,
		MaxProgress: maxProgress,
	}
}

// SecondaryProgressChangedEvent is published when the secondary progress
// value is updated by the application.
type SecondaryProgressChangedEvent struct {
	baseEvent
	Progress int
}

// Type returns the event type.
func (e SecondaryProgressChangedEvent) Type() EventType {
	return EventSecondaryProgressChanged
}

// NewSecondaryProgressChangedEvent creates a new SecondaryProgressChangedEvent.
func NewSecondaryProgressChangedEvent(progress int) SecondaryProgressChangedEvent {
	return SecondaryProgressChangedEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// GlyphShownEvent is published when a success or failure glyph is shown
// or cleared on the indicator.
type GlyphShownEvent struct {
	baseEvent
	Glyph Glyph
}

// Type returns the event type.
func (e GlyphShownEvent) Type() EventType {
	return EventGlyphShown
}

// NewGlyphShownEvent creates a new GlyphShownEvent.
func NewGlyphShownEvent(glyph Glyph) GlyphShownEvent {
	return GlyphShownEvent{
		baseEvent: newBaseEvent(),
		Glyph:     glyph,
	}
}

// SourceStartedEvent is published when a spectrum source begins
// delivering frames to the visualizer.
type SourceStartedEvent struct {
	baseEvent
	Name string
}

// Type returns the event type.
func (e SourceStartedEvent) Type() EventType {
	return EventSourceStarted
}

// NewSourceStartedEvent creates a new SourceStartedEvent.
func NewSourceStartedEvent(name string) SourceStartedEvent {
	return SourceStartedEvent{
		baseEvent: newBaseEvent(),
		Name:      name,
	}
}

// SourceStoppedEvent is published when a spectrum source stops.
type SourceStoppedEvent struct {
	baseEvent
	Name string
}

// Type returns the event type.
func (e SourceStoppedEvent) Type() EventType {
	return EventSourceStopped
}

// NewSourceStoppedEvent creates a new SourceStoppedEvent.
func NewSourceStoppedEvent(name string) SourceStoppedEvent {
	return SourceStoppedEvent{
		baseEvent: newBaseEvent(),
		Name:      name,
	}
}

// TrackInfoEvent is published when a file-backed source learns the
// title and artist of the material it is playing.
type TrackInfoEvent struct {
	baseEvent
	Info TrackInfo
}

// Type returns the event type.
func (e TrackInfoEvent) Type() EventType {
	return EventTrackInfo
}

// NewTrackInfoEvent creates a new TrackInfoEvent.
func NewTrackInfoEvent(info TrackInfo) TrackInfoEvent {
	return TrackInfoEvent{
		baseEvent: newBaseEvent(),
		Info:      info,
	}
}

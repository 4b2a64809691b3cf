package playback

// EventType represents a playback event type.
type EventType int

const (
	EventViewed         EventType = iota // Story reached for the first time in this session
	EventClosed                          // Navigation ran off the end of the last story
	EventSegmentStarted                  // A segment became active
	EventStateChanged                    // Paused or resumed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventViewed:
		return "viewed"
	case EventClosed:
		return "closed"
	case EventSegmentStarted:
		return "segment_started"
	case EventStateChanged:
		return "state_changed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type       EventType
	SessionID  string // Engine session that produced the event
	StoryID    int    // Zero for EventClosed
	StoryIndex int
	MediaIndex int
	State      State // State after the transition
}

// Notifier receives engine events in the order the transitions happened.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) {
	f(e)
}

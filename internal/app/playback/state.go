// Package playback provides the story playback engine.
package playback

// State represents the playback state.
type State int

const (
	StateClosed  State = iota // Engine not open (never opened, closed, or ran off the end)
	StatePlaying              // Active segment is playing
	StatePaused               // Active segment is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Direction is the navigation direction.
type Direction int

const (
	Next Direction = iota
	Previous
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Previous:
		return "previous"
	default:
		return "unknown"
	}
}

// Position is a read-only snapshot of the active segment for renderers.
type Position struct {
	StoryIndex int
	MediaIndex int
	StoryID    int
	Progress   float64 // 0..100
	Paused     bool
}

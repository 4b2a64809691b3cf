// Package zone maps horizontal pointer positions to viewer commands.
package zone

// Command represents a viewer command derived from a tap or click.
type Command int

const (
	CommandPrevious    Command = iota // Left third
	CommandTogglePause                // Middle third
	CommandNext                       // Right third
)

// String returns the string representation of the command.
func (c Command) String() string {
	switch c {
	case CommandPrevious:
		return "previous"
	case CommandTogglePause:
		return "toggle_pause"
	case CommandNext:
		return "next"
	default:
		return "unknown"
	}
}

// MapPosition maps a position local to the container onto one of three
// equal zones. Pointer clicks and touch starts both go through here.
func MapPosition(localX, containerWidth float64) Command {
	if containerWidth <= 0 {
		return CommandTogglePause
	}
	switch {
	case localX < containerWidth/3:
		return CommandPrevious
	case localX > containerWidth*2/3:
		return CommandNext
	default:
		return CommandTogglePause
	}
}

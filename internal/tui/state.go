// Package tui provides the terminal story viewer.
package tui

type state int

const (
	homeState state = iota
	viewerState
	createState
)

func (s state) String() string {
	switch s {
	case homeState:
		return "home"
	case viewerState:
		return "viewer"
	case createState:
		return "create"
	default:
		return "unknown"
	}
}

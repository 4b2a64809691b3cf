package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// statefulKeymap holds the key bindings of every screen.
type statefulKeymap struct {
	state state

	quit, forceQuit,
	up, down, open, create,
	previous, next, togglePause, closeViewer,
	nextField, sample, submit, back key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		up: key.NewBinding(
			key.WithKeys("left", "up", "h", "k"),
			key.WithHelp("←", "prev story"),
		),
		down: key.NewBinding(
			key.WithKeys("right", "down", "l", "j"),
			key.WithHelp("→", "next story"),
		),
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view"),
		),
		create: key.NewBinding(
			key.WithKeys("n", "+"),
			key.WithHelp("n", "new story"),
		),
		previous: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "previous"),
		),
		next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next"),
		),
		togglePause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause"),
		),
		closeViewer: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "close"),
		),
		nextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch field"),
		),
		sample: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "sample video"),
		),
		submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "share"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k *statefulKeymap) ShortHelp() []key.Binding {
	switch k.state {
	case homeState:
		return []key.Binding{k.up, k.down, k.open, k.create, k.quit}
	case viewerState:
		return []key.Binding{k.previous, k.togglePause, k.next, k.closeViewer}
	case createState:
		return []key.Binding{k.nextField, k.sample, k.submit, k.back}
	default:
		return []key.Binding{k.forceQuit}
	}
}

// FullHelp implements help.KeyMap.
func (k *statefulKeymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.forceQuit}}
}

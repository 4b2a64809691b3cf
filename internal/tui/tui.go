package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/storybox/internal/app/session"
)

// Options holds what the terminal viewer needs from the application.
// Session must be created with Surface and a manual clock; the viewer
// drives playback from its own frame loop.
type Options struct {
	Session      *session.Manager
	Surface      *Surface
	TickInterval time.Duration
	SampleVideos []string
}

// Run starts the terminal viewer and blocks until the user quits.
func Run(options *Options) error {
	bubble := newBubble(options)

	_, err := tea.NewProgram(bubble, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

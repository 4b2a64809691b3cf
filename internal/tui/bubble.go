package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/osa030/storybox/internal/app/session"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

// statefulBubble is the bubbletea model of the whole terminal viewer.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	session      *session.Manager
	surface      *Surface
	tickInterval time.Duration
	sampleVideos []string
	now          func() time.Time

	// components
	progressC progress.Model
	urlC      textinput.Model
	captionC  textinput.Model
	helpC     help.Model

	cursor     int    // Selected story in the tray
	tickID     int    // Frame loop generation; ticks of an older viewer are dropped
	sampleNext int    // Next sample video offered by ctrl+o
	status     string // One-line message under the tray or form

	width, height int
}

func newBubble(options *Options) *statefulBubble {
	b := &statefulBubble{
		state:        homeState,
		keymap:       newStatefulKeymap(),
		session:      options.Session,
		surface:      options.Surface,
		tickInterval: options.TickInterval,
		sampleVideos: options.SampleVideos,
		now:          time.Now,
		width:        80,
		height:       24,
	}
	if b.surface == nil {
		b.surface = NewSurface()
	}

	b.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	b.urlC = textinput.New()
	b.urlC.Placeholder = "Enter video URL"
	b.urlC.Prompt = "Video URL: "
	b.urlC.CharLimit = 512

	b.captionC = textinput.New()
	b.captionC.Placeholder = "What's happening?"
	b.captionC.Prompt = "Caption:   "
	b.captionC.CharLimit = 400

	b.helpC = help.New()

	return b
}

func (b *statefulBubble) newState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) resize(width, height int) {
	x, _ := paddingStyle.GetFrameSize()
	b.width = width
	b.height = height
	b.helpC.Width = width - x
	b.urlC.Width = width - x - len(b.urlC.Prompt) - 1
	b.captionC.Width = width - x - len(b.captionC.Prompt) - 1
}

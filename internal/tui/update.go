package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/storybox/internal/app/session"
	"github.com/osa030/storybox/internal/app/zone"
)

// tickMsg is one frame of the viewer clock.
type tickMsg struct {
	id int
}

func (b *statefulBubble) Init() tea.Cmd {
	return nil
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case tea.KeyMsg:
		if key.Matches(msg, b.keymap.forceQuit) {
			b.session.Close()
			return b, tea.Quit
		}
	}

	switch b.state {
	case homeState:
		return b.updateHome(msg)
	case viewerState:
		return b.updateViewer(msg)
	case createState:
		return b.updateCreate(msg)
	default:
		return b, nil
	}
}

func (b *statefulBubble) updateHome(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}

	stories := b.session.Stories()
	switch {
	case key.Matches(keyMsg, b.keymap.quit):
		return b, tea.Quit
	case key.Matches(keyMsg, b.keymap.up):
		b.cursor = max(0, b.cursor-1)
	case key.Matches(keyMsg, b.keymap.down):
		b.cursor = max(0, min(len(stories)-1, b.cursor+1))
	case key.Matches(keyMsg, b.keymap.open):
		if b.cursor < len(stories) {
			return b, b.openViewer(stories[b.cursor].ID)
		}
	case key.Matches(keyMsg, b.keymap.create):
		b.status = ""
		b.urlC.SetValue("")
		b.captionC.SetValue("")
		b.captionC.Blur()
		b.newState(createState)
		return b, tea.Batch(b.urlC.Focus(), textinput.Blink)
	}
	return b, nil
}

// openViewer opens the viewer and starts its frame loop.
func (b *statefulBubble) openViewer(storyID int) tea.Cmd {
	if _, err := b.session.Open(storyID); err != nil {
		b.status = err.Error()
		return nil
	}
	b.status = ""
	b.newState(viewerState)
	b.tickID++
	return b.scheduleTick()
}

func (b *statefulBubble) scheduleTick() tea.Cmd {
	id := b.tickID
	return tea.Tick(b.tickInterval, func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

func (b *statefulBubble) updateViewer(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd zone.Command

	switch msg := msg.(type) {
	case tickMsg:
		if msg.id != b.tickID {
			return b, nil
		}
		b.session.Tick()
		if b.viewerDismissed() {
			return b, nil
		}
		return b, b.scheduleTick()
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return b, nil
		}
		cmd = b.zoneAt(msg.X)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keymap.closeViewer):
			b.session.Close()
			b.backHome()
			return b, nil
		case key.Matches(msg, b.keymap.previous):
			cmd = zone.CommandPrevious
		case key.Matches(msg, b.keymap.next):
			cmd = zone.CommandNext
		case key.Matches(msg, b.keymap.togglePause):
			cmd = zone.CommandTogglePause
		default:
			return b, nil
		}
	default:
		return b, nil
	}

	if err := b.session.Handle(cmd); err != nil && !errors.Is(err, session.ErrViewerNotOpen) {
		zlog.Error().Msgf("tui: command failed: command=%s err=%v", cmd, err)
	}
	b.viewerDismissed()
	return b, nil
}

// zoneAt maps a terminal column onto the viewer container, which is drawn
// inside paddingStyle.
func (b *statefulBubble) zoneAt(column int) zone.Command {
	x, _ := paddingStyle.GetFrameSize()
	localX := column - paddingStyle.GetPaddingLeft()
	return zone.MapPosition(float64(localX), float64(b.width-x))
}

// viewerDismissed returns to the tray once the viewer has gone away.
func (b *statefulBubble) viewerDismissed() bool {
	if _, ok := b.session.Viewing(); ok {
		return false
	}
	b.backHome()
	return true
}

func (b *statefulBubble) backHome() {
	b.tickID++
	b.newState(homeState)
}

func (b *statefulBubble) updateCreate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, b.keymap.back):
			b.status = ""
			b.urlC.Blur()
			b.captionC.Blur()
			b.newState(homeState)
			return b, nil
		case key.Matches(msg, b.keymap.nextField):
			return b, b.switchField()
		case key.Matches(msg, b.keymap.sample):
			if len(b.sampleVideos) > 0 {
				b.urlC.SetValue(b.sampleVideos[b.sampleNext%len(b.sampleVideos)])
				b.urlC.CursorEnd()
				b.sampleNext++
			}
			return b, nil
		case key.Matches(msg, b.keymap.submit):
			if b.urlC.Focused() && b.captionC.Value() == "" {
				return b, b.switchField()
			}
			return b, b.submit()
		}
	}

	var cmd tea.Cmd
	if b.urlC.Focused() {
		b.urlC, cmd = b.urlC.Update(msg)
	} else {
		b.captionC, cmd = b.captionC.Update(msg)
	}
	return b, cmd
}

func (b *statefulBubble) switchField() tea.Cmd {
	if b.urlC.Focused() {
		b.urlC.Blur()
		return b.captionC.Focus()
	}
	b.captionC.Blur()
	return b.urlC.Focus()
}

func (b *statefulBubble) submit() tea.Cmd {
	accepted, code, err := b.session.CreateStory(context.Background(), b.urlC.Value(), b.captionC.Value())
	if err != nil {
		b.status = err.Error()
		return nil
	}
	b.status = b.session.Message(code)
	if !accepted {
		return nil
	}

	b.urlC.Blur()
	b.captionC.Blur()
	b.cursor = 0
	b.newState(homeState)
	return nil
}

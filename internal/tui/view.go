package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/osa030/storybox/internal/domain/story"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	authorStyle   = lipgloss.NewStyle().Bold(true)
	captionStyle  = lipgloss.NewStyle().Italic(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	unviewedRing  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1)
	viewedRing    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	selectedRing  = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("212")).Padding(0, 1)
	zoneHintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case homeState:
		output = b.viewHome()
	case viewerState:
		output = b.viewViewer()
	case createState:
		output = b.viewCreate()
	default:
		output = "Unknown state"
	}

	return paddingStyle.Render(output)
}

func (b *statefulBubble) viewHome() string {
	stories := b.session.Stories()
	now := b.now()

	rings := lo.Map(stories, func(s story.Story, i int) string {
		ring := unviewedRing
		switch {
		case i == b.cursor:
			ring = selectedRing
		case s.Viewed:
			ring = viewedRing
		}
		label := fmt.Sprintf("%s\n%s", authorStyle.Render(s.AuthorHandle), mutedStyle.Render(s.Age(now)))
		return ring.Render(label)
	})

	lines := []string{
		titleStyle.Render("Stories"),
		mutedStyle.Render(fmt.Sprintf("%d new", b.session.UnviewedCount())),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, rings...),
		"",
	}
	if len(stories) == 0 {
		lines = append(lines, mutedStyle.Render("No stories yet. Press n to share one."))
	}
	if b.status != "" {
		lines = append(lines, statusStyle.Render(b.status), "")
	}
	lines = append(lines, b.helpC.View(b.keymap))

	return strings.Join(lines, "\n")
}

func (b *statefulBubble) viewViewer() string {
	s, item, ok := b.session.CurrentStory()
	pos, posOK := b.session.Position()
	if !ok || !posOK {
		return mutedStyle.Render("Closing...")
	}

	header := authorStyle.Render(s.AuthorHandle) + "  " + mutedStyle.Render(s.Age(b.now()))
	if pos.Paused {
		header += "  " + statusStyle.Render("⏸ paused")
	}

	body := []string{
		b.viewSegmentBars(s, pos.MediaIndex, pos.Progress),
		"",
		header,
		"",
	}
	if item.Caption != "" {
		body = append(body, captionStyle.Render(item.Caption), "")
	}

	loaded, isLoaded, playing := b.surface.Snapshot()
	if isLoaded {
		marker := "▶"
		if !playing {
			marker = "⏸"
		}
		body = append(body, mutedStyle.Render(fmt.Sprintf("%s %s (%.0fs)", marker, loaded.URL, loaded.DurationSec)))
	}

	body = append(body, "", b.viewZoneHint(), "", b.helpC.View(b.keymap))
	return strings.Join(body, "\n")
}

// viewSegmentBars renders one bar per segment: full for finished segments,
// the live progress for the active one and empty for those still to come.
func (b *statefulBubble) viewSegmentBars(s story.Story, active int, percent float64) string {
	x, _ := paddingStyle.GetFrameSize()
	n := len(s.Media)
	width := max(1, (b.width-x-(n-1))/n)

	bar := b.progressC
	bar.Width = width

	bars := make([]string, n)
	for i := range s.Media {
		switch {
		case i < active:
			bars[i] = bar.ViewAs(1)
		case i == active:
			bars[i] = bar.ViewAs(percent / 100)
		default:
			bars[i] = bar.ViewAs(0)
		}
	}
	return strings.Join(bars, " ")
}

// viewZoneHint shows the three click zones across the width.
func (b *statefulBubble) viewZoneHint() string {
	x, _ := paddingStyle.GetFrameSize()
	third := max(1, (b.width-x)/3)
	cell := lipgloss.NewStyle().Width(third).Align(lipgloss.Center)
	return zoneHintStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		cell.Render("◀ previous"),
		cell.Render("pause / play"),
		cell.Render("next ▶"),
	))
}

func (b *statefulBubble) viewCreate() string {
	lines := []string{
		titleStyle.Render("Create Story"),
		"",
		b.urlC.View(),
		b.captionC.View(),
		"",
	}
	if len(b.sampleVideos) > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d sample videos available (ctrl+o)", len(b.sampleVideos))), "")
	}
	if b.status != "" {
		lines = append(lines, statusStyle.Render(b.status), "")
	}
	lines = append(lines, b.helpC.View(b.keymap))

	return strings.Join(lines, "\n")
}

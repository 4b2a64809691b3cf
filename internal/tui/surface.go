package tui

import (
	"sync"

	"github.com/osa030/storybox/internal/domain/story"
)

// Surface stands in for the video element. The terminal cannot play
// video, so it keeps what is loaded and whether it is playing for the view.
type Surface struct {
	mu      sync.Mutex
	item    story.MediaItem
	loaded  bool
	playing bool
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

func (s *Surface) Load(item story.MediaItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.item = item
	s.loaded = true
	s.playing = false
}

// SeekToStart is a no-op; nothing is decoded in the terminal.
func (s *Surface) SeekToStart() {}

func (s *Surface) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
}

func (s *Surface) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

// Snapshot returns the loaded item and the playing flag.
func (s *Surface) Snapshot() (story.MediaItem, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.item, s.loaded, s.playing
}

package playback

import "github.com/osa030/storybox/internal/domain/story"

// MediaSurface is whatever renders the active segment.
// The engine does not wait for media to be ready before starting its clock.
type MediaSurface interface {
	Load(item story.MediaItem)
	SeekToStart()
	Play()
	Pause()
}

// NopSurface is a MediaSurface that does nothing.
type NopSurface struct{}

func (NopSurface) Load(story.MediaItem) {}
func (NopSurface) SeekToStart()         {}
func (NopSurface) Play()                {}
func (NopSurface) Pause()               {}

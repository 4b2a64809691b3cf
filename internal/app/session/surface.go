package session

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/storybox/internal/domain/story"
)

// LogSurface is a media surface for headless playback.
// It only reports what a video element would be asked to do.
type LogSurface struct{}

func (LogSurface) Load(item story.MediaItem) {
	zlog.Info().Msgf("surface: load: url=%s duration=%.1fs caption=%q", item.URL, item.DurationSec, item.Caption)
}

func (LogSurface) SeekToStart() {
	zlog.Debug().Msg("surface: seek to start")
}

func (LogSurface) Play() {
	zlog.Debug().Msg("surface: play")
}

func (LogSurface) Pause() {
	zlog.Info().Msg("surface: pause")
}

// Package story provides the Story and MediaItem domain entities.
package story

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ErrInvalidStory marks a story that cannot be played (no media, bad duration).
var ErrInvalidStory = errors.New("invalid story")

var validate = validator.New()

// MediaItem represents a single timed video segment of a story.
type MediaItem struct {
	URL         string  `yaml:"url" validate:"required"`
	DurationSec float64 `yaml:"duration_sec" validate:"gt=0"` // Declared playback duration in seconds
	Caption     string  `yaml:"caption"`                      // Optional
}

// Duration returns the declared duration of the segment.
func (m MediaItem) Duration() time.Duration {
	return time.Duration(m.DurationSec * float64(time.Second))
}

// Story represents an author's ordered sequence of media segments.
type Story struct {
	ID           int         // Unique story ID
	AuthorHandle string      // Author handle shown in the tray and header
	AvatarURL    string      // Author avatar
	Media        []MediaItem `validate:"min=1,dive"`
	CreatedAt    time.Time   // Creation time
	Viewed       bool        // Viewed flag, owned by the repository
}

// Validate checks that the story can be played.
// The returned error is marked with ErrInvalidStory.
func (s *Story) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Mark(errors.Wrapf(err, "story %d", s.ID), ErrInvalidStory)
	}
	return nil
}

// LastMediaIndex returns the index of the last segment.
func (s *Story) LastMediaIndex() int {
	return len(s.Media) - 1
}

// TotalDuration returns the sum of all segment durations.
func (s *Story) TotalDuration() time.Duration {
	return lo.SumBy(s.Media, func(m MediaItem) time.Duration { return m.Duration() })
}

// Age returns a short relative label for the story's creation time.
func (s *Story) Age(now time.Time) string {
	seconds := int(now.Sub(s.CreatedAt).Seconds())
	if seconds < 60 {
		return "Just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}

// NewSingle creates a single-segment story, as produced by the create form.
func NewSingle(id int, author, avatarURL, videoURL, caption string, duration time.Duration, createdAt time.Time) Story {
	return Story{
		ID:           id,
		AuthorHandle: author,
		AvatarURL:    avatarURL,
		Media: []MediaItem{
			{
				URL:         videoURL,
				DurationSec: duration.Seconds(),
				Caption:     caption,
			},
		},
		CreatedAt: createdAt,
		Viewed:    false,
	}
}

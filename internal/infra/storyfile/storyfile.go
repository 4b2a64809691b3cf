// Package storyfile loads seed stories from YAML.
package storyfile

import (
	_ "embed"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/osa030/storybox/internal/domain/story"
)

//go:embed seed.yaml
var seed []byte

// File represents a story file.
type File struct {
	Stories []Entry `yaml:"stories"`
}

// Entry represents a single story in a story file.
// CreatedAt wins over Age when both are set.
type Entry struct {
	ID           int               `yaml:"id"`
	AuthorHandle string            `yaml:"author_handle"`
	AvatarURL    string            `yaml:"avatar_url"`
	CreatedAt    time.Time         `yaml:"created_at"`
	Age          time.Duration     `yaml:"age"` // e.g. "2h", relative to load time
	Viewed       bool              `yaml:"viewed"`
	Media        []story.MediaItem `yaml:"media"`
}

// Load reads stories from the file at path.
// An empty path loads the embedded seed stories.
func Load(path string, now time.Time) ([]story.Story, error) {
	if path == "" {
		return Parse(seed, now)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read story file")
	}

	stories, err := Parse(data, now)
	if err != nil {
		return nil, errors.Wrapf(err, "story file %s", path)
	}
	zlog.Info().Msgf("storyfile: loaded: path=%s stories=%d", path, len(stories))
	return stories, nil
}

// Parse decodes stories from YAML data.
func Parse(data []byte, now time.Time) ([]story.Story, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse story file")
	}

	stories := lo.Map(f.Stories, func(e Entry, _ int) story.Story {
		return e.toStory(now)
	})
	for i := range stories {
		if err := stories[i].Validate(); err != nil {
			return nil, err
		}
	}
	if dup := lo.FindDuplicatesBy(stories, func(s story.Story) int { return s.ID }); len(dup) > 0 {
		return nil, errors.Newf("duplicate story id %d", dup[0].ID)
	}
	return stories, nil
}

func (e Entry) toStory(now time.Time) story.Story {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = now.Add(-e.Age)
	}
	return story.Story{
		ID:           e.ID,
		AuthorHandle: e.AuthorHandle,
		AvatarURL:    e.AvatarURL,
		Media:        e.Media,
		CreatedAt:    createdAt,
		Viewed:       e.Viewed,
	}
}

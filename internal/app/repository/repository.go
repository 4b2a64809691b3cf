// Package repository provides the in-memory story repository.
package repository

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/osa030/storybox/internal/domain/story"
)

var (
	ErrStoryNotFound = errors.New("story not found")
	// ErrCaptionRequired is also marked as story.ErrInvalidStory.
	ErrCaptionRequired = errors.New("caption required")
)

// Repository holds stories in process memory with thread-safe access.
// Stories are kept newest first.
type Repository struct {
	mu      sync.RWMutex
	stories []story.Story
	now     func() time.Time
}

// New creates a repository seeded with the given stories.
// Every story must be valid.
func New(seed []story.Story) (*Repository, error) {
	for i := range seed {
		if err := seed[i].Validate(); err != nil {
			return nil, err
		}
	}
	ids := lo.Map(seed, func(s story.Story, _ int) int { return s.ID })
	if dup := lo.FindDuplicates(ids); len(dup) > 0 {
		return nil, errors.Newf("duplicate story ids: %v", dup)
	}

	return &Repository{
		stories: slices.Clone(seed),
		now:     time.Now,
	}, nil
}

// All returns a copy of all stories, newest first.
func (r *Repository) All() []story.Story {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.stories)
}

// Get retrieves a story by ID.
func (r *Repository) Get(id int) (story.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := lo.Find(r.stories, func(s story.Story) bool { return s.ID == id })
	if !ok {
		return story.Story{}, errors.Wrapf(ErrStoryNotFound, "story %d", id)
	}
	return s, nil
}

// MarkViewed sets the viewed flag of a story.
func (r *Repository) MarkViewed(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, index, ok := lo.FindIndexOf(r.stories, func(s story.Story) bool { return s.ID == id })
	if !ok {
		return errors.Wrapf(ErrStoryNotFound, "story %d", id)
	}
	r.stories[index].Viewed = true
	return nil
}

// Create wraps a video URL and caption into a new single-segment story
// and prepends it. A blank caption is rejected whatever filters are configured.
func (r *Repository) Create(author, avatarURL, videoURL, caption string, duration time.Duration) (story.Story, error) {
	if strings.TrimSpace(caption) == "" {
		return story.Story{}, errors.Mark(ErrCaptionRequired, story.ErrInvalidStory)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	nextID := 1 + lo.Max(lo.Map(r.stories, func(s story.Story, _ int) int { return s.ID }))
	s := story.NewSingle(nextID, author, avatarURL, videoURL, caption, duration, r.now())
	if err := s.Validate(); err != nil {
		return story.Story{}, err
	}

	r.stories = append([]story.Story{s}, r.stories...)
	return s, nil
}

// Count returns the number of stories.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stories)
}

// UnviewedCount returns the number of stories not yet viewed.
func (r *Repository) UnviewedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.CountBy(r.stories, func(s story.Story) bool { return !s.Viewed })
}

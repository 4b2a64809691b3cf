// Package session provides the viewer host that ties the story repository,
// the playback engine and the lifecycle notifier together.
package session

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/storybox/internal/app/filter"
	"github.com/osa030/storybox/internal/app/notification"
	"github.com/osa030/storybox/internal/app/playback"
	"github.com/osa030/storybox/internal/app/repository"
	"github.com/osa030/storybox/internal/app/zone"
	"github.com/osa030/storybox/internal/domain/story"
	"github.com/osa030/storybox/internal/infra/config"
	"github.com/osa030/storybox/internal/infra/metrics"
)

var ErrViewerNotOpen = errors.New("viewer is not open")

// Options configures the host side of a Manager.
type Options struct {
	Surface     playback.MediaSurface // Media surface (NopSurface if nil)
	ManualClock bool                  // Host drives Tick from its own frame loop
	NewTicker   playback.TickerFunc   // Ticker source for the live clock
	Metrics     *metrics.Metrics      // Optional
}

// viewer represents an open story viewer.
type viewer struct {
	sessionID string
	storyID   int
	dismissed chan struct{}
}

// Manager manages the story tray and the story viewer.
type Manager struct {
	mu sync.Mutex

	// Configuration
	config *config.Config

	// Components
	repo         *repository.Repository
	engine       *playback.Engine
	filterChain  *filter.Chain
	notification *notification.Manager
	metrics      *metrics.Metrics

	viewer *viewer
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, repo *repository.Repository, opts Options) *Manager {
	m := &Manager{
		config:       cfg,
		repo:         repo,
		filterChain:  filter.NewChain(),
		notification: notification.NewManager(),
		metrics:      opts.Metrics,
	}

	m.engine = playback.NewEngine(playback.Config{
		TickInterval: cfg.TickInterval(),
		ManualClock:  opts.ManualClock,
		NewTicker:    opts.NewTicker,
	}, m.notification, opts.Surface)

	// The session's own handler runs first so the tray is up to date
	// before any other subscriber sees the event
	m.notification.Subscribe(notification.HandlerFunc(m.handlePlaybackEvent))
	if m.metrics != nil {
		m.notification.Subscribe(m.metrics)
		m.metrics.SetStories(repo.Count())
	}

	m.setupFilters()

	return m
}

// setupFilters initializes the creation filter chain from the registry.
func (m *Manager) setupFilters() {
	for _, name := range []string{"url_scheme_filter", "caption_length_filter"} {
		if !m.config.IsFilterEnabled(name) {
			continue
		}
		factory, ok := filter.GetRegistered()[name]
		if !ok {
			zlog.Error().Msgf("session: unknown filter: name=%s", name)
			continue
		}
		f := factory()
		if err := f.ValidateConfig(m.config.GetFilterSettings(name)); err != nil {
			zlog.Error().Msgf("failed to validate %s config: %v", name, err)
			continue
		}
		m.filterChain.Add(f)
		zlog.Debug().Msgf("session: filter enabled: name=%s codes=%v", f.Name(), f.ReturnCodes())
	}
}

// Open opens the viewer at the story with the given ID over the current tray.
// The returned channel is closed when this viewer goes away, including when
// the session ends before Open returns.
// On error nothing changes: a viewer that was already open stays open.
func (m *Manager) Open(storyID int) (<-chan struct{}, error) {
	if _, err := m.repo.Get(storyID); err != nil {
		return nil, errors.Mark(err, playback.ErrNotFound)
	}

	if err := m.engine.Open(m.repo.All(), storyID); err != nil {
		zlog.Warn().Msgf("session: open rejected: story=%d err=%v", storyID, err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.dismissLocked()
	v := &viewer{
		sessionID: m.engine.SessionID(),
		storyID:   storyID,
		dismissed: make(chan struct{}),
	}
	m.viewer = v
	if m.metrics != nil {
		m.metrics.SetViewerOpen(true)
	}
	zlog.Info().Msgf("session: viewer opened: story=%d session=%s", storyID, v.sessionID)

	// The session may already have run to its end
	if !m.engine.IsOpen() || m.engine.SessionID() != v.sessionID {
		m.dismissLocked()
	}
	return v.dismissed, nil
}

// Close closes the viewer explicitly. No Closed event is produced.
func (m *Manager) Close() {
	m.engine.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dismissLocked()
}

// Viewing returns the story the viewer was opened on.
func (m *Manager) Viewing() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.viewer == nil {
		return 0, false
	}
	return m.viewer.storyID, true
}

// Handle applies a zone command to the open viewer.
func (m *Manager) Handle(cmd zone.Command) error {
	if err := m.engine.Handle(cmd); err != nil {
		if errors.Is(err, playback.ErrNotOpen) {
			return ErrViewerNotOpen
		}
		return err
	}
	return nil
}

// Tick applies one clock period. Used by hosts with Options.ManualClock.
func (m *Manager) Tick() {
	m.engine.Tick()
}

// Position returns the playback position of the open viewer.
func (m *Manager) Position() (playback.Position, bool) {
	return m.engine.CurrentPosition()
}

// CurrentStory returns the story and segment on screen.
func (m *Manager) CurrentStory() (story.Story, story.MediaItem, bool) {
	return m.engine.CurrentStory()
}

// Stories returns the tray, newest first.
func (m *Manager) Stories() []story.Story {
	return m.repo.All()
}

// UnviewedCount returns the number of stories not yet viewed.
func (m *Manager) UnviewedCount() int {
	return m.repo.UnviewedCount()
}

// CreateStory handles a story creation request.
// Returns false and a rejection code when a filter rejects the request.
func (m *Manager) CreateStory(ctx context.Context, videoURL, caption string) (bool, string, error) {
	req := filter.Request{
		VideoURL: videoURL,
		Caption:  caption,
	}
	result := m.filterChain.Execute(ctx, req)
	if !result.Accepted {
		return m.rejectCreation(videoURL, result.Code)
	}

	s, err := m.repo.Create(
		m.config.Creation.AuthorHandle,
		m.config.Creation.AvatarURL,
		videoURL,
		caption,
		m.config.CreationDuration(),
	)
	if errors.Is(err, repository.ErrCaptionRequired) {
		// Filters may be disabled
		return m.rejectCreation(videoURL, "caption_required")
	}
	if err != nil {
		return false, "", errors.Wrap(err, "failed to create story")
	}

	zlog.Info().Msgf("story created: id=%d author=%s", s.ID, s.AuthorHandle)
	if m.metrics != nil {
		m.metrics.IncStoriesCreated()
		m.metrics.SetStories(m.repo.Count())
	}
	return true, "", nil
}

func (m *Manager) rejectCreation(videoURL, code string) (bool, string, error) {
	zlog.Warn().Msgf("story creation rejected: url=%s code=%s", videoURL, code)
	if m.metrics != nil {
		m.metrics.IncCreationRejected(code)
	}
	return false, code, nil
}

// Message returns the user-facing message for a creation result code.
func (m *Manager) Message(code string) string {
	if code == "" {
		return m.config.GetMessage("success")
	}
	return m.config.GetMessage(code)
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Shutdown closes the viewer and drops all subscribers.
func (m *Manager) Shutdown() {
	m.Close()
	m.notification.Close()
}

// handlePlaybackEvent handles lifecycle events from the engine.
func (m *Manager) handlePlaybackEvent(e playback.Event) {
	switch e.Type {
	case playback.EventViewed:
		if err := m.repo.MarkViewed(e.StoryID); err != nil {
			zlog.Error().Msgf("failed to mark story viewed: story=%d err=%v", e.StoryID, err)
		}
	case playback.EventClosed:
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.viewer != nil && m.viewer.sessionID == e.SessionID {
			zlog.Info().Msgf("session: viewer finished: session=%s", e.SessionID)
			m.dismissLocked()
		}
	}
}

// dismissLocked drops the current viewer.
// Must be called with lock held.
func (m *Manager) dismissLocked() {
	if m.viewer == nil {
		return
	}
	close(m.viewer.dismissed)
	m.viewer = nil
	if m.metrics != nil {
		m.metrics.SetViewerOpen(false)
	}
}

package playback

import (
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/storybox/internal/app/zone"
	"github.com/osa030/storybox/internal/domain/story"
)

// Errors
var (
	ErrNotFound = errors.New("story not found")
	ErrNotOpen  = errors.New("engine is not open")
)

// Config holds engine configuration.
type Config struct {
	TickInterval time.Duration // Progress clock period (DefaultTickInterval if zero)
	ManualClock  bool          // No live clock; the host calls Tick itself
	NewTicker    TickerFunc    // Ticker source for the live clock (NewTimeTicker if nil)
}

// Engine sequences playback over an in-memory list of stories.
type Engine struct {
	mu sync.Mutex

	// Session
	sessionID string
	stories   []story.Story
	open      bool
	viewed    map[int]struct{} // Story IDs already reported as viewed

	// Position
	storyIndex int
	mediaIndex int
	elapsed    time.Duration // Elapsed time of the active segment
	paused     bool

	clock  progressClock
	config Config

	// Collaborators
	notifier Notifier
	surface  MediaSurface

	// Effects queued by transitions, dispatched in order outside the lock
	pending     []effect
	epoch       uint64 // Bumped on every close; effects of an older epoch are dropped
	dispatching bool
}

// effect is an event delivery or surface call produced by a transition.
type effect struct {
	epoch uint64
	fn    func()
}

// NewEngine creates a closed engine.
func NewEngine(config Config, notifier Notifier, surface MediaSurface) *Engine {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.NewTicker == nil {
		config.NewTicker = NewTimeTicker
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Event) {})
	}
	if surface == nil {
		surface = NopSurface{}
	}
	return &Engine{
		config:   config,
		notifier: notifier,
		surface:  surface,
	}
}

// Open starts a new session at the story with the given ID.
// Any previous session is closed first; nothing carries over.
// On error the engine is left as it was.
func (e *Engine) Open(stories []story.Story, startStoryID int) error {
	return e.do(func() error {
		_, index, ok := lo.FindIndexOf(stories, func(s story.Story) bool {
			return s.ID == startStoryID
		})
		if !ok {
			return errors.Wrapf(ErrNotFound, "story %d", startStoryID)
		}
		for i := range stories {
			if err := stories[i].Validate(); err != nil {
				return err
			}
		}

		e.closeLocked()

		e.sessionID = uuid.New().String()
		e.stories = slices.Clone(stories)
		e.viewed = make(map[int]struct{})
		e.open = true
		e.storyIndex = index
		e.mediaIndex = 0
		e.paused = false

		zlog.Info().Msgf("playback: session opened: session=%s story=%d index=%d stories=%d",
			e.sessionID, startStoryID, index, len(e.stories))

		e.enterSegmentLocked()
		return nil
	})
}

// Close stops the clock and ends the session. No events are produced afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closeLocked()
}

// Advance moves to the next or previous segment.
func (e *Engine) Advance(d Direction) error {
	return e.do(func() error {
		if !e.open {
			return ErrNotOpen
		}
		e.advanceLocked(d)
		return nil
	})
}

// TogglePause pauses or resumes the active segment.
//
// Resuming restarts the segment from the beginning (progress 0, media sought
// to start) instead of continuing from where it was paused.
func (e *Engine) TogglePause() error {
	return e.do(func() error {
		if !e.open {
			return ErrNotOpen
		}

		if !e.paused {
			e.paused = true
			e.clock.stop()
			e.queueSurfaceLocked(func(s MediaSurface) { s.Pause() })
		} else {
			e.paused = false
			e.elapsed = 0
			e.queueSurfaceLocked(func(s MediaSurface) {
				s.SeekToStart()
				s.Play()
			})
			e.startClockLocked()
		}

		zlog.Debug().Msgf("playback: state changed: session=%s state=%s", e.sessionID, e.stateLocked())
		e.emitLocked(EventStateChanged)
		return nil
	})
}

// Handle applies a zone command.
func (e *Engine) Handle(cmd zone.Command) error {
	switch cmd {
	case zone.CommandPrevious:
		return e.Advance(Previous)
	case zone.CommandNext:
		return e.Advance(Next)
	case zone.CommandTogglePause:
		return e.TogglePause()
	default:
		return errors.Newf("unknown command: %d", cmd)
	}
}

// Tick applies one clock period to the active segment.
// The live clock calls it on every tick; with Config.ManualClock the host does.
func (e *Engine) Tick() {
	_ = e.do(func() error {
		e.tickLocked()
		return nil
	})
}

// CurrentPosition returns a snapshot of the active segment.
// It returns false when the engine is not open.
func (e *Engine) CurrentPosition() (Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return Position{}, false
	}
	return Position{
		StoryIndex: e.storyIndex,
		MediaIndex: e.mediaIndex,
		StoryID:    e.stories[e.storyIndex].ID,
		Progress:   e.progressLocked(),
		Paused:     e.paused,
	}, true
}

// CurrentStory returns the active story and media item.
func (e *Engine) CurrentStory() (story.Story, story.MediaItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return story.Story{}, story.MediaItem{}, false
	}
	s := e.stories[e.storyIndex]
	return s, s.Media[e.mediaIndex], true
}

// State returns the current playback state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// IsOpen returns true while a session is active.
func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// SessionID returns the ID of the current or last session.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// advanceLocked applies the navigation algorithm.
// Must be called with lock held.
func (e *Engine) advanceLocked(d Direction) {
	switch d {
	case Next:
		cur := &e.stories[e.storyIndex]
		switch {
		case e.mediaIndex < cur.LastMediaIndex():
			e.mediaIndex++
		case e.storyIndex < len(e.stories)-1:
			e.storyIndex++
			e.mediaIndex = 0
		default:
			e.finishLocked()
			return
		}
	case Previous:
		switch {
		case e.mediaIndex > 0:
			e.mediaIndex--
		case e.storyIndex > 0:
			e.storyIndex--
			e.mediaIndex = e.stories[e.storyIndex].LastMediaIndex()
		default:
			// Start boundary: stay on the first segment
			return
		}
	}

	zlog.Debug().Msgf("playback: advanced: session=%s direction=%s story_index=%d media_index=%d",
		e.sessionID, d, e.storyIndex, e.mediaIndex)

	e.enterSegmentLocked()
}

// enterSegmentLocked activates the segment at the current position.
// Must be called with lock held.
func (e *Engine) enterSegmentLocked() {
	cur := &e.stories[e.storyIndex]
	if e.mediaIndex < 0 || e.mediaIndex >= len(cur.Media) {
		panic(errors.AssertionFailedf("story %d has no media at index %d", cur.ID, e.mediaIndex))
	}

	e.elapsed = 0

	if _, seen := e.viewed[cur.ID]; !seen {
		e.viewed[cur.ID] = struct{}{}
		e.emitLocked(EventViewed)
	}
	e.emitLocked(EventSegmentStarted)

	item := cur.Media[e.mediaIndex]
	e.queueSurfaceLocked(func(s MediaSurface) { s.Load(item) })

	if e.paused {
		e.clock.stop()
		return
	}

	e.queueSurfaceLocked(func(s MediaSurface) {
		s.SeekToStart()
		s.Play()
	})
	e.startClockLocked()
}

// finishLocked handles running off the end of the last story.
// Must be called with lock held.
func (e *Engine) finishLocked() {
	ev := Event{
		Type:       EventClosed,
		SessionID:  e.sessionID,
		StoryIndex: e.storyIndex,
		MediaIndex: e.mediaIndex,
		State:      StateClosed,
	}
	e.closeLocked()

	// Queued after the close so it survives it
	n := e.notifier
	e.queueLocked(func() { n.Notify(ev) })
}

// closeLocked releases the clock and session state.
// Must be called with lock held.
func (e *Engine) closeLocked() {
	e.clock.stop()
	e.epoch++
	e.pending = nil
	if !e.open {
		return
	}

	zlog.Info().Msgf("playback: session closed: session=%s", e.sessionID)

	e.open = false
	e.paused = false
	e.stories = nil
	e.viewed = nil
}

// tickLocked advances the active segment by one clock period.
// Must be called with lock held.
func (e *Engine) tickLocked() {
	if !e.open || e.paused {
		return
	}

	e.elapsed += e.config.TickInterval
	if e.elapsed >= e.currentMediaLocked().Duration() {
		e.advanceLocked(Next)
	}
}

// onClockTick is invoked by the live clock goroutine.
func (e *Engine) onClockTick(gen uint64) {
	_ = e.do(func() error {
		if !e.clock.live(gen) {
			return nil
		}
		e.tickLocked()
		return nil
	})
}

// startClockLocked (re)establishes the live clock for the active segment.
// Must be called with lock held.
func (e *Engine) startClockLocked() {
	if e.config.ManualClock {
		return
	}
	e.clock.start(e.config.NewTicker, e.config.TickInterval, e.onClockTick)
}

func (e *Engine) currentMediaLocked() story.MediaItem {
	return e.stories[e.storyIndex].Media[e.mediaIndex]
}

func (e *Engine) progressLocked() float64 {
	duration := e.currentMediaLocked().Duration()
	if duration <= 0 {
		return 0
	}
	return min(100, float64(e.elapsed)/float64(duration)*100)
}

func (e *Engine) stateLocked() State {
	switch {
	case !e.open:
		return StateClosed
	case e.paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// emitLocked queues an event for the active story.
// Must be called with lock held.
func (e *Engine) emitLocked(t EventType) {
	ev := Event{
		Type:       t,
		SessionID:  e.sessionID,
		StoryID:    e.stories[e.storyIndex].ID,
		StoryIndex: e.storyIndex,
		MediaIndex: e.mediaIndex,
		State:      e.stateLocked(),
	}
	n := e.notifier
	e.queueLocked(func() { n.Notify(ev) })
}

// queueSurfaceLocked queues a media surface call.
// Must be called with lock held.
func (e *Engine) queueSurfaceLocked(fn func(MediaSurface)) {
	s := e.surface
	e.queueLocked(func() { fn(s) })
}

// queueLocked tags fn with the current epoch and queues it.
// Must be called with lock held.
func (e *Engine) queueLocked(fn func()) {
	e.pending = append(e.pending, effect{epoch: e.epoch, fn: fn})
}

// do runs fn with the lock held, then dispatches the effects it queued.
// Only one goroutine dispatches at a time, so effects are delivered in the
// order the transitions happened. Calls made from inside a handler queue
// their effects behind the ones already pending. Each effect is checked
// against the epoch under the lock right before it runs, so nothing queued
// before a Close or Open is delivered after it.
func (e *Engine) do(fn func() error) error {
	e.mu.Lock()
	err := fn()

	if e.dispatching || len(e.pending) == 0 {
		e.mu.Unlock()
		return err
	}

	e.dispatching = true
	for len(e.pending) > 0 {
		next := e.pending[0]
		e.pending = e.pending[1:]
		if next.epoch != e.epoch {
			continue
		}

		e.mu.Unlock()
		next.fn()
		e.mu.Lock()
	}
	e.pending = nil
	e.dispatching = false
	e.mu.Unlock()

	return err
}

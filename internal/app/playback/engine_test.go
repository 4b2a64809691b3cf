package playback

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/storybox/internal/app/zone"
	"github.com/osa030/storybox/internal/domain/story"
)

// recorder collects events in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) ofType(t EventType) []Event {
	var out []Event
	for _, e := range r.all() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// surfaceRecorder records media surface calls.
type surfaceRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (s *surfaceRecorder) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *surfaceRecorder) Load(item story.MediaItem) { s.record("load:" + item.URL) }
func (s *surfaceRecorder) SeekToStart()              { s.record("seek") }
func (s *surfaceRecorder) Play()                     { s.record("play") }
func (s *surfaceRecorder) Pause()                    { s.record("pause") }

func (s *surfaceRecorder) take() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.calls
	s.calls = nil
	return out
}

// fakeTicker never fires on its own; tests push ticks through ch.
type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()                  { t.stopped.Store(true) }

type fakeTickers struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeTickers) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeTickers) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *fakeTickers) live() []*fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeTicker
	for _, t := range f.tickers {
		if !t.stopped.Load() {
			out = append(out, t)
		}
	}
	return out
}

func media(url string, sec float64) story.MediaItem {
	return story.MediaItem{URL: url, DurationSec: sec}
}

// testStories returns S1 (2 segments), S2 (1 segment), S3 (3 segments), 1s each.
func testStories() []story.Story {
	return []story.Story{
		{ID: 1, AuthorHandle: "travel_explorer", Media: []story.MediaItem{media("s1-a", 1), media("s1-b", 1)}},
		{ID: 2, AuthorHandle: "food_lover", Media: []story.MediaItem{media("s2-a", 1)}},
		{ID: 3, AuthorHandle: "fitness_pro", Media: []story.MediaItem{media("s3-a", 1), media("s3-b", 1), media("s3-c", 1)}},
	}
}

func newManualEngine(t *testing.T) (*Engine, *recorder, *surfaceRecorder) {
	t.Helper()
	rec := &recorder{}
	surf := &surfaceRecorder{}
	e := NewEngine(Config{TickInterval: 50 * time.Millisecond, ManualClock: true}, rec, surf)
	t.Cleanup(e.Close)
	return e, rec, surf
}

func tickN(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.Tick()
	}
}

func mustPosition(t *testing.T, e *Engine) Position {
	t.Helper()
	pos, ok := e.CurrentPosition()
	require.True(t, ok, "engine should be open")
	return pos
}

func TestEngine_Open(t *testing.T) {
	tests := []struct {
		name          string
		startID       int
		expectedIndex int
	}{
		{name: "first story", startID: 1, expectedIndex: 0},
		{name: "middle story", startID: 2, expectedIndex: 1},
		{name: "last story", startID: 3, expectedIndex: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec, _ := newManualEngine(t)

			require.NoError(t, e.Open(testStories(), tt.startID))

			pos := mustPosition(t, e)
			assert.Equal(t, tt.expectedIndex, pos.StoryIndex)
			assert.Equal(t, 0, pos.MediaIndex)
			assert.Equal(t, tt.startID, pos.StoryID)
			assert.Equal(t, 0.0, pos.Progress)
			assert.False(t, pos.Paused)
			assert.Equal(t, StatePlaying, e.State())
			assert.NotEmpty(t, e.SessionID())

			viewed := rec.ofType(EventViewed)
			require.Len(t, viewed, 1)
			assert.Equal(t, tt.startID, viewed[0].StoryID)
			assert.Equal(t, EventViewed, rec.all()[0].Type, "viewed must be the first event")
		})
	}
}

func TestEngine_Open_Errors(t *testing.T) {
	tests := []struct {
		name    string
		stories []story.Story
		startID int
		target  error
	}{
		{
			name:    "unknown story id",
			stories: testStories(),
			startID: 99,
			target:  ErrNotFound,
		},
		{
			name:    "empty list",
			stories: nil,
			startID: 1,
			target:  ErrNotFound,
		},
		{
			name:    "start story without media",
			stories: []story.Story{{ID: 1}},
			startID: 1,
			target:  story.ErrInvalidStory,
		},
		{
			name: "later story without media",
			stories: []story.Story{
				{ID: 1, Media: []story.MediaItem{media("a", 1)}},
				{ID: 2},
			},
			startID: 1,
			target:  story.ErrInvalidStory,
		},
		{
			name:    "non-positive duration",
			stories: []story.Story{{ID: 1, Media: []story.MediaItem{media("a", 0)}}},
			startID: 1,
			target:  story.ErrInvalidStory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec, surf := newManualEngine(t)

			err := e.Open(tt.stories, tt.startID)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)

			assert.False(t, e.IsOpen())
			_, ok := e.CurrentPosition()
			assert.False(t, ok)
			assert.Empty(t, rec.all())
			assert.Empty(t, surf.take())
		})
	}
}

func TestEngine_Open_FailureKeepsPreviousSession(t *testing.T) {
	e, rec, _ := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 2))
	sessionID := e.SessionID()
	rec.reset()

	err := e.Open(testStories(), 42)
	require.Error(t, err)

	assert.True(t, e.IsOpen())
	assert.Equal(t, sessionID, e.SessionID())
	assert.Equal(t, 1, mustPosition(t, e).StoryIndex)
	assert.Empty(t, rec.all())
}

func TestEngine_Open_ReopenStartsFreshSession(t *testing.T) {
	e, rec, _ := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 1))
	first := e.SessionID()
	require.NoError(t, e.Advance(Next))
	require.NoError(t, e.TogglePause())

	require.NoError(t, e.Open(testStories(), 1))

	assert.NotEqual(t, first, e.SessionID())
	pos := mustPosition(t, e)
	assert.Equal(t, 0, pos.MediaIndex)
	assert.False(t, pos.Paused)

	// Viewed bookkeeping does not carry over either.
	viewed := rec.ofType(EventViewed)
	require.Len(t, viewed, 2)
	assert.Equal(t, 1, viewed[1].StoryID)
	assert.NotEqual(t, viewed[0].SessionID, viewed[1].SessionID)
}

func TestEngine_Advance_NextRunsOffTheEnd(t *testing.T) {
	starts := []int{1, 2, 3}

	for _, startID := range starts {
		t.Run(fmt.Sprintf("start at story %d", startID), func(t *testing.T) {
			e, rec, _ := newManualEngine(t)
			stories := testStories()
			require.NoError(t, e.Open(stories, startID))

			total := 0
			for _, s := range stories {
				total += len(s.Media)
			}
			for i := 0; i < total; i++ {
				if !e.IsOpen() {
					break
				}
				require.NoError(t, e.Advance(Next))
			}

			assert.False(t, e.IsOpen())
			assert.Equal(t, StateClosed, e.State())
			closed := rec.ofType(EventClosed)
			require.Len(t, closed, 1)
			assert.Equal(t, StateClosed, closed[0].State)
			events := rec.all()
			assert.Equal(t, EventClosed, events[len(events)-1].Type)

			before := len(rec.all())
			assert.True(t, errors.Is(e.Advance(Next), ErrNotOpen))
			assert.True(t, errors.Is(e.Advance(Previous), ErrNotOpen))
			assert.True(t, errors.Is(e.TogglePause(), ErrNotOpen))
			e.Tick()
			assert.Len(t, rec.all(), before, "no events after close")
			_, ok := e.CurrentPosition()
			assert.False(t, ok)
		})
	}
}

func TestEngine_Advance_PreviousAtStartIsNoop(t *testing.T) {
	e, rec, surf := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 1))
	tickN(e, 4)
	before := mustPosition(t, e)
	rec.reset()
	surf.take()

	require.NoError(t, e.Advance(Previous))

	assert.Equal(t, before, mustPosition(t, e))
	assert.Empty(t, rec.all())
	assert.Empty(t, surf.take())
	assert.True(t, e.IsOpen())
}

func TestEngine_Advance_Boundaries(t *testing.T) {
	tests := []struct {
		name          string
		startID       int
		moves         []Direction
		expectedStory int
		expectedMedia int
	}{
		{
			name:          "next within story",
			startID:       1,
			moves:         []Direction{Next},
			expectedStory: 0,
			expectedMedia: 1,
		},
		{
			name:          "next across story boundary starts at first segment",
			startID:       1,
			moves:         []Direction{Next, Next},
			expectedStory: 1,
			expectedMedia: 0,
		},
		{
			name:          "previous across story boundary lands on last segment",
			startID:       3,
			moves:         []Direction{Previous, Previous},
			expectedStory: 0,
			expectedMedia: 1,
		},
		{
			name:          "previous into multi-segment story",
			startID:       3,
			moves:         []Direction{Previous},
			expectedStory: 1,
			expectedMedia: 0,
		},
		{
			name:          "previous within story",
			startID:       3,
			moves:         []Direction{Next, Next, Previous},
			expectedStory: 2,
			expectedMedia: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := newManualEngine(t)
			require.NoError(t, e.Open(testStories(), tt.startID))

			for _, d := range tt.moves {
				tickN(e, 3)
				require.NoError(t, e.Advance(d))
				assert.Equal(t, 0.0, mustPosition(t, e).Progress, "progress resets on every transition")
			}

			pos := mustPosition(t, e)
			assert.Equal(t, tt.expectedStory, pos.StoryIndex)
			assert.Equal(t, tt.expectedMedia, pos.MediaIndex)
		})
	}
}

func TestEngine_ViewedOncePerStory(t *testing.T) {
	e, rec, _ := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 1))

	// 1 -> 1b -> 2 -> 1b -> 1a -> 1b -> 2 -> 3
	moves := []Direction{Next, Next, Previous, Previous, Next, Next, Next}
	for _, d := range moves {
		require.NoError(t, e.Advance(d))
	}

	var ids []int
	for _, ev := range rec.ofType(EventViewed) {
		ids = append(ids, ev.StoryID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestEngine_ViewedPrecedesOtherEventsForStory(t *testing.T) {
	e, rec, _ := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 1))
	rec.reset()

	require.NoError(t, e.Advance(Next))
	require.NoError(t, e.Advance(Next))

	events := rec.all()
	require.Len(t, events, 3)
	assert.Equal(t, EventSegmentStarted, events[0].Type)
	assert.Equal(t, 1, events[0].StoryID)
	assert.Equal(t, EventViewed, events[1].Type)
	assert.Equal(t, 2, events[1].StoryID)
	assert.Equal(t, EventSegmentStarted, events[2].Type)
	assert.Equal(t, 2, events[2].StoryID)
}

func TestEngine_AutoAdvanceScenario(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(Config{TickInterval: 50 * time.Millisecond, ManualClock: true}, rec, nil)
	t.Cleanup(e.Close)

	stories := []story.Story{
		{ID: 1, Media: []story.MediaItem{media("a", 1), media("b", 1)}},
		{ID: 2, Media: []story.MediaItem{media("c", 1)}},
	}
	require.NoError(t, e.Open(stories, 1))

	pos := mustPosition(t, e)
	assert.Equal(t, 0, pos.StoryIndex)
	assert.Equal(t, 0, pos.MediaIndex)
	require.Len(t, rec.ofType(EventViewed), 1)

	// 1s at 50ms per tick
	tickN(e, 19)
	pos = mustPosition(t, e)
	assert.Equal(t, 0, pos.MediaIndex)
	assert.InDelta(t, 95.0, pos.Progress, 1e-9)

	e.Tick()
	pos = mustPosition(t, e)
	assert.Equal(t, 0, pos.StoryIndex)
	assert.Equal(t, 1, pos.MediaIndex)
	assert.Equal(t, 0.0, pos.Progress)
	assert.Len(t, rec.ofType(EventViewed), 1)

	tickN(e, 20)
	pos = mustPosition(t, e)
	assert.Equal(t, 1, pos.StoryIndex)
	assert.Equal(t, 0, pos.MediaIndex)
	viewed := rec.ofType(EventViewed)
	require.Len(t, viewed, 2)
	assert.Equal(t, 2, viewed[1].StoryID)

	tickN(e, 20)
	assert.False(t, e.IsOpen())
	assert.Len(t, rec.ofType(EventClosed), 1)
}

func TestEngine_ProgressIncreasesPerTick(t *testing.T) {
	e, _, _ := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 1))

	last := mustPosition(t, e).Progress
	for i := 0; i < 19; i++ {
		e.Tick()
		p := mustPosition(t, e).Progress
		assert.Greater(t, p, last)
		assert.LessOrEqual(t, p, 100.0)
		last = p
	}
}

func TestEngine_TogglePause(t *testing.T) {
	e, rec, surf := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 1))
	assert.Equal(t, []string{"load:s1-a", "seek", "play"}, surf.take())

	tickN(e, 8)
	assert.InDelta(t, 40.0, mustPosition(t, e).Progress, 1e-9)

	require.NoError(t, e.TogglePause())
	pos := mustPosition(t, e)
	assert.True(t, pos.Paused)
	assert.Equal(t, StatePaused, e.State())
	assert.Equal(t, []string{"pause"}, surf.take())

	// Clock is inert while paused.
	tickN(e, 50)
	pos = mustPosition(t, e)
	assert.InDelta(t, 40.0, pos.Progress, 1e-9)
	assert.Equal(t, 0, pos.MediaIndex)

	// Resuming restarts the segment from zero rather than continuing at 40%.
	// This mirrors how the viewer has always behaved; kept until product confirms intent.
	require.NoError(t, e.TogglePause())
	pos = mustPosition(t, e)
	assert.False(t, pos.Paused)
	assert.Equal(t, 0.0, pos.Progress)
	assert.Equal(t, []string{"seek", "play"}, surf.take())

	changes := rec.ofType(EventStateChanged)
	require.Len(t, changes, 2)
	assert.Equal(t, StatePaused, changes[0].State)
	assert.Equal(t, StatePlaying, changes[1].State)
}

func TestEngine_NavigateWhilePaused(t *testing.T) {
	e, _, surf := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 1))
	require.NoError(t, e.TogglePause())
	surf.take()

	require.NoError(t, e.Advance(Next))

	pos := mustPosition(t, e)
	assert.True(t, pos.Paused)
	assert.Equal(t, 1, pos.MediaIndex)
	assert.Equal(t, []string{"load:s1-b"}, surf.take(), "no playback while paused")

	tickN(e, 40)
	assert.Equal(t, 1, mustPosition(t, e).MediaIndex)
}

func TestEngine_SurfaceSequenceOnAdvance(t *testing.T) {
	e, _, surf := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 1))
	surf.take()

	tickN(e, 20)
	assert.Equal(t, []string{"load:s1-b", "seek", "play"}, surf.take())
}

func TestEngine_Handle(t *testing.T) {
	e, _, _ := newManualEngine(t)
	require.NoError(t, e.Open(testStories(), 2))

	require.NoError(t, e.Handle(zone.MapPosition(290, 300)))
	assert.Equal(t, 2, mustPosition(t, e).StoryIndex)

	require.NoError(t, e.Handle(zone.MapPosition(10, 300)))
	assert.Equal(t, 1, mustPosition(t, e).StoryIndex)

	require.NoError(t, e.Handle(zone.MapPosition(150, 300)))
	assert.True(t, mustPosition(t, e).Paused)

	assert.Error(t, e.Handle(zone.Command(42)))
}

func TestEngine_LiveClock_SingleInstance(t *testing.T) {
	tickers := &fakeTickers{}
	rec := &recorder{}
	e := NewEngine(Config{TickInterval: 50 * time.Millisecond, NewTicker: tickers.New}, rec, nil)
	t.Cleanup(e.Close)

	require.NoError(t, e.Open(testStories(), 1))
	assert.Equal(t, 1, tickers.created())
	require.Len(t, tickers.live(), 1)
	first := tickers.live()[0]

	// Ticks delivered by the live ticker advance progress.
	first.ch <- time.Now()
	assert.Eventually(t, func() bool {
		pos, _ := e.CurrentPosition()
		return pos.Progress > 0
	}, time.Second, 5*time.Millisecond)

	// Segment change re-establishes the clock and disposes of the old one.
	require.NoError(t, e.Advance(Next))
	assert.Equal(t, 2, tickers.created())
	live := tickers.live()
	require.Len(t, live, 1)
	assert.NotSame(t, first, live[0])
	assert.True(t, first.stopped.Load())

	// Pause stops the clock; resume establishes a new one.
	require.NoError(t, e.TogglePause())
	assert.Empty(t, tickers.live())
	require.NoError(t, e.TogglePause())
	assert.Equal(t, 3, tickers.created())
	assert.Len(t, tickers.live(), 1)

	e.Close()
	assert.Empty(t, tickers.live())
}

func TestEngine_LiveClock_StaleTickIsNoop(t *testing.T) {
	tickers := &fakeTickers{}
	e := NewEngine(Config{TickInterval: 50 * time.Millisecond, NewTicker: tickers.New}, nil, nil)
	t.Cleanup(e.Close)
	require.NoError(t, e.Open(testStories(), 1))

	e.mu.Lock()
	staleGen := e.clock.gen
	e.mu.Unlock()

	require.NoError(t, e.Advance(Next))
	e.onClockTick(staleGen)
	assert.Equal(t, 0.0, mustPosition(t, e).Progress)

	e.Close()
	e.mu.Lock()
	assert.False(t, e.clock.running())
	e.mu.Unlock()
	e.onClockTick(staleGen + 1)
	assert.False(t, e.IsOpen())
}

func TestEngine_LiveClock_RealTime(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(Config{TickInterval: 5 * time.Millisecond}, rec, nil)
	t.Cleanup(e.Close)

	stories := []story.Story{
		{ID: 1, Media: []story.MediaItem{media("a", 0.02), media("b", 0.02)}},
		{ID: 2, Media: []story.MediaItem{media("c", 0.02)}},
	}
	require.NoError(t, e.Open(stories, 1))

	assert.Eventually(t, func() bool {
		return len(rec.ofType(EventClosed)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.False(t, e.IsOpen())
	assert.Len(t, rec.ofType(EventViewed), 2)
	assert.Len(t, rec.ofType(EventSegmentStarted), 3)
}

func TestEngine_HandlersMayCallBack(t *testing.T) {
	var e *Engine
	var positions []Position
	var order []EventType

	notifier := NotifierFunc(func(ev Event) {
		order = append(order, ev.Type)
		switch ev.Type {
		case EventViewed:
			// Reading state from a handler must not deadlock.
			if pos, ok := e.CurrentPosition(); ok {
				positions = append(positions, pos)
			}
			// Commands issued from a handler run after the current batch.
			if ev.StoryID == 2 {
				_ = e.Advance(Next)
			}
		case EventClosed:
			e.Close()
		}
	})
	e = NewEngine(Config{ManualClock: true}, notifier, nil)

	require.NoError(t, e.Open(testStories(), 1))
	require.NoError(t, e.Advance(Next))
	require.NoError(t, e.Advance(Next))

	// Viewed(2) triggered a jump to story 3.
	pos := mustPosition(t, e)
	assert.Equal(t, 2, pos.StoryIndex)
	assert.Equal(t, []EventType{
		EventViewed, EventSegmentStarted, // open story 1
		EventSegmentStarted,              // 1b
		EventViewed, EventSegmentStarted, // story 2
		EventViewed, EventSegmentStarted, // story 3 from the handler
	}, order)
	require.Len(t, positions, 3)

	for e.IsOpen() {
		require.NoError(t, e.Advance(Next))
	}
	assert.Equal(t, EventClosed, order[len(order)-1])
}

func TestEngine_CloseFromHandlerDropsQueuedEffects(t *testing.T) {
	var e *Engine
	surf := &surfaceRecorder{}
	var closed bool
	var afterClose []EventType

	notifier := NotifierFunc(func(ev Event) {
		if closed {
			afterClose = append(afterClose, ev.Type)
			return
		}
		if ev.Type == EventViewed && ev.StoryID == 2 {
			e.Close()
			closed = true
			surf.take()
		}
	})
	e = NewEngine(Config{ManualClock: true}, notifier, surf)

	require.NoError(t, e.Open(testStories(), 1))
	require.NoError(t, e.Advance(Next))
	require.NoError(t, e.Advance(Next))

	require.True(t, closed)
	assert.False(t, e.IsOpen())
	assert.Empty(t, afterClose, "no events after close")
	assert.Empty(t, surf.take(), "no surface calls after close")

	// Commands after close are rejected and emit nothing
	assert.ErrorIs(t, e.Advance(Next), ErrNotOpen)
	assert.Empty(t, afterClose)
}

func TestEngine_ReopenFromHandlerDropsOldSession(t *testing.T) {
	var e *Engine
	rec := &recorder{}
	surf := &surfaceRecorder{}

	notifier := NotifierFunc(func(ev Event) {
		rec.Notify(ev)
		if ev.Type == EventViewed && ev.StoryID == 2 {
			surf.take()
			require.NoError(t, e.Open(testStories(), 3))
		}
	})
	e = NewEngine(Config{ManualClock: true}, notifier, surf)

	require.NoError(t, e.Open(testStories(), 2))

	events := rec.all()
	require.Len(t, events, 3)
	assert.Equal(t, EventViewed, events[0].Type)
	assert.Equal(t, 2, events[0].StoryID)
	// SegmentStarted of story 2 never arrives
	assert.Equal(t, EventViewed, events[1].Type)
	assert.Equal(t, 3, events[1].StoryID)
	assert.Equal(t, EventSegmentStarted, events[2].Type)
	assert.Equal(t, 3, events[2].StoryID)
	assert.NotEqual(t, events[0].SessionID, events[2].SessionID)

	assert.Equal(t, []string{"load:s3-a", "seek", "play"}, surf.take())
}

// blockingSurface blocks in Load of one URL until released.
type blockingSurface struct {
	surfaceRecorder
	url     string
	loading chan struct{}
	release chan struct{}
}

func (s *blockingSurface) Load(item story.MediaItem) {
	s.record("load:" + item.URL)
	if item.URL == s.url {
		close(s.loading)
		<-s.release
	}
}

func TestEngine_CloseFromOtherGoroutineDuringDispatch(t *testing.T) {
	rec := &recorder{}
	surf := &blockingSurface{
		url:     "s1-b",
		loading: make(chan struct{}),
		release: make(chan struct{}),
	}
	e := NewEngine(Config{ManualClock: true}, rec, surf)
	t.Cleanup(e.Close)

	require.NoError(t, e.Open(testStories(), 1))
	surf.take()
	rec.reset()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Advance(Next)
	}()

	<-surf.loading
	e.Close()
	close(surf.release)
	<-done

	assert.Equal(t, []string{"load:s1-b"}, surf.take(), "seek and play are dropped")
	assert.Len(t, rec.all(), 1)
	assert.Equal(t, EventSegmentStarted, rec.all()[0].Type)
	assert.False(t, e.IsOpen())
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	e, rec, _ := newManualEngine(t)
	e.Close()
	require.NoError(t, e.Open(testStories(), 1))
	e.Close()
	e.Close()

	assert.False(t, e.IsOpen())
	assert.Empty(t, rec.ofType(EventClosed), "explicit close does not emit Closed")
}

func TestEngine_CurrentStory(t *testing.T) {
	e, _, _ := newManualEngine(t)
	_, _, ok := e.CurrentStory()
	assert.False(t, ok)

	require.NoError(t, e.Open(testStories(), 3))
	require.NoError(t, e.Advance(Next))

	s, item, ok := e.CurrentStory()
	require.True(t, ok)
	assert.Equal(t, "fitness_pro", s.AuthorHandle)
	assert.Equal(t, "s3-b", item.URL)
}

// Package metrics exposes Prometheus counters fed by playback lifecycle events.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osa030/storybox/internal/app/playback"
)

// Metrics holds Prometheus counters and gauges for the story viewer.
type Metrics struct {
	registry              *prometheus.Registry
	storiesViewedTotal    prometheus.Counter
	sessionsClosedTotal   prometheus.Counter
	segmentsStartedTotal  prometheus.Counter
	stateChangesTotal     *prometheus.CounterVec
	storiesCreatedTotal   prometheus.Counter
	creationRejectedTotal *prometheus.CounterVec
	viewerOpen            prometheus.Gauge
	stories               prometheus.Gauge
}

// New creates and registers Prometheus metrics for the story viewer.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	storiesViewedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storybox_stories_viewed_total",
		Help: "Total number of stories reached for the first time in a viewer session",
	})
	sessionsClosedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storybox_sessions_closed_total",
		Help: "Total number of viewer sessions that ran past the last story",
	})
	segmentsStartedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storybox_segments_started_total",
		Help: "Total number of media segments started",
	})
	stateChangesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storybox_state_changes_total",
		Help: "Total number of pause and resume transitions",
	}, []string{"state"})
	storiesCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storybox_stories_created_total",
		Help: "Total number of stories created",
	})
	creationRejectedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storybox_creation_rejected_total",
		Help: "Total number of story creation requests rejected by a filter",
	}, []string{"code"})
	viewerOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storybox_viewer_open",
		Help: "1 while the story viewer is open",
	})
	stories := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storybox_stories",
		Help: "Number of stories in the tray",
	})

	registry.MustRegister(
		storiesViewedTotal,
		sessionsClosedTotal,
		segmentsStartedTotal,
		stateChangesTotal,
		storiesCreatedTotal,
		creationRejectedTotal,
		viewerOpen,
		stories,
	)

	return &Metrics{
		registry:              registry,
		storiesViewedTotal:    storiesViewedTotal,
		sessionsClosedTotal:   sessionsClosedTotal,
		segmentsStartedTotal:  segmentsStartedTotal,
		stateChangesTotal:     stateChangesTotal,
		storiesCreatedTotal:   storiesCreatedTotal,
		creationRejectedTotal: creationRejectedTotal,
		viewerOpen:            viewerOpen,
		stories:               stories,
	}
}

// HandleEvent records a playback lifecycle event.
// Implements notification.Handler.
func (m *Metrics) HandleEvent(e playback.Event) {
	switch e.Type {
	case playback.EventViewed:
		m.storiesViewedTotal.Inc()
	case playback.EventClosed:
		m.sessionsClosedTotal.Inc()
	case playback.EventSegmentStarted:
		m.segmentsStartedTotal.Inc()
	case playback.EventStateChanged:
		m.stateChangesTotal.WithLabelValues(e.State.String()).Inc()
	}
}

// SetViewerOpen sets the viewer open gauge.
func (m *Metrics) SetViewerOpen(open bool) {
	if open {
		m.viewerOpen.Set(1)
	} else {
		m.viewerOpen.Set(0)
	}
}

// SetStories sets the story count gauge.
func (m *Metrics) SetStories(n int) {
	m.stories.Set(float64(n))
}

// IncStoriesCreated increments the created stories counter.
func (m *Metrics) IncStoriesCreated() {
	m.storiesCreatedTotal.Inc()
}

// IncCreationRejected increments the rejection counter for the given filter code.
func (m *Metrics) IncCreationRejected(code string) {
	m.creationRejectedTotal.WithLabelValues(code).Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// Router returns a router serving /metrics and /healthz.
func (m *Metrics) Router(updateGauges func()) http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", m.Handler(updateGauges).ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

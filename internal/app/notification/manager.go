// Package notification provides the lifecycle notifier that fans playback
// events out to subscribers.
package notification

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/storybox/internal/app/playback"
)

// Handler receives playback events.
type Handler interface {
	HandleEvent(playback.Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(playback.Event)

// HandleEvent calls f(e).
func (f HandlerFunc) HandleEvent(e playback.Event) {
	f(e)
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id      string
	handler Handler
}

// Manager manages subscriptions and delivers events synchronously,
// in subscription order.
type Manager struct {
	mu            sync.RWMutex
	subscriptions []*subscription
	sequenceNo    uint64
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make([]*subscription, 0),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(h Handler) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions = append(m.subscriptions, &subscription{
		id:      id,
		handler: h,
	})
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscriptions {
		if sub.id == subscriptionID {
			m.subscriptions = append(m.subscriptions[:i:i], m.subscriptions[i+1:]...)
			return
		}
	}
}

// Notify delivers the event to every subscriber before returning.
// Implements playback.Notifier.
func (m *Manager) Notify(e playback.Event) {
	m.mu.Lock()
	m.sequenceNo++
	seq := m.sequenceNo
	// Copy subscriptions so handlers may subscribe or unsubscribe
	subs := make([]*subscription, len(m.subscriptions))
	copy(subs, m.subscriptions)
	m.mu.Unlock()

	zlog.Debug().Msgf("notification: deliver: seq=%d type=%s story=%d subscribers=%d",
		seq, e.Type, e.StoryID, len(subs))

	for _, sub := range subs {
		sub.handler.HandleEvent(e)
	}
}

// SequenceNo returns the number of events delivered so far.
func (m *Manager) SequenceNo() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sequenceNo
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make([]*subscription, 0)
}

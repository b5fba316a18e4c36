package domain

import (
	"errors"
	"fmt"
	"sync"
)

const DefaultQueueSize = 256

var (
	ErrNotSubscribed     = errors.New("session not subscribed")
	ErrAlreadySubscribed = errors.New("session already subscribed")
	ErrBroadcasterClosed = errors.New("broadcaster closed")
)

// Broadcaster is the single publish point for outbound events. Every
// subscriber owns a bounded queue; broadcasts and unicasts pass through the
// same lock so each subscriber observes events in publication order.
//
// Sends never block. A subscriber whose queue is full is evicted: its queue
// is closed and it stops receiving, so it either sees every event in order or
// is disconnected.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	queueSize   int
	closed      bool
	onEvict     func(sessionID string)
	stats       BroadcastStats
}

type BroadcastStats struct {
	Subscribers int
	Published   int64
	Unicast     int64
	Evicted     int64
}

type subscriber struct {
	id     string
	events chan Event
	closed bool
}

// Subscription is a session's view of the broadcaster.
type Subscription struct {
	ID          string
	broadcaster *Broadcaster
	sub         *subscriber
}

type BroadcasterOption func(*Broadcaster)

// WithEvictHook registers fn to run, outside the broadcaster lock, whenever a
// lagging subscriber is evicted.
func WithEvictHook(fn func(sessionID string)) BroadcasterOption {
	return func(b *Broadcaster) {
		b.onEvict = fn
	}
}

func NewBroadcaster(queueSize int, opts ...BroadcasterOption) *Broadcaster {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	b := &Broadcaster{
		subscribers: make(map[string]*subscriber),
		queueSize:   queueSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broadcaster) Subscribe(sessionID string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBroadcasterClosed
	}
	if _, exists := b.subscribers[sessionID]; exists {
		return nil, fmt.Errorf("subscribe %s: %w", sessionID, ErrAlreadySubscribed)
	}
	sub := &subscriber{
		id:     sessionID,
		events: make(chan Event, b.queueSize),
	}
	b.subscribers[sessionID] = sub
	b.stats.Subscribers = len(b.subscribers)
	return &Subscription{ID: sessionID, broadcaster: b, sub: sub}, nil
}

// Events is closed when the subscription is cancelled, evicted, or the
// broadcaster shuts down.
func (s *Subscription) Events() <-chan Event {
	return s.sub.events
}

// Cancel is idempotent and never affects a newer subscription that reuses
// the same session ID.
func (s *Subscription) Cancel() {
	b := s.broadcaster
	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.subscribers[s.ID]; ok && current == s.sub {
		delete(b.subscribers, s.ID)
		b.stats.Subscribers = len(b.subscribers)
	}
	s.sub.close()
}

// Publish delivers event to every current subscriber and returns how many
// queues accepted it.
func (b *Broadcaster) Publish(event Event) int {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0
	}
	b.stats.Published++

	var delivered int
	var evicted []string
	for id, sub := range b.subscribers {
		if b.deliverLocked(sub, event) {
			delivered++
			continue
		}
		evicted = append(evicted, id)
	}
	b.mu.Unlock()

	b.notifyEvicted(evicted)
	return delivered
}

// SendTo delivers event to one subscriber only.
func (b *Broadcaster) SendTo(sessionID string, event Event) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBroadcasterClosed
	}
	sub, exists := b.subscribers[sessionID]
	if !exists {
		b.mu.Unlock()
		return fmt.Errorf("send %s to %s: %w", event.Type(), sessionID, ErrNotSubscribed)
	}
	b.stats.Unicast++
	ok := b.deliverLocked(sub, event)
	b.mu.Unlock()

	if !ok {
		b.notifyEvicted([]string{sessionID})
		return fmt.Errorf("send %s to %s: %w", event.Type(), sessionID, ErrNotSubscribed)
	}
	return nil
}

func (b *Broadcaster) IsSubscribed(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, exists := b.subscribers[sessionID]
	return exists
}

func (b *Broadcaster) Stats() BroadcastStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Close closes every subscriber queue. Later publishes are discarded.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subscribers {
		sub.close()
		delete(b.subscribers, id)
	}
	b.stats.Subscribers = 0
}

// deliverLocked reports false when sub was evicted. Caller holds b.mu.
func (b *Broadcaster) deliverLocked(sub *subscriber, event Event) bool {
	select {
	case sub.events <- event:
		return true
	default:
	}
	delete(b.subscribers, sub.id)
	sub.close()
	b.stats.Evicted++
	b.stats.Subscribers = len(b.subscribers)
	return false
}

func (b *Broadcaster) notifyEvicted(ids []string) {
	if b.onEvict == nil {
		return
	}
	for _, id := range ids {
		b.onEvict(id)
	}
}

// close must run under the broadcaster lock.
func (s *subscriber) close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

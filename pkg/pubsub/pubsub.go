// Package pubsub fans out typed events to in-process subscribers. The
// playback controller publishes every state change here and renderers
// subscribe, so the engine never writes to a presentation surface itself.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 64

// ErrShutdown is returned by Subscribe after Shutdown.
var ErrShutdown = errors.New("pubsub is shut down")

// PubSub provides publish/subscribe functionality for real-time updates
type PubSub[T any] struct {
	subscribers map[string]map[*Subscription[T]]struct{}
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
	dropped     atomic.Uint64
}

// Subscription represents a subscription to a topic
type Subscription[T any] struct {
	topic     string
	channel   chan T
	ps        *PubSub[T]
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a PubSub whose subscriptions buffer up to buffer events.
// A non-positive buffer selects DefaultBuffer.
func New[T any](buffer int) *PubSub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &PubSub[T]{
		subscribers: make(map[string]map[*Subscription[T]]struct{}),
		shutdown:    make(chan struct{}),
		buffer:      buffer,
	}
}

// Subscribe creates a new subscription to a topic. The subscription ends
// when ctx is cancelled, Unsubscribe is called, or the PubSub shuts down;
// in every case its channel is closed.
func (ps *PubSub[T]) Subscribe(ctx context.Context, topic string) (*Subscription[T], error) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	ps.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		topic:   topic,
		channel: make(chan T, ps.buffer),
		ps:      ps,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription[T]]struct{})
	}
	ps.subscribers[topic][sub] = struct{}{}
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic without blocking.
// Events for a subscriber whose buffer is full are dropped and counted.
func (ps *PubSub[T]) Publish(topic string, event T) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.shutdownMu.Unlock()

	// Sending happens under the read lock so Unsubscribe cannot close a
	// channel mid-send; sends never block.
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for sub := range ps.subscribers[topic] {
		select {
		case sub.channel <- event:
		default:
			ps.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of subscribers for a topic
func (ps *PubSub[T]) SubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Dropped returns the number of events discarded because a subscriber was
// not keeping up.
func (ps *PubSub[T]) Dropped() uint64 {
	return ps.dropped.Load()
}

// Shutdown closes all subscriptions and shuts down the PubSub
func (ps *PubSub[T]) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	ps.shutdownMu.Unlock()

	close(ps.shutdown)

	ps.mu.Lock()
	for topic, subs := range ps.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(ps.subscribers, topic)
	}
	ps.mu.Unlock()
}

// Channel returns the subscription's event channel
func (s *Subscription[T]) Channel() <-chan T {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel
func (s *Subscription[T]) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()

	if subs := s.ps.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}

	s.close()
}

// close closes the subscription channel safely (idempotent)
func (s *Subscription[T]) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}

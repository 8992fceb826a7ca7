// Package eventbus fans typed events out to subscribers without ever
// blocking the publisher.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the channel capacity of each subscriber.
const DefaultBuffer = 16

// Bus is a publish/subscribe bus for events of type T. Slow subscribers
// lose events instead of stalling Publish; Dropped counts them.
type Bus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// New creates a Bus whose subscriber channels hold buffer events.
func New[T any](buffer int) *Bus[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus[T]{buffer: buffer}
}

// Publish sends e to every subscriber with room for it.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of deliveries skipped because a subscriber
// channel was full.
func (b *Bus[T]) Dropped() int64 { return b.dropped.Load() }

// Subscribe registers a subscriber. The channel is closed by Unsubscribe
// or Close; subscribing to a closed bus returns a closed channel.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Listen subscribes fn and runs it for each event until ctx is done or the
// bus is closed. The returned channel is closed once fn will no longer be
// called.
func (b *Bus[T]) Listen(ctx context.Context, fn func(T)) <-chan struct{} {
	ch := b.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				b.Unsubscribe(ch)
				return
			case e, ok := <-ch:
				if !ok {
					return
				}
				fn(e)
			}
		}
	}()
	return done
}

// Close closes the bus and all subscriber channels.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

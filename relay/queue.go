// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package relay

// QueueCapacity is the fixed capacity of every Relay Queue, retained as a
// contract per spec.md §9: under sustained injection this creates
// backpressure that propagates to injectors via a failing TryPush, rather
// than silently growing or dropping.
const QueueCapacity = 16

// Queue is a bounded, multi-producer/single-consumer FIFO of T, safe for
// concurrent use by any number of producers and one consumer (spec.md
// §4.3). It is implemented as a buffered channel, the idiomatic Go stand-in
// for the source's boost::lockfree::queue, wrapped so push/pop are
// non-blocking.
type Queue[T any] struct {
	c chan T
}

// NewQueue allocates a Queue with capacity QueueCapacity.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{c: make(chan T, QueueCapacity)}
}

// TryPush attempts to push v without blocking. It returns false if the
// queue is full.
func (q *Queue[T]) TryPush(v T) bool {
	select {
	case q.c <- v:
		return true
	default:
		return false
	}
}

// TryPop attempts to pop a value without blocking. ok is false if the queue
// is empty.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	select {
	case v = <-q.c:
		return v, true
	default:
		return v, false
	}
}

// Len returns the number of values currently queued. It is a snapshot and
// may be stale by the time the caller observes it.
func (q *Queue[T]) Len() int { return len(q.c) }

// Drain empties the queue, discarding whatever remains, and returns the
// discarded values. Used during STOPPING to release in-flight packets per
// spec.md §3's "queues are drained and their contents released" invariant.
func (q *Queue[T]) Drain() []T {
	var drained []T
	for {
		v, ok := q.TryPop()
		if !ok {
			return drained
		}
		drained = append(drained, v)
	}
}

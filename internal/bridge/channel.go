package bridge

import (
	"sync"
)

// Channel is the multi-producer single-consumer queue between the engine and
// the delivery goroutine. With limit == 0 it never blocks a producer and
// doubles its ring when 70% full; with limit > 0 Send blocks while limit
// items are pending.
type Channel[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	limit    int
	closed   bool

	stats Stats
}

// Stats describes a channel over its lifetime.
type Stats struct {
	Enqueued    int64 // items accepted by Send
	PeakPending int   // most items queued at once
	Resizes     int
}

func NewChannel[T any](initialCapacity, limit int) *Channel[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	if limit < 0 {
		limit = 0
	}
	c := &Channel[T]{
		buf:      make([]T, initialCapacity),
		capacity: initialCapacity,
		limit:    limit,
	}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	return c
}

// Send enqueues item. It returns false once the channel is closed; the item
// is then dropped.
func (c *Channel[T]) Send(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.limit > 0 && c.count >= c.limit && !c.closed {
		c.notFull.Wait()
	}
	if c.closed {
		return false
	}

	threshold := (c.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if c.count+1 >= threshold {
		c.grow()
	}

	c.buf[c.tail] = item
	c.tail = (c.tail + 1) % c.capacity
	c.count++
	c.stats.Enqueued++
	if c.count > c.stats.PeakPending {
		c.stats.PeakPending = c.count
	}

	c.notEmpty.Signal()
	return true
}

// Receive blocks until an item is available. It returns false only when the
// channel is closed and drained.
func (c *Channel[T]) Receive() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.count == 0 && !c.closed {
		c.notEmpty.Wait()
	}
	if c.count == 0 {
		var zero T
		return zero, false
	}
	return c.pop(), true
}

// Close ends the stream. Pending items stay receivable; blocked senders
// return false.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.notEmpty.Broadcast()
	c.notFull.Broadcast()
}

func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *Channel[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// pop must be called with the lock held and count > 0.
func (c *Channel[T]) pop() T {
	item := c.buf[c.head]
	var zero T
	c.buf[c.head] = zero // drop the reference for GC
	c.head = (c.head + 1) % c.capacity
	c.count--
	if c.limit > 0 {
		c.notFull.Signal()
	}
	return item
}

// grow doubles the ring. Must be called with the lock held.
func (c *Channel[T]) grow() {
	newCapacity := c.capacity * 2
	newBuf := make([]T, newCapacity)

	if c.count > 0 {
		if c.head < c.tail {
			copy(newBuf, c.buf[c.head:c.tail])
		} else {
			n := copy(newBuf, c.buf[c.head:])
			copy(newBuf[n:], c.buf[:c.tail])
		}
	}

	c.buf = newBuf
	c.head = 0
	c.tail = c.count
	c.capacity = newCapacity
	c.stats.Resizes++
}

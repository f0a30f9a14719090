package utils

import (
	"sync"

	"trader-gateway/src/models"
)

const defaultEventCapacity = 100

// -----------------------------------------------------------------------------
// EventRing is a fixed-size circular buffer of push events, replayed to
// clients that connect late. Safe for concurrent use.
// -----------------------------------------------------------------------------

type EventRing struct {
	mu       sync.RWMutex
	data     []models.MPushEvent
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewEventRing creates a buffer with fixed capacity.
func NewEventRing(capacity int) *EventRing {
	if capacity <= 0 {
		capacity = defaultEventCapacity
	}
	return &EventRing{
		data:     make([]models.MPushEvent, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append stores event, overwriting the oldest one when full.
func (rb *EventRing) Append(event models.MPushEvent) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data[rb.index] = event
	rb.index = (rb.index + 1) % rb.capacity
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n latest events, oldest first.
func (rb *EventRing) GetLatest(n int) []models.MPushEvent {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.size == 0 || n <= 0 {
		return []models.MPushEvent{}
	}
	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MPushEvent, count)
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}
	return result
}

// -----------------------------------------------------------------------------

// GetAll returns every stored event in insertion order.
func (rb *EventRing) GetAll() []models.MPushEvent {
	return rb.GetLatest(rb.Capacity())
}

// -----------------------------------------------------------------------------

func (rb *EventRing) Size() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size
}

func (rb *EventRing) Capacity() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer.
func (rb *EventRing) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for i := range rb.data {
		rb.data[i] = models.MPushEvent{}
	}
	rb.index = 0
	rb.size = 0
}

package dispatcher

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"trader-gateway/src/models"
)

// Events republished to external subscribers.
const (
	EventTradeData = "trade-data"
	EventOrder     = "order"
	EventTrade     = "trade"
)

// eventBus fans push events out to in-process subscribers. Handlers run on the
// connection's read goroutine and must not block.
type eventBus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string]map[uint64]func(models.MPushEvent)
}

func newEventBus() *eventBus {
	return &eventBus{handlers: make(map[string]map[uint64]func(models.MPushEvent))}
}

func (b *eventBus) subscribe(event string, handler func(models.MPushEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[event] == nil {
		b.handlers[event] = make(map[uint64]func(models.MPushEvent))
	}
	b.handlers[event][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers[event], id)
			b.mu.Unlock()
		})
	}
}

func (b *eventBus) publish(event string, payload interface{}) {
	b.mu.RLock()
	list := make([]func(models.MPushEvent), 0, len(b.handlers[event]))
	for _, h := range b.handlers[event] {
		list = append(list, h)
	}
	b.mu.RUnlock()

	if len(list) == 0 {
		return
	}
	msg := models.MPushEvent{
		ID:        uuid.New(),
		Name:      event,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	for _, h := range list {
		h(msg)
	}
}

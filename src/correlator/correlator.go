package correlator

import (
	"sync"

	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"
	"trader-gateway/src/protocol"
)

// -----------------------------------------------------------------------------

// Correlator routes decoded frames to the handlers waiting on a command type.
//
// Routing is by type only: two outstanding commands of the same type would
// both receive the first matching frame. The dispatcher keeps at most one
// command in flight, which is what keeps this unambiguous.
type Correlator struct {
	mu          sync.RWMutex
	subscribers map[protocol.CommandType][]interfaces.IResponseHandler
	logger      *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCorrelator(log *logger.Logger) *Correlator {
	return &Correlator{
		subscribers: make(map[protocol.CommandType][]interfaces.IResponseHandler),
		logger:      log,
	}
}

// -----------------------------------------------------------------------------

// Subscribe adds h for t. Subscribing the same handler twice is a no-op.
func (c *Correlator) Subscribe(t protocol.CommandType, h interfaces.IResponseHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.subscribers[t] {
		if existing == h {
			return
		}
	}
	c.subscribers[t] = append(c.subscribers[t], h)
}

// -----------------------------------------------------------------------------

// Unsubscribe removes h for t. Unknown handlers are ignored.
func (c *Correlator) Unsubscribe(t protocol.CommandType, h interfaces.IResponseHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.subscribers[t]
	for i, existing := range list {
		if existing == h {
			c.subscribers[t] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(c.subscribers[t]) == 0 {
		delete(c.subscribers, t)
	}
}

// -----------------------------------------------------------------------------

// Publish calls every subscriber of t synchronously, in subscription order,
// and returns how many were called. Handlers may unsubscribe while being called.
func (c *Correlator) Publish(t protocol.CommandType, event models.MResponseEvent) int {
	c.mu.RLock()
	snapshot := make([]interfaces.IResponseHandler, len(c.subscribers[t]))
	copy(snapshot, c.subscribers[t])
	c.mu.RUnlock()

	event.CommandType = t.String()
	for _, h := range snapshot {
		h.OnResponse(event)
	}
	return len(snapshot)
}

// -----------------------------------------------------------------------------

// Fanout publishes a frame to the types it answers and returns the types that
// had subscribers. An error frame answers every waiting type. An empty result
// means the frame is unsolicited (CommandType None).
func (c *Correlator) Fanout(event models.MResponseEvent) []protocol.CommandType {
	var targets []protocol.CommandType
	if event.Frame.IsError() {
		targets = c.activeTypes()
	} else {
		targets = protocol.ClaimedTypes(event.Frame)
	}

	var delivered []protocol.CommandType
	for _, t := range targets {
		if c.Publish(t, event) > 0 {
			delivered = append(delivered, t)
		}
	}

	if len(delivered) > 0 && c.logger != nil && c.logger.DebugEnabled() {
		c.logger.Debug("action: fanout | result: delivered | types: %v | status: %s", delivered, event.Frame.Status)
	}
	return delivered
}

// -----------------------------------------------------------------------------

// activeTypes lists types with subscribers in the stable AllCommandTypes order.
func (c *Correlator) activeTypes() []protocol.CommandType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []protocol.CommandType
	for _, t := range protocol.AllCommandTypes {
		if len(c.subscribers[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// SubscriberCount returns the number of handlers waiting on t.
func (c *Correlator) SubscriberCount(t protocol.CommandType) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers[t])
}

// ListenerCount returns the number of handlers across all types.
func (c *Correlator) ListenerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, list := range c.subscribers {
		n += len(list)
	}
	return n
}

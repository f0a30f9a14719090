package models

import (
	"time"

	"github.com/google/uuid"
)

// MCommandResult is what a caller gets back once its command finished.
type MCommandResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Frame   *MDecodedFrame `json:"data,omitempty"`
}

// -----------------------------------------------------------------------------

// MResponseEvent wraps one decoded frame read from the socket.
type MResponseEvent struct {
	CorrelationID uuid.UUID     `json:"correlationId"`
	CommandType   string        `json:"commandType"`
	Raw           string        `json:"-"`
	Frame         MDecodedFrame `json:"data"`
	ReceivedAt    time.Time     `json:"receivedAt"`
}

// IsLoggedIn is false for the "Not login" sentinel.
func (e MResponseEvent) IsLoggedIn() bool {
	return !e.Frame.IsNotLoggedIn()
}

// -----------------------------------------------------------------------------

// MPushEvent is what the dispatcher republishes to external subscribers.
type MPushEvent struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"event"` // "trade-data", "order" or "trade"
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// -----------------------------------------------------------------------------

// Tracked order statuses.
const (
	TradeStatusPending   = "Pending"
	TradeStatusSending   = "Sending"
	TradeStatusAccepted  = "Accepted"
	TradeStatusTriggered = "Triggered"
	TradeStatusExecuted  = "Executed"
	TradeStatusCompleted = "Completed"
	TradeStatusErrored   = "Errored"
)

// TerminalStatuses are never overwritten by a later status update.
var TerminalStatuses = []string{
	TradeStatusExecuted,
	TradeStatusCompleted,
	TradeStatusErrored,
	"Canceled",
	"Rejected",
	"Closed",
}

// IsTerminalStatus reports whether status ends an order's lifecycle.
func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// MTrackedOrder is an order we submitted and follow by its token.
type MTrackedOrder struct {
	Token       string    `json:"token"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Qty         int       `json:"qty"`
	Price       float64   `json:"price"`
	Route       string    `json:"route"`
	Status      string    `json:"status"`
	TradeNumber string    `json:"tradeNumber"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// -----------------------------------------------------------------------------

// MDispatcherStatus is a point in time view of the command queue.
type MDispatcherStatus struct {
	Connected   bool   `json:"connected"`
	State       string `json:"state"`
	QueueLength int    `json:"queueLength"`
	Processing  bool   `json:"processing"`
	Listeners   int    `json:"listeners"`
	Processed   uint64 `json:"processed"`
	Failed      uint64 `json:"failed"`
	TimedOut    uint64 `json:"timedOut"`
	Errors      int    `json:"errors"`
}

package interfaces

import (
	"context"

	"trader-gateway/src/models"
	"trader-gateway/src/protocol"
)

// -----------------------------------------------------------------------------
// IFrameSink consumes every frame the connection decodes.
// -----------------------------------------------------------------------------

type IFrameSink interface {
	// -----------------------------------------------------------------------------
	// HandleFrame is called from the connection's read loop, in wire order.
	HandleFrame(event models.MResponseEvent)

	// -----------------------------------------------------------------------------
	// ActiveListeners is the number of commands still waiting on a response.
	ActiveListeners() int
}

// -----------------------------------------------------------------------------
// ITraderConnection owns one socket to the trading server.
// -----------------------------------------------------------------------------

type ITraderConnection interface {
	Open(ctx context.Context) error

	// -----------------------------------------------------------------------------
	// Send writes a command, preceded by the automatic login on first use.
	Send(cmd ICommand) error

	// -----------------------------------------------------------------------------
	Write(data []byte) error

	// -----------------------------------------------------------------------------
	// Close destroys the socket when force is set or nothing is waiting.
	Close(force bool) error

	// -----------------------------------------------------------------------------
	// Errors reports unintended socket failures.
	Errors() <-chan error

	// -----------------------------------------------------------------------------
	State() protocol.ConnectionState
	IsConnected() bool
}

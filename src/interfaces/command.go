package interfaces

import (
	"trader-gateway/src/models"
	"trader-gateway/src/protocol"
)

// -----------------------------------------------------------------------------
// IResponseHandler receives decoded frames routed by command type.
// Implementations must be comparable, the correlator keys subscriptions on them.
// -----------------------------------------------------------------------------

type IResponseHandler interface {
	OnResponse(event models.MResponseEvent)
}

// -----------------------------------------------------------------------------
// ICommand is one command sent to the trading server.
// -----------------------------------------------------------------------------

type ICommand interface {
	IResponseHandler

	// -----------------------------------------------------------------------------
	// Type is the verb the response is correlated on.
	Type() protocol.CommandType

	// -----------------------------------------------------------------------------
	// Name is the verb as written on the wire.
	Name() string

	// -----------------------------------------------------------------------------
	Params() []string

	// -----------------------------------------------------------------------------
	// WaitForResult is true for request/response verbs.
	WaitForResult() bool

	// -----------------------------------------------------------------------------
	// Encode renders "<verb>[ <param>]*\r\n".
	Encode() string
	Bytes() []byte

	// -----------------------------------------------------------------------------
	// Resolve sets the result once. Later calls return false.
	Resolve(result models.MCommandResult) bool

	// -----------------------------------------------------------------------------
	// Done is closed when the result is set.
	Done() <-chan struct{}

	// -----------------------------------------------------------------------------
	Result() (models.MCommandResult, bool)
}

// -----------------------------------------------------------------------------
// ICommandSubmitter queues commands for the trading server.
// -----------------------------------------------------------------------------

type ICommandSubmitter interface {
	Submit(cmd ICommand) error
}

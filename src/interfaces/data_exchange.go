package interfaces

import "trader-gateway/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger shares gateway events with external systems (Server/Push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast records an event and pushes it to connected clients.
	Broadcast(event models.MPushEvent)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}

package interfaces

import "trader-gateway/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// UpsertPosition inserts or updates a position keyed by (symbol, type).
	UpsertPosition(position models.MPosition) error

	// -----------------------------------------------------------------------------

	// UpsertOrder inserts an order version, keyed by its identifying columns
	// including token and status.
	UpsertOrder(order models.MOrder) error

	// -----------------------------------------------------------------------------

	// UpsertTrade inserts a trade once per (id, order id, symbol, side, qty, price).
	UpsertTrade(trade models.MTrade) error

	// -----------------------------------------------------------------------------

	// InsertTrackedOrder records an order we submitted.
	InsertTrackedOrder(order models.MTrackedOrder) error

	// -----------------------------------------------------------------------------

	// UpdateTrackedOrderStatus moves a tracked order to status unless it is
	// already terminal. It reports whether a row changed.
	UpdateTrackedOrderStatus(token, tradeNumber, status string) (bool, error)

	// -----------------------------------------------------------------------------

	// ListPositions returns a page of positions and the total count.
	ListPositions(limit, offset int) ([]models.MPosition, int, error)

	// -----------------------------------------------------------------------------
	ListOrders(limit, offset int) ([]models.MOrder, error)

	// -----------------------------------------------------------------------------
	ListTrackedOrders(limit int) ([]models.MTrackedOrder, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}

package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trader-gateway/src/helpers"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"
)

const defaultPageSize = 100

// -----------------------------------------------------------------------------

// sqlStore holds the queries shared by the SQLite and Postgres backends.
// Queries are written with "?" placeholders and "{table}" names, rewritten
// per dialect.
type sqlStore struct {
	DB     *sql.DB
	Logger *logger.Logger

	qualify     func(table string) string
	numbered    bool
	doubleType  string
	integerType string
}

// -----------------------------------------------------------------------------

// rewrite adapts a query for the dialect: {table} names and $n placeholders.
func (s *sqlStore) rewrite(query string, tables ...string) string {
	for _, t := range tables {
		query = strings.ReplaceAll(query, "{"+t+"}", s.qualify(t))
	}
	query = strings.ReplaceAll(query, "{double}", s.doubleType)
	query = strings.ReplaceAll(query, "{bigint}", s.integerType)
	if !s.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (s *sqlStore) createTables() error {
	statements := []struct {
		table string
		query string
	}{
		{"positions", `
			CREATE TABLE IF NOT EXISTS {positions} (
				symbol TEXT NOT NULL,
				position_type INTEGER NOT NULL,
				qty INTEGER,
				avg_cost {double},
				init_qty INTEGER,
				init_price {double},
				realized {double},
				created_time TEXT,
				updated_at {bigint},
				PRIMARY KEY (symbol, position_type)
			);
		`},
		{"orders", `
			CREATE TABLE IF NOT EXISTS {orders} (
				id TEXT NOT NULL,
				token TEXT NOT NULL,
				symbol TEXT NOT NULL,
				side TEXT NOT NULL,
				market_or_limit TEXT,
				qty INTEGER NOT NULL,
				live_qty INTEGER,
				cancelled_qty INTEGER,
				price {double} NOT NULL,
				route TEXT NOT NULL,
				status TEXT NOT NULL,
				order_time TEXT,
				updated_at {bigint},
				UNIQUE (id, token, symbol, side, qty, price, route, status)
			);
		`},
		{"trades", `
			CREATE TABLE IF NOT EXISTS {trades} (
				id TEXT NOT NULL,
				order_id TEXT NOT NULL,
				symbol TEXT NOT NULL,
				side TEXT NOT NULL,
				market_or_limit TEXT,
				qty INTEGER NOT NULL,
				price {double} NOT NULL,
				route TEXT,
				trade_time TEXT,
				created_at {bigint},
				UNIQUE (id, order_id, symbol, side, qty, price)
			);
		`},
		{"tracked_orders", `
			CREATE TABLE IF NOT EXISTS {tracked_orders} (
				token TEXT PRIMARY KEY,
				symbol TEXT NOT NULL,
				side TEXT NOT NULL,
				qty INTEGER NOT NULL,
				price {double},
				route TEXT,
				status TEXT NOT NULL,
				trade_number TEXT,
				created_at {bigint},
				updated_at {bigint}
			);
		`},
	}

	for _, st := range statements {
		if _, err := s.DB.Exec(s.rewrite(st.query, st.table)); err != nil {
			return helpers.NewDatabaseError(fmt.Sprintf("failed to create %s", st.table), err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) UpsertPosition(p models.MPosition) error {
	query := s.rewrite(`
		INSERT INTO {positions} (symbol, position_type, qty, avg_cost, init_qty, init_price, realized, created_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, position_type) DO UPDATE SET
			qty = excluded.qty,
			avg_cost = excluded.avg_cost,
			init_qty = excluded.init_qty,
			init_price = excluded.init_price,
			realized = excluded.realized,
			created_time = excluded.created_time,
			updated_at = excluded.updated_at
	`, "positions")

	_, err := s.DB.Exec(query, p.Symbol, p.PositionType, p.Qty, p.AvgCost, p.InitQty, p.InitPrice, p.Realized, p.CreatedAtText, time.Now().UnixMilli())
	if err != nil {
		return helpers.NewDatabaseError("upsert position "+p.Symbol, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) UpsertOrder(o models.MOrder) error {
	query := s.rewrite(`
		INSERT INTO {orders} (id, token, symbol, side, market_or_limit, qty, live_qty, cancelled_qty, price, route, status, order_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id, token, symbol, side, qty, price, route, status) DO UPDATE SET
			market_or_limit = excluded.market_or_limit,
			live_qty = excluded.live_qty,
			cancelled_qty = excluded.cancelled_qty,
			order_time = excluded.order_time,
			updated_at = excluded.updated_at
	`, "orders")

	_, err := s.DB.Exec(query, o.ID, o.Token, o.Symbol, o.Side, o.MarketOrLimit, o.Qty, o.LiveQty, o.CancelledQty, o.Price, o.Route, o.Status, o.Time, time.Now().UnixMilli())
	if err != nil {
		return helpers.NewDatabaseError("upsert order "+o.ID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) UpsertTrade(t models.MTrade) error {
	query := s.rewrite(`
		INSERT INTO {trades} (id, order_id, symbol, side, market_or_limit, qty, price, route, trade_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id, order_id, symbol, side, qty, price) DO NOTHING
	`, "trades")

	_, err := s.DB.Exec(query, t.ID, t.OrderID, t.Symbol, t.Side, t.MarketOrLimit, t.Qty, t.Price, t.Route, t.Time, time.Now().UnixMilli())
	if err != nil {
		return helpers.NewDatabaseError("upsert trade "+t.ID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) InsertTrackedOrder(o models.MTrackedOrder) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	if o.Status == "" {
		o.Status = models.TradeStatusPending
	}

	query := s.rewrite(`
		INSERT INTO {tracked_orders} (token, symbol, side, qty, price, route, status, trade_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, "tracked_orders")

	_, err := s.DB.Exec(query, o.Token, o.Symbol, o.Side, o.Qty, o.Price, o.Route, o.Status, o.TradeNumber, o.CreatedAt.UnixMilli(), o.UpdatedAt.UnixMilli())
	if err != nil {
		return helpers.NewDatabaseError("insert tracked order "+o.Token, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// UpdateTrackedOrderStatus leaves terminal rows untouched. An empty
// tradeNumber keeps the stored one.
func (s *sqlStore) UpdateTrackedOrderStatus(token, tradeNumber, status string) (bool, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(models.TerminalStatuses)), ", ")
	query := s.rewrite(`
		UPDATE {tracked_orders}
		SET status = ?,
			trade_number = COALESCE(NULLIF(?, ''), trade_number),
			updated_at = ?
		WHERE token = ? AND status NOT IN (`+placeholders+`)
	`, "tracked_orders")

	args := []interface{}{status, tradeNumber, time.Now().UnixMilli(), token}
	for _, st := range models.TerminalStatuses {
		args = append(args, st)
	}

	res, err := s.DB.Exec(query, args...)
	if err != nil {
		return false, helpers.NewDatabaseError("update tracked order "+token, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, helpers.NewDatabaseError("update tracked order "+token, err)
	}
	return n > 0, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) ListPositions(limit, offset int) ([]models.MPosition, int, error) {
	limit, offset = page(limit, offset)

	var total int
	if err := s.DB.QueryRow(s.rewrite(`SELECT COUNT(*) FROM {positions}`, "positions")).Scan(&total); err != nil {
		return nil, 0, helpers.NewDatabaseError("count positions", err)
	}

	rows, err := s.DB.Query(s.rewrite(`
		SELECT symbol, position_type, qty, avg_cost, init_qty, init_price, realized, created_time
		FROM {positions}
		ORDER BY symbol, position_type
		LIMIT ? OFFSET ?
	`, "positions"), limit, offset)
	if err != nil {
		return nil, 0, helpers.NewDatabaseError("list positions", err)
	}
	defer rows.Close()

	positions := make([]models.MPosition, 0)
	for rows.Next() {
		var p models.MPosition
		if err := rows.Scan(&p.Symbol, &p.PositionType, &p.Qty, &p.AvgCost, &p.InitQty, &p.InitPrice, &p.Realized, &p.CreatedAtText); err != nil {
			return nil, 0, helpers.NewDatabaseError("scan position", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, helpers.NewDatabaseError("list positions", err)
	}
	return positions, total, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) ListOrders(limit, offset int) ([]models.MOrder, error) {
	limit, offset = page(limit, offset)

	rows, err := s.DB.Query(s.rewrite(`
		SELECT id, token, symbol, side, market_or_limit, qty, live_qty, cancelled_qty, price, route, status, order_time
		FROM {orders}
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, "orders"), limit, offset)
	if err != nil {
		return nil, helpers.NewDatabaseError("list orders", err)
	}
	defer rows.Close()

	orders := make([]models.MOrder, 0)
	for rows.Next() {
		var o models.MOrder
		if err := rows.Scan(&o.ID, &o.Token, &o.Symbol, &o.Side, &o.MarketOrLimit, &o.Qty, &o.LiveQty, &o.CancelledQty, &o.Price, &o.Route, &o.Status, &o.Time); err != nil {
			return nil, helpers.NewDatabaseError("scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("list orders", err)
	}
	return orders, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) ListTrackedOrders(limit int) ([]models.MTrackedOrder, error) {
	limit, _ = page(limit, 0)

	rows, err := s.DB.Query(s.rewrite(`
		SELECT token, symbol, side, qty, price, route, status, trade_number, created_at, updated_at
		FROM {tracked_orders}
		ORDER BY created_at DESC, token
		LIMIT ?
	`, "tracked_orders"), limit)
	if err != nil {
		return nil, helpers.NewDatabaseError("list tracked orders", err)
	}
	defer rows.Close()

	orders := make([]models.MTrackedOrder, 0)
	for rows.Next() {
		var (
			o                models.MTrackedOrder
			created, updated int64
		)
		if err := rows.Scan(&o.Token, &o.Symbol, &o.Side, &o.Qty, &o.Price, &o.Route, &o.Status, &o.TradeNumber, &created, &updated); err != nil {
			return nil, helpers.NewDatabaseError("scan tracked order", err)
		}
		o.CreatedAt = time.UnixMilli(created)
		o.UpdatedAt = time.UnixMilli(updated)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("list tracked orders", err)
	}
	return orders, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

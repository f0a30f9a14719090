package models

// -----------------------------------------------------------------------------
// Records decoded from the trading server push stream.
// JSON keys follow the names the front-end already consumes.
// -----------------------------------------------------------------------------

// MPosition is one %POS line. (Symbol, PositionType) is the natural key.
type MPosition struct {
	Symbol        string  `json:"symb"`
	PositionType  int     `json:"type"`
	Qty           int     `json:"qty"`
	AvgCost       float64 `json:"avgcost"`
	InitQty       int     `json:"initqty"`
	InitPrice     float64 `json:"initprice"`
	Realized      float64 `json:"Realized"`
	CreatedAtText string  `json:"CreatTime"`
}

// MOrder is one %ORDER line. Token is assigned by us at submission, ID by the server.
type MOrder struct {
	ID            string  `json:"id"`
	Token         string  `json:"token"`
	Symbol        string  `json:"symb"`
	Side          string  `json:"b/s"`
	MarketOrLimit string  `json:"mkt/lmt"`
	Qty           int     `json:"qty"`
	LiveQty       int     `json:"lvqty"`
	CancelledQty  int     `json:"cxlqty"`
	Price         float64 `json:"price"`
	Route         string  `json:"route"`
	Status        string  `json:"status"`
	Time          string  `json:"time"`
}

// MTrade is one %TRADE line. The trade line carries no market/limit column,
// MarketOrLimit is only filled when the owning order is known.
type MTrade struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symb"`
	Side          string  `json:"b/s"`
	MarketOrLimit string  `json:"mkt/lmt,omitempty"`
	Qty           int     `json:"qty"`
	Price         float64 `json:"price"`
	Route         string  `json:"route"`
	Time          string  `json:"time"`
	OrderID       string  `json:"orderid"`
}

// MSLOrder is a short locate order (%SLOrder).
type MSLOrder struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symb"`
	Shares     int     `json:"shares"`
	OpenShares int     `json:"openshares"`
	ExeShares  int     `json:"exeshares"`
	ExePrice   float64 `json:"exeprice"`
	Status     string  `json:"status"`
	Route      string  `json:"route"`
	Time       string  `json:"time"`
	Notes      string  `json:"notes"`
}

// MOrderAction is an order action message (%OrderAct / #OrderSending).
type MOrderAction struct {
	ID         string  `json:"id"`
	ActionType string  `json:"actionType"`
	Action     string  `json:"action"`
	Symbol     string  `json:"symb"`
	Shares     int     `json:"shares"`
	Price      float64 `json:"price"`
	Route      string  `json:"route"`
	Time       string  `json:"time"`
	Notes      string  `json:"notes"`
}

type MBuyingPower struct {
	BuyingPower          float64 `json:"bp"`
	OvernightBuyingPower float64 `json:"nbp"`
}

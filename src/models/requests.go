package models

// MOrderRequest is an order as submitted by the front-end or the control API.
type MOrderRequest struct {
	Kind        string  `json:"kind"`
	Token       string  `json:"token,omitempty"`
	Side        string  `json:"side"`
	Symbol      string  `json:"symbol"`
	Route       string  `json:"route"`
	Shares      int     `json:"shares"`
	Price       float64 `json:"price,omitempty"`
	StopPrice   float64 `json:"stopPrice,omitempty"`
	LowPrice    float64 `json:"lowPrice,omitempty"`
	HighPrice   float64 `json:"highPrice,omitempty"`
	TrailPrice  float64 `json:"trailPrice,omitempty"`
	TimeInForce string  `json:"tif,omitempty"`
	PegOption   string  `json:"pegOption,omitempty"`
	Display     int     `json:"display,omitempty"`
	RangeMarket bool    `json:"rangeMarket,omitempty"`
}

// MCommandRequest names a verb plus whatever arguments it needs.
type MCommandRequest struct {
	Command  string         `json:"command"`
	Username string         `json:"username,omitempty"`
	Password string         `json:"password,omitempty"`
	Account  string         `json:"account,omitempty"`
	State    string         `json:"state,omitempty"`
	Symbol   string         `json:"symbol,omitempty"`
	OrderID  string         `json:"orderId,omitempty"`
	Order    *MOrderRequest `json:"order,omitempty"`
}

// MSellTradesRequest sells a batch of symbols at market.
type MSellTradesRequest struct {
	Trades []MSellTrade `json:"trades"`
}

type MSellTrade struct {
	Symbol string `json:"symbol"`
	Qty    int    `json:"qty"`
	Token  string `json:"token,omitempty"`
}

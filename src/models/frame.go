package models

import "strings"

// Wire compatibility constants. Both strings are emitted and compared
// verbatim by existing terminals and front-ends.
const (
	FrameStatusSuccess  = "successed"
	NotLoggedInSentinel = "Not login"
)

// -----------------------------------------------------------------------------
// MDecodedFrame is one decoded chunk of server text
// -----------------------------------------------------------------------------

type MDecodedFrame struct {
	Status            string         `json:"STATUS"`
	LoginStatus       string         `json:"LOGIN,omitempty"`
	Positions         []MPosition    `json:"POS"`
	Orders            []MOrder       `json:"Order"`
	Trades            []MTrade       `json:"Trade"`
	ShortLocateOrders []MSLOrder     `json:"SLOrder"`
	OrderActions      []MOrderAction `json:"OrderAct"`
	BuyingPower       []MBuyingPower `json:"BP"`
	ClientCount       []string       `json:"Clients"`
	Unclassified      []string       `json:"Extras"`
}

// NewDecodedFrame returns a frame with every list allocated so JSON never carries null.
func NewDecodedFrame() MDecodedFrame {
	return MDecodedFrame{
		Status:            FrameStatusSuccess,
		Positions:         []MPosition{},
		Orders:            []MOrder{},
		Trades:            []MTrade{},
		ShortLocateOrders: []MSLOrder{},
		OrderActions:      []MOrderAction{},
		BuyingPower:       []MBuyingPower{},
		ClientCount:       []string{},
		Unclassified:      []string{},
	}
}

// -----------------------------------------------------------------------------

// IsNotLoggedIn reports the "Not login" sentinel.
func (f MDecodedFrame) IsNotLoggedIn() bool {
	return f.Status == NotLoggedInSentinel
}

// IsError reports a protocol error: an ERROR line or the not-logged-in sentinel.
func (f MDecodedFrame) IsError() bool {
	return f.IsNotLoggedIn() || strings.Contains(f.Status, "ERROR")
}

// IsEmpty reports a frame that carries no line at all.
func (f MDecodedFrame) IsEmpty() bool {
	return f.Status == FrameStatusSuccess && f.LoginStatus == "" &&
		len(f.Positions) == 0 && len(f.Orders) == 0 && len(f.Trades) == 0 &&
		len(f.ShortLocateOrders) == 0 && len(f.OrderActions) == 0 &&
		len(f.BuyingPower) == 0 && len(f.ClientCount) == 0 && len(f.Unclassified) == 0
}

package protocol

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// OrderAction is the order side, its value is the wire letter code.
// -----------------------------------------------------------------------------

type OrderAction string

const (
	Buy         OrderAction = "B"
	Sell        OrderAction = "S"
	Short       OrderAction = "SS"
	BuyToOpen   OrderAction = "BO"
	BuyToClose  OrderAction = "BC"
	SellToOpen  OrderAction = "SO"
	SellToClose OrderAction = "SC"
)

var orderActionNames = map[OrderAction]string{
	Buy:         "Buy",
	Sell:        "Sell",
	Short:       "Short",
	BuyToOpen:   "BuyToOpen",
	BuyToClose:  "BuyToClose",
	SellToOpen:  "SellToOpen",
	SellToClose: "SellToClose",
}

// Valid reports whether a is one of the seven known sides.
func (a OrderAction) Valid() bool {
	_, ok := orderActionNames[a]
	return ok
}

// Name returns the long form, e.g. "BuyToOpen".
func (a OrderAction) Name() string {
	return orderActionNames[a]
}

// ParseOrderAction accepts either the wire code ("SS") or the long name ("Short").
func ParseOrderAction(s string) (OrderAction, error) {
	s = strings.TrimSpace(s)
	if a := OrderAction(strings.ToUpper(s)); a.Valid() {
		return a, nil
	}
	for code, name := range orderActionNames {
		if strings.EqualFold(name, s) {
			return code, nil
		}
	}
	return "", fmt.Errorf("unknown order side %q", s)
}

// -----------------------------------------------------------------------------
// TimeInForce
// -----------------------------------------------------------------------------

type TimeInForce string

const (
	Day     TimeInForce = "DAY"
	DayPlus TimeInForce = "DAY+"
	IOC     TimeInForce = "IOC"
	AtOpen  TimeInForce = "AtOpen"
	AtClose TimeInForce = "AtClose"
	FOK     TimeInForce = "FOK"
	GTC     TimeInForce = "GTC"
)

var allTimeInForce = []TimeInForce{Day, DayPlus, IOC, AtOpen, AtClose, FOK, GTC}

// ParseTimeInForce is case insensitive. An empty string is rejected.
func ParseTimeInForce(s string) (TimeInForce, error) {
	for _, t := range allTimeInForce {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown time in force %q", s)
}

// -----------------------------------------------------------------------------
// OrderOption is the pegging reference of a PEG order.
// -----------------------------------------------------------------------------

type OrderOption string

const (
	PegMid  OrderOption = "MID"
	PegAgg  OrderOption = "AGG"
	PegPrim OrderOption = "PRIM"
	PegLast OrderOption = "LAST"
)

func ParseOrderOption(s string) (OrderOption, error) {
	switch o := OrderOption(strings.ToUpper(strings.TrimSpace(s))); o {
	case PegMid, PegAgg, PegPrim, PegLast:
		return o, nil
	}
	return "", fmt.Errorf("unknown peg option %q", s)
}

// -----------------------------------------------------------------------------
// ConnectionState
// -----------------------------------------------------------------------------

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	LoggingIn
	Ready
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case LoggingIn:
		return "LoggingIn"
	case Ready:
		return "Ready"
	}
	return fmt.Sprintf("ConnectionState(%d)", int(s))
}

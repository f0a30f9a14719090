package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"trader-gateway/src/protocol"
)

var (
	ErrInvalidSide      = errors.New("invalid order side")
	ErrInvalidParameter = errors.New("invalid order parameter")
)

// -----------------------------------------------------------------------------

// OrderKind names the trailing shape of a NEWORDER line.
type OrderKind string

const (
	MarketOrder       OrderKind = "market"
	LimitOrder        OrderKind = "limit"
	HiddenOrder       OrderKind = "hidden"
	PegOrder          OrderKind = "peg"
	StopMarketOrder   OrderKind = "stop_market"
	StopLimitOrder    OrderKind = "stop_limit"
	StopRangeOrder    OrderKind = "stop_range"
	StopTrailingOrder OrderKind = "stop_trailing"
)

// -----------------------------------------------------------------------------

// OrderCommand is NEWORDER <token> <side> <symbol> <route> <qty> <trailing...>.
// Orders are fire-and-forget, the server answers with %ORDER push lines.
type OrderCommand struct {
	*BaseCommand
	Kind   OrderKind
	Token  string
	Side   protocol.OrderAction
	Symbol string
	Route  string
	Shares int
	Price  float64 // limit price when the shape has one
}

func newOrderCommand(kind OrderKind, token string, side protocol.OrderAction, symbol, route string, shares int, trailing ...string) (*OrderCommand, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, string(side))
	}
	if token == "" {
		token = GenerateToken()
	}
	for _, f := range []struct{ name, value string }{
		{"token", token},
		{"symbol", symbol},
		{"route", route},
	} {
		if err := checkToken(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if shares <= 0 {
		return nil, fmt.Errorf("%w: shares must be positive, got %d", ErrInvalidParameter, shares)
	}

	params := append([]string{token, string(side), symbol, route, strconv.Itoa(shares)}, trailing...)
	return &OrderCommand{
		BaseCommand: newBaseCommand(protocol.NewOrder, false, params...),
		Kind:        kind,
		Token:       token,
		Side:        side,
		Symbol:      symbol,
		Route:       route,
		Shares:      shares,
	}, nil
}

// -----------------------------------------------------------------------------
// Shapes
// -----------------------------------------------------------------------------

// NewMarketOrder: ... MKT <TIF>. tif defaults to DAY.
func NewMarketOrder(token string, side protocol.OrderAction, symbol, route string, shares int, tif protocol.TimeInForce) (*OrderCommand, error) {
	return newOrderCommand(MarketOrder, token, side, symbol, route, shares, "MKT", string(orDefault(tif, protocol.Day)))
}

// NewLimitOrder: ... <price> <TIF>. tif defaults to DAY+.
func NewLimitOrder(token string, side protocol.OrderAction, symbol, route string, shares int, price float64, tif protocol.TimeInForce) (*OrderCommand, error) {
	if err := checkPrice("price", price); err != nil {
		return nil, err
	}
	c, err := newOrderCommand(LimitOrder, token, side, symbol, route, shares, formatPrice(price), string(orDefault(tif, protocol.DayPlus)))
	if c != nil {
		c.Price = price
	}
	return c, err
}

// NewHiddenOrder: ... <price> GTC=DAY+ Display=<n>.
func NewHiddenOrder(token string, side protocol.OrderAction, symbol, route string, shares int, price float64, display int) (*OrderCommand, error) {
	if err := checkPrice("price", price); err != nil {
		return nil, err
	}
	if display < 0 {
		return nil, fmt.Errorf("%w: display must not be negative", ErrInvalidParameter)
	}
	c, err := newOrderCommand(HiddenOrder, token, side, symbol, route, shares, formatPrice(price), "GTC=DAY+", fmt.Sprintf("Display=%d", display))
	if c != nil {
		c.Price = price
	}
	return c, err
}

// NewPegOrder: ... PEG <option> <price> <TIF>. option and price are optional
// (empty / zero are left out), tif defaults to GTC.
func NewPegOrder(token string, side protocol.OrderAction, symbol, route string, shares int, option protocol.OrderOption, price float64, tif protocol.TimeInForce) (*OrderCommand, error) {
	if price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidParameter)
	}
	priceParam := ""
	if price > 0 {
		priceParam = formatPrice(price)
	}
	c, err := newOrderCommand(PegOrder, token, side, symbol, route, shares, "PEG", string(option), priceParam, string(orDefault(tif, protocol.GTC)))
	if c != nil {
		c.Price = price
	}
	return c, err
}

// NewStopMarketOrder: ... STOPMKT <stopPrice> <TIF>. tif defaults to DAY.
func NewStopMarketOrder(token string, side protocol.OrderAction, symbol, route string, shares int, stopPrice float64, tif protocol.TimeInForce) (*OrderCommand, error) {
	if err := checkPrice("stop price", stopPrice); err != nil {
		return nil, err
	}
	return newOrderCommand(StopMarketOrder, token, side, symbol, route, shares, "STOPMKT", formatPrice(stopPrice), string(orDefault(tif, protocol.Day)))
}

// NewStopLimitOrder: ... STOPLMT <stopPrice> <price> <TIF>. tif defaults to DAY.
func NewStopLimitOrder(token string, side protocol.OrderAction, symbol, route string, shares int, stopPrice, price float64, tif protocol.TimeInForce) (*OrderCommand, error) {
	if err := checkPrice("stop price", stopPrice); err != nil {
		return nil, err
	}
	if err := checkPrice("price", price); err != nil {
		return nil, err
	}
	c, err := newOrderCommand(StopLimitOrder, token, side, symbol, route, shares, "STOPLMT", formatPrice(stopPrice), formatPrice(price), string(orDefault(tif, protocol.Day)))
	if c != nil {
		c.Price = price
	}
	return c, err
}

// NewStopRangeOrder: ... STOPRANGE|STOPRANGEMKT <low> <high>.
func NewStopRangeOrder(token string, side protocol.OrderAction, symbol, route string, shares int, market bool, low, high float64) (*OrderCommand, error) {
	if err := checkPrice("low price", low); err != nil {
		return nil, err
	}
	if err := checkPrice("high price", high); err != nil {
		return nil, err
	}
	if low > high {
		return nil, fmt.Errorf("%w: low price %v above high price %v", ErrInvalidParameter, low, high)
	}
	verb := "STOPRANGE"
	if market {
		verb = "STOPRANGEMKT"
	}
	return newOrderCommand(StopRangeOrder, token, side, symbol, route, shares, verb, formatPrice(low), formatPrice(high))
}

// NewStopTrailingOrder: ... STOPTRAILING <trailPrice>.
func NewStopTrailingOrder(token string, side protocol.OrderAction, symbol, route string, shares int, trail float64) (*OrderCommand, error) {
	if err := checkPrice("trail price", trail); err != nil {
		return nil, err
	}
	return newOrderCommand(StopTrailingOrder, token, side, symbol, route, shares, "STOPTRAILING", formatPrice(trail))
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// formatPrice renders two decimals, the precision the terminal accepts.
func formatPrice(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2)
}

func orDefault(tif, def protocol.TimeInForce) protocol.TimeInForce {
	if tif == "" {
		return def
	}
	return tif
}

func checkToken(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidParameter, name)
	}
	if strings.ContainsAny(value, " \t\r\n") {
		return fmt.Errorf("%w: %s %q contains whitespace", ErrInvalidParameter, name, value)
	}
	return nil
}

func checkPrice(name string, p float64) error {
	if p <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParameter, name, p)
	}
	return nil
}

package commands

import (
	"fmt"
	"strings"

	"trader-gateway/src/helpers"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/models"
	"trader-gateway/src/protocol"
)

// SellRoute and SellTimeInForce are used for batch market sells.
const (
	SellRoute       = "SMAT"
	SellTimeInForce = protocol.DayPlus
)

// -----------------------------------------------------------------------------

// BuildOrder maps a request onto one of the eight NEWORDER shapes. Request
// symbols are upper-cased; the constructors send the symbol as given.
func BuildOrder(req models.MOrderRequest) (*OrderCommand, error) {
	req.Symbol = strings.ToUpper(req.Symbol)
	side, err := protocol.ParseOrderAction(req.Side)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSide, err)
	}

	var tif protocol.TimeInForce
	if req.TimeInForce != "" {
		if tif, err = protocol.ParseTimeInForce(req.TimeInForce); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
	}

	switch OrderKind(strings.ToLower(req.Kind)) {
	case MarketOrder, "":
		return NewMarketOrder(req.Token, side, req.Symbol, req.Route, req.Shares, tif)
	case LimitOrder:
		return NewLimitOrder(req.Token, side, req.Symbol, req.Route, req.Shares, req.Price, tif)
	case HiddenOrder:
		return NewHiddenOrder(req.Token, side, req.Symbol, req.Route, req.Shares, req.Price, req.Display)
	case PegOrder:
		var opt protocol.OrderOption
		if req.PegOption != "" {
			if opt, err = protocol.ParseOrderOption(req.PegOption); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
			}
		}
		return NewPegOrder(req.Token, side, req.Symbol, req.Route, req.Shares, opt, req.Price, tif)
	case StopMarketOrder:
		return NewStopMarketOrder(req.Token, side, req.Symbol, req.Route, req.Shares, req.StopPrice, tif)
	case StopLimitOrder:
		return NewStopLimitOrder(req.Token, side, req.Symbol, req.Route, req.Shares, req.StopPrice, req.Price, tif)
	case StopRangeOrder:
		return NewStopRangeOrder(req.Token, side, req.Symbol, req.Route, req.Shares, req.RangeMarket, req.LowPrice, req.HighPrice)
	case StopTrailingOrder:
		return NewStopTrailingOrder(req.Token, side, req.Symbol, req.Route, req.Shares, req.TrailPrice)
	}
	return nil, fmt.Errorf("%w: unknown order kind %q", ErrInvalidParameter, req.Kind)
}

// -----------------------------------------------------------------------------

// FromRequest builds any command from its verb. Failures are ValidationErrors
// wrapping ErrInvalidSide or ErrInvalidParameter.
func FromRequest(req models.MCommandRequest) (interfaces.ICommand, error) {
	cmd, err := fromRequest(req)
	if err != nil {
		return nil, helpers.NewValidationError("invalid "+strings.ToUpper(strings.TrimSpace(req.Command))+" request", err)
	}
	return cmd, nil
}

func fromRequest(req models.MCommandRequest) (interfaces.ICommand, error) {
	verb, ok := protocol.ParseCommandType(req.Command)
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %q", ErrInvalidParameter, req.Command)
	}

	switch verb {
	case protocol.Login:
		if req.Username == "" || req.Password == "" || req.Account == "" {
			return nil, fmt.Errorf("%w: login needs username, password and account", ErrInvalidParameter)
		}
		return NewLoginCommand(req.Username, req.Password, req.Account), nil
	case protocol.Quit:
		return NewLogoutCommand(), nil
	case protocol.Client:
		return NewClientCommand(), nil
	case protocol.Echo:
		return NewEchoCommand(req.State), nil
	case protocol.GetBuyingPower:
		return NewBuyingPowerCommand(), nil
	case protocol.POSRefresh:
		return NewPOSRefreshCommand(), nil
	case protocol.GetShortInfo:
		cmd, err := NewShortInfoCommand(req.Symbol)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	case protocol.Cancel:
		cmd, err := NewCancelCommand(req.OrderID)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	case protocol.NewOrder:
		if req.Order == nil {
			return nil, fmt.Errorf("%w: NEWORDER needs an order", ErrInvalidParameter)
		}
		cmd, err := BuildOrder(*req.Order)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	}
	return nil, fmt.Errorf("%w: unsupported command %s", ErrInvalidParameter, verb)
}

// -----------------------------------------------------------------------------

// NewSellTrade is a market sell on SMAT, DAY+, with a generated token when none
// is given. The symbol is upper-cased like BuildOrder's.
func NewSellTrade(t models.MSellTrade) (*OrderCommand, error) {
	return NewMarketOrder(t.Token, protocol.Sell, strings.ToUpper(t.Symbol), SellRoute, t.Qty, SellTimeInForce)
}

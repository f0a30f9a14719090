package commands

import (
	"fmt"
	"strings"

	"trader-gateway/src/interfaces"
	"trader-gateway/src/models"
	"trader-gateway/src/protocol"
)

// -----------------------------------------------------------------------------
// Request/response commands
// -----------------------------------------------------------------------------

// LoginCommand carries the credentials as its first three parameters.
type LoginCommand struct {
	*BaseCommand
	Username string
	Account  string
}

func NewLoginCommand(username, password, account string) *LoginCommand {
	c := &LoginCommand{
		BaseCommand: newBaseCommand(protocol.Login, true, username, password, account),
		Username:    username,
		Account:     account,
	}
	c.summarize = func(f models.MDecodedFrame) string {
		return fmt.Sprintf("login %s", strings.ToLower(f.LoginStatus))
	}
	return c
}

// String is the command line with the password masked.
func (c *LoginCommand) String() string {
	params := c.Params()
	if len(params) > 1 {
		params[1] = "***"
	}
	return strings.Join(append([]string{c.Name()}, params...), " ")
}

// -----------------------------------------------------------------------------

// NewLogoutCommand disconnects the session. The terminal spells it QUIT.
func NewLogoutCommand() *BaseCommand {
	return newBaseCommand(protocol.Logout, true)
}

// -----------------------------------------------------------------------------

func NewClientCommand() *BaseCommand {
	c := newBaseCommand(protocol.Client, true)
	c.summarize = func(f models.MDecodedFrame) string {
		return fmt.Sprintf("connected clients: %s", strings.Join(f.ClientCount, ","))
	}
	return c
}

// -----------------------------------------------------------------------------

// NewEchoCommand toggles or queries echo. state may be "", "ON" or "OFF".
func NewEchoCommand(state string) *BaseCommand {
	return newBaseCommand(protocol.Echo, true, strings.ToUpper(state))
}

// -----------------------------------------------------------------------------

func NewBuyingPowerCommand() *BaseCommand {
	c := newBaseCommand(protocol.GetBuyingPower, true)
	c.summarize = func(f models.MDecodedFrame) string {
		if len(f.BuyingPower) == 0 {
			return f.Status
		}
		bp := f.BuyingPower[len(f.BuyingPower)-1]
		return fmt.Sprintf("buying power %s, overnight %s", formatPrice(bp.BuyingPower), formatPrice(bp.OvernightBuyingPower))
	}
	return c
}

// -----------------------------------------------------------------------------

func NewPOSRefreshCommand() *BaseCommand {
	c := newBaseCommand(protocol.POSRefresh, true)
	c.summarize = func(f models.MDecodedFrame) string {
		return fmt.Sprintf("%d positions", len(f.Positions))
	}
	return c
}

// -----------------------------------------------------------------------------

func NewShortInfoCommand(symbol string) (*BaseCommand, error) {
	if err := checkToken("symbol", symbol); err != nil {
		return nil, err
	}
	return newBaseCommand(protocol.GetShortInfo, true, strings.ToUpper(symbol)), nil
}

// -----------------------------------------------------------------------------
// Fire-and-forget
// -----------------------------------------------------------------------------

// CancelAll is the CANCEL argument that cancels every open order.
const CancelAll = "ALL"

// NewCancelCommand cancels one order by server id, or all with CancelAll.
func NewCancelCommand(orderID string) (*BaseCommand, error) {
	if err := checkToken("order id", orderID); err != nil {
		return nil, err
	}
	return newBaseCommand(protocol.Cancel, false, orderID), nil
}

// -----------------------------------------------------------------------------

// NewLoginBootstrap is the LOGIN a front-end session starts with, followed by
// the queries that fill its first screen.
func NewLoginBootstrap(username, password, account string) []interfaces.ICommand {
	return []interfaces.ICommand{
		NewLoginCommand(username, password, account),
		NewPOSRefreshCommand(),
		NewClientCommand(),
		NewEchoCommand("ON"),
		NewBuyingPowerCommand(),
	}
}

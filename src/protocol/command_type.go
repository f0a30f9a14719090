package protocol

import "strings"

// CommandType is the wire verb of a command. It is also the key responses
// are correlated on, the server tags nothing else.
type CommandType string

// -----------------------------------------------------------------------------

const (
	// None marks unsolicited push data with no originating command.
	None CommandType = ""

	Login          CommandType = "LOGIN"
	Quit           CommandType = "QUIT"
	Client         CommandType = "CLIENT"
	Echo           CommandType = "ECHO"
	GetBuyingPower CommandType = "GET BP"
	GetShortInfo   CommandType = "GET SHORTINFO"
	POSRefresh     CommandType = "POSREFRESH"
	NewOrder       CommandType = "NEWORDER"
	Cancel         CommandType = "CANCEL"

	// Logout is sent as QUIT, the terminal has no separate logout verb.
	Logout = Quit
)

// AllCommandTypes lists every verb the gateway knows, None excluded.
var AllCommandTypes = []CommandType{
	Login, Quit, Client, Echo, GetBuyingPower, GetShortInfo,
	POSRefresh, NewOrder, Cancel,
}

// -----------------------------------------------------------------------------

// String returns the verb, or "None" for unsolicited data.
func (c CommandType) String() string {
	if c == None {
		return "None"
	}
	return string(c)
}

// ParseCommandType accepts a verb in any case. ok is false for unknown verbs.
func ParseCommandType(verb string) (CommandType, bool) {
	for _, c := range AllCommandTypes {
		if strings.EqualFold(string(c), verb) {
			return c, true
		}
	}
	return None, false
}

package protocol

import (
	"strings"

	"trader-gateway/src/models"
)

// Unclassified lines that still answer a specific command.
var unclassifiedClaims = []struct {
	prefix string
	types  []CommandType
}{
	{"#POS", []CommandType{POSRefresh}}, // #POS and #POSEND markers
	{"#ECHO", []CommandType{Echo}},
	{"ECHO", []CommandType{Echo}},
	{"$SHORTINFO", []CommandType{GetShortInfo}},
	{"#LOGOUT", []CommandType{Quit}},
	{"#QUIT", []CommandType{Quit}},
	{"Bye", []CommandType{Quit}},
}

// ClaimedTypes lists the command types a frame answers, in a stable order.
// Error frames are not special here, the correlator hands them to every
// waiting command.
func ClaimedTypes(frame models.MDecodedFrame) []CommandType {
	var claimed []CommandType
	add := func(types ...CommandType) {
		for _, t := range types {
			if !containsType(claimed, t) {
				claimed = append(claimed, t)
			}
		}
	}

	if frame.LoginStatus != "" {
		add(Login)
	}
	if len(frame.Positions) > 0 {
		add(POSRefresh)
	}
	if len(frame.BuyingPower) > 0 {
		add(GetBuyingPower)
	}
	if len(frame.ClientCount) > 0 {
		add(Client)
	}
	if len(frame.Orders) > 0 || len(frame.Trades) > 0 || len(frame.ShortLocateOrders) > 0 || len(frame.OrderActions) > 0 {
		add(NewOrder, Cancel)
	}
	for _, line := range frame.Unclassified {
		for _, c := range unclassifiedClaims {
			if strings.HasPrefix(line, c.prefix) {
				add(c.types...)
			}
		}
	}

	return claimed
}

func containsType(list []CommandType, t CommandType) bool {
	for _, c := range list {
		if c == t {
			return true
		}
	}
	return false
}

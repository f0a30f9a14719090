package protocol

import (
	"math"
	"strconv"
	"strings"

	"trader-gateway/src/models"
)

// -----------------------------------------------------------------------------
// Prefix table
// -----------------------------------------------------------------------------

type recordKind int

const (
	kindLogin recordKind = iota
	kindPosition
	kindOrder
	kindTrade
	kindSLOrder
	kindOrderAction
	kindBuyingPower
	kindClient
)

type linePrefix struct {
	tag  string
	kind recordKind
}

// %OrderAct must beat %Order, so matching picks the longest tag.
var prefixTable = []linePrefix{
	{"#LOGIN", kindLogin},
	{"%POS", kindPosition},
	{"%Order", kindOrder},
	{"%ORDER", kindOrder},
	{"%Trade", kindTrade},
	{"%TRADE", kindTrade},
	{"%SLOrder", kindSLOrder},
	{"%OrderAct", kindOrderAction},
	{"#OrderSending", kindOrderAction},
	{"#buyingpower", kindBuyingPower},
	{"BP", kindBuyingPower},
	{"Client", kindClient},
}

// Minimum token count, prefix token included.
const (
	minPositionTokens    = 8
	minOrderTokens       = 12
	minTradeTokens       = 8
	minSLOrderTokens     = 8
	minOrderActionTokens = 8
	buyingPowerTokens    = 3
)

func matchPrefix(line string) (recordKind, bool) {
	best := -1
	for i, p := range prefixTable {
		if strings.HasPrefix(line, p.tag) && (best < 0 || len(p.tag) > len(prefixTable[best].tag)) {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return prefixTable[best].kind, true
}

// -----------------------------------------------------------------------------

// Decode turns one chunk of server text into a frame. It never fails:
// lines that are too short for their record type are dropped.
func Decode(raw string) models.MDecodedFrame {
	frame := models.NewDecodedFrame()
	statusSet := false

	for _, rawLine := range strings.Split(raw, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if !statusSet {
			if strings.Contains(line, "ERROR") || line == models.NotLoggedInSentinel {
				frame.Status = line
				statusSet = true
			}
		}

		kind, ok := matchPrefix(line)
		if !ok {
			frame.Unclassified = append(frame.Unclassified, line)
			continue
		}

		tokens := strings.Fields(line)
		switch kind {
		case kindLogin:
			frame.LoginStatus = field(tokens, 1)
		case kindPosition:
			if len(tokens) >= minPositionTokens {
				frame.Positions = append(frame.Positions, decodePosition(tokens))
			}
		case kindOrder:
			if len(tokens) >= minOrderTokens {
				frame.Orders = append(frame.Orders, decodeOrder(tokens))
			}
		case kindTrade:
			if len(tokens) >= minTradeTokens {
				frame.Trades = append(frame.Trades, decodeTrade(tokens))
			}
		case kindSLOrder:
			if len(tokens) >= minSLOrderTokens {
				frame.ShortLocateOrders = append(frame.ShortLocateOrders, decodeSLOrder(tokens))
			}
		case kindOrderAction:
			if len(tokens) >= minOrderActionTokens {
				frame.OrderActions = append(frame.OrderActions, decodeOrderAction(tokens))
			}
		case kindBuyingPower:
			if len(tokens) == buyingPowerTokens && (tokens[0] == "#buyingpower" || tokens[0] == "BP") {
				frame.BuyingPower = append(frame.BuyingPower, models.MBuyingPower{
					BuyingPower:          parseFloat(tokens[1]),
					OvernightBuyingPower: parseFloat(tokens[2]),
				})
			}
		case kindClient:
			total := field(tokens, 2)
			if total == "" {
				total = "0"
			}
			frame.ClientCount = append(frame.ClientCount, total)
		}
	}

	return frame
}

// -----------------------------------------------------------------------------
// Record mappers, fields are positional after the prefix token
// -----------------------------------------------------------------------------

func decodePosition(t []string) models.MPosition {
	return models.MPosition{
		Symbol:        field(t, 1),
		PositionType:  parseInt(field(t, 2)),
		Qty:           parseInt(field(t, 3)),
		AvgCost:       parseFloat(field(t, 4)),
		InitQty:       parseInt(field(t, 5)),
		InitPrice:     parseFloat(field(t, 6)),
		Realized:      parseFloat(field(t, 7)),
		CreatedAtText: field(t, 8),
	}
}

func decodeOrder(t []string) models.MOrder {
	return models.MOrder{
		ID:            field(t, 1),
		Token:         field(t, 2),
		Symbol:        field(t, 3),
		Side:          field(t, 4),
		MarketOrLimit: field(t, 5),
		Qty:           parseInt(field(t, 6)),
		LiveQty:       parseInt(field(t, 7)),
		CancelledQty:  parseInt(field(t, 8)),
		Price:         parseFloat(field(t, 9)),
		Route:         field(t, 10),
		Status:        field(t, 11),
		Time:          field(t, 12),
	}
}

func decodeTrade(t []string) models.MTrade {
	return models.MTrade{
		ID:      field(t, 1),
		Symbol:  field(t, 2),
		Side:    field(t, 3),
		Qty:     parseInt(field(t, 4)),
		Price:   parseFloat(field(t, 5)),
		Route:   field(t, 6),
		Time:    field(t, 7),
		OrderID: field(t, 8),
	}
}

func decodeSLOrder(t []string) models.MSLOrder {
	return models.MSLOrder{
		ID:         field(t, 1),
		Symbol:     field(t, 2),
		Shares:     parseInt(field(t, 3)),
		OpenShares: parseInt(field(t, 4)),
		ExeShares:  parseInt(field(t, 5)),
		ExePrice:   parseFloat(field(t, 6)),
		Status:     field(t, 7),
		Route:      field(t, 8),
		Time:       field(t, 9),
		Notes:      field(t, 10),
	}
}

func decodeOrderAction(t []string) models.MOrderAction {
	return models.MOrderAction{
		ID:         field(t, 1),
		ActionType: field(t, 2),
		Action:     field(t, 3),
		Symbol:     field(t, 4),
		Shares:     parseInt(field(t, 5)),
		Price:      parseFloat(field(t, 6)),
		Route:      field(t, 7),
		Time:       field(t, 8),
		Notes:      field(t, 9),
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func field(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}

// parseInt truncates decimals ("100.0" -> 100) and maps garbage to 0.
func parseInt(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return int(parseFloat(s))
}

// parseFloat maps garbage, NaN and infinities to 0.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

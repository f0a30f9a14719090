package simulator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"trader-gateway/src/models"
)

const marketFillPrice = 100.0

// respond builds the reply lines for one command. quit ends the session.
func (t *Terminal) respond(c *clientState, line string) ([]string, bool) {
	fields := strings.Fields(line)
	verb := verbOf(line)
	now := time.Now().Format("15:04:05")

	if verb == "QUIT" {
		return []string{"Bye"}, true
	}
	if verb == "LOGIN" {
		if len(fields) == 4 && fields[1] == t.Username && fields[2] == t.Password && fields[3] == t.Account {
			c.loggedIn = true
			return []string{"#LOGIN SUCCESSED"}, false
		}
		return []string{"#LOGIN ERROR Invalid user or password"}, false
	}
	if !c.loggedIn {
		return []string{"Not login"}, false
	}

	switch verb {
	case "CLIENT":
		return []string{fmt.Sprintf("Client 1 %d", t.ActiveClients())}, false
	case "ECHO":
		state := "ON"
		if len(fields) > 1 {
			state = strings.ToUpper(fields[1])
		}
		return []string{"#ECHO " + state}, false
	case "GET BP":
		return []string{fmt.Sprintf("BP %.2f %.2f", t.BuyingPower.BuyingPower, t.BuyingPower.OvernightBuyingPower)}, false
	case "GET SHORTINFO":
		if len(fields) < 3 {
			return []string{"ERROR missing symbol"}, false
		}
		return []string{fmt.Sprintf("$SHORTINFO %s Y 10000 Y 0.25 0.25", fields[2])}, false
	case "POSREFRESH":
		return t.positionLines(), false
	case "NEWORDER":
		return t.newOrder(fields, now), false
	case "CANCEL":
		return t.cancel(fields, now), false
	}
	return []string{"ERROR unknown command " + verb}, false
}

// -----------------------------------------------------------------------------

func (t *Terminal) positionLines() []string {
	lines := []string{"#POS"}
	for _, p := range t.Positions {
		lines = append(lines, fmt.Sprintf("%%POS %s %d %d %.2f %d %.2f %.2f %s",
			p.Symbol, p.PositionType, p.Qty, p.AvgCost, p.InitQty, p.InitPrice, p.Realized, p.CreatedAtText))
	}
	return append(lines, "#POSEND")
}

// NEWORDER token side symbol route qty <trailing...>
func (t *Terminal) newOrder(fields []string, now string) []string {
	if len(fields) < 7 {
		return []string{"ERROR invalid NEWORDER"}
	}
	token, side, symbol, route := fields[1], fields[2], fields[3], fields[4]
	qty, err := strconv.Atoi(fields[5])
	if err != nil || qty <= 0 {
		return []string{"ERROR invalid quantity " + fields[5]}
	}

	market := fields[6] == "MKT"
	price := marketFillPrice
	kind := "M"
	if !market {
		kind = "L"
		if p, err := strconv.ParseFloat(fields[6], 64); err == nil {
			price = p
		}
	}

	t.mu.Lock()
	t.nextOrderID++
	id := strconv.Itoa(t.nextOrderID)
	order := models.MOrder{
		ID: id, Token: token, Symbol: symbol, Side: side, MarketOrLimit: kind,
		Qty: qty, LiveQty: qty, Price: price, Route: route, Status: "Accepted", Time: now,
	}
	if market {
		order.LiveQty = 0
		order.Status = "Executed"
	}
	t.orders[id] = order
	t.mu.Unlock()

	lines := []string{
		fmt.Sprintf("%%OrderAct %s Send Sending %s %d %.2f %s %s", id, symbol, qty, price, route, now),
		orderLine(order),
	}
	if market {
		lines = append(lines, fmt.Sprintf("%%TRADE %s %s %s %d %.2f %s %s %s", "T"+id, symbol, side, qty, price, route, now, id))
	}
	return lines
}

// CANCEL <orderId|ALL>
func (t *Terminal) cancel(fields []string, now string) []string {
	if len(fields) < 2 {
		return []string{"ERROR missing order id"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []string
	if strings.EqualFold(fields[1], "ALL") {
		for id, o := range t.orders {
			if o.Status == "Accepted" {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
	} else {
		o, ok := t.orders[fields[1]]
		if !ok || o.Status != "Accepted" {
			return []string{"ERROR no open order " + fields[1]}
		}
		ids = []string{fields[1]}
	}

	var lines []string
	for _, id := range ids {
		o := t.orders[id]
		o.CancelledQty = o.LiveQty
		o.LiveQty = 0
		o.Status = "Canceled"
		o.Time = now
		t.orders[id] = o
		lines = append(lines, orderLine(o))
	}
	return lines
}

func orderLine(o models.MOrder) string {
	return fmt.Sprintf("%%ORDER %s %s %s %s %s %d %d %d %.2f %s %s %s",
		o.ID, o.Token, o.Symbol, o.Side, o.MarketOrLimit, o.Qty, o.LiveQty, o.CancelledQty, o.Price, o.Route, o.Status, o.Time)
}

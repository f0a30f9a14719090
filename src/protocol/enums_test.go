package protocol

import "testing"

func TestParseOrderAction(t *testing.T) {
	tests := []struct {
		in      string
		want    OrderAction
		wantErr bool
	}{
		{"B", Buy, false},
		{"sell", Sell, false},
		{"Short", Short, false},
		{"ss", Short, false},
		{"BuyToOpen", BuyToOpen, false},
		{"BC", BuyToClose, false},
		{"SellToOpen", SellToOpen, false},
		{"SC", SellToClose, false},
		{"X", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOrderAction(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOrderAction(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOrderAction(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTimeInForce(t *testing.T) {
	if tif, err := ParseTimeInForce("day+"); err != nil || tif != DayPlus {
		t.Errorf("got %q, %v", tif, err)
	}
	if _, err := ParseTimeInForce("forever"); err == nil {
		t.Error("expected error")
	}
}

func TestParseCommandType(t *testing.T) {
	if c, ok := ParseCommandType("get bp"); !ok || c != GetBuyingPower {
		t.Errorf("got %v, %v", c, ok)
	}
	for _, verb := range []string{"NOPE", "SB", "UNSB"} {
		if _, ok := ParseCommandType(verb); ok {
			t.Errorf("%s: expected unknown verb", verb)
		}
	}
	if None.String() != "None" {
		t.Errorf("None.String() = %q", None.String())
	}
}

func TestConnectionStateString(t *testing.T) {
	if Ready.String() != "Ready" || Disconnected.String() != "Disconnected" {
		t.Error("unexpected state names")
	}
}

package utils

import (
	"testing"
	"time"
)

func TestMICForSymbol(t *testing.T) {
	tests := map[string]string{
		"MSFT":    "xnys",
		"vod.l":   "xlon",
		"AIR.PA":  "xpar",
		"7203.T":  "xtks",
		"0700.HK": "xhkg",
		"SHOP.TO": "xtse",
	}
	for symbol, want := range tests {
		if got := MICForSymbol(symbol); got != want {
			t.Errorf("MICForSymbol(%q) = %s, want %s", symbol, got, want)
		}
	}
}

func TestGetCalendarIsShared(t *testing.T) {
	if GetCalendar("MSFT") != GetCalendar("AAPL") {
		t.Error("same exchange returned different calendars")
	}
}

func TestMarketSchedulerDefaultsToNYSE(t *testing.T) {
	ms := NewMarketScheduler(nil, nil)
	mics := ms.MICs()
	if len(mics) != 1 || mics[0] != DefaultMIC {
		t.Fatalf("MICs = %v", mics)
	}

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}
	// Tuesday 4 March 2025
	open := time.Date(2025, 3, 4, 11, 0, 0, 0, ny)
	closed := time.Date(2025, 3, 4, 20, 0, 0, 0, ny)
	sunday := time.Date(2025, 3, 2, 11, 0, 0, 0, ny)

	if !ms.AnyMarketOpen(open) {
		t.Error("closed on a Tuesday morning")
	}
	if ms.AnyMarketOpen(closed) {
		t.Error("open in the evening")
	}
	if ms.AnyMarketOpen(sunday) {
		t.Error("open on a Sunday")
	}
}

func TestFallbackCalendar(t *testing.T) {
	tc := &TradingCalendar{Fallback: true, Timezone: time.UTC}
	tests := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2025, 3, 4, 9, 29, 0, 0, time.UTC), false},
		{time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC), true},
		{time.Date(2025, 3, 4, 15, 59, 0, 0, time.UTC), true},
		{time.Date(2025, 3, 4, 16, 0, 0, 0, time.UTC), false},
		{time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tc2 := range tests {
		if got := tc.IsOpenOnMinute(tc2.at); got != tc2.want {
			t.Errorf("IsOpenOnMinute(%v) = %v", tc2.at, got)
		}
	}
}

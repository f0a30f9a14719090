package utils

import (
	"strings"
	"sync"
	"time"

	"github.com/scmhub/calendar"
)

// DefaultMIC is the exchange used for symbols without a known suffix.
const DefaultMIC = "xnys"

// Symbol suffix to MIC code (ISO 10383), see scmhub/calendar for supported codes.
var suffixMIC = []struct {
	suffix string
	mic    string
}{
	{".L", "xlon"},
	{".PA", "xpar"},
	{".DE", "xfra"},
	{".AS", "xams"},
	{".BR", "xbru"},
	{".MI", "xmil"},
	{".MC", "xmad"},
	{".ST", "xsto"},
	{".CO", "xcse"},
	{".HE", "xhel"},
	{".VI", "xwbo"},
	{".SW", "xswx"},
	{".TO", "xtse"},
	{".V", "xtsx"},
	{".T", "xtks"},
	{".HK", "xhkg"},
	{".AX", "xasx"},
	{".KS", "xkrx"},
	{".TW", "xtai"},
	{".SS", "xshg"},
	{".SZ", "xshe"},
}

// TradingCalendar answers "is the market open" using scmhub/calendar, or a
// Mon-Fri 09:30-16:00 New York fallback when the calendar can not be loaded.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

var (
	calendarsMu sync.Mutex
	calendars   = make(map[string]*TradingCalendar)
)

// -----------------------------------------------------------------------------

// MICForSymbol maps a ticker to its exchange code from the suffix.
func MICForSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, m := range suffixMIC {
		if strings.HasSuffix(symbol, m.suffix) {
			return m.mic
		}
	}
	return DefaultMIC
}

// -----------------------------------------------------------------------------

// GetCalendar returns the shared calendar for symbol's exchange.
func GetCalendar(symbol string) *TradingCalendar {
	return calendarForMIC(MICForSymbol(symbol))
}

func calendarForMIC(mic string) *TradingCalendar {
	calendarsMu.Lock()
	defer calendarsMu.Unlock()

	if tc, ok := calendars[mic]; ok {
		return tc
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != DefaultMIC {
		cal = calendar.GetCalendar(DefaultMIC)
	}

	var tc *TradingCalendar
	if cal == nil {
		nyLoc, err := time.LoadLocation("America/New_York")
		if err != nil {
			nyLoc = time.UTC
		}
		tc = &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
	} else {
		tc = &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
	}
	calendars[mic] = tc
	return tc
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at t.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		minutes := t.Hour()*60 + t.Minute()
		return minutes >= 9*60+30 && minutes < 16*60
	}

	return tc.Calendar.IsOpen(t)
}

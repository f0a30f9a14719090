package utils

import (
	"sync"
	"time"

	"trader-gateway/src/logger"
)

// MarketScheduler tracks the exchanges of a symbol list.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar // keyed by MIC
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.UpdateSymbols(symbols)
	return ms
}

// -----------------------------------------------------------------------------

// UpdateSymbols replaces the tracked exchanges. No symbols means the default
// exchange alone.
func (ms *MarketScheduler) UpdateSymbols(symbols []string) {
	cals := make(map[string]*TradingCalendar)
	for _, symbol := range symbols {
		cal := GetCalendar(symbol)
		cals[cal.MIC] = cal
	}
	if len(cals) == 0 {
		cals[DefaultMIC] = calendarForMIC(DefaultMIC)
	}

	ms.mu.Lock()
	ms.Calendars = cals
	ms.mu.Unlock()

	if ms.Logger != nil {
		ms.Logger.Info("MarketScheduler: Mapped %d symbols to %d unique calendars.", len(symbols), len(cals))
	}
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if any tracked market is open at now.
func (ms *MarketScheduler) AnyMarketOpen(now time.Time) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, cal := range ms.Calendars {
		if cal.IsOpenOnMinute(now) {
			return true
		}
	}
	return false
}

// MICs lists the tracked exchange codes.
func (ms *MarketScheduler) MICs() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]string, 0, len(ms.Calendars))
	for mic := range ms.Calendars {
		out = append(out, mic)
	}
	return out
}

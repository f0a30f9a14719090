package utils

import (
	"context"
	"sync"
	"time"

	"trader-gateway/src/commands"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
)

const defaultRefreshInterval = time.Minute

// SessionRefresher keeps positions and buying power fresh by queueing
// POSREFRESH and GET BP while a tracked market is open.
type SessionRefresher struct {
	submitter interfaces.ICommandSubmitter
	scheduler *MarketScheduler
	interval  time.Duration
	logger    *logger.Logger

	// Now is the clock, replaced in tests.
	Now func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	skipped int
	rounds  int
}

// -----------------------------------------------------------------------------

func NewSessionRefresher(submitter interfaces.ICommandSubmitter, scheduler *MarketScheduler, interval time.Duration, log *logger.Logger) *SessionRefresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &SessionRefresher{
		submitter: submitter,
		scheduler: scheduler,
		interval:  interval,
		logger:    log,
		Now:       time.Now,
	}
}

// -----------------------------------------------------------------------------

// Start ticks until ctx is done or Stop is called.
func (r *SessionRefresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Tick()
			}
		}
	}()
	r.logger.Info("action: session_refresh | result: started | interval: %v", r.interval)
}

// -----------------------------------------------------------------------------

func (r *SessionRefresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// -----------------------------------------------------------------------------

// Tick runs one refresh round. It reports whether commands were queued.
func (r *SessionRefresher) Tick() bool {
	if r.scheduler != nil && !r.scheduler.AnyMarketOpen(r.Now()) {
		r.mu.Lock()
		r.skipped++
		r.mu.Unlock()
		r.logger.Debug("action: session_refresh | result: skipped | reason: market closed")
		return false
	}

	for _, cmd := range []interfaces.ICommand{commands.NewPOSRefreshCommand(), commands.NewBuyingPowerCommand()} {
		if err := r.submitter.Submit(cmd); err != nil {
			r.logger.Warning("action: session_refresh | result: fail | command: %s | error: %v", cmd.Name(), err)
			return false
		}
	}

	r.mu.Lock()
	r.rounds++
	r.mu.Unlock()
	return true
}

// Stats returns the number of rounds run and skipped.
func (r *SessionRefresher) Stats() (rounds, skipped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rounds, r.skipped
}

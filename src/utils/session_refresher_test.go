package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
)

type recordingSubmitter struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *recordingSubmitter) Submit(cmd interfaces.ICommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, cmd.Name())
	return nil
}

func (s *recordingSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestSessionRefresherTick(t *testing.T) {
	log := logger.NewLogger(nil, "TestRefresher")
	scheduler := &MarketScheduler{Calendars: map[string]*TradingCalendar{
		"test": {MIC: "test", Fallback: true, Timezone: time.UTC},
	}}

	tests := []struct {
		name   string
		at     time.Time
		err    error
		queued bool
		want   []string
	}{
		{"open", time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC), nil, true, []string{"POSREFRESH", "GET BP"}},
		{"closed", time.Date(2025, 3, 4, 20, 0, 0, 0, time.UTC), nil, false, nil},
		{"submit error", time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC), errors.New("stopped"), false, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := &recordingSubmitter{err: tc.err}
			r := NewSessionRefresher(sub, scheduler, time.Minute, log)
			r.Now = fixedClock(tc.at)

			if got := r.Tick(); got != tc.queued {
				t.Errorf("Tick = %v", got)
			}
			if len(sub.sent) != len(tc.want) {
				t.Fatalf("sent %v, want %v", sub.sent, tc.want)
			}
			for i := range tc.want {
				if sub.sent[i] != tc.want[i] {
					t.Errorf("sent %v, want %v", sub.sent, tc.want)
				}
			}
		})
	}
}

func TestSessionRefresherWithoutSchedulerAlwaysRuns(t *testing.T) {
	sub := &recordingSubmitter{}
	r := NewSessionRefresher(sub, nil, 10*time.Millisecond, logger.NewLogger(nil, "TestRefresher"))

	r.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for sub.count() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	r.Stop()
	r.Stop()

	if sub.count() < 4 {
		t.Fatalf("only %d commands queued", sub.count())
	}
	if rounds, skipped := r.Stats(); rounds < 2 || skipped != 0 {
		t.Errorf("rounds %d skipped %d", rounds, skipped)
	}
}

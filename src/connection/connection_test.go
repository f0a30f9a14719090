package connection

import (
	"context"
	"errors"
	"net"
	"reflect"
	"sync"
	"testing"
	"time"

	"trader-gateway/src/commands"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"
	"trader-gateway/src/protocol"
	"trader-gateway/src/simulator"
)

type recordingSink struct {
	mu        sync.Mutex
	events    []models.MResponseEvent
	listeners int
}

func (s *recordingSink) HandleFrame(e models.MResponseEvent) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) ActiveListeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners
}

func (s *recordingSink) snapshot() []models.MResponseEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MResponseEvent, len(s.events))
	copy(out, s.events)
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startTerminal(t *testing.T) *simulator.Terminal {
	t.Helper()
	term, err := simulator.NewTerminal("127.0.0.1:0", logger.NewLogger(nil, "TestTerminal"))
	if err != nil {
		t.Fatalf("start terminal: %v", err)
	}
	t.Cleanup(func() { term.Close() })
	return term
}

func traderConfig(term *simulator.Terminal, withCredentials bool) models.MTraderConfig {
	cfg := models.MTraderConfig{Host: term.Host(), Port: term.Port(), IdleFlushMs: 50}
	if withCredentials {
		cfg.Username, cfg.Password, cfg.Account = term.Username, term.Password, term.Account
	}
	return cfg
}

func openConnection(t *testing.T, cfg models.MTraderConfig, sink *recordingSink) *TraderConnection {
	t.Helper()
	conn := NewTraderConnection(cfg, sink, logger.NewLogger(nil, "TestConnection"))
	if err := conn.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close(true) })
	return conn
}

// -----------------------------------------------------------------------------

func TestFirstCommandTriggersLogin(t *testing.T) {
	term := startTerminal(t)
	sink := &recordingSink{}
	conn := openConnection(t, traderConfig(term, true), sink)

	if conn.State() != protocol.Connected {
		t.Fatalf("state after open = %v", conn.State())
	}
	if err := conn.Send(commands.NewClientCommand()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFor(t, "login round trip", conn.LoggedIn)
	if conn.State() != protocol.Ready {
		t.Errorf("state = %v, want Ready", conn.State())
	}

	if err := conn.Send(commands.NewEchoCommand("")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "echo", func() bool { return len(term.Received()) == 3 })

	want := []string{"LOGIN demo demo DEMO1", "CLIENT", "ECHO"}
	if got := term.Received(); !reflect.DeepEqual(got, want) {
		t.Errorf("received = %v, want %v", got, want)
	}
}

func TestAutomaticLoginAttemptedOnceEvenOnFailure(t *testing.T) {
	term := startTerminal(t)
	cfg := traderConfig(term, true)
	cfg.Password = "wrong"
	conn := openConnection(t, cfg, &recordingSink{})

	conn.Send(commands.NewEchoCommand(""))
	waitFor(t, "login failure", func() bool { return conn.State() == protocol.Ready })
	if conn.LoggedIn() {
		t.Fatal("login must have failed")
	}

	conn.Send(commands.NewClientCommand())
	waitFor(t, "second command", func() bool { return len(term.Received()) == 3 })

	want := []string{"LOGIN demo wrong DEMO1", "ECHO", "CLIENT"}
	if got := term.Received(); !reflect.DeepEqual(got, want) {
		t.Errorf("received = %v, want %v", got, want)
	}
}

func TestNoCredentialsSkipsLogin(t *testing.T) {
	term := startTerminal(t)
	conn := openConnection(t, traderConfig(term, false), &recordingSink{})

	conn.Send(commands.NewBuyingPowerCommand())
	waitFor(t, "command", func() bool { return len(term.Received()) == 1 })

	if got := term.Received()[0]; got != "GET BP" {
		t.Errorf("first line = %q", got)
	}
	if conn.State() != protocol.Ready || !conn.LoginAttempted() {
		t.Errorf("state = %v attempted = %v", conn.State(), conn.LoginAttempted())
	}
}

func TestExplicitLoginDoesNotDoubleLogin(t *testing.T) {
	term := startTerminal(t)
	conn := openConnection(t, traderConfig(term, true), &recordingSink{})

	conn.Send(commands.NewLoginCommand(term.Username, term.Password, term.Account))
	waitFor(t, "login", conn.LoggedIn)
	conn.Send(commands.NewClientCommand())
	waitFor(t, "client", func() bool { return len(term.Received()) == 2 })

	if got := term.Received(); got[0] != "LOGIN demo demo DEMO1" || got[1] != "CLIENT" {
		t.Errorf("received = %v", got)
	}
}

func TestFramesReachSink(t *testing.T) {
	term := startTerminal(t)
	sink := &recordingSink{}
	conn := openConnection(t, traderConfig(term, true), sink)

	conn.Send(commands.NewBuyingPowerCommand())
	waitFor(t, "buying power frame", func() bool {
		for _, e := range sink.snapshot() {
			if len(e.Frame.BuyingPower) > 0 {
				return true
			}
		}
		return false
	})

	for _, e := range sink.snapshot() {
		if e.CommandType != "None" {
			t.Errorf("connection must tag frames None, got %q", e.CommandType)
		}
		if e.CorrelationID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Error("missing correlation id")
		}
	}
}

func TestPartialLinesAreNeverSplit(t *testing.T) {
	term := startTerminal(t)
	for i := 0; i < 20; i++ {
		term.Positions = append(term.Positions, models.MPosition{
			Symbol: "SYM" + string(rune('A'+i)), PositionType: 1, Qty: 10 + i, AvgCost: 12.5,
			InitQty: 10, InitPrice: 12.5, CreatedAtText: "2024-01-01T00:00:00",
		})
	}
	term.SetChunkSize(7)

	sink := &recordingSink{}
	conn := openConnection(t, traderConfig(term, true), sink)
	conn.Send(commands.NewPOSRefreshCommand())

	count := func() int {
		n := 0
		for _, e := range sink.snapshot() {
			n += len(e.Frame.Positions)
		}
		return n
	}
	waitFor(t, "all positions", func() bool { return count() == 20 })

	for _, e := range sink.snapshot() {
		for _, p := range e.Frame.Positions {
			if p.CreatedAtText != "2024-01-01T00:00:00" {
				t.Errorf("position decoded from a split line: %+v", p)
			}
		}
		if len(e.Frame.Unclassified) > 0 {
			for _, line := range e.Frame.Unclassified {
				if line != "#POS" && line != "#POSEND" {
					t.Errorf("fragment leaked as unclassified line %q", line)
				}
			}
		}
	}
}

func TestTrailingPartialLineFlushedAfterIdle(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		c.Write([]byte("BP 1 2"))
		time.Sleep(time.Second)
		c.Close()
	}()

	addr := ln.Addr().(*net.TCPAddr)
	sink := &recordingSink{}
	openConnection(t, models.MTraderConfig{Host: "127.0.0.1", Port: addr.Port, IdleFlushMs: 30}, sink)

	waitFor(t, "flushed frame", func() bool {
		for _, e := range sink.snapshot() {
			if len(e.Frame.BuyingPower) == 1 {
				return true
			}
		}
		return false
	})
}

func TestCloseRespectsActiveListeners(t *testing.T) {
	term := startTerminal(t)
	sink := &recordingSink{listeners: 1}
	conn := openConnection(t, traderConfig(term, true), sink)

	if err := conn.Close(false); !errors.Is(err, ErrListenersActive) {
		t.Fatalf("Close(false) = %v, want ErrListenersActive", err)
	}
	if !conn.IsConnected() {
		t.Fatal("Close(false) with listeners must keep the socket")
	}

	if err := conn.Close(true); err != nil {
		t.Fatalf("Close(true): %v", err)
	}
	if conn.State() != protocol.Disconnected {
		t.Errorf("state = %v", conn.State())
	}
	if err := conn.Send(commands.NewClientCommand()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send after close = %v", err)
	}
	select {
	case err := <-conn.Errors():
		t.Errorf("intended close must not report an error, got %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseWithoutListeners(t *testing.T) {
	term := startTerminal(t)
	conn := openConnection(t, traderConfig(term, true), &recordingSink{})

	if err := conn.Close(false); err != nil {
		t.Fatalf("Close(false): %v", err)
	}
	if conn.IsConnected() {
		t.Error("expected socket to be closed")
	}
}

func TestSocketLossIsReported(t *testing.T) {
	term := startTerminal(t)
	conn := openConnection(t, traderConfig(term, true), &recordingSink{})
	waitFor(t, "server side accept", func() bool { return term.ActiveClients() == 1 })

	term.DropClients()

	select {
	case err := <-conn.Errors():
		if err == nil {
			t.Error("expected an error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("socket loss not reported")
	}
	if conn.State() != protocol.Disconnected {
		t.Errorf("state = %v", conn.State())
	}
}

func TestOpenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	conn := NewTraderConnection(models.MTraderConfig{Host: "127.0.0.1", Port: port}, &recordingSink{}, logger.NewLogger(nil, "TestConnection"))
	if err := conn.Open(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
	if conn.State() != protocol.Disconnected {
		t.Errorf("state = %v", conn.State())
	}
}

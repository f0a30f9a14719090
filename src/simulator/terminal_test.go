package simulator

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"trader-gateway/src/models"
)

type rawClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, term *Terminal) *rawClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", term.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &rawClient{conn: conn, reader: bufio.NewReader(conn)}
}

// roundTrip sends line and reads n reply lines.
func (c *rawClient) roundTrip(t *testing.T, line string, n int) []string {
	t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		t.Fatalf("write %q: %v", line, err)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := c.reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read reply %d to %q: %v (got %v)", i, line, err, out)
		}
		out = append(out, strings.TrimRight(s, "\r\n"))
	}
	return out
}

func newTestTerminal(t *testing.T) *Terminal {
	t.Helper()
	term, err := NewTerminal("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("NewTerminal: %v", err)
	}
	t.Cleanup(func() { _ = term.Close() })
	return term
}

// -----------------------------------------------------------------------------

func TestTerminalSession(t *testing.T) {
	term := newTestTerminal(t)
	term.Positions = []models.MPosition{
		{Symbol: "AAPL", PositionType: 1, Qty: 100, AvgCost: 150.25, InitQty: 100, InitPrice: 150.25, CreatedAtText: "09:31:00"},
	}
	c := dial(t, term)

	tests := []struct {
		name   string
		line   string
		n      int
		prefix []string
	}{
		{"not logged in", "GET BP", 1, []string{"Not login"}},
		{"bad login", "LOGIN demo wrong DEMO1", 1, []string{"#LOGIN ERROR"}},
		{"login", "LOGIN demo demo DEMO1", 1, []string{"#LOGIN SUCCESSED"}},
		{"buying power", "GET BP", 1, []string{"BP 25000.00 100000.00"}},
		{"echo", "ECHO OFF", 1, []string{"#ECHO OFF"}},
		{"client", "CLIENT", 1, []string{"Client 1 1"}},
		{"short info", "GET SHORTINFO AAPL", 1, []string{"$SHORTINFO AAPL Y"}},
		{"positions", "POSREFRESH", 3, []string{"#POS", "%POS AAPL 1 100 150.25", "#POSEND"}},
		{"market order", "NEWORDER tok1 B AAPL SMAT 10 MKT", 3, []string{"%OrderAct 1001 Send", "%ORDER 1001 tok1 AAPL B M 10 0 0", "%TRADE T1001 AAPL B 10 100.00"}},
		{"limit order", "NEWORDER tok2 S MSFT SMAT 5 301.5 DAY", 2, []string{"%OrderAct 1002 Send", "%ORDER 1002 tok2 MSFT S L 5 5 0 301.50 SMAT Accepted"}},
		{"cancel", "CANCEL 1002", 1, []string{"%ORDER 1002 tok2 MSFT S L 5 0 5 301.50 SMAT Canceled"}},
		{"cancel closed", "CANCEL 1002", 1, []string{"ERROR no open order 1002"}},
		{"bad quantity", "NEWORDER tok3 B AAPL SMAT x MKT", 1, []string{"ERROR invalid quantity x"}},
		{"unknown verb", "FOO", 1, []string{"ERROR unknown command FOO"}},
	}

	for _, tt := range tests {
		got := c.roundTrip(t, tt.line, tt.n)
		for i, want := range tt.prefix {
			if !strings.HasPrefix(got[i], want) {
				t.Errorf("%s: line %d = %q, want prefix %q", tt.name, i, got[i], want)
			}
		}
	}

	if got := c.roundTrip(t, "QUIT", 1); got[0] != "Bye" {
		t.Errorf("QUIT reply = %q, want Bye", got[0])
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := c.reader.ReadByte(); err == nil {
		t.Error("connection still open after QUIT")
	}

	received := term.Received()
	if len(received) != len(tests)+1 || received[0] != "GET BP" || received[len(received)-1] != "QUIT" {
		t.Errorf("Received() = %v", received)
	}
}

func TestTerminalCancelAll(t *testing.T) {
	term := newTestTerminal(t)
	c := dial(t, term)
	c.roundTrip(t, "LOGIN demo demo DEMO1", 1)
	c.roundTrip(t, "NEWORDER a B AAPL SMAT 1 10 DAY", 2)
	c.roundTrip(t, "NEWORDER b B AAPL SMAT 1 11 DAY", 2)

	got := c.roundTrip(t, "CANCEL ALL", 2)
	if !strings.HasPrefix(got[0], "%ORDER 1001 a") || !strings.HasPrefix(got[1], "%ORDER 1002 b") {
		t.Errorf("CANCEL ALL = %v", got)
	}
	for _, line := range got {
		if !strings.Contains(line, "Canceled") {
			t.Errorf("%q not canceled", line)
		}
	}
}

func TestTerminalSilentAndPush(t *testing.T) {
	term := newTestTerminal(t)
	term.SetSilent("get bp")
	c := dial(t, term)
	c.roundTrip(t, "LOGIN demo demo DEMO1", 1)

	if _, err := c.conn.Write([]byte("GET BP\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// the silent verb is swallowed so the next reply is the echo one
	if got := c.roundTrip(t, "ECHO ON", 1); got[0] != "#ECHO ON" {
		t.Errorf("reply after silent verb = %q", got[0])
	}

	term.Push("%TRADE T1 AAPL B 1 10.00 SMAT 09:30:00 1")
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.reader.ReadString('\n')
	if err != nil || !strings.HasPrefix(line, "%TRADE T1") {
		t.Errorf("pushed line = %q, err %v", line, err)
	}
}

func TestTerminalChunkedWrite(t *testing.T) {
	term := newTestTerminal(t)
	term.SetChunkSize(3)
	c := dial(t, term)

	if got := c.roundTrip(t, "LOGIN demo demo DEMO1", 1); got[0] != "#LOGIN SUCCESSED" {
		t.Errorf("chunked reply = %q", got[0])
	}
}

func TestTerminalDropAndClose(t *testing.T) {
	term := newTestTerminal(t)
	c := dial(t, term)
	c.roundTrip(t, "ECHO ON", 1)

	if term.Accepted() != 1 || term.ActiveClients() != 1 {
		t.Fatalf("accepted %d active %d, want 1/1", term.Accepted(), term.ActiveClients())
	}
	term.DropClients()

	deadline := time.Now().Add(2 * time.Second)
	for term.ActiveClients() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := term.ActiveClients(); n != 0 {
		t.Errorf("ActiveClients after drop = %d", n)
	}

	if err := term.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if _, err := net.DialTimeout("tcp", term.Addr(), 200*time.Millisecond); err == nil {
		t.Error("dial succeeded after Close")
	}
}

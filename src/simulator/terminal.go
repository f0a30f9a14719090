package simulator

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"trader-gateway/src/logger"
	"trader-gateway/src/models"
)

// -----------------------------------------------------------------------------

// Terminal is a local stand-in for the trading server. It speaks the same
// line grammar and answers the common verbs with canned data.
type Terminal struct {
	listener net.Listener
	logger   *logger.Logger

	Username    string
	Password    string
	Account     string
	Positions   []models.MPosition
	BuyingPower models.MBuyingPower

	mu          sync.Mutex
	clients     map[net.Conn]*clientState
	received    []string
	accepted    int
	silent      map[string]bool
	chunkSize   int
	nextOrderID int
	orders      map[string]models.MOrder
	wg          sync.WaitGroup
	closed      bool
}

type clientState struct {
	conn     net.Conn
	writeMu  sync.Mutex
	loggedIn bool
}

// -----------------------------------------------------------------------------

// NewTerminal starts listening on addr ("127.0.0.1:0" picks a free port).
func NewTerminal(addr string, log *logger.Logger) (*Terminal, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if log == nil {
		log = logger.NewLogger(nil, "Terminal")
	}
	t := &Terminal{
		listener:    ln,
		logger:      log,
		Username:    "demo",
		Password:    "demo",
		Account:     "DEMO1",
		BuyingPower: models.MBuyingPower{BuyingPower: 25000, OvernightBuyingPower: 100000},
		clients:     make(map[net.Conn]*clientState),
		silent:      make(map[string]bool),
		nextOrderID: 1000,
		orders:      make(map[string]models.MOrder),
	}
	t.wg.Add(1)
	go t.acceptLoop()
	return t, nil
}

// -----------------------------------------------------------------------------

func (t *Terminal) Addr() string { return t.listener.Addr().String() }

// Host and Port split Addr for config structs.
func (t *Terminal) Host() string {
	host, _, _ := net.SplitHostPort(t.Addr())
	return host
}

func (t *Terminal) Port() int {
	_, port, _ := net.SplitHostPort(t.Addr())
	p, _ := strconv.Atoi(port)
	return p
}

// -----------------------------------------------------------------------------

// SetSilent makes the terminal swallow the given verbs without answering.
func (t *Terminal) SetSilent(verbs ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, v := range verbs {
		t.silent[strings.ToUpper(v)] = true
	}
}

// SetChunkSize splits every reply into writes of at most n bytes. 0 disables.
func (t *Terminal) SetChunkSize(n int) {
	t.mu.Lock()
	t.chunkSize = n
	t.mu.Unlock()
}

// Received returns every command line read so far, in order.
func (t *Terminal) Received() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.received))
	copy(out, t.received)
	return out
}

// Accepted is the number of connections accepted so far.
func (t *Terminal) Accepted() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accepted
}

// ActiveClients is the number of connections still open.
func (t *Terminal) ActiveClients() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

// -----------------------------------------------------------------------------

// Push writes unsolicited lines to every connected client.
func (t *Terminal) Push(lines ...string) {
	t.mu.Lock()
	clients := make([]*clientState, 0, len(t.clients))
	for _, c := range t.clients {
		clients = append(clients, c)
	}
	t.mu.Unlock()

	for _, c := range clients {
		t.write(c, lines)
	}
}

// DropClients closes every client socket, simulating a network failure.
func (t *Terminal) DropClients() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for conn := range t.clients {
		_ = conn.Close()
	}
}

// -----------------------------------------------------------------------------

func (t *Terminal) Close() error {
	t.mu.Lock()
	t.closed = true
	for conn := range t.clients {
		_ = conn.Close()
	}
	t.mu.Unlock()

	err := t.listener.Close()
	t.wg.Wait()
	return err
}

// -----------------------------------------------------------------------------

func (t *Terminal) acceptLoop() {
	defer t.wg.Done()
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			return
		}
		client := &clientState{conn: conn}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			_ = conn.Close()
			return
		}
		t.clients[conn] = client
		t.accepted++
		t.mu.Unlock()

		t.wg.Add(1)
		go t.serve(client)
	}
}

func (t *Terminal) serve(c *clientState) {
	defer t.wg.Done()
	defer func() {
		t.mu.Lock()
		delete(t.clients, c.conn)
		t.mu.Unlock()
		_ = c.conn.Close()
	}()

	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		t.mu.Lock()
		t.received = append(t.received, line)
		silent := t.silent[verbOf(line)]
		t.mu.Unlock()

		if silent {
			continue
		}
		reply, quit := t.respond(c, line)
		if len(reply) > 0 {
			t.write(c, reply)
		}
		if quit {
			return
		}
	}
}

// -----------------------------------------------------------------------------

func (t *Terminal) write(c *clientState, lines []string) {
	payload := []byte(strings.Join(lines, "\r\n") + "\r\n")

	t.mu.Lock()
	size := t.chunkSize
	t.mu.Unlock()
	if size <= 0 {
		size = len(payload)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	for len(payload) > 0 {
		n := size
		if n > len(payload) {
			n = len(payload)
		}
		if _, err := c.conn.Write(payload[:n]); err != nil {
			t.logger.Debug("action: write | result: fail | error: %v", err)
			return
		}
		payload = payload[n:]
		if len(payload) > 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func verbOf(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	verb := strings.ToUpper(fields[0])
	if verb == "GET" && len(fields) > 1 {
		verb += " " + strings.ToUpper(fields[1])
	}
	return verb
}

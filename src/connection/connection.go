package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"trader-gateway/src/commands"
	"trader-gateway/src/helpers"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"
	"trader-gateway/src/protocol"
)

var (
	ErrNotConnected    = errors.New("trader connection is not open")
	ErrListenersActive = errors.New("can not close connection, there are active events in queue")
	errNoCredentials   = errors.New("no credentials configured")
)

const (
	readBufferSize     = 4096
	defaultIdleFlush   = 250 * time.Millisecond
	defaultDialTimeout = 5 * time.Second
)

// -----------------------------------------------------------------------------

// TraderConnection owns at most one socket to the trading server.
type TraderConnection struct {
	address     string
	credentials models.MTraderConfig
	dialTimeout time.Duration
	idleFlush   time.Duration
	sink        interfaces.IFrameSink
	logger      *logger.Logger

	mu             sync.Mutex
	writeMu        sync.Mutex
	conn           net.Conn
	state          protocol.ConnectionState
	loginAttempted bool
	loggedIn       bool

	errs chan error
}

// -----------------------------------------------------------------------------

// NewTraderConnection builds a closed connection. Nothing is dialed until Open.
func NewTraderConnection(cfg models.MTraderConfig, sink interfaces.IFrameSink, log *logger.Logger) *TraderConnection {
	c := &TraderConnection{
		address:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		credentials: cfg,
		dialTimeout: time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		idleFlush:   time.Duration(cfg.IdleFlushMs) * time.Millisecond,
		sink:        sink,
		logger:      log,
		state:       protocol.Disconnected,
		errs:        make(chan error, 1),
	}
	if c.dialTimeout <= 0 {
		c.dialTimeout = defaultDialTimeout
	}
	if c.idleFlush <= 0 {
		c.idleFlush = defaultIdleFlush
	}
	return c
}

// -----------------------------------------------------------------------------

// Open dials the server. Calling Open on an open connection is a no-op.
func (c *TraderConnection) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.state = protocol.Connecting
	c.mu.Unlock()

	c.logger.Info("action: connect | result: in_progress | address: %s", c.address)
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		c.setState(protocol.Disconnected)
		c.logger.Error("action: connect | result: fail | address: %s | error: %v", c.address, err)
		return helpers.NewTransportError(fmt.Sprintf("connect to %s", c.address), err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = protocol.Connected
	c.mu.Unlock()

	c.logger.Info("action: connect | result: success | address: %s", c.address)
	go c.readLoop(conn)
	return nil
}

// -----------------------------------------------------------------------------

// Send writes cmd. The first command on a connection that has never logged in
// is preceded by a LOGIN built from the configured credentials. That automatic
// attempt happens at most once per connection, even when it fails.
func (c *TraderConnection) Send(cmd interfaces.ICommand) error {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}

	var autoLogin interfaces.ICommand
	switch {
	case cmd.Type() == protocol.Login:
		c.loginAttempted = true
		c.state = protocol.LoggingIn
	case !c.loggedIn && !c.loginAttempted:
		c.loginAttempted = true
		if c.credentials.HasCredentials() {
			autoLogin = commands.NewLoginCommand(c.credentials.Username, c.credentials.Password, c.credentials.Account)
			c.state = protocol.LoggingIn
		} else {
			c.logger.Warning("action: login | result: skipped | reason: %v", errNoCredentials)
			c.state = protocol.Ready
		}
	}
	c.mu.Unlock()

	if autoLogin != nil {
		c.logger.Warning("action: login | result: in_progress | user: %s", c.credentials.Username)
		if err := c.Write(autoLogin.Bytes()); err != nil {
			return err
		}
	}

	c.logger.Debug(">> %s", cmd)
	return c.Write(cmd.Bytes())
}

// -----------------------------------------------------------------------------

// Write sends raw bytes on the socket.
func (c *TraderConnection) Write(data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	_, err := conn.Write(data)
	c.writeMu.Unlock()
	if err != nil {
		wrapped := helpers.NewTransportError("write to trading server", err)
		c.fail(conn, wrapped)
		return wrapped
	}
	return nil
}

// -----------------------------------------------------------------------------

// Close destroys the socket when force is set or when no command is waiting.
// Otherwise it leaves the socket alone and returns ErrListenersActive.
func (c *TraderConnection) Close(force bool) error {
	if !force && c.sink != nil && c.sink.ActiveListeners() > 0 {
		c.logger.Warning("%v", ErrListenersActive)
		return ErrListenersActive
	}

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = protocol.Disconnected
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	c.logger.Info("action: close | result: success | force: %v", force)
	return conn.Close()
}

// -----------------------------------------------------------------------------

func (c *TraderConnection) Errors() <-chan error {
	return c.errs
}

func (c *TraderConnection) State() protocol.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *TraderConnection) IsConnected() bool {
	return c.State() >= protocol.Connected
}

// LoggedIn reports a successful login round trip on this connection.
func (c *TraderConnection) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedIn
}

func (c *TraderConnection) LoginAttempted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginAttempted
}

func (c *TraderConnection) setState(s protocol.ConnectionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Read loop
// -----------------------------------------------------------------------------

func (c *TraderConnection) readLoop(conn net.Conn) {
	var framer lineFramer
	buf := make([]byte, readBufferSize)

	for {
		// Block until data arrives, unless a partial line waits to be flushed
		deadline := time.Time{}
		if framer.HasPending() {
			deadline = time.Now().Add(c.idleFlush)
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			c.fail(conn, helpers.NewTransportError("set read deadline", err))
			return
		}

		n, err := conn.Read(buf)
		if n > 0 {
			if chunk := framer.Push(buf[:n]); chunk != "" {
				c.emit(chunk)
			}
		}
		if err == nil {
			continue
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			if framer.HasPending() {
				c.emit(framer.Flush())
			}
			continue
		}

		if framer.HasPending() {
			c.emit(framer.Flush())
		}
		c.fail(conn, helpers.NewTransportError("read from trading server", err))
		return
	}
}

// -----------------------------------------------------------------------------

func (c *TraderConnection) emit(raw string) {
	frame := protocol.Decode(raw)
	c.observeLogin(frame)

	if c.logger.DebugEnabled() {
		c.logger.Debug("<< %q", raw)
	}

	if c.sink == nil {
		return
	}
	c.sink.HandleFrame(models.MResponseEvent{
		CorrelationID: uuid.New(),
		CommandType:   protocol.None.String(),
		Raw:           raw,
		Frame:         frame,
		ReceivedAt:    time.Now(),
	})
}

// observeLogin resolves the LoggingIn state on a #LOGIN line or a protocol error.
func (c *TraderConnection) observeLogin(frame models.MDecodedFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != protocol.LoggingIn {
		return
	}
	if frame.LoginStatus == "" && !frame.IsError() {
		return
	}
	c.loggedIn = !frame.IsError()
	c.state = protocol.Ready
	if c.loggedIn {
		c.logger.Info("action: login | result: success")
	} else {
		c.logger.Error("action: login | result: fail | status: %s", frame.Status)
	}
}

// -----------------------------------------------------------------------------

// fail drops the socket after an unintended error and reports it. Errors on a
// socket that was already closed or replaced are ignored.
func (c *TraderConnection) fail(conn net.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = protocol.Disconnected
	c.mu.Unlock()

	_ = conn.Close()
	c.logger.Error("action: connection | result: lost | error: %v", err)

	select {
	case c.errs <- err:
	default:
	}
}

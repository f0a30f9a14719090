package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trader-gateway/src/commands"
	"trader-gateway/src/connection"
	"trader-gateway/src/correlator"
	"trader-gateway/src/helpers"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"
	"trader-gateway/src/protocol"
)

// TimeoutMessage is the result message of a waited command nobody answered.
const TimeoutMessage = "Timeout occurred"

var ErrStopped = errors.New("command dispatcher is stopped")

// ConnectionFactory builds a fresh, unopened connection feeding sink.
type ConnectionFactory func(sink interfaces.IFrameSink) interfaces.ITraderConnection

// NewConnectionFactory returns the TCP factory for cfg.
func NewConnectionFactory(cfg models.MTraderConfig, log *logger.Logger) ConnectionFactory {
	return func(sink interfaces.IFrameSink) interfaces.ITraderConnection {
		return connection.NewTraderConnection(cfg, sink, log.Named("TraderConnection"))
	}
}

// -----------------------------------------------------------------------------

// CommandDispatcher is the only entry point to the trading server. It runs one
// command at a time in submission order and owns the connection lifecycle.
type CommandDispatcher struct {
	cfg        models.MTraderConfig
	timeout    time.Duration
	factory    ConnectionFactory
	correlator *correlator.Correlator
	db         interfaces.IDatabase
	logger     *logger.Logger
	errors     *helpers.ErrorHandler

	mu         sync.Mutex
	queue      []interfaces.ICommand
	processing bool
	stopped    bool
	notify     chan struct{}

	connMu     sync.Mutex
	conn       interfaces.ITraderConnection
	dialing    interfaces.ITraderConnection
	dialCancel context.CancelFunc

	bus     *eventBus
	persist chan models.MDecodedFrame

	processed atomic.Uint64
	failed    atomic.Uint64
	timedOut  atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// -----------------------------------------------------------------------------

type Option func(*CommandDispatcher)

// WithConnectionFactory replaces the TCP connection, mainly for tests.
func WithConnectionFactory(f ConnectionFactory) Option {
	return func(d *CommandDispatcher) { d.factory = f }
}

// WithTimeout overrides the waited command timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *CommandDispatcher) { d.timeout = timeout }
}

// -----------------------------------------------------------------------------

// NewCommandDispatcher builds a stopped dispatcher. db may be nil.
func NewCommandDispatcher(cfg models.MTraderConfig, db interfaces.IDatabase, log *logger.Logger, opts ...Option) *CommandDispatcher {
	d := &CommandDispatcher{
		cfg:        cfg,
		timeout:    time.Duration(cfg.CommandTimeoutSeconds) * time.Second,
		correlator: correlator.NewCorrelator(log.Named("Correlator")),
		db:         db,
		logger:     log,
		errors:     helpers.NewErrorHandler(log),
		notify:     make(chan struct{}, 1),
		bus:        newEventBus(),
		persist:    make(chan models.MDecodedFrame, 256),
	}
	d.factory = NewConnectionFactory(cfg, log)
	for _, opt := range opts {
		opt(d)
	}
	if d.timeout <= 0 {
		d.timeout = time.Second
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// -----------------------------------------------------------------------------

// Start launches the queue worker and the persistence worker.
func (d *CommandDispatcher) Start() {
	d.wg.Add(1)
	go d.processQueue()

	if d.db != nil {
		d.wg.Add(1)
		go d.persistLoop()
	}
}

// -----------------------------------------------------------------------------

// Stop ends the workers, fails queued commands and drops the connection.
func (d *CommandDispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	pending := d.queue
	d.queue = nil
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()

	for _, cmd := range pending {
		cmd.Resolve(models.MCommandResult{Success: false, Message: ErrStopped.Error()})
	}
	d.Close(true)
}

// -----------------------------------------------------------------------------

// Shutdown says QUIT to the server when connected, then stops.
func (d *CommandDispatcher) Shutdown(ctx context.Context) {
	if d.IsConnected() {
		if res, err := d.Execute(ctx, commands.NewLogoutCommand()); err != nil {
			d.logger.Warning("action: quit | result: fail | error: %v", err)
		} else {
			d.logger.Info("action: quit | result: %v | message: %s", res.Success, res.Message)
		}
	}
	d.Stop()
}

// -----------------------------------------------------------------------------
// Submission
// -----------------------------------------------------------------------------

// Submit enqueues cmd and returns at once. The result is available through
// cmd.Done / cmd.Result.
func (d *CommandDispatcher) Submit(cmd interfaces.ICommand) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrStopped
	}
	d.queue = append(d.queue, cmd)
	d.mu.Unlock()

	d.logger.Debug("action: enqueue | command: %s", cmd.Name())
	select {
	case d.notify <- struct{}{}:
	default:
	}
	return nil
}

// -----------------------------------------------------------------------------

// Execute submits cmd and waits for its result or ctx.
func (d *CommandDispatcher) Execute(ctx context.Context, cmd interfaces.ICommand) (models.MCommandResult, error) {
	if err := d.Submit(cmd); err != nil {
		return models.MCommandResult{}, err
	}
	select {
	case <-cmd.Done():
		res, _ := cmd.Result()
		return res, nil
	case <-ctx.Done():
		return models.MCommandResult{}, ctx.Err()
	}
}

// -----------------------------------------------------------------------------

// SubmitOrder records the order as tracked (Pending) and submits it.
func (d *CommandDispatcher) SubmitOrder(cmd *commands.OrderCommand) error {
	if d.db != nil {
		now := time.Now()
		err := d.db.InsertTrackedOrder(models.MTrackedOrder{
			Token:     cmd.Token,
			Symbol:    cmd.Symbol,
			Side:      string(cmd.Side),
			Qty:       cmd.Shares,
			Price:     cmd.Price,
			Route:     cmd.Route,
			Status:    models.TradeStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
		d.errors.Handle(err, "database insert tracked order")
	}
	return d.Submit(cmd)
}

// -----------------------------------------------------------------------------
// Queue worker
// -----------------------------------------------------------------------------

func (d *CommandDispatcher) processQueue() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-d.notify:
		}

		for {
			cmd, ok := d.next()
			if !ok {
				break
			}
			d.process(cmd)
			if d.ctx.Err() != nil {
				return
			}
		}
	}
}

func (d *CommandDispatcher) next() (interfaces.ICommand, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 || d.stopped {
		d.processing = false
		return nil, false
	}
	cmd := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	d.processing = true
	return cmd, true
}

// -----------------------------------------------------------------------------

func (d *CommandDispatcher) process(cmd interfaces.ICommand) {
	start := time.Now()
	d.logger.Info("action: command | result: in_progress | command: %s", cmd.Name())

	// A login always starts a new session
	if cmd.Type() == protocol.Login {
		d.resetConnection()
	}

	conn, err := d.ensureConnection()
	if err != nil {
		d.finish(cmd, models.MCommandResult{Success: false, Message: err.Error()}, start)
		return
	}

	if !cmd.WaitForResult() {
		if err := conn.Send(cmd); err != nil {
			d.sendFailed(conn, err)
			d.finish(cmd, models.MCommandResult{Success: false, Message: err.Error()}, start)
			return
		}
		d.finish(cmd, models.MCommandResult{Success: true, Message: "sent"}, start)
		return
	}

	d.correlator.Subscribe(cmd.Type(), cmd)
	res := d.await(conn, cmd)
	d.correlator.Unsubscribe(cmd.Type(), cmd)
	d.finish(cmd, res, start)
}

// await sends a waited command and blocks until it is answered, times out,
// the socket fails or the dispatcher stops.
func (d *CommandDispatcher) await(conn interfaces.ITraderConnection, cmd interfaces.ICommand) models.MCommandResult {
	if err := conn.Send(cmd); err != nil {
		d.sendFailed(conn, err)
		return models.MCommandResult{Success: false, Message: err.Error()}
	}

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case <-cmd.Done():
	case <-timer.C:
		if cmd.Resolve(models.MCommandResult{Success: false, Message: TimeoutMessage}) {
			d.timedOut.Add(1)
			d.errors.Handle(helpers.NewTimeoutError(fmt.Sprintf("%s after %v", cmd.Name(), d.timeout)), "command wait")
		}
	case err := <-conn.Errors():
		d.dropConnection(conn)
		cmd.Resolve(models.MCommandResult{Success: false, Message: err.Error()})
	case <-d.ctx.Done():
		cmd.Resolve(models.MCommandResult{Success: false, Message: ErrStopped.Error()})
	}

	res, _ := cmd.Result()
	return res
}

func (d *CommandDispatcher) sendFailed(conn interfaces.ITraderConnection, err error) {
	if helpers.IsConnectionError(err) {
		d.dropConnection(conn)
	}
}

// finish resolves cmd (a no-op when already resolved) and logs the outcome.
func (d *CommandDispatcher) finish(cmd interfaces.ICommand, result models.MCommandResult, start time.Time) {
	cmd.Resolve(result)
	res, _ := cmd.Result()

	d.processed.Add(1)
	if !res.Success {
		d.failed.Add(1)
		d.logger.Warning("action: command | result: fail | command: %s | message: %s | elapsed: %v", cmd.Name(), res.Message, time.Since(start))
		return
	}
	d.logger.Info("action: command | result: success | command: %s | message: %s | elapsed: %v", cmd.Name(), res.Message, time.Since(start))
}

// -----------------------------------------------------------------------------
// Connection lifecycle
// -----------------------------------------------------------------------------

// ensureConnection returns an open connection, replacing a dropped one with a
// fresh instance so the automatic login applies again. The dial runs outside
// connMu; a forced Close aborts it.
func (d *CommandDispatcher) ensureConnection() (interfaces.ITraderConnection, error) {
	d.connMu.Lock()
	if d.conn != nil && d.conn.IsConnected() {
		conn := d.conn
		d.connMu.Unlock()
		return conn, nil
	}
	d.conn = nil
	conn := d.factory(d)
	dialCtx, cancel := context.WithCancel(d.ctx)
	d.dialing, d.dialCancel = conn, cancel
	d.connMu.Unlock()
	defer cancel()

	retries := d.cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}
	delay := time.Duration(d.cfg.RetryDelayMs) * time.Millisecond
	err := helpers.RetryWithBackoff(dialCtx, d.logger, "connect", retries, delay, func() error {
		return conn.Open(dialCtx)
	})

	d.connMu.Lock()
	defer d.connMu.Unlock()
	if d.dialing != conn {
		// closed while dialing
		_ = conn.Close(true)
		return nil, helpers.NewTransportError("connect aborted", context.Canceled)
	}
	d.dialing, d.dialCancel = nil, nil
	if err != nil {
		return nil, helpers.NewTransportError("trading server unavailable", err)
	}
	d.conn = conn
	return conn, nil
}

func (d *CommandDispatcher) resetConnection() {
	d.connMu.Lock()
	defer d.connMu.Unlock()

	if d.conn != nil {
		if err := d.conn.Close(true); err != nil {
			d.logger.Warning("action: reset | result: fail | error: %v", err)
		}
		d.conn = nil
	}
}

func (d *CommandDispatcher) dropConnection(conn interfaces.ITraderConnection) {
	d.connMu.Lock()
	defer d.connMu.Unlock()

	if d.conn == conn {
		d.conn = nil
	}
}

// -----------------------------------------------------------------------------

// IsConnected reports an open socket.
func (d *CommandDispatcher) IsConnected() bool {
	d.connMu.Lock()
	defer d.connMu.Unlock()
	return d.conn != nil && d.conn.IsConnected()
}

// Close closes the connection. Without force it refuses while a command waits.
// A forced close also aborts a dial in progress.
func (d *CommandDispatcher) Close(force bool) error {
	d.connMu.Lock()
	defer d.connMu.Unlock()

	if force && d.dialing != nil {
		d.dialCancel()
		d.dialing, d.dialCancel = nil, nil
	}
	if d.conn == nil {
		return nil
	}
	if err := d.conn.Close(force); err != nil {
		return err
	}
	d.conn = nil
	return nil
}

// -----------------------------------------------------------------------------

// QueueLength is the number of commands not yet started.
func (d *CommandDispatcher) QueueLength() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

func (d *CommandDispatcher) Status() models.MDispatcherStatus {
	d.mu.Lock()
	queued, processing := len(d.queue), d.processing
	d.mu.Unlock()

	state := protocol.Disconnected
	d.connMu.Lock()
	switch {
	case d.conn != nil:
		state = d.conn.State()
	case d.dialing != nil:
		state = protocol.Connecting
	}
	d.connMu.Unlock()

	return models.MDispatcherStatus{
		Connected:   state >= protocol.Connected,
		State:       state.String(),
		QueueLength: queued,
		Processing:  processing,
		Listeners:   d.correlator.ListenerCount(),
		Processed:   d.processed.Load(),
		Failed:      d.failed.Load(),
		TimedOut:    d.timedOut.Load(),
		Errors:      d.errors.ErrorCount(),
	}
}

// -----------------------------------------------------------------------------
// IFrameSink
// -----------------------------------------------------------------------------

// ActiveListeners counts commands waiting on a response.
func (d *CommandDispatcher) ActiveListeners() int {
	return d.correlator.ListenerCount()
}

// HandleFrame routes one decoded frame: to storage, to the waiting command,
// and out to subscribers.
func (d *CommandDispatcher) HandleFrame(event models.MResponseEvent) {
	frame := event.Frame
	if frame.IsEmpty() {
		return
	}

	if d.db != nil && (len(frame.Positions) > 0 || len(frame.Orders) > 0 || len(frame.Trades) > 0) {
		select {
		case d.persist <- frame:
		default:
			d.logger.Warning("action: persist | result: dropped | reason: queue full")
		}
	}

	if claimed := d.correlator.Fanout(event); len(claimed) == 0 {
		if frame.IsError() {
			d.errors.Handle(helpers.NewProtocolError(frame.Status), "unsolicited frame")
		}
		d.bus.publish(EventTradeData, frame)
	}

	for _, o := range frame.Orders {
		d.bus.publish(EventOrder, o)
	}
	for _, t := range frame.Trades {
		d.bus.publish(EventTrade, t)
	}
}

// On subscribes handler to "trade-data", "order" or "trade" events. The
// returned function removes the subscription.
func (d *CommandDispatcher) On(event string, handler func(models.MPushEvent)) (func(), error) {
	switch event {
	case EventTradeData, EventOrder, EventTrade:
	default:
		return nil, fmt.Errorf("unknown event %q", event)
	}
	return d.bus.subscribe(event, handler), nil
}

package modem

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/pkg/atcmd"
)

// Modem orchestrates a SIM7000 module: it owns the transport, runs the receive loop that feeds
// the line parser, serializes logical operations and publishes notifications as events.
type Modem struct {
	// Configuration fields
	cfg Config

	// Dependencies
	dialer Dialer
	logger zerolog.Logger

	// Internal state management
	mu        sync.Mutex // held for the duration of a logical operation
	stateMu   sync.RWMutex
	transport io.ReadWriteCloser
	parser    *atcmd.Parser
	executor  *atcmd.Executor
	events    *Bus
	stateCh   chan ConnectionState
	closing   chan struct{}
	wg        sync.WaitGroup
	running   bool
	localIP   string

	// statusMu is separate from mu because the receive goroutine updates the status while a
	// caller holding mu waits for a command.
	statusMu sync.Mutex
	status   Status
}

// New validates cfg and creates a stopped Modem.
func New(cfg Config, dialer Dialer, logger zerolog.Logger) (*Modem, error) {
	if dialer == nil {
		return nil, ErrNoDialer
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	m := &Modem{
		cfg:     cfg,
		dialer:  dialer,
		logger:  logger,
		events:  NewBus(logger),
		stateCh: make(chan ConnectionState, 1),
	}
	m.parser = atcmd.NewParser(cfg.MaxLineBuffer, isURC, m.dispatch, logger)
	return m, nil
}

// Config returns the effective configuration.
func (m *Modem) Config() Config {
	return m.cfg
}

// Start opens the transport and starts the receive loop.
func (m *Modem) Start(ctx context.Context) error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}

	transport, err := m.dialer.Dial(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to open modem transport")
		return err
	}

	m.transport = transport
	m.parser.Reset()
	m.executor = atcmd.NewExecutor(m.parser, transport, m.logger)
	m.executor.Start()
	m.closing = make(chan struct{})
	m.running = true

	m.wg.Add(1)
	go m.receive(transport, m.closing)

	m.logger.Info().Msg("Modem started")
	m.events.Publish(Event{Kind: EventStarted})
	return nil
}

// Stop rejects new commands, closes the transport and waits for the receive loop to exit.
func (m *Modem) Stop() error {
	m.stateMu.Lock()
	if !m.running {
		m.stateMu.Unlock()
		return ErrNotRunning
	}
	m.running = false
	m.executor.Stop()
	close(m.closing)
	err := m.transport.Close()
	m.stateMu.Unlock()

	m.wg.Wait()

	m.statusMu.Lock()
	m.status = 0
	m.statusMu.Unlock()

	m.logger.Info().Msg("Modem stopped")
	m.events.Publish(Event{Kind: EventStopped})
	return err
}

// Alive reports whether the modem is started. Services check it before every operation.
func (m *Modem) Alive() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.running
}

// Subscribe registers a named event subscriber. A non-positive buffer selects the configured
// event queue size.
func (m *Modem) Subscribe(name string, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = m.cfg.EventQueue
	}
	return m.events.Subscribe(name, buffer)
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Modem) Unsubscribe(name string) {
	m.events.Unsubscribe(name)
}

// LocalIP returns the address read by the last successful network activation.
func (m *Modem) LocalIP() string {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	return m.localIP
}

// Execute runs a single command under the orchestrator lock.
func (m *Modem) Execute(ctx context.Context, req atcmd.Request, res *atcmd.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exec(ctx, req, res)
}

// Transaction runs fn with the orchestrator lock held, so the commands fn issues through tx are
// not interleaved with another caller's.
func (m *Modem) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Alive() {
		return ErrNotRunning
	}
	return fn(&Tx{m: m})
}

func (m *Modem) exec(ctx context.Context, req atcmd.Request, res *atcmd.Result) error {
	m.stateMu.RLock()
	executor, running := m.executor, m.running
	m.stateMu.RUnlock()
	if !running {
		return ErrNotRunning
	}
	return executor.Execute(ctx, req, res)
}

// query runs req with a fresh result and returns it.
func (m *Modem) query(ctx context.Context, cmd atcmd.Command, params string) (*atcmd.Result, error) {
	res := atcmd.NewResult()
	err := m.exec(ctx, atcmd.Request{Command: cmd, Params: params}, res)
	return res, err
}

func (m *Modem) receive(r io.Reader, closing chan struct{}) {
	defer m.wg.Done()

	buf := make([]byte, m.cfg.ReadBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			m.parser.Feed(buf[:n])
		}
		if err == nil {
			continue
		}

		select {
		case <-closing:
			return
		default:
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
			m.logger.Error().Err(err).Msg("Modem transport closed unexpectedly")
			m.lost(closing)
			return
		}
		m.logger.Error().Err(err).Msg("Failed to read from modem transport")
		time.Sleep(10 * time.Millisecond)
	}
}

// lost stops the modem after its transport went away underneath the receive loop. closing
// identifies the run that failed, a concurrent Stop or a newer Start wins.
func (m *Modem) lost(closing chan struct{}) {
	m.stateMu.Lock()
	if !m.running || m.closing != closing {
		m.stateMu.Unlock()
		return
	}
	m.running = false
	m.executor.Stop()
	close(m.closing)
	if err := m.transport.Close(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to close modem transport")
	}
	m.stateMu.Unlock()

	m.statusMu.Lock()
	m.status = 0
	m.statusMu.Unlock()

	m.events.Publish(Event{Kind: EventStopped})
}

// Tx issues commands inside a Transaction. It must not be used after the transaction returns.
type Tx struct {
	m *Modem
}

// Execute runs a command without taking the orchestrator lock.
func (tx *Tx) Execute(ctx context.Context, req atcmd.Request, res *atcmd.Result) error {
	return tx.m.exec(ctx, req, res)
}

// ActivateNetwork runs the network bring-up inside the transaction.
func (tx *Tx) ActivateNetwork(ctx context.Context) error {
	return tx.m.activateNetwork(ctx)
}

// ActivateAppNetwork runs the application network step inside the transaction.
func (tx *Tx) ActivateAppNetwork(ctx context.Context) error {
	return tx.m.appNetworkStep(ctx)
}

func (tx *Tx) Status() Status {
	return tx.m.Status()
}

func (tx *Tx) SetStatus(f Status, on bool) {
	tx.m.SetStatus(f, on)
}

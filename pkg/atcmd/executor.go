package atcmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// QueryTimeout applies to read commands ("AT+CSQ?"), which the modem answers from its own state.
	QueryTimeout = 150 * time.Millisecond
	// ResponseGrace is added to the catalog response time to absorb UART and scheduling latency.
	ResponseGrace = 100 * time.Millisecond
	// DefaultResponse is used when neither the caller nor the catalog specify a response time.
	DefaultResponse = time.Second
)

// Request describes one command to execute.
type Request struct {
	Command Command
	// Params follows the token verbatim and carries its own "=" or "?" marker.
	Params string
	// Payload, when non-nil, is written after the modem shows its upload prompt.
	Payload []byte
	// Timeout overrides the catalog response time. Zero selects the catalog value.
	Timeout time.Duration
	// IgnoreResponse returns as soon as the command line is written.
	IgnoreResponse bool
	// Partial accepts whatever was received when the modem never sends a final result.
	Partial bool
	// Raw collects the response verbatim until it ends with CRLF.
	Raw bool
}

// Executor runs one command at a time over w, using p to collect the response.
type Executor struct {
	parser *Parser
	w      io.Writer
	logger zerolog.Logger

	// gate holds a token while no command is in flight.
	gate chan struct{}

	mu      sync.Mutex
	running bool
	stopped chan struct{}
}

// NewExecutor wires an executor to the parser fed by the receive loop and to the transport writer.
func NewExecutor(p *Parser, w io.Writer, logger zerolog.Logger) *Executor {
	e := &Executor{
		parser:  p,
		w:       w,
		logger:  logger,
		gate:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	e.gate <- struct{}{}
	close(e.stopped)
	return e
}

// Start allows commands to be executed.
func (e *Executor) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stopped = make(chan struct{})
}

// Stop rejects new commands and releases a caller blocked on an upload prompt.
func (e *Executor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	close(e.stopped)
}

// Running reports whether Execute accepts commands.
func (e *Executor) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// EffectiveTimeout returns how long Execute waits for each phase of req.
func EffectiveTimeout(def Definition, req Request) time.Duration {
	switch {
	case strings.HasPrefix(req.Params, "?"):
		return QueryTimeout
	case req.Timeout > 0:
		return req.Timeout
	case def.MaxResponse > 0:
		return def.MaxResponse + ResponseGrace
	default:
		return DefaultResponse + ResponseGrace
	}
}

// Execute writes req to the modem and waits for its final result, which is stored in res.
// ctx bounds the wait for the gate and for the upload prompt; once the command line has been
// written only the effective timeout applies.
func (e *Executor) Execute(ctx context.Context, req Request, res *Result) error {
	e.mu.Lock()
	running, stopped := e.running, e.stopped
	e.mu.Unlock()
	if !running {
		return fmt.Errorf("%s: %w", req.Command, ErrNotAllowed)
	}

	def, ok := Lookup(req.Command)
	if !ok {
		return fmt.Errorf("command %d: %w", int(req.Command), ErrInvalidArgument)
	}
	if res == nil {
		return fmt.Errorf("%s: missing result: %w", def.Token, ErrInvalidArgument)
	}

	select {
	case <-e.gate:
	case <-ctx.Done():
		return ctx.Err()
	case <-stopped:
		return fmt.Errorf("%s: %w", req.Command, ErrNotAllowed)
	}
	defer func() { e.gate <- struct{}{} }()

	res.Reset()
	c := newCall(def, req, res)
	e.parser.attach(c)
	defer e.parser.detach(c)

	timeout := EffectiveTimeout(def, req)
	wire := def.Wire(req.Params)
	e.logger.Debug().Str("cmd", strings.TrimSuffix(wire, CR)).Dur("timeout", timeout).Msg("Executing command")

	if _, err := io.WriteString(e.w, wire); err != nil {
		return fmt.Errorf("write %s: %w", req.Command, err)
	}
	if req.IgnoreResponse {
		return nil
	}

	if !waitSignal(c.started, timeout) {
		return e.expire(c, req, res)
	}

	if req.Payload != nil {
		select {
		case <-c.payloadReady:
		case <-c.completed:
			// the modem rejected the command before prompting
			return outcomeError(req.Command, res)
		case <-ctx.Done():
			return ctx.Err()
		case <-stopped:
			return fmt.Errorf("%s: %w", req.Command, ErrNotAllowed)
		}
		if _, err := e.w.Write(append(append([]byte{}, req.Payload...), CR...)); err != nil {
			return fmt.Errorf("write %s payload: %w", req.Command, err)
		}
	}

	if !waitSignal(c.completed, timeout) {
		return e.expire(c, req, res)
	}
	return outcomeError(req.Command, res)
}

// expire detaches the call so the parser stops writing to res, then settles the outcome.
func (e *Executor) expire(c *call, req Request, res *Result) error {
	e.parser.detach(c)

	select {
	case <-c.completed:
		return outcomeError(req.Command, res)
	default:
	}

	if req.Partial && res.Response != "" {
		for strings.HasSuffix(res.Response, CRLF) {
			res.Response = strings.TrimSuffix(res.Response, CRLF)
		}
		res.Outcome = OutcomeOK
		return nil
	}

	res.Outcome = OutcomeTimeout
	e.logger.Warn().Str("cmd", req.Command.String()).Int("received", len(res.Response)).Msg("Command timed out")
	return outcomeError(req.Command, res)
}

func waitSignal(ch <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

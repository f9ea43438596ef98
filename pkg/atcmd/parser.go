package atcmd

import (
	"bytes"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultMaxBuffer bounds the bytes the parser keeps while waiting for a line terminator.
const DefaultMaxBuffer = 4096

var (
	crlf        = []byte(CRLF)
	promptToken = []byte("> ")
)

// call is the state of one in-flight command. It is created by the executor and referenced by
// the parser only between attach and detach.
type call struct {
	def    Definition
	wire   string
	prefix string
	result *Result

	raw          bool
	awaitPrompt  bool
	startedSent  bool
	payloadSent  bool
	done         bool
	started      chan struct{}
	payloadReady chan struct{}
	completed    chan struct{}
}

func newCall(def Definition, req Request, res *Result) *call {
	return &call{
		def:          def,
		wire:         strings.TrimSuffix(def.Wire(req.Params), CR),
		prefix:       def.ResponsePrefix(),
		result:       res,
		raw:          req.Raw,
		awaitPrompt:  req.Payload != nil,
		started:      make(chan struct{}),
		payloadReady: make(chan struct{}),
		completed:    make(chan struct{}),
	}
}

func (c *call) markStarted() {
	if !c.startedSent {
		c.startedSent = true
		close(c.started)
	}
}

func (c *call) markPayloadReady() {
	c.awaitPrompt = false
	if !c.payloadSent {
		c.payloadSent = true
		close(c.payloadReady)
	}
}

func (c *call) finish(outcome Outcome, code int) {
	for strings.HasSuffix(c.result.Response, CRLF) {
		c.result.Response = strings.TrimSuffix(c.result.Response, CRLF)
	}
	c.result.Outcome = outcome
	c.result.Code = code
	c.done = true
	c.markStarted()
	close(c.completed)
}

// Parser reassembles the byte stream coming from the modem into lines, hands unsolicited lines
// to the URC handler and accumulates everything else into the in-flight command's result.
type Parser struct {
	mu        sync.Mutex
	buf       []byte
	maxBuffer int
	inflight  *call

	isURC  func(line string) bool
	onURC  func(line string)
	logger zerolog.Logger
}

// NewParser creates a parser. isURC decides whether a complete line is an unsolicited result code,
// onURC receives those lines outside of the parser lock. maxBuffer <= 0 selects DefaultMaxBuffer.
func NewParser(maxBuffer int, isURC func(string) bool, onURC func(string), logger zerolog.Logger) *Parser {
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBuffer
	}
	return &Parser{
		buf:       make([]byte, 0, 256),
		maxBuffer: maxBuffer,
		isURC:     isURC,
		onURC:     onURC,
		logger:    logger,
	}
}

// Feed appends data to the internal buffer and processes every complete unit. It never blocks
// on the caller waiting for the command.
func (p *Parser) Feed(data []byte) {
	p.mu.Lock()
	p.buf = append(p.buf, data...)
	urcs := p.process()
	p.mu.Unlock()

	if p.onURC == nil {
		return
	}
	for _, line := range urcs {
		p.onURC(line)
	}
}

// Reset drops any buffered bytes.
func (p *Parser) Reset() {
	p.mu.Lock()
	p.buf = p.buf[:0]
	p.mu.Unlock()
}

func (p *Parser) attach(c *call) {
	p.mu.Lock()
	p.inflight = c
	p.mu.Unlock()
}

func (p *Parser) detach(c *call) {
	p.mu.Lock()
	if p.inflight == c {
		p.inflight = nil
	}
	p.mu.Unlock()
}

func (p *Parser) active() *call {
	if p.inflight == nil || p.inflight.done {
		return nil
	}
	return p.inflight
}

// process must be called with p.mu held.
func (p *Parser) process() []string {
	var urcs []string

	if c := p.active(); c != nil && len(p.buf) > 0 {
		c.markStarted()
	}

	for len(p.buf) > 0 {
		c := p.active()

		if c != nil && c.raw {
			p.appendRaw(c)
			break
		}

		if c != nil && c.awaitPrompt && bytes.HasPrefix(p.buf, promptToken) {
			p.buf = p.buf[len(promptToken):]
			c.markStarted()
			c.markPayloadReady()
			continue
		}

		idx := bytes.Index(p.buf, crlf)
		if idx < 0 {
			break
		}
		line := string(p.buf[:idx])
		p.buf = p.buf[idx+len(crlf):]
		if line == "" {
			continue
		}

		if p.isUnsolicited(line, c) {
			urcs = append(urcs, line)
			continue
		}
		if c == nil {
			p.logger.Debug().Str("line", line).Msg("Dropping line received without a command in flight")
			continue
		}
		p.handleLine(c, line)
	}

	if len(p.buf) > p.maxBuffer {
		p.logger.Warn().Int("size", len(p.buf)).Int("max", p.maxBuffer).Msg("Parser buffer overflow, discarding pending bytes")
		p.buf = p.buf[:0]
		if c := p.active(); c != nil {
			c.finish(OutcomeOverflow, -1)
		}
	}

	return urcs
}

func (p *Parser) appendRaw(c *call) {
	c.markStarted()
	c.result.Response += string(p.buf)
	p.buf = p.buf[:0]

	content := strings.TrimLeft(c.result.Response, CRLF)
	switch {
	case content != "" && strings.HasSuffix(content, CRLF):
		c.finish(OutcomeOK, -1)
	case len(c.result.Response) > p.maxBuffer:
		p.logger.Warn().Int("size", len(c.result.Response)).Msg("Raw response exceeds parser buffer")
		c.finish(OutcomeOverflow, -1)
	}
}

func (p *Parser) isUnsolicited(line string, c *call) bool {
	if p.isURC == nil || !p.isURC(line) {
		return false
	}
	// An information line answering the in-flight command shares its prefix with some URCs (+CPIN:, +CFUN:).
	if c != nil && c.prefix != "" && strings.HasPrefix(line, c.prefix) {
		return false
	}
	return true
}

func (p *Parser) handleLine(c *call, line string) {
	c.markStarted()

	switch {
	case line == ResultOK:
		c.finish(OutcomeOK, -1)
	case line == ResultError:
		c.finish(OutcomeError, -1)
	case strings.HasPrefix(line, ResultCMEError):
		c.finish(OutcomeCMEError, ToInt[int](AfterColon(line)))
	case strings.HasPrefix(line, ResultCMSError):
		c.finish(OutcomeCMSError, ToInt[int](AfterColon(line)))
	case strings.TrimRight(line, CR) == c.wire:
		// command echo, present until ATE0 has been applied
	default:
		c.result.Response += line + CRLF
	}
}

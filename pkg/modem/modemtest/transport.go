// Package modemtest provides a scripted modem transport for tests.
package modemtest

import (
	"context"
	"io"
	"strings"
	"sync"
)

// Transport is an in-memory modem. Every command line written to it is answered with the
// reply scripted for that line; reads block until a reply or an injected notification is
// available, like a serial port.
type Transport struct {
	mu      sync.Mutex
	reads   chan []byte
	pending []byte
	closed  bool
	written []string
	replies map[string][]string

	// Fallback answers command lines that have no scripted reply. Empty means no answer.
	Fallback string
}

// NewTransport creates an empty transport.
func NewTransport() *Transport {
	return &Transport{
		reads:   make(chan []byte, 256),
		replies: make(map[string][]string),
	}
}

// Dial returns the transport itself.
func (t *Transport) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// On scripts the replies to a command line, given without its trailing "\r". Successive
// writes of the line consume the replies in order; the last one is repeated.
func (t *Transport) On(line string, replies ...string) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[line] = replies
	return t
}

// Inject queues data as if the modem had sent it on its own.
func (t *Transport) Inject(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.reads <- []byte(data)
	}
}

func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}

	line := string(p)
	t.written = append(t.written, line)

	reply := t.Fallback
	key := strings.TrimSuffix(line, "\r")
	if queue, ok := t.replies[key]; ok && len(queue) > 0 {
		reply = queue[0]
		if len(queue) > 1 {
			t.replies[key] = queue[1:]
		}
	}
	if reply != "" {
		t.reads <- []byte(reply)
	}
	return len(p), nil
}

func (t *Transport) Read(p []byte) (int, error) {
	if len(t.pending) == 0 {
		data, ok := <-t.reads
		if !ok {
			return 0, io.EOF
		}
		t.pending = data
	}
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

// Close makes pending and future reads return io.EOF.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.reads)
	return nil
}

// Written returns the command lines written so far, without their trailing "\r".
func (t *Transport) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := make([]string, len(t.written))
	for i, w := range t.written {
		lines[i] = strings.TrimSuffix(w, "\r")
	}
	return lines
}

// Reset forgets the command lines written so far.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = nil
}

// OK builds a reply made of information lines followed by OK.
func OK(lines ...string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString("\r\n" + line + "\r\n")
	}
	b.WriteString("\r\nOK\r\n")
	return b.String()
}

// Error is the reply of a failed command.
const Error = "\r\nERROR\r\n"

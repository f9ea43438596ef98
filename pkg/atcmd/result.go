package atcmd

import (
	"fmt"
	"strings"
)

// Outcome is the terminal condition of a command.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeOK
	OutcomeError
	OutcomeCMEError
	OutcomeCMSError
	OutcomeTimeout
	OutcomeOverflow
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeError:
		return "ERROR"
	case OutcomeCMEError:
		return "+CME ERROR"
	case OutcomeCMSError:
		return "+CMS ERROR"
	case OutcomeTimeout:
		return "TIMEOUT"
	case OutcomeOverflow:
		return "OVERFLOW"
	default:
		return "UNKNOWN"
	}
}

// Terminal result lines.
const (
	ResultOK       = "OK"
	ResultError    = "ERROR"
	ResultCMEError = "+CME ERROR:"
	ResultCMSError = "+CMS ERROR:"
)

// Result receives the outcome of one command. The caller owns it and the parser is its only writer
// while the command is in flight.
type Result struct {
	Outcome Outcome
	// Code is the sub-code of a +CME/+CMS error, -1 otherwise.
	Code     int
	Response string
}

// NewResult returns a reset Result.
func NewResult() *Result {
	r := &Result{}
	r.Reset()
	return r
}

func (r *Result) Reset() {
	r.Outcome = OutcomeUnknown
	r.Code = -1
	r.Response = ""
}

// Lines splits the accumulated response into its non-empty lines.
func (r *Result) Lines() []string {
	var lines []string
	for _, line := range strings.Split(r.Response, CRLF) {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Line returns the first response line that starts with prefix.
func (r *Result) Line(prefix string) (string, bool) {
	for _, line := range r.Lines() {
		if strings.HasPrefix(line, prefix) {
			return line, true
		}
	}
	return "", false
}

// Params returns the parameters of the first information line starting with prefix
// ("+CSQ:" on "+CSQ: 20,0" gives "20,0").
func (r *Result) Params(prefix string) (string, bool) {
	line, ok := r.Line(prefix)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
}

// CMEName describes a +CME ERROR sub-code.
func CMEName(code int) string {
	if name, ok := cmeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("unknown equipment error %d", code)
}

// CMSName describes a +CMS ERROR sub-code.
func CMSName(code int) string {
	if name, ok := cmsNames[code]; ok {
		return name
	}
	return fmt.Sprintf("unknown network error %d", code)
}

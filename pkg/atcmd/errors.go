package atcmd

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned before any wire activity for an unknown command or a missing result.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotAllowed is returned when the engine is not running, and for +CMS ERROR outcomes.
	ErrNotAllowed = errors.New("operation not allowed")
	// ErrFailure maps a plain ERROR result.
	ErrFailure = errors.New("command failed")
	// ErrInvalidState maps a +CME ERROR result.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidSize maps a response that exceeded the parser buffer.
	ErrInvalidSize = errors.New("response too large")
	// ErrInvalidResponse is returned when no terminal line was recognised.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrTimeout is returned when the modem did not answer within the effective timeout.
	ErrTimeout = errors.New("command timed out")
)

// CommandError reports a command that did not complete with OK.
type CommandError struct {
	Command Command
	Outcome Outcome
	Code    int
	Err     error
}

func (e *CommandError) Error() string {
	switch e.Outcome {
	case OutcomeCMEError:
		return fmt.Sprintf("%s: %s %d (%s)", e.Command, e.Outcome, e.Code, CMEName(e.Code))
	case OutcomeCMSError:
		return fmt.Sprintf("%s: %s %d (%s)", e.Command, e.Outcome, e.Code, CMSName(e.Code))
	default:
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// outcomeError maps the outcome of a finished command to its error, nil for OK.
func outcomeError(cmd Command, res *Result) error {
	var err error
	switch res.Outcome {
	case OutcomeOK:
		return nil
	case OutcomeError:
		err = ErrFailure
	case OutcomeCMEError:
		err = ErrInvalidState
	case OutcomeCMSError:
		err = ErrNotAllowed
	case OutcomeOverflow:
		err = ErrInvalidSize
	case OutcomeTimeout:
		err = ErrTimeout
	default:
		err = ErrInvalidResponse
	}
	return &CommandError{Command: cmd, Outcome: res.Outcome, Code: res.Code, Err: err}
}

package modem

import "errors"

var (
	// ErrInvalidConfig is returned by New when the configuration cannot be used.
	ErrInvalidConfig = errors.New("invalid modem configuration")

	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotRunning is returned by operations attempted before Start or after Stop.
	//
	// Services holding a handle to a stopped modem get this error instead of
	// touching the transport.
	ErrNotRunning = errors.New("modem not running")

	// ErrAlreadyRunning is returned when Start is called twice.
	ErrAlreadyRunning = errors.New("modem already running")

	// ErrNotResponding is returned when the modem does not answer the AT probe.
	ErrNotResponding = errors.New("modem not responding")

	// ErrSIMNotReady is returned when the SIM reports anything but READY.
	ErrSIMNotReady = errors.New("SIM not ready")

	// ErrNoNetworkAPN is returned by the context step when the network offers no access point name.
	ErrNoNetworkAPN = errors.New("network did not provide an APN")

	// ErrUnexpectedState is returned when a status query answers with a state
	// that the bring-up sequence cannot continue from.
	ErrUnexpectedState = errors.New("unexpected connection state")

	// ErrNoLocalAddress is returned when the transport step cannot read a local IP address.
	ErrNoLocalAddress = errors.New("no local IP address")

	// ErrBearerNotConnected is returned when the bearer is still down after being opened.
	ErrBearerNotConnected = errors.New("bearer not connected")

	// ErrAppNetworkInactive is returned when the application network could not be activated.
	ErrAppNetworkInactive = errors.New("application network not active")

	// ErrMalformedResponse is returned when a response does not follow the expected grammar.
	ErrMalformedResponse = errors.New("malformed response")
)

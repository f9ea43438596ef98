package modem

import (
	"strings"

	"github.com/benmeehan/telematics-agent/pkg/atcmd"
)

// Registration is the packet domain registration state reported by AT+CGREG?.
type Registration int

const (
	RegistrationUnknown Registration = iota
	RegistrationNotRegistered
	RegistrationRegistered
	RegistrationSearching
	RegistrationDenied
	RegistrationRoaming
)

// ParseRegistration maps the <stat> field of +CGREG.
func ParseRegistration(stat int) Registration {
	switch stat {
	case 0:
		return RegistrationNotRegistered
	case 1:
		return RegistrationRegistered
	case 2:
		return RegistrationSearching
	case 3:
		return RegistrationDenied
	case 5:
		return RegistrationRoaming
	default:
		return RegistrationUnknown
	}
}

func (r Registration) String() string {
	switch r {
	case RegistrationNotRegistered:
		return "not registered"
	case RegistrationRegistered:
		return "registered"
	case RegistrationSearching:
		return "searching"
	case RegistrationDenied:
		return "denied"
	case RegistrationRoaming:
		return "roaming"
	default:
		return "unknown"
	}
}

// Attached reports whether the device can use packet data.
func (r Registration) Attached() bool {
	return r == RegistrationRegistered || r == RegistrationRoaming
}

// ConnectionState is the TCP/IP application state reported after AT+CIPSTATUS.
type ConnectionState int

const (
	ConnectionUnknown ConnectionState = iota
	ConnectionInitial
	ConnectionStart
	ConnectionConfig
	ConnectionGPRSActive
	ConnectionIPStatus
	ConnectionConnecting
	ConnectionConnected
	ConnectionClosing
	ConnectionClosed
	ConnectionDeactivated
)

var connectionStates = map[string]ConnectionState{
	"IP INITIAL":       ConnectionInitial,
	"IP START":         ConnectionStart,
	"IP CONFIG":        ConnectionConfig,
	"IP GPRSACT":       ConnectionGPRSActive,
	"IP STATUS":        ConnectionIPStatus,
	"TCP CONNECTING":   ConnectionConnecting,
	"UDP CONNECTING":   ConnectionConnecting,
	"SERVER LISTENING": ConnectionConnecting,
	"CONNECT OK":       ConnectionConnected,
	"TCP CLOSING":      ConnectionClosing,
	"UDP CLOSING":      ConnectionClosing,
	"TCP CLOSED":       ConnectionClosed,
	"UDP CLOSED":       ConnectionClosed,
	"PDP DEACT":        ConnectionDeactivated,
}

// ParseConnectionState maps a "STATE: <text>" line, or the bare text, to a ConnectionState.
func ParseConnectionState(s string) ConnectionState {
	s = atcmd.Trim(strings.TrimPrefix(atcmd.Trim(s), "STATE:"))
	if st, ok := connectionStates[s]; ok {
		return st
	}
	return ConnectionUnknown
}

func (c ConnectionState) String() string {
	switch c {
	case ConnectionInitial:
		return "IP INITIAL"
	case ConnectionStart:
		return "IP START"
	case ConnectionConfig:
		return "IP CONFIG"
	case ConnectionGPRSActive:
		return "IP GPRSACT"
	case ConnectionIPStatus:
		return "IP STATUS"
	case ConnectionConnecting:
		return "CONNECTING"
	case ConnectionConnected:
		return "CONNECT OK"
	case ConnectionClosing:
		return "CLOSING"
	case ConnectionClosed:
		return "CLOSED"
	case ConnectionDeactivated:
		return "PDP DEACT"
	default:
		return "UNKNOWN"
	}
}

// linkUp reports whether the wireless link is up and an address has been assigned.
func (c ConnectionState) linkUp() bool {
	switch c {
	case ConnectionGPRSActive, ConnectionIPStatus, ConnectionConnecting, ConnectionConnected,
		ConnectionClosing, ConnectionClosed:
		return true
	}
	return false
}

// BearerStatus is the state of an IP application bearer reported by AT+SAPBR=2.
type BearerStatus int

const (
	BearerUnknown BearerStatus = iota
	BearerConnecting
	BearerConnected
	BearerClosing
	BearerClosed
)

// ParseBearerStatus maps the <status> field of +SAPBR.
func ParseBearerStatus(status int) BearerStatus {
	switch status {
	case 0:
		return BearerConnecting
	case 1:
		return BearerConnected
	case 2:
		return BearerClosing
	case 3:
		return BearerClosed
	default:
		return BearerUnknown
	}
}

func (b BearerStatus) String() string {
	switch b {
	case BearerConnecting:
		return "connecting"
	case BearerConnected:
		return "connected"
	case BearerClosing:
		return "closing"
	case BearerClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AppNetworkState is the application network state reported by AT+CNACT?.
type AppNetworkState int

const (
	AppNetworkUnknown AppNetworkState = iota
	AppNetworkInactive
	AppNetworkActive
	AppNetworkInOperation
)

// ParseAppNetworkState maps the <status> field of +CNACT.
func ParseAppNetworkState(status int) AppNetworkState {
	switch status {
	case 0:
		return AppNetworkInactive
	case 1:
		return AppNetworkActive
	case 2:
		return AppNetworkInOperation
	default:
		return AppNetworkUnknown
	}
}

func (a AppNetworkState) String() string {
	switch a {
	case AppNetworkInactive:
		return "inactive"
	case AppNetworkActive:
		return "active"
	case AppNetworkInOperation:
		return "in operation"
	default:
		return "unknown"
	}
}

// SIMStatus is the SIM state reported by AT+CPIN? and the +CPIN URC.
type SIMStatus int

const (
	SIMUnknown SIMStatus = iota
	SIMReady
	SIMPIN
	SIMPUK
	SIMPhonePIN
	SIMNotInserted
	SIMNotReady
)

// ParseSIMStatus maps a "+CPIN: <code>" line, or the bare code, to a SIMStatus.
func ParseSIMStatus(s string) SIMStatus {
	switch atcmd.Trim(atcmd.AfterColon(atcmd.Trim(s))) {
	case "READY":
		return SIMReady
	case "SIM PIN":
		return SIMPIN
	case "SIM PUK":
		return SIMPUK
	case "PH_SIM PIN":
		return SIMPhonePIN
	case "NOT INSERTED":
		return SIMNotInserted
	case "NOT READY":
		return SIMNotReady
	default:
		return SIMUnknown
	}
}

func (s SIMStatus) String() string {
	switch s {
	case SIMReady:
		return "READY"
	case SIMPIN:
		return "SIM PIN"
	case SIMPUK:
		return "SIM PUK"
	case SIMPhonePIN:
		return "PH_SIM PIN"
	case SIMNotInserted:
		return "NOT INSERTED"
	case SIMNotReady:
		return "NOT READY"
	default:
		return "UNKNOWN"
	}
}

// SignalCategory is a coarse rating of the received signal strength.
type SignalCategory int

const (
	SignalUnknown SignalCategory = iota
	SignalNone
	SignalMarginal
	SignalOK
	SignalGood
	SignalExcellent
)

func (c SignalCategory) String() string {
	switch c {
	case SignalNone:
		return "none"
	case SignalMarginal:
		return "marginal"
	case SignalOK:
		return "ok"
	case SignalGood:
		return "good"
	case SignalExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// SignalQuality is the decoded answer of AT+CSQ.
type SignalQuality struct {
	RSSI     int
	BER      int
	DBm      int
	Category SignalCategory
}

// NewSignalQuality decodes the raw rssi and ber fields of +CSQ.
func NewSignalQuality(rssi, ber int) SignalQuality {
	q := SignalQuality{RSSI: rssi, BER: ber}
	switch {
	case rssi == 99 || rssi < 0 || rssi > 31:
		q.Category = SignalUnknown
		return q
	case rssi < 2:
		q.Category = SignalNone
	case rssi < 10:
		q.Category = SignalMarginal
	case rssi < 15:
		q.Category = SignalOK
	case rssi < 20:
		q.Category = SignalGood
	default:
		q.Category = SignalExcellent
	}
	q.DBm = -113 + 2*rssi
	return q
}

// AccessTechnology is the radio access technology reported by AT+COPS?.
type AccessTechnology int

const (
	AccessUnknown AccessTechnology = iota
	AccessGSM
	AccessGSMCompact
	AccessEGPRS
	AccessLTEM1
	AccessNBIoT
)

// ParseAccessTechnology maps the <AcT> field of +COPS.
func ParseAccessTechnology(act int) AccessTechnology {
	switch act {
	case 0:
		return AccessGSM
	case 1:
		return AccessGSMCompact
	case 3:
		return AccessEGPRS
	case 7:
		return AccessLTEM1
	case 9:
		return AccessNBIoT
	default:
		return AccessUnknown
	}
}

func (a AccessTechnology) String() string {
	switch a {
	case AccessGSM:
		return "GSM"
	case AccessGSMCompact:
		return "GSM compact"
	case AccessEGPRS:
		return "EGPRS"
	case AccessLTEM1:
		return "LTE Cat-M1"
	case AccessNBIoT:
		return "NB-IoT"
	default:
		return "unknown"
	}
}

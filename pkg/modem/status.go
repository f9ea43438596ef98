package modem

import "strings"

// Status is the set of persistent flags the orchestrator keeps about the modem.
type Status uint32

const (
	StatusEchoDisabled Status = 1 << iota
	// StatusGPRS is set while the PDP context is active.
	StatusGPRS
	// StatusTCP is set once the TCP/IP task has been started (AT+CSTT).
	StatusTCP
	// StatusIPActive is set once the modem reported a local address.
	StatusIPActive
	// StatusAppNetwork is set while the application network (AT+CNACT) is active.
	StatusAppNetwork
	StatusGNSSOn
	StatusGNSSURC
	StatusMQTTEnabled
)

// networkStatus groups the flags that depend on the packet data path.
const networkStatus = StatusGPRS | StatusTCP | StatusIPActive | StatusAppNetwork

var statusNames = []struct {
	flag Status
	name string
}{
	{StatusEchoDisabled, "echo_disabled"},
	{StatusGPRS, "gprs"},
	{StatusTCP, "tcp"},
	{StatusIPActive, "ip_active"},
	{StatusAppNetwork, "app_network"},
	{StatusGNSSOn, "gnss_on"},
	{StatusGNSSURC, "gnss_urc"},
	{StatusMQTTEnabled, "mqtt_enabled"},
}

// Has reports whether every flag in f is set.
func (s Status) Has(f Status) bool {
	return s&f == f
}

func (s Status) String() string {
	var names []string
	for _, n := range statusNames {
		if s.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Status returns a snapshot of the status flags.
func (m *Modem) Status() Status {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	return m.status
}

// SetStatus sets or clears the flags in f.
func (m *Modem) SetStatus(f Status, on bool) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	if on {
		m.status |= f
	} else {
		m.status &^= f
	}
}

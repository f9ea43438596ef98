package modem

import (
	"fmt"
	"strings"
	"time"

	"github.com/benmeehan/telematics-agent/pkg/atcmd"
)

// statePrefix starts the connection state line the modem prints after the OK of AT+CIPSTATUS.
const statePrefix = "STATE:"

// nmeaPrefix starts the GNSS sentences streamed after AT+CGNSTST=1.
const nmeaPrefix = "$G"

type urcSignature struct {
	prefix string
	kind   EventKind
	decode func(params string, ev *Event) error
}

var urcSignatures = []urcSignature{
	{"*PSUTTZ:", EventDateTime, decodeDateTime},
	{"+CTZV:", EventTimeZone, decodeTimeZone},
	{"DST:", EventDaylightSaving, decodeDaylightSaving},
	{"+PDP: DEACT", EventPDPDeactivated, nil},
	{"+APP PDP:", EventAppNetwork, decodeAppNetwork},
	{"+CFUN:", EventFunctionality, decodeFunctionality},
	{"+CPIN:", EventSIMStatus, decodeSIMStatus},
	{"+SMSUB:", EventMessage, decodeMessage},
	{"+UGNSINF:", EventNavigation, decodeNavigation},
	{"+SMSTATE:", EventMQTTState, decodeMQTTState},
}

// ignoredURCs are recognized notifications that carry nothing the agent acts on.
var ignoredURCs = []string{
	"RDY",
	"SMS Ready",
	"Call Ready",
	"+CGREG:",
	"+CREG:",
	"+CEREG:",
	"+CGEV:",
	"NORMAL POWER DOWN",
}

// isURC reports whether line is an unsolicited notification.
func isURC(line string) bool {
	if strings.HasPrefix(line, statePrefix) || strings.HasPrefix(line, nmeaPrefix) {
		return true
	}
	for _, sig := range urcSignatures {
		if strings.HasPrefix(line, sig.prefix) {
			return true
		}
	}
	for _, prefix := range ignoredURCs {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// dispatch runs on the receive goroutine for every notification line.
func (m *Modem) dispatch(line string) {
	if strings.HasPrefix(line, statePrefix) {
		m.pushConnectionState(ParseConnectionState(line))
		return
	}

	if strings.HasPrefix(line, nmeaPrefix) {
		nav, ok := ParseNMEA(line)
		if !ok {
			return
		}
		m.publish(Event{Kind: EventNavigation, Navigation: nav})
		return
	}

	for _, sig := range urcSignatures {
		if !strings.HasPrefix(line, sig.prefix) {
			continue
		}
		ev := Event{Kind: sig.kind}
		if sig.decode != nil {
			if err := sig.decode(atcmd.AfterColon(line), &ev); err != nil {
				m.logger.Warn().Err(err).Str("urc", line).Msg("Failed to decode notification")
				return
			}
		}
		m.publish(ev)
		return
	}

	m.logger.Debug().Str("urc", line).Msg("Ignoring notification")
}

// publish applies the status side effects of ev and hands it to the bus.
func (m *Modem) publish(ev Event) {
	switch ev.Kind {
	case EventPDPDeactivated:
		m.SetStatus(networkStatus|StatusMQTTEnabled, false)
		m.logger.Warn().Msg("PDP context deactivated by the network")
	case EventAppNetwork:
		m.SetStatus(StatusAppNetwork, ev.Active)
		if !ev.Active {
			m.SetStatus(StatusMQTTEnabled, false)
		}
	case EventFunctionality:
		if ev.Functionality != 1 {
			m.SetStatus(networkStatus|StatusMQTTEnabled, false)
		}
	case EventMQTTState:
		m.SetStatus(StatusMQTTEnabled, ev.Active)
	}
	m.events.Publish(ev)
}

func (m *Modem) pushConnectionState(st ConnectionState) {
	select {
	case m.stateCh <- st:
	default:
		m.logger.Debug().Str("state", st.String()).Msg("Dropping unrequested connection state")
	}
}

// decodeDateTime parses `2025,6,27,22,23,25,"-24",0` (UTC date and time, zone, dst).
func decodeDateTime(params string, ev *Event) error {
	f := atcmd.SplitQuoted(params)
	if len(f) < 6 {
		return fmt.Errorf("%w: date time %q", ErrMalformedResponse, params)
	}
	year := atcmd.ToInt[int](f[0])
	if year < 100 {
		year += 2000
	}
	ev.Clock = time.Date(year, time.Month(atcmd.ToInt[int](f[1])), atcmd.ToInt[int](f[2]),
		atcmd.ToInt[int](f[3]), atcmd.ToInt[int](f[4]), atcmd.ToInt[int](f[5]), 0, time.UTC)
	if len(f) > 6 {
		ev.TimeZone = atcmd.ToInt[int](f[6])
	}
	if len(f) > 7 {
		ev.DST = atcmd.ToInt[int](f[7])
	}
	return nil
}

func decodeTimeZone(params string, ev *Event) error {
	tz, ok := atcmd.ExtractToken(params, 0, ",", true)
	if !ok || atcmd.Trim(tz) == "" {
		return fmt.Errorf("%w: time zone %q", ErrMalformedResponse, params)
	}
	ev.TimeZone = atcmd.ToInt[int](atcmd.Trim(tz))
	return nil
}

func decodeDaylightSaving(params string, ev *Event) error {
	ev.DST = atcmd.ToInt[int](params)
	return nil
}

func decodeAppNetwork(params string, ev *Event) error {
	ev.Active = !strings.Contains(params, "DEACTIVE") && strings.Contains(params, "ACTIVE")
	return nil
}

func decodeFunctionality(params string, ev *Event) error {
	ev.Functionality = atcmd.ToInt[int](params)
	return nil
}

func decodeSIMStatus(params string, ev *Event) error {
	ev.SIM = ParseSIMStatus(params)
	return nil
}

// decodeMessage parses `"topic","payload"`. The payload is taken verbatim up to its closing quote.
func decodeMessage(params string, ev *Event) error {
	if !strings.HasPrefix(params, `"`) {
		return fmt.Errorf("%w: message %q", ErrMalformedResponse, params)
	}
	topic, rest, found := strings.Cut(params[1:], `",`)
	if !found || topic == "" {
		return fmt.Errorf("%w: message %q", ErrMalformedResponse, params)
	}
	payload := strings.TrimSuffix(strings.TrimPrefix(rest, `"`), `"`)
	ev.Message = Message{
		Topic:   topic,
		Payload: []byte(payload),
	}
	return nil
}

func decodeNavigation(params string, ev *Event) error {
	nav, err := ParseNavInfo(params)
	if err != nil {
		return err
	}
	ev.Navigation = nav
	return nil
}

func decodeMQTTState(params string, ev *Event) error {
	ev.Active = atcmd.ToInt[int](params) == 1
	return nil
}

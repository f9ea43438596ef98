package modem

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telematics-agent/pkg/modem/modemtest"
)

func TestModem_Dispatch_NavigationReport(t *testing.T) {
	// Setup
	tr := modemtest.NewTransport()
	_, events := subscribedModem(t, testConfig(), tr)
	nextEvent(t, events, EventStarted)

	// Execute
	tr.Inject("\r\n" + navLine + "\r\n")

	// Assert
	ev := nextEvent(t, events, EventNavigation)
	assert.True(t, ev.Navigation.Running)
	assert.True(t, ev.Navigation.Fixed)
	assert.InDelta(t, 19.432608, ev.Navigation.Latitude, 1e-9)
	assert.InDelta(t, -99.133209, ev.Navigation.Longitude, 1e-9)
	assert.Equal(t, time.Date(2025, 6, 27, 22, 23, 25, 0, time.UTC), ev.Navigation.Time)
	assert.Equal(t, 7, ev.Navigation.SatellitesUsed)

	select {
	case extra := <-events:
		t.Fatalf("unexpected second event %s", extra.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestModem_Dispatch_NavigationReportDuringCommand(t *testing.T) {
	tr := modemtest.NewTransport().
		On("AT+CSQ", "\r\n"+navLine+"\r\n\r\n+CSQ: 18,99\r\n\r\nOK\r\n")
	m := newTestModem(t, testConfig(), tr)
	events := m.Subscribe("test", 4)

	q, err := m.SignalQuality(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 18, q.RSSI)
	ev := nextEvent(t, events, EventNavigation)
	assert.InDelta(t, 19.432608, ev.Navigation.Latitude, 1e-9)
}

func TestModem_Dispatch_NMEA(t *testing.T) {
	tr := modemtest.NewTransport()
	m := newTestModem(t, testConfig(), tr)
	events := m.Subscribe("test", 4)

	tr.Inject("$GPRMC,222325.000,A,1925.9565,N,09907.9925,W,10.00,45.0,270625,,,A*4E\r\n")
	ev := nextEvent(t, events, EventNavigation)
	assert.True(t, ev.Navigation.Fixed)
	assert.InDelta(t, 19.432608, ev.Navigation.Latitude, 1e-5)
	assert.InDelta(t, -99.133208, ev.Navigation.Longitude, 1e-5)
	assert.InDelta(t, 18.52, ev.Navigation.Speed, 1e-9)
	assert.Equal(t, time.Date(2025, 6, 27, 22, 23, 25, 0, time.UTC), ev.Navigation.Time)

	tr.Inject("$GNGGA,222325.000,1925.9565,N,09907.9925,W,1,7,1.1,2240.1,M,-7.0,M,,*4E\r\n")
	ev = nextEvent(t, events, EventNavigation)
	assert.InDelta(t, 2240.1, ev.Navigation.Altitude, 1e-9)
	assert.Equal(t, 7, ev.Navigation.SatellitesUsed)
}

func TestModem_Dispatch_StatusSideEffects(t *testing.T) {
	// Setup
	tr := modemtest.NewTransport()
	m := newTestModem(t, testConfig(), tr)
	events := m.Subscribe("test", 8)
	m.SetStatus(networkStatus|StatusMQTTEnabled|StatusGNSSOn, true)

	// Execute
	tr.Inject("\r\n+APP PDP: DEACTIVE\r\n")
	ev := nextEvent(t, events, EventAppNetwork)

	// Assert
	assert.False(t, ev.Active)
	assert.False(t, m.Status().Has(StatusAppNetwork))
	assert.False(t, m.Status().Has(StatusMQTTEnabled))
	assert.True(t, m.Status().Has(StatusGPRS))

	tr.Inject("\r\n+PDP: DEACT\r\n")
	nextEvent(t, events, EventPDPDeactivated)
	assert.Equal(t, StatusGNSSOn, m.Status())

	tr.Inject("\r\n+APP PDP: ACTIVE\r\n")
	ev = nextEvent(t, events, EventAppNetwork)
	assert.True(t, ev.Active)
	assert.True(t, m.Status().Has(StatusAppNetwork))
}

func TestModem_Dispatch_Events(t *testing.T) {
	tr := modemtest.NewTransport()
	m := newTestModem(t, testConfig(), tr)
	events := m.Subscribe("test", 16)

	tr.Inject("\r\n*PSUTTZ: 2025,6,27,22,23,25,\"-24\",1\r\n")
	ev := nextEvent(t, events, EventDateTime)
	assert.Equal(t, time.Date(2025, 6, 27, 22, 23, 25, 0, time.UTC), ev.Clock)
	assert.Equal(t, -24, ev.TimeZone)
	assert.Equal(t, 1, ev.DST)

	tr.Inject("\r\n+CTZV: -24\r\n")
	assert.Equal(t, -24, nextEvent(t, events, EventTimeZone).TimeZone)

	tr.Inject("\r\nDST: 1\r\n")
	assert.Equal(t, 1, nextEvent(t, events, EventDaylightSaving).DST)

	tr.Inject("\r\n+CFUN: 1\r\n")
	assert.Equal(t, 1, nextEvent(t, events, EventFunctionality).Functionality)

	tr.Inject("\r\n+CPIN: NOT READY\r\n")
	assert.Equal(t, SIMNotReady, nextEvent(t, events, EventSIMStatus).SIM)

	tr.Inject("\r\n+SMSUB: \"cmd/ping\",\"{\"id\":\"42\",\"cmd\":\"ping\"}\"\r\n")
	msg := nextEvent(t, events, EventMessage).Message
	assert.Equal(t, "cmd/ping", msg.Topic)
	assert.Equal(t, `{"id":"42","cmd":"ping"}`, string(msg.Payload))

	m.SetStatus(StatusMQTTEnabled, true)
	tr.Inject("\r\n+SMSTATE: 0\r\n")
	assert.False(t, nextEvent(t, events, EventMQTTState).Active)
	assert.False(t, m.Status().Has(StatusMQTTEnabled))
}

func TestModem_Dispatch_IgnoredNotifications(t *testing.T) {
	tr := modemtest.NewTransport()
	_, events := subscribedModem(t, testConfig(), tr)
	nextEvent(t, events, EventStarted)

	tr.Inject("\r\nRDY\r\n\r\n+CGREG: 1\r\n\r\nSMS Ready\r\n\r\n+UNKNOWN: 1\r\n")

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %s", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestIsURC(t *testing.T) {
	assert.True(t, isURC("+UGNSINF: 1,1"))
	assert.True(t, isURC("STATE: IP INITIAL"))
	assert.True(t, isURC("$GNRMC,222325.000,A"))
	assert.True(t, isURC("Call Ready"))
	assert.False(t, isURC("+CSQ: 20,0"))
	assert.False(t, isURC("OK"))
	assert.False(t, isURC("869951031234567"))
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus(zerolog.Nop())
	ch := b.Subscribe("a", 1)
	assert.Equal(t, ch, b.Subscribe("a", 5))
	assert.Equal(t, 1, b.Len())

	b.Publish(Event{Kind: EventStarted})
	b.Publish(Event{Kind: EventStopped})
	ev := <-ch
	assert.Equal(t, EventStarted, ev.Kind)
	assert.False(t, ev.Time.IsZero())

	b.Unsubscribe("a")
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Len())
	b.Publish(Event{Kind: EventStarted})
}

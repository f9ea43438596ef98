package modem

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telematics-agent/pkg/atcmd"
	"github.com/benmeehan/telematics-agent/pkg/modem/modemtest"
)

const (
	testAPN = "internet.itelcel.com"
	navLine = "+UGNSINF: 1,1,20250627222325.000,19.432608,-99.133209,2240.1,0.00,0.0,1,,1.1,1.4,0.9,,11,7,,,38,,"
)

func testConfig() Config {
	return Config{
		APN:            APNConfig{Name: testAPN},
		InitRetries:    2,
		InitRetryDelay: 10 * time.Millisecond,
		StateTimeout:   200 * time.Millisecond,
	}
}

func newTestModem(t *testing.T, cfg Config, tr *modemtest.Transport) *Modem {
	t.Helper()
	m, err := New(cfg, tr, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop() })
	return m
}

// subscribedModem starts a modem whose events are subscribed before Start, so the started
// event is observed.
func subscribedModem(t *testing.T, cfg Config, tr *modemtest.Transport) (*Modem, <-chan Event) {
	t.Helper()
	m, err := New(cfg, tr, zerolog.Nop())
	require.NoError(t, err)
	events := m.Subscribe("test", 4)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop() })
	return m, events
}

func nextEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event received", kind)
			return Event{}
		}
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(testConfig(), nil, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoDialer)

	cfg := testConfig()
	cfg.APN.Name = ""
	_, err = New(cfg, modemtest.NewTransport(), zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testConfig()
	cfg.APN.CID = 30
	_, err = New(cfg, modemtest.NewTransport(), zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	m, err := New(testConfig(), modemtest.NewTransport(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 115200, m.Config().BaudRate)
	assert.Equal(t, 1, m.Config().APN.CID)
}

func TestModem_StartStop(t *testing.T) {
	// Setup
	tr := modemtest.NewTransport()
	m, err := New(testConfig(), tr, zerolog.Nop())
	require.NoError(t, err)
	events := m.Subscribe("test", 4)

	// Execute
	require.NoError(t, m.Start(context.Background()))
	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyRunning)
	assert.True(t, m.Alive())
	nextEvent(t, events, EventStarted)

	require.NoError(t, m.Stop())

	// Assert
	assert.False(t, m.Alive())
	nextEvent(t, events, EventStopped)
	assert.ErrorIs(t, m.Stop(), ErrNotRunning)
	err = m.Execute(context.Background(), atcmd.Request{Command: atcmd.AT}, atcmd.NewResult())
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Empty(t, tr.Written())
}

func TestModem_Initialize(t *testing.T) {
	// Setup
	tr := modemtest.NewTransport().
		On("AT", modemtest.OK()).
		On("ATE0", modemtest.OK()).
		On("AT+CMEE=1", modemtest.OK()).
		On("AT+CLTS=1", modemtest.OK()).
		On("AT+CPIN?", modemtest.OK("+CPIN: READY"))
	m := newTestModem(t, testConfig(), tr)

	// Execute
	err := m.Initialize(context.Background())

	// Assert
	require.NoError(t, err)
	assert.True(t, m.Status().Has(StatusEchoDisabled))
	assert.Equal(t, []string{"AT", "ATE0", "AT+CMEE=1", "AT+CLTS=1", "AT+CPIN?"}, tr.Written())

	tr.Reset()
	require.NoError(t, m.Initialize(context.Background()))
	assert.NotContains(t, tr.Written(), "ATE0")
}

func TestModem_Initialize_SIMNotReady(t *testing.T) {
	tr := modemtest.NewTransport().On("AT+CPIN?", modemtest.OK("+CPIN: SIM PIN"))
	tr.Fallback = modemtest.OK()
	m := newTestModem(t, testConfig(), tr)

	err := m.Initialize(context.Background())

	assert.ErrorIs(t, err, ErrSIMNotReady)
}

func TestModem_Initialize_NotResponding(t *testing.T) {
	tr := modemtest.NewTransport()
	m := newTestModem(t, testConfig(), tr)

	err := m.Initialize(context.Background())

	assert.ErrorIs(t, err, ErrNotResponding)
	assert.Equal(t, []string{"AT", "AT"}, tr.Written())
}

func TestModem_Identify(t *testing.T) {
	tr := modemtest.NewTransport().
		On("AT+CGMI", modemtest.OK("SIMCOM INC.")).
		On("AT+CGMM", modemtest.OK("SIMCOM_SIM7000G")).
		On("AT+CGMR", modemtest.OK("Revision:1351B05SIM7000G")).
		On("AT+CGSN", modemtest.OK("869951031234567")).
		On("AT+CCID", modemtest.OK("8952020521234567890F")).
		On("AT+CIMI", modemtest.OK("334020512345678"))
	m := newTestModem(t, testConfig(), tr)

	id, err := m.Identify(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Identification{
		Manufacturer: "SIMCOM INC.",
		Model:        "SIMCOM_SIM7000G",
		Revision:     "1351B05SIM7000G",
		IMEI:         "869951031234567",
		ICCID:        "8952020521234567890F",
		IMSI:         "334020512345678",
	}, id)
}

func TestModem_DeviceQueries(t *testing.T) {
	tr := modemtest.NewTransport().
		On("AT+CSQ", modemtest.OK("+CSQ: 20,0")).
		On("AT+COPS?", modemtest.OK(`+COPS: 0,0,"TELCEL",7`)).
		On("AT+CGREG?", modemtest.OK("+CGREG: 0,5")).
		On("AT+CFUN?", modemtest.OK("+CFUN: 1")).
		On("AT+CCLK?", modemtest.OK(`+CCLK: "25/06/27,22:23:25-24"`)).
		On("AT+CPSI?", modemtest.OK("+CPSI: LTE CAT-M1,Online,334-020,0x2C1D,13457168,282,EUTRAN-BAND2,900,3,3,-10,-95,-65,15"))
	m := newTestModem(t, testConfig(), tr)
	ctx := context.Background()

	q, err := m.SignalQuality(ctx)
	require.NoError(t, err)
	assert.Equal(t, SignalQuality{RSSI: 20, BER: 0, DBm: -73, Category: SignalExcellent}, q)

	op, err := m.Operator(ctx)
	require.NoError(t, err)
	assert.Equal(t, Operator{Mode: 0, Name: "TELCEL", Technology: AccessLTEM1}, op)

	reg, err := m.RegistrationStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, RegistrationRoaming, reg)
	assert.True(t, reg.Attached())

	fun, err := m.Functionality(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fun)

	clock, err := m.Clock(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 28, 4, 23, 25, 0, time.UTC), clock.UTC())

	cell, err := m.ServingCell(ctx)
	require.NoError(t, err)
	assert.Equal(t, ServingCell{System: "LTE CAT-M1", Online: true, MCC: 334, MNC: 20, AreaCode: 0x2C1D, CellID: 13457168}, cell)
}

func TestModem_PowerDown(t *testing.T) {
	tr := modemtest.NewTransport()
	m := newTestModem(t, testConfig(), tr)
	m.SetStatus(StatusGPRS|StatusEchoDisabled, true)

	require.NoError(t, m.PowerDown(context.Background()))

	assert.Equal(t, []string{"AT+CPOWD=1"}, tr.Written())
	assert.Equal(t, Status(0), m.Status())
}

func TestModem_SetFunctionality_ClearsNetworkStatus(t *testing.T) {
	tr := modemtest.NewTransport().On("AT+CFUN=4", modemtest.OK())
	m := newTestModem(t, testConfig(), tr)
	m.SetStatus(StatusGPRS|StatusIPActive|StatusGNSSOn, true)

	require.NoError(t, m.SetFunctionality(context.Background(), 4))

	assert.Equal(t, StatusGNSSOn, m.Status())
}

func TestModem_Transaction(t *testing.T) {
	tr := modemtest.NewTransport()
	tr.Fallback = modemtest.OK()
	m := newTestModem(t, testConfig(), tr)

	err := m.Transaction(context.Background(), func(tx *Tx) error {
		res := atcmd.NewResult()
		if err := tx.Execute(context.Background(), atcmd.Request{Command: atcmd.CGNSPWR, Params: "=1"}, res); err != nil {
			return err
		}
		tx.SetStatus(StatusGNSSOn, true)
		return tx.Execute(context.Background(), atcmd.Request{Command: atcmd.CGNSURC, Params: "=1"}, res)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"AT+CGNSPWR=1", "AT+CGNSURC=1"}, tr.Written())
	assert.True(t, m.Status().Has(StatusGNSSOn))
}

func TestModem_TransportLost(t *testing.T) {
	// Setup
	tr := modemtest.NewTransport().On("AT+CSQ", modemtest.OK("+CSQ: 18,99"))
	m, events := subscribedModem(t, testConfig(), tr)
	nextEvent(t, events, EventStarted)
	m.SetStatus(StatusGPRS, true)

	// Execute
	require.NoError(t, tr.Close())

	// Assert
	nextEvent(t, events, EventStopped)
	assert.False(t, m.Alive())
	assert.Equal(t, Status(0), m.Status())
	_, err := m.SignalQuality(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.ErrorIs(t, m.Stop(), ErrNotRunning)
}

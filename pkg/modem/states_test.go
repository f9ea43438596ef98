package modem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSignalQuality(t *testing.T) {
	tests := []struct {
		rssi     int
		dbm      int
		category SignalCategory
	}{
		{0, -113, SignalNone},
		{1, -111, SignalNone},
		{2, -109, SignalMarginal},
		{9, -95, SignalMarginal},
		{10, -93, SignalOK},
		{15, -83, SignalGood},
		{20, -73, SignalExcellent},
		{31, -51, SignalExcellent},
		{99, 0, SignalUnknown},
		{45, 0, SignalUnknown},
	}

	for _, tt := range tests {
		q := NewSignalQuality(tt.rssi, 0)
		assert.Equal(t, tt.dbm, q.DBm, "rssi %d", tt.rssi)
		assert.Equal(t, tt.category, q.Category, "rssi %d", tt.rssi)
	}
}

func TestParseConnectionState(t *testing.T) {
	assert.Equal(t, ConnectionInitial, ParseConnectionState("STATE: IP INITIAL"))
	assert.Equal(t, ConnectionGPRSActive, ParseConnectionState("IP GPRSACT"))
	assert.Equal(t, ConnectionDeactivated, ParseConnectionState("STATE: PDP DEACT\r"))
	assert.Equal(t, ConnectionUnknown, ParseConnectionState("STATE: SOMETHING ELSE"))

	assert.True(t, ConnectionIPStatus.linkUp())
	assert.True(t, ConnectionClosed.linkUp())
	assert.False(t, ConnectionStart.linkUp())
	assert.False(t, ConnectionDeactivated.linkUp())
}

func TestParseRegistration(t *testing.T) {
	assert.Equal(t, RegistrationRegistered, ParseRegistration(1))
	assert.Equal(t, RegistrationSearching, ParseRegistration(2))
	assert.Equal(t, RegistrationUnknown, ParseRegistration(4))
	assert.False(t, RegistrationDenied.Attached())
	assert.Equal(t, "roaming", RegistrationRoaming.String())
}

func TestParseSIMStatus(t *testing.T) {
	assert.Equal(t, SIMReady, ParseSIMStatus("+CPIN: READY"))
	assert.Equal(t, SIMPUK, ParseSIMStatus("SIM PUK"))
	assert.Equal(t, SIMNotInserted, ParseSIMStatus("+CPIN: NOT INSERTED"))
	assert.Equal(t, SIMUnknown, ParseSIMStatus("+CPIN: "))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "none", Status(0).String())
	assert.Equal(t, "gprs|gnss_on", (StatusGPRS | StatusGNSSOn).String())
	assert.True(t, networkStatus.Has(StatusTCP|StatusAppNetwork))
	assert.False(t, StatusGPRS.Has(StatusGPRS|StatusTCP))
}

func TestParseClock(t *testing.T) {
	clock, err := ParseClock("25/06/27,22:23:25+08")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 27, 20, 23, 25, 0, time.UTC), clock.UTC())
	_, offset := clock.Zone()
	assert.Equal(t, 2*3600, offset)

	clock, err = ParseClock("25/06/27,22:23:25")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 27, 22, 23, 25, 0, time.UTC), clock.UTC())

	_, err = ParseClock("25/06/27")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ParseClock("25/06/27,22:23:25xx")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseServingCell(t *testing.T) {
	cell, err := ParseServingCell("GSM,Online,334-020,0x1b3a,4711,52,EGSM 900,-72,0,47-47")
	require.NoError(t, err)
	assert.Equal(t, ServingCell{System: "GSM", Online: true, MCC: 334, MNC: 20, AreaCode: 0x1b3a, CellID: 4711}, cell)

	cell, err = ParseServingCell("NO SERVICE,Online")
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, "NO SERVICE,Online", cell.System)
}

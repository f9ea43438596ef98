package modem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNavInfo(t *testing.T) {
	// Execute
	info, err := ParseNavInfo(navLine)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, NavInfo{
		Running:          true,
		Fixed:            true,
		Time:             time.Date(2025, 6, 27, 22, 23, 25, 0, time.UTC),
		Latitude:         19.432608,
		Longitude:        -99.133209,
		Altitude:         2240.1,
		FixMode:          1,
		HDOP:             1.1,
		PDOP:             1.4,
		VDOP:             0.9,
		SatellitesInView: 11,
		SatellitesUsed:   7,
		CN0Max:           38,
	}, info)
}

func TestParseNavInfo_NoFix(t *testing.T) {
	info, err := ParseNavInfo("1,0,,,,,,,,,,,,,,,,,,,")

	require.NoError(t, err)
	assert.True(t, info.Running)
	assert.False(t, info.Fixed)
	assert.True(t, info.Time.IsZero())
	assert.Zero(t, info.Latitude)
}

func TestParseNavInfo_Malformed(t *testing.T) {
	_, err := ParseNavInfo("+CGNSINF: 0")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseNMEA(t *testing.T) {
	_, ok := ParseNMEA("$GPGSV,3,1,11,10,63,137,17,07,61,098,15,05,59,290,20,08,54,157,30*70")
	assert.False(t, ok)

	_, ok = ParseNMEA("$GPRMC,garbage*00")
	assert.False(t, ok)

	info, ok := ParseNMEA("$GPRMC,222325.000,A,1925.9565,N,09907.9925,W,10.00,45.0,270625,,,A*4E")
	require.True(t, ok)
	assert.InDelta(t, 45.0, info.Course, 1e-9)
}

package modem

import (
	"fmt"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"

	"github.com/benmeehan/telematics-agent/pkg/atcmd"
)

// navTimeLayout is the UTC date and time field of +CGNSINF and +UGNSINF.
const navTimeLayout = "20060102150405.000"

// knotsToKmh converts an NMEA speed over ground.
const knotsToKmh = 1.852

// NavInfo is one GNSS navigation report.
type NavInfo struct {
	Running bool
	Fixed   bool
	Time    time.Time
	// Latitude and Longitude are in decimal degrees.
	Latitude  float64
	Longitude float64
	// Altitude is the MSL altitude in meters.
	Altitude float64
	// Speed is the speed over ground in km/h.
	Speed float64
	// Course is the course over ground in degrees.
	Course  float64
	FixMode uint8
	HDOP    float64
	PDOP    float64
	VDOP    float64

	SatellitesInView int
	SatellitesUsed   int
	GLONASSUsed      int
	CN0Max           int
	// HPA and VPA are the horizontal and vertical position accuracy in meters.
	HPA float64
	VPA float64
}

// ParseNavInfo decodes the fields of a +CGNSINF response or +UGNSINF report. The information
// prefix is optional. Empty fields decode to zero values.
func ParseNavInfo(line string) (NavInfo, error) {
	params := atcmd.Trim(line)
	if strings.HasPrefix(params, "+") {
		params = atcmd.RemoveBefore(params, ": ", true)
	}
	fields := atcmd.Tokens(params, ",", true)
	if len(fields) < 2 {
		return NavInfo{}, fmt.Errorf("%w: navigation report %q", ErrMalformedResponse, line)
	}

	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	info := NavInfo{
		Running:          atcmd.ToInt[int](field(0)) == 1,
		Fixed:            atcmd.ToInt[int](field(1)) == 1,
		Latitude:         atcmd.ToFloat[float64](field(3)),
		Longitude:        atcmd.ToFloat[float64](field(4)),
		Altitude:         atcmd.ToFloat[float64](field(5)),
		Speed:            atcmd.ToFloat[float64](field(6)),
		Course:           atcmd.ToFloat[float64](field(7)),
		FixMode:          atcmd.ToInt[uint8](field(8)),
		HDOP:             atcmd.ToFloat[float64](field(10)),
		PDOP:             atcmd.ToFloat[float64](field(11)),
		VDOP:             atcmd.ToFloat[float64](field(12)),
		SatellitesInView: atcmd.ToInt[int](field(14)),
		SatellitesUsed:   atcmd.ToInt[int](field(15)),
		GLONASSUsed:      atcmd.ToInt[int](field(16)),
		CN0Max:           atcmd.ToInt[int](field(18)),
		HPA:              atcmd.ToFloat[float64](field(19)),
		VPA:              atcmd.ToFloat[float64](field(20)),
	}
	if ts := field(2); ts != "" {
		if t, err := time.Parse(navTimeLayout, ts); err == nil {
			info.Time = t
		}
	}
	return info, nil
}

// ParseNMEA decodes an RMC or GGA sentence, as streamed by AT+CGNSTST=1 or an external receiver.
func ParseNMEA(line string) (NavInfo, bool) {
	sentence, err := nmea.Parse(line)
	if err != nil {
		return NavInfo{}, false
	}

	switch s := sentence.(type) {
	case nmea.RMC:
		info := NavInfo{
			Running:   true,
			Fixed:     s.Validity == nmea.ValidRMC,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Speed:     s.Speed * knotsToKmh,
			Course:    s.Course,
		}
		if s.Date.Valid && s.Time.Valid {
			info.Time = time.Date(2000+s.Date.YY, time.Month(s.Date.MM), s.Date.DD,
				s.Time.Hour, s.Time.Minute, s.Time.Second, s.Time.Millisecond*int(time.Millisecond), time.UTC)
		}
		return info, true
	case nmea.GGA:
		return NavInfo{
			Running:        true,
			Fixed:          s.FixQuality != nmea.Invalid,
			Latitude:       s.Latitude,
			Longitude:      s.Longitude,
			Altitude:       s.Altitude,
			HDOP:           s.HDOP,
			SatellitesUsed: int(s.NumSatellites),
		}, true
	default:
		return NavInfo{}, false
	}
}

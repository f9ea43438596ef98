package location

import (
	"time"

	"github.com/benmeehan/telematics-agent/pkg/modem"
)

// Source names the provider a Location came from.
type Source string

const (
	SourceGNSS      Source = "gnss"
	SourceSensor    Source = "sensor"
	SourceCellTower Source = "cell"
)

// Location represents the geographical position of the vehicle
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	// Altitude in meters above mean sea level.
	Altitude float64 `json:"alt,omitempty"`
	// Speed over ground in km/h.
	Speed  float64 `json:"speed,omitempty"`
	Course float64 `json:"course,omitempty"`
	// Accuracy is the horizontal accuracy in meters, or the HDOP when the receiver
	// does not report one.
	Accuracy   float64   `json:"accuracy"`
	Satellites int       `json:"satellites,omitempty"`
	Time       time.Time `json:"time"`
	Source     Source    `json:"source"`
}

// FromNavInfo converts a GNSS navigation report. ok is false when the report has no fix.
func FromNavInfo(nav modem.NavInfo, source Source) (loc Location, ok bool) {
	if !nav.Fixed {
		return Location{}, false
	}
	loc = Location{
		Latitude:   nav.Latitude,
		Longitude:  nav.Longitude,
		Altitude:   nav.Altitude,
		Speed:      nav.Speed,
		Course:     nav.Course,
		Accuracy:   nav.HPA,
		Satellites: nav.SatellitesUsed,
		Time:       nav.Time,
		Source:     source,
	}
	if loc.Accuracy == 0 {
		loc.Accuracy = nav.HDOP
	}
	if loc.Time.IsZero() {
		loc.Time = time.Now().UTC()
	}
	return loc, true
}

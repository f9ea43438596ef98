package models

import (
	"time"

	"github.com/benmeehan/telematics-agent/internal/constants"
	"github.com/benmeehan/telematics-agent/pkg/location"
)

// DeviceEvent is reported by the device producers (sensors, camera, panic button).
type DeviceEvent struct {
	ID        string              `json:"id"`
	DeviceID  string              `json:"device_id,omitempty"`
	Code      constants.EventCode `json:"code"`
	Timestamp time.Time           `json:"timestamp"`
}

// PositionEvent is one position report of the vehicle.
type PositionEvent struct {
	DeviceID string `json:"device_id,omitempty"`
	location.Location
}

// PingEvent is a ping received from the backend.
type PingEvent struct {
	// PingTimestamp is the backend timestamp echoed back in the pong, in milliseconds.
	PingTimestamp uint64    `json:"ping_timestamp"`
	Timestamp     time.Time `json:"timestamp"`
}

// Pong answers a PingEvent.
type Pong struct {
	DeviceID      string    `json:"device_id"`
	PingTimestamp uint64    `json:"ping_timestamp"`
	Timestamp     time.Time `json:"timestamp"`
}

// NetworkEvent reports the cellular data link going up or down.
type NetworkEvent struct {
	Up        bool      `json:"up"`
	LocalIP   string    `json:"local_ip,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

package models

import "time"

// Heartbeat represents the structure for a device heartbeat event.
type Heartbeat struct {
	DeviceID     string    `json:"device_id"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
	AgentVersion string    `json:"agent_version,omitempty"`
	Uptime       uint64    `json:"uptime_s"`
	// Cellular link, omitted when the modem could not be queried.
	Signal   *Signal `json:"signal,omitempty"`
	Operator string  `json:"operator,omitempty"`
	LocalIP  string  `json:"local_ip,omitempty"`
}

// Signal is the received signal quality of the modem.
type Signal struct {
	RSSI    int    `json:"rssi"`
	DBm     int    `json:"dbm"`
	BER     int    `json:"ber"`
	Quality string `json:"quality"`
}

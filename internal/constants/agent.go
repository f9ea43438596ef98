package constants

import "time"

// Version is the agent version, overridden at build time with -ldflags "-X".
var Version = "0.3.0"

// Heartbeat statuses
const (
	// StatusAlive indicates the agent is running and the uplink is connected
	StatusAlive = "alive"
	// StatusDegraded indicates the agent is running without a cellular data link
	StatusDegraded = "degraded"
)

// Lengths of the application event queues.
const (
	PositionQueueLength = 30
	DeviceQueueLength   = 10
	PingQueueLength     = 1
	NetworkQueueLength  = 1
)

const (
	// ShutdownTimeout bounds how long the services get to stop.
	ShutdownTimeout = 10 * time.Second
	// ModemStopTimeout bounds the network teardown performed before the modem is stopped.
	ModemStopTimeout = 15 * time.Second
)

package constants

// EventCode identifies a device event reported to the backend.
type EventCode string

const (
	EventDeviceReset           EventCode = "device_reset"
	EventStorageFull           EventCode = "storage_full"
	EventStorageFailure        EventCode = "storage_failure"
	EventSensorFailure         EventCode = "sensor_failure"
	EventVideoRecordingStarted EventCode = "video_recording_started"
	EventVideoRecordingStopped EventCode = "video_recording_stopped"
	EventCameraFailure         EventCode = "camera_failure"
	EventImpactDetected        EventCode = "impact_detected"
	EventHarshAcceleration     EventCode = "harsh_acceleration"
	EventHarshBraking          EventCode = "harsh_braking"
	EventHarshCornering        EventCode = "harsh_cornering"
	EventGPSSignalLost         EventCode = "gps_signal_lost"
	EventGPSSignalRestored     EventCode = "gps_signal_restored"
	EventPanicButtonPressed    EventCode = "panic_button_pressed"
	EventTamperingDetected     EventCode = "tampering_detected"
	EventAppConnected          EventCode = "app_connected"
	EventAppDisconnected       EventCode = "app_disconnected"
)

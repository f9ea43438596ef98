package location

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/benmeehan/telematics-agent/pkg/modem"
)

const (
	defaultSensorTimeout = 5 * time.Second
	// maxSentences bounds how many NMEA lines are read looking for a fix.
	maxSentences = 64
)

// PortOpener opens the serial port of the receiver.
type PortOpener func(cfg *serial.Config) (io.ReadCloser, error)

func openSerialPort(cfg *serial.Config) (io.ReadCloser, error) {
	return serial.OpenPort(cfg)
}

// DeviceSensorProvider is responsible for retrieving location data from an external GPS
// receiver connected via serial port.
type DeviceSensorProvider struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
	timeout  time.Duration
	open     PortOpener
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int) *DeviceSensorProvider {
	return NewDeviceSensorProviderWithOpener(port, baudRate, defaultSensorTimeout, openSerialPort)
}

// NewDeviceSensorProviderWithOpener creates a provider reading through open.
func NewDeviceSensorProviderWithOpener(port string, baudRate int, timeout time.Duration, open PortOpener) *DeviceSensorProvider {
	if timeout <= 0 {
		timeout = defaultSensorTimeout
	}
	return &DeviceSensorProvider{
		port:     port,
		baudRate: baudRate,
		timeout:  timeout,
		open:     open,
	}
}

// GetLocation reads NMEA sentences until a fixed RMC and GGA pair is seen. When only one of
// them carries a fix before the stream ends, that one is returned.
func (d *DeviceSensorProvider) GetLocation(ctx context.Context) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	s, err := d.open(&serial.Config{Name: d.port, Baud: d.baudRate, ReadTimeout: d.timeout})
	if err != nil {
		return Location{}, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		// Closing the port unblocks the scanner when ctx ends first.
		select {
		case <-ctx.Done():
		case <-done:
		}
		s.Close()
	}()

	var rmc, gga *modem.NavInfo
	scanner := bufio.NewScanner(s)
	for i := 0; i < maxSentences && scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		nav, ok := modem.ParseNMEA(line)
		if !ok || !nav.Fixed {
			continue
		}
		switch sentenceType(line) {
		case "RMC":
			rmc = &nav
		case "GGA":
			gga = &nav
		}
		if rmc != nil && gga != nil {
			break
		}
	}
	if ctx.Err() != nil && rmc == nil && gga == nil {
		return Location{}, ctx.Err()
	}

	var nav modem.NavInfo
	switch {
	case rmc != nil && gga != nil:
		nav = *rmc
		nav.Altitude = gga.Altitude
		nav.HDOP = gga.HDOP
		nav.SatellitesUsed = gga.SatellitesUsed
	case rmc != nil:
		nav = *rmc
	case gga != nil:
		nav = *gga
	default:
		if err := scanner.Err(); err != nil {
			return Location{}, err
		}
		return Location{}, ErrNoFix
	}

	loc, _ := FromNavInfo(nav, SourceSensor)
	return loc, nil
}

// sentenceType returns the type of a talker sentence, "RMC" for "$GNRMC,...".
func sentenceType(line string) string {
	if len(line) < 6 || line[0] != '$' {
		return ""
	}
	return line[3:6]
}

// Close is a no-op, the port is opened per read.
func (d *DeviceSensorProvider) Close() error {
	return nil
}

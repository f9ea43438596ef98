package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"
	"go.bug.st/serial/enumerator"
)

// simcomVendorID is the USB vendor id of SIMCom modules.
const simcomVendorID = "1E0E"

// Dialer opens the byte stream to the modem.
//
// A Dialer is used by Start only; once the stream is open the orchestrator owns it and
// closes it on Stop.
type Dialer interface {
	Dial(ctx context.Context) (io.ReadWriteCloser, error)
}

// SerialDialer opens the modem UART.
type SerialDialer struct {
	Port     string
	BaudRate int
	// ReadTimeout bounds each read so the receive loop can observe Stop.
	ReadTimeout time.Duration
}

// NewSerialDialer builds a SerialDialer from the modem configuration. When auto detection is
// enabled and no port is configured the first SIMCom USB port is used.
func NewSerialDialer(cfg Config) (*SerialDialer, error) {
	port := cfg.Port
	if port == "" && cfg.AutoDetect {
		detected, err := DetectPort()
		if err != nil {
			return nil, err
		}
		port = detected
	}
	if port == "" {
		return nil, fmt.Errorf("%w: serial port is required", ErrInvalidConfig)
	}
	baud := cfg.BaudRate
	if baud == 0 {
		baud = 115200
	}
	return &SerialDialer{Port: port, BaudRate: baud, ReadTimeout: 200 * time.Millisecond}, nil
}

// Dial opens the serial port.
func (d *SerialDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        d.Port,
		Baud:        d.BaudRate,
		ReadTimeout: d.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Port, err)
	}
	return &serialTransport{Port: port}, nil
}

// serialTransport turns the io.EOF that tarm/serial reports on a read timeout into an
// empty read, so that io.EOF from the receive loop's point of view always means closed.
type serialTransport struct {
	*serial.Port
}

func (s *serialTransport) Read(p []byte) (int, error) {
	n, err := s.Port.Read(p)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name         string
	USB          bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
	SIMCom       bool
}

// DetectPorts lists the serial ports of the host.
func DetectPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			USB:          d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
			SIMCom:       d.IsUSB && strings.EqualFold(d.VID, simcomVendorID),
		})
	}
	return ports, nil
}

// DetectPort returns the first SIMCom port of the host.
func DetectPort() (string, error) {
	ports, err := DetectPorts()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if p.SIMCom {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("%w: no SIMCom serial port found", ErrInvalidConfig)
}

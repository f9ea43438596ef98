// Package gnss drives the GNSS engine of the modem.
package gnss

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/pkg/atcmd"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

// ErrModemGone is returned when the modem the service was created for is no longer running.
var ErrModemGone = errors.New("modem is not running")

// Modem is the part of the orchestrator the service needs. The service does not own it.
type Modem interface {
	Alive() bool
	Execute(ctx context.Context, req atcmd.Request, res *atcmd.Result) error
	Status() modem.Status
	SetStatus(f modem.Status, on bool)
}

// Service issues the GNSS commands (AT+CGNS*).
type Service struct {
	modem  Modem
	logger zerolog.Logger
}

// New creates a GNSS service on top of m.
func New(m Modem, logger zerolog.Logger) *Service {
	return &Service{
		modem:  m,
		logger: logger,
	}
}

func (s *Service) execute(ctx context.Context, req atcmd.Request) (*atcmd.Result, error) {
	if !s.modem.Alive() {
		return nil, ErrModemGone
	}
	res := atcmd.NewResult()
	if err := s.modem.Execute(ctx, req, res); err != nil {
		return res, err
	}
	return res, nil
}

// SetPower turns the GNSS engine on or off.
func (s *Service) SetPower(ctx context.Context, on bool) error {
	s.logger.Info().Bool("on", on).Msg("Switching GNSS power")
	if _, err := s.execute(ctx, atcmd.Request{Command: atcmd.CGNSPWR, Params: onOff(on)}); err != nil {
		s.logger.Error().Err(err).Msg("Failed to change GNSS power")
		return fmt.Errorf("set gnss power: %w", err)
	}
	s.modem.SetStatus(modem.StatusGNSSOn, on)
	if !on {
		s.modem.SetStatus(modem.StatusGNSSURC, false)
	}
	return nil
}

// Powered reports whether the GNSS engine is on.
func (s *Service) Powered(ctx context.Context) (bool, error) {
	res, err := s.execute(ctx, atcmd.Request{Command: atcmd.CGNSPWR, Params: "?"})
	if err != nil {
		return false, fmt.Errorf("query gnss power: %w", err)
	}
	params, ok := res.Params("+CGNSPWR:")
	if !ok {
		return false, fmt.Errorf("%w: %q", modem.ErrMalformedResponse, res.Response)
	}
	on := params == "1"
	s.modem.SetStatus(modem.StatusGNSSOn, on)
	return on, nil
}

// SetReporting makes the modem push a +UGNSINF report every interval fixes. Zero stops the reports.
func (s *Service) SetReporting(ctx context.Context, interval int) error {
	if interval < 0 || interval > 255 {
		return fmt.Errorf("gnss report interval %d: %w", interval, atcmd.ErrInvalidArgument)
	}
	req := atcmd.Request{Command: atcmd.CGNSURC, Params: fmt.Sprintf("=%d", interval)}
	if _, err := s.execute(ctx, req); err != nil {
		return fmt.Errorf("set gnss reporting: %w", err)
	}
	s.modem.SetStatus(modem.StatusGNSSURC, interval > 0)
	return nil
}

// SetNMEAOutput enables or disables the raw NMEA sentence stream.
func (s *Service) SetNMEAOutput(ctx context.Context, on bool) error {
	if _, err := s.execute(ctx, atcmd.Request{Command: atcmd.CGNSTST, Params: onOff(on)}); err != nil {
		return fmt.Errorf("set nmea output: %w", err)
	}
	return nil
}

// NavInfo queries the current navigation information.
func (s *Service) NavInfo(ctx context.Context) (modem.NavInfo, error) {
	res, err := s.execute(ctx, atcmd.Request{Command: atcmd.CGNSINF})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to retrieve GNSS information")
		return modem.NavInfo{}, fmt.Errorf("query navigation info: %w", err)
	}
	line, ok := res.Line("+CGNSINF:")
	if !ok {
		return modem.NavInfo{}, fmt.Errorf("%w: %q", modem.ErrMalformedResponse, res.Response)
	}
	return modem.ParseNavInfo(line)
}

// Enable powers the engine on, if needed, and configures the report interval.
func (s *Service) Enable(ctx context.Context, interval int) error {
	if !s.modem.Status().Has(modem.StatusGNSSOn) {
		if err := s.SetPower(ctx, true); err != nil {
			return err
		}
	}
	return s.SetReporting(ctx, interval)
}

func onOff(on bool) string {
	if on {
		return "=1"
	}
	return "=0"
}

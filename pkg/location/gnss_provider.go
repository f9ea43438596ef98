package location

import (
	"context"

	"github.com/benmeehan/telematics-agent/pkg/modem"
)

// NavSource reads the current navigation report. Implemented by gnss.Service.
type NavSource interface {
	NavInfo(ctx context.Context) (modem.NavInfo, error)
}

// GNSSProvider reads the position from the GNSS engine of the modem.
type GNSSProvider struct {
	nav NavSource
}

// NewGNSSProvider creates a provider on top of the modem GNSS service.
func NewGNSSProvider(nav NavSource) *GNSSProvider {
	return &GNSSProvider{nav: nav}
}

// GetLocation queries AT+CGNSINF and returns ErrNoFix while the receiver has no fix.
func (g *GNSSProvider) GetLocation(ctx context.Context) (Location, error) {
	nav, err := g.nav.NavInfo(ctx)
	if err != nil {
		return Location{}, err
	}
	loc, ok := FromNavInfo(nav, SourceGNSS)
	if !ok {
		return Location{}, ErrNoFix
	}
	return loc, nil
}

// Close is a no-op, the GNSS engine belongs to the modem.
func (g *GNSSProvider) Close() error {
	return nil
}

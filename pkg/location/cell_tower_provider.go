package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"

	"github.com/benmeehan/telematics-agent/pkg/modem"
)

const geolocateTimeout = 10 * time.Second

// CellSource reports the serving cell of the modem.
type CellSource interface {
	ServingCell(ctx context.Context) (modem.ServingCell, error)
}

// Geolocator resolves radio observations to a position. Implemented by *maps.Client.
type Geolocator interface {
	Geolocate(ctx context.Context, r *maps.GeolocationRequest) (*maps.GeolocationResult, error)
}

// WiFiScanner lists the access points around the vehicle.
type WiFiScanner func(ctx context.Context) ([]maps.WiFiAccessPoint, error)

// CellTowerProvider uses the Google Maps Geolocation API to locate the serving cell of the modem.
type CellTowerProvider struct {
	cells  CellSource
	client Geolocator // Maps API client for making geolocation requests
	wifi   WiFiScanner
	logger zerolog.Logger
}

// NewCellTowerProvider creates a CellTowerProvider with a Maps API client. When scanWiFi is set
// nearby access points are added to the request.
func NewCellTowerProvider(cells CellSource, apiKey string, scanWiFi bool, logger zerolog.Logger) (*CellTowerProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	var wifi WiFiScanner
	if scanWiFi {
		wifi = getWiFiAccessPoints
	}
	return NewCellTowerProviderWithClient(cells, c, wifi, logger), nil
}

// NewCellTowerProviderWithClient creates a CellTowerProvider on top of an existing geolocator.
func NewCellTowerProviderWithClient(cells CellSource, client Geolocator, wifi WiFiScanner, logger zerolog.Logger) *CellTowerProvider {
	return &CellTowerProvider{
		cells:  cells,
		client: client,
		wifi:   wifi,
		logger: logger,
	}
}

// GetLocation retrieves the vehicle position from its serving cell.
func (g *CellTowerProvider) GetLocation(ctx context.Context) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, geolocateTimeout)
	defer cancel()

	cell, err := g.cells.ServingCell(ctx)
	if err != nil {
		return Location{}, err
	}
	if !cell.Online || cell.MCC == 0 {
		return Location{}, fmt.Errorf("%w: no serving cell (%s)", ErrNoFix, cell.System)
	}

	req := &maps.GeolocationRequest{
		HomeMobileCountryCode: cell.MCC,
		HomeMobileNetworkCode: cell.MNC,
		RadioType:             radioType(cell.System),
		CellTowers: []maps.CellTower{{
			CellID:            cell.CellID,
			LocationAreaCode:  cell.AreaCode,
			MobileCountryCode: cell.MCC,
			MobileNetworkCode: cell.MNC,
		}},
	}
	if g.wifi != nil {
		aps, err := g.wifi(ctx)
		if err != nil {
			g.logger.Warn().Err(err).Msg("WiFi scan failed, geolocating from the cell only")
		}
		req.WiFiAccessPoints = aps
	}

	resp, err := g.client.Geolocate(ctx, req) // Send the geolocation request
	if err != nil {
		return Location{}, err
	}

	return Location{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
		Time:      time.Now().UTC(),
		Source:    SourceCellTower,
	}, nil
}

// Close is a no-op.
func (g *CellTowerProvider) Close() error {
	return nil
}

func radioType(system string) maps.RadioType {
	switch {
	case strings.HasPrefix(system, "LTE"):
		return maps.RadioTypeLTE
	case strings.HasPrefix(system, "GSM"):
		return maps.RadioTypeGSM
	case strings.HasPrefix(system, "WCDMA"):
		return maps.RadioTypeWCDMA
	default:
		return ""
	}
}

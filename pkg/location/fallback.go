package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Fallback asks its providers in order and returns the first location found.
type Fallback struct {
	providers []Provider
	logger    zerolog.Logger
}

// NewFallback chains providers, most accurate first.
func NewFallback(logger zerolog.Logger, providers ...Provider) *Fallback {
	return &Fallback{providers: providers, logger: logger}
}

// GetLocation returns the location of the first provider that succeeds, or all the failures joined.
func (f *Fallback) GetLocation(ctx context.Context) (Location, error) {
	if len(f.providers) == 0 {
		return Location{}, ErrNoProviders
	}
	var errs []error
	for i, p := range f.providers {
		loc, err := p.GetLocation(ctx)
		if err == nil {
			return loc, nil
		}
		f.logger.Debug().Err(err).Int("provider", i).Msg("Location provider failed, trying next")
		errs = append(errs, fmt.Errorf("provider %d: %w", i, err))
		if ctx.Err() != nil {
			break
		}
	}
	return Location{}, errors.Join(errs...)
}

// Close closes every provider.
func (f *Fallback) Close() error {
	var errs []error
	for _, p := range f.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

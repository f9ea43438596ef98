package location

import (
	"context"
	"errors"
)

var (
	// ErrNoFix is returned when the provider is working but has no position yet.
	ErrNoFix = errors.New("no position fix")
	// ErrNoProviders is returned by a Fallback without providers.
	ErrNoProviders = errors.New("no location providers configured")
)

// Provider interface defines the methods for location providers
type Provider interface {
	GetLocation(ctx context.Context) (Location, error)
	Close() error
}

// Package geoip resolves the caller's real-world location by querying free
// Geo-IP services in priority order. Each service is wrapped as a Provider:
// a fetch step that returns the raw decoded JSON plus a pure parse step that
// normalizes the service's response shape into a Location.
package geoip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"effortmap/internal/observability"
)

// ErrNoServiceAvailable is returned by Locate when every provider has been
// tried without an accepted result. It carries no partial data; the caller
// must supply a manual fallback location.
var ErrNoServiceAvailable = errors.New("no geolocation service available")

// Location is the canonical provider output: coordinates in decimal degrees
// plus the public address the service observed.
type Location struct {
	Lat     float64
	Lon     float64
	Address string
}

// Valid reports whether the location is usable. A response with both
// coordinates exactly zero is treated as an invalid/default answer.
func (l Location) Valid() bool {
	return l.Lat != 0 || l.Lon != 0
}

// Provider is one geolocation service plus its response adapter.
// Parse must be pure and tolerant of missing or malformed fields,
// degrading to zeros and an empty address rather than failing.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (map[string]any, error)
	Parse(data map[string]any) Location
}

// Locator tries an ordered list of providers and returns the first
// accepted location.
type Locator struct {
	providers []Provider
	log       *slog.Logger
	metrics   *observability.Collector
}

// NewLocator builds a locator over the given providers, tried in order.
// logger may be nil (slog.Default is used); metrics may be nil.
func NewLocator(providers []Provider, logger *slog.Logger, metrics *observability.Collector) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{providers: providers, log: logger, metrics: metrics}
}

// Locate queries the providers in order and returns the first location that
// parses and validates. Transport, HTTP, and parse failures are soft: they
// are logged and counted, and the next provider is tried. When every
// provider is exhausted the error wraps ErrNoServiceAvailable.
func (l *Locator) Locate(ctx context.Context) (Location, error) {
	for _, p := range l.providers {
		l.log.Info("fetching location", "provider", p.Name())

		data, err := p.Fetch(ctx)
		if err != nil {
			l.log.Warn("provider fetch failed", "provider", p.Name(), "error", err)
			l.metrics.ProviderFailure(p.Name(), "fetch")
			continue
		}

		loc := p.Parse(data)
		if !loc.Valid() {
			l.log.Warn("provider returned invalid coordinates", "provider", p.Name())
			l.metrics.ProviderFailure(p.Name(), "invalid_coordinates")
			continue
		}

		l.log.Info("location resolved",
			"provider", p.Name(), "lat", loc.Lat, "lon", loc.Lon, "address", loc.Address)
		return loc, nil
	}

	return Location{}, fmt.Errorf("%w: all %d providers failed", ErrNoServiceAvailable, len(l.providers))
}

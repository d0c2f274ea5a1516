// Package resolver maps the externally supplied thing name to the identifier
// Coiote DM uses to address the device.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrDeviceNotFound is returned when no device is registered under the endpoint name.
var ErrDeviceNotFound = errors.New("device not found")

// Resolver returns the Coiote DM device identifier for a thing name.
type Resolver interface {
	Resolve(ctx context.Context, thingName string) (string, error)
}

// Passthrough addresses devices by the thing name itself.
type Passthrough struct{}

func (Passthrough) Resolve(_ context.Context, thingName string) (string, error) {
	return thingName, nil
}

// DeviceFinder searches Coiote DM devices by endpoint name.
type DeviceFinder interface {
	FindDevices(ctx context.Context, endpointName string) ([]string, error)
}

// Cache stores resolved identifiers. Get reports found=false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Lookup resolves thing names through a Coiote DM endpoint-name search,
// optionally memoized in a Cache.
type Lookup struct {
	finder DeviceFinder
	cache  Cache
	ttl    time.Duration
}

// NewLookup creates a Lookup. cache may be nil.
func NewLookup(finder DeviceFinder, cache Cache, ttl time.Duration) *Lookup {
	return &Lookup{finder: finder, cache: cache, ttl: ttl}
}

func (l *Lookup) Resolve(ctx context.Context, thingName string) (string, error) {
	if l.cache != nil {
		id, found, err := l.cache.Get(ctx, thingName)
		if err != nil {
			slog.Warn("Device cache read failed", "component", "Resolver", "thing", thingName, "error", err)
		} else if found {
			return id, nil
		}
	}

	ids, err := l.finder.FindDevices(ctx, thingName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve device %s: %w", thingName, err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: %s", ErrDeviceNotFound, thingName)
	}
	if len(ids) > 1 {
		slog.Warn("Several devices share the endpoint name, using the first", "component", "Resolver", "thing", thingName, "count", len(ids))
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, thingName, ids[0], l.ttl); err != nil {
			slog.Warn("Device cache write failed", "component", "Resolver", "thing", thingName, "error", err)
		}
	}
	return ids[0], nil
}

package testutils

import (
	"context"
	"sync"

	"github.com/waypointco/waypoint-api/internal/domain"
)

// FakeGeocoder is a geocoding.Geocoder returning a fixed coordinate pair or
// a fixed error. It records the addresses it was asked to resolve.
type FakeGeocoder struct {
	mu sync.Mutex

	Coords domain.Coordinates
	Err    error

	Calls []string
}

// Geocode implements geocoding.Geocoder.
func (g *FakeGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	g.mu.Lock()
	g.Calls = append(g.Calls, address)
	g.mu.Unlock()

	if g.Err != nil {
		return domain.Coordinates{}, g.Err
	}
	return g.Coords, nil
}

// CallCount returns how many lookups were attempted.
func (g *FakeGeocoder) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}

// FakeImageStore is a storage.ImageStore that records removals.
type FakeImageStore struct {
	mu sync.Mutex

	Err error

	Removed []string
}

// Remove implements storage.ImageStore.
func (s *FakeImageStore) Remove(ctx context.Context, path string) error {
	if s.Err != nil {
		return s.Err
	}

	s.mu.Lock()
	s.Removed = append(s.Removed, path)
	s.mu.Unlock()
	return nil
}

// RemovedPaths returns a copy of the removed path list.
func (s *FakeImageStore) RemovedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Removed...)
}

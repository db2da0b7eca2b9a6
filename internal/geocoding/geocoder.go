package geocoding

import (
	"context"

	"github.com/waypointco/waypoint-api/internal/domain"
)

// Geocoder defines the interface for resolving a postal address to
// coordinates. This interface serves as a boundary between the application
// core and the external geocoding service.
//
// Resolution happens once at place creation time; the result is stored on
// the place and never re-resolved. Implementations must respect ctx
// cancellation and apply a bounded timeout of their own, since the provider
// is a network dependency that may hang.
type Geocoder interface {
	// Geocode resolves the given address to coordinates.
	// Returns ErrNoResults if the provider knows no match for the address,
	// or ErrGeocodeFailed for any provider or transport failure.
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}

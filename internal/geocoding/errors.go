package geocoding

import "errors"

// Common errors returned by the geocoding package
var (
	// ErrGeocodeFailed is returned when address resolution fails for any
	// transport or provider reason. Terminal for the request, but the caller
	// may retry the whole operation.
	ErrGeocodeFailed = errors.New("failed to resolve address to coordinates")

	// ErrNoResults is returned when the provider resolves the request but
	// finds no location for the given address.
	ErrNoResults = errors.New("no location found for address")

	// ErrInvalidConfig is returned when the geocoder configuration is invalid.
	ErrInvalidConfig = errors.New("invalid geocoder configuration")
)

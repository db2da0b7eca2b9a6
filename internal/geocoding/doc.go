// Package geocoding provides the interface for resolving postal addresses to
// geographic coordinates. It abstracts the details of the external geocoding
// provider (Nominatim), allowing the application to resolve addresses without
// coupling to a specific external service.
package geocoding

// Package storage provides the interface for the uploaded image blob store.
// Images are opaque assets keyed by the storage path recorded on a place;
// the application never inspects their contents.
package storage

import "context"

// ImageStore defines the blob store operations the application needs. The
// store holds uploaded place images keyed by path.
//
// Removal sits outside the transactional consistency boundary: callers treat
// it as best-effort cleanup, observing failures without propagating them.
type ImageStore interface {
	// Remove deletes the image stored at the given path.
	// Removing a path that no longer exists is not an error.
	Remove(ctx context.Context, path string) error
}

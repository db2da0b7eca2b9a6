package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/waypointco/waypoint-api/internal/domain"
)

// PlaceStore defines the interface for place data persistence.
type PlaceStore interface {
	// Create saves a new place to the store.
	// Returns validation errors from the domain Place if data is invalid.
	// Returns ErrInvalidEntity if the creator does not exist.
	//
	// Creating a place also requires appending its id to the owning user's
	// membership list (UserStore.AppendPlace); the two writes must run inside
	// a single transaction so that neither is visible without the other.
	Create(ctx context.Context, place *domain.Place) error

	// GetByID retrieves a place by its unique ID.
	// Returns ErrPlaceNotFound if the place does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Place, error)

	// ListByCreator retrieves all places owned by the given user, in creation
	// order. Returns an empty slice when the user owns no places; callers
	// decide how to surface that.
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*domain.Place, error)

	// Update overwrites the mutable fields (title, description) of an
	// existing place. Location, image and creator are never touched.
	// Returns ErrPlaceNotFound if the place does not exist.
	Update(ctx context.Context, place *domain.Place) error

	// Delete removes a place from the store by its ID.
	// Returns ErrPlaceNotFound if the place does not exist.
	//
	// Like Create, deletion must pair with UserStore.RemovePlace inside a
	// single transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new PlaceStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller
	// (typically a service via TxRunner).
	WithTx(tx *sql.Tx) PlaceStore
}

package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/waypointco/waypoint-api/internal/domain"
)

// UserStore defines the interface for user data persistence, including the
// user's place membership list.
type UserStore interface {
	// Create saves a new user to the store. The caller must have hashed the
	// password; Create persists HashedPassword only.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID, with the membership list
	// populated in insertion order.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address, with the membership
	// list populated.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List retrieves all users with their membership lists, ordered by
	// creation time.
	List(ctx context.Context) ([]*domain.User, error)

	// AppendPlace adds a place id to the end of the user's membership list.
	// Returns ErrUserNotFound if the user does not exist and ErrDuplicate if
	// the place is already listed.
	AppendPlace(ctx context.Context, userID, placeID uuid.UUID) error

	// RemovePlace removes a place id from the user's membership list.
	// Returns ErrNotFound if the membership entry does not exist.
	RemovePlace(ctx context.Context, userID, placeID uuid.UUID) error

	// WithTx returns a new UserStore instance that uses the provided
	// transaction. This allows membership writes to commit atomically with
	// the corresponding place writes.
	WithTx(tx *sql.Tx) UserStore
}

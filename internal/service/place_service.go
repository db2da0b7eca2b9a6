package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/waypointco/waypoint-api/internal/domain"
	"github.com/waypointco/waypoint-api/internal/geocoding"
	"github.com/waypointco/waypoint-api/internal/platform/logger"
	"github.com/waypointco/waypoint-api/internal/storage"
	"github.com/waypointco/waypoint-api/internal/store"
)

// CreatePlaceInput carries the validated request fields for place creation.
// ImagePath is the storage path of the already-uploaded image.
type CreatePlaceInput struct {
	Title       string
	Description string
	Address     string
	ImagePath   string
}

// PlaceService provides place-related operations with ownership checks and
// transactional dual-writes.
type PlaceService interface {
	// GetPlace retrieves a place by its ID.
	GetPlace(ctx context.Context, placeID uuid.UUID) (*domain.Place, error)

	// ListPlacesByCreator retrieves the places owned by the given user, in
	// creation order. An empty result surfaces as store.ErrPlaceNotFound: at
	// this layer an existing user with no places is indistinguishable from an
	// unknown user.
	ListPlacesByCreator(ctx context.Context, creatorID uuid.UUID) ([]*domain.Place, error)

	// CreatePlace resolves the address, then atomically persists the new
	// place and appends its id to the creator's membership list. Either both
	// writes commit or neither is visible.
	CreatePlace(ctx context.Context, creatorID uuid.UUID, input CreatePlaceInput) (*domain.Place, error)

	// UpdatePlace overwrites the place's title and description. The caller
	// must be the place's creator; otherwise ErrNotOwned is returned and the
	// record is left unchanged.
	UpdatePlace(ctx context.Context, callerID, placeID uuid.UUID, title, description string) (*domain.Place, error)

	// DeletePlace atomically removes the place and its id from the owning
	// user's membership list, then best-effort removes the stored image.
	// The caller must be the owner; otherwise ErrNotOwned is returned.
	DeletePlace(ctx context.Context, callerID, placeID uuid.UUID) error
}

// PlaceServiceError wraps errors from the place service with context.
type PlaceServiceError struct {
	// Operation is the operation that failed (e.g., "create_place")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for PlaceServiceError.
func (e *PlaceServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("place service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("place service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *PlaceServiceError) Unwrap() error {
	return e.Err
}

// NewPlaceServiceError creates a new PlaceServiceError. Sentinel errors the
// API layer maps directly (not-found, not-owned, geocoding failures,
// transaction aborts) pass through unwrapped.
func NewPlaceServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if store.IsNotFoundError(err) ||
		errors.Is(err, ErrNotOwned) ||
		errors.Is(err, store.ErrTransactionFailed) ||
		errors.Is(err, geocoding.ErrGeocodeFailed) ||
		errors.Is(err, geocoding.ErrNoResults) {
		return err
	}

	return &PlaceServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// placeServiceImpl implements the PlaceService interface
type placeServiceImpl struct {
	placeStore store.PlaceStore
	userStore  store.UserStore
	txRunner   store.TxRunner
	geocoder   geocoding.Geocoder
	images     storage.ImageStore
	logger     *slog.Logger
}

// NewPlaceService creates a new PlaceService.
// It returns an error if any of the required dependencies are nil.
func NewPlaceService(
	placeStore store.PlaceStore,
	userStore store.UserStore,
	txRunner store.TxRunner,
	geocoder geocoding.Geocoder,
	images storage.ImageStore,
	log *slog.Logger,
) (PlaceService, error) {
	if placeStore == nil {
		return nil, domain.NewValidationError("placeStore", "cannot be nil", domain.ErrValidation)
	}
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}
	if txRunner == nil {
		return nil, domain.NewValidationError("txRunner", "cannot be nil", domain.ErrValidation)
	}
	if geocoder == nil {
		return nil, domain.NewValidationError("geocoder", "cannot be nil", domain.ErrValidation)
	}
	if images == nil {
		return nil, domain.NewValidationError("images", "cannot be nil", domain.ErrValidation)
	}

	if log == nil {
		log = slog.Default()
	}

	return &placeServiceImpl{
		placeStore: placeStore,
		userStore:  userStore,
		txRunner:   txRunner,
		geocoder:   geocoder,
		images:     images,
		logger:     log.With(slog.String("component", "place_service")),
	}, nil
}

// GetPlace implements PlaceService.GetPlace
func (s *placeServiceImpl) GetPlace(ctx context.Context, placeID uuid.UUID) (*domain.Place, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	place, err := s.placeStore.GetByID(ctx, placeID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("place not found", slog.String("place_id", placeID.String()))
			return nil, store.ErrPlaceNotFound
		}
		log.Error("failed to retrieve place",
			slog.String("error", err.Error()),
			slog.String("place_id", placeID.String()))
		return nil, NewPlaceServiceError("get_place", "failed to retrieve place", err)
	}

	return place, nil
}

// ListPlacesByCreator implements PlaceService.ListPlacesByCreator
func (s *placeServiceImpl) ListPlacesByCreator(
	ctx context.Context,
	creatorID uuid.UUID,
) ([]*domain.Place, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	places, err := s.placeStore.ListByCreator(ctx, creatorID)
	if err != nil {
		log.Error("failed to list places by creator",
			slog.String("error", err.Error()),
			slog.String("creator_id", creatorID.String()))
		return nil, NewPlaceServiceError("list_places", "failed to list places", err)
	}

	// An unknown user and a user with no places look the same here; both
	// surface as not found.
	if len(places) == 0 {
		log.Debug("no places for creator", slog.String("creator_id", creatorID.String()))
		return nil, store.ErrPlaceNotFound
	}

	return places, nil
}

// CreatePlace implements PlaceService.CreatePlace
// The geocode call runs before any store write, so a resolver failure
// short-circuits with zero side effects on the store. The place insert and
// the membership append then run in a single transaction, along with the
// creator existence check, so a credential for a deleted account cannot
// create an orphaned place.
func (s *placeServiceImpl) CreatePlace(
	ctx context.Context,
	creatorID uuid.UUID,
	input CreatePlaceInput,
) (*domain.Place, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	location, err := s.geocoder.Geocode(ctx, input.Address)
	if err != nil {
		log.Warn("failed to geocode address",
			slog.String("error", err.Error()),
			slog.String("creator_id", creatorID.String()))
		s.removeImage(ctx, input.ImagePath)
		return nil, NewPlaceServiceError("create_place", "failed to resolve address", err)
	}

	place, err := domain.NewPlace(
		creatorID,
		input.Title,
		input.Description,
		input.Address,
		location,
		input.ImagePath,
	)
	if err != nil {
		log.Warn("failed to create place object",
			slog.String("error", err.Error()),
			slog.String("creator_id", creatorID.String()))
		s.removeImage(ctx, input.ImagePath)
		return nil, NewPlaceServiceError("create_place", "failed to create place object", err)
	}

	err = s.txRunner.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txPlaces := s.placeStore.WithTx(tx)
		txUsers := s.userStore.WithTx(tx)

		// Confirm the creator still exists before writing anything.
		if _, err := txUsers.GetByID(ctx, creatorID); err != nil {
			if store.IsNotFoundError(err) {
				log.Warn("creator not found during place creation",
					slog.String("creator_id", creatorID.String()))
				return store.ErrUserNotFound
			}
			return NewPlaceServiceError("create_place", "failed to look up creator", err)
		}

		if err := txPlaces.Create(ctx, place); err != nil {
			log.Error("failed to create place in transaction",
				slog.String("error", err.Error()),
				slog.String("place_id", place.ID.String()))
			return NewPlaceServiceError("create_place", "failed to save place", err)
		}

		if err := txUsers.AppendPlace(ctx, creatorID, place.ID); err != nil {
			log.Error("failed to append place to membership list in transaction",
				slog.String("error", err.Error()),
				slog.String("place_id", place.ID.String()),
				slog.String("creator_id", creatorID.String()))
			return NewPlaceServiceError("create_place", "failed to update membership list", err)
		}

		return nil
	})

	if err != nil {
		// The transaction rolled back; nothing is visible. The uploaded image
		// would otherwise be orphaned, so clean it up the same best-effort
		// way as on delete.
		s.removeImage(ctx, input.ImagePath)
		return nil, err
	}

	log.Info("place created successfully in transaction",
		slog.String("place_id", place.ID.String()),
		slog.String("creator_id", creatorID.String()))

	return place, nil
}

// UpdatePlace implements PlaceService.UpdatePlace
// No multi-record transaction is needed: the update touches a single place
// row and no cross-entity invariant changes.
func (s *placeServiceImpl) UpdatePlace(
	ctx context.Context,
	callerID, placeID uuid.UUID,
	title, description string,
) (*domain.Place, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	place, err := s.placeStore.GetByID(ctx, placeID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("place not found for update", slog.String("place_id", placeID.String()))
			return nil, store.ErrPlaceNotFound
		}
		log.Error("failed to retrieve place for update",
			slog.String("error", err.Error()),
			slog.String("place_id", placeID.String()))
		return nil, NewPlaceServiceError("update_place", "failed to retrieve place", err)
	}

	if place.CreatorID != callerID {
		log.Warn("update attempted by non-owner",
			slog.String("place_id", placeID.String()),
			slog.String("caller_id", callerID.String()),
			slog.String("creator_id", place.CreatorID.String()))
		return nil, ErrNotOwned
	}

	if err := place.UpdateDetails(title, description); err != nil {
		return nil, NewPlaceServiceError("update_place", "invalid place details", err)
	}

	if err := s.placeStore.Update(ctx, place); err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrPlaceNotFound
		}
		log.Error("failed to save updated place",
			slog.String("error", err.Error()),
			slog.String("place_id", placeID.String()))
		return nil, NewPlaceServiceError("update_place", "failed to save place", err)
	}

	log.Info("place updated successfully",
		slog.String("place_id", placeID.String()),
		slog.String("caller_id", callerID.String()))

	return place, nil
}

// DeletePlace implements PlaceService.DeletePlace
// The ownership check is a hard precondition: a non-owner always gets
// ErrNotOwned and no write happens. The place delete and the membership
// removal commit atomically; the image cleanup runs only after the commit
// and never affects the reported outcome.
func (s *placeServiceImpl) DeletePlace(ctx context.Context, callerID, placeID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var imagePath string

	err := s.txRunner.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txPlaces := s.placeStore.WithTx(tx)
		txUsers := s.userStore.WithTx(tx)

		place, err := txPlaces.GetByID(ctx, placeID)
		if err != nil {
			if store.IsNotFoundError(err) {
				log.Debug("place not found for delete", slog.String("place_id", placeID.String()))
				return store.ErrPlaceNotFound
			}
			return NewPlaceServiceError("delete_place", "failed to retrieve place", err)
		}

		// Resolve the owning user alongside the place; ownership is checked
		// against the record, not the credential alone.
		owner, err := txUsers.GetByID(ctx, place.CreatorID)
		if err != nil {
			if store.IsNotFoundError(err) {
				log.Error("place owner missing from store",
					slog.String("place_id", placeID.String()),
					slog.String("creator_id", place.CreatorID.String()))
				return store.ErrUserNotFound
			}
			return NewPlaceServiceError("delete_place", "failed to look up owner", err)
		}

		if owner.ID != callerID {
			log.Warn("delete attempted by non-owner",
				slog.String("place_id", placeID.String()),
				slog.String("caller_id", callerID.String()),
				slog.String("creator_id", owner.ID.String()))
			return ErrNotOwned
		}

		imagePath = place.ImagePath

		// Membership row first: it references the place row.
		if err := txUsers.RemovePlace(ctx, owner.ID, place.ID); err != nil {
			log.Error("failed to remove membership entry in transaction",
				slog.String("error", err.Error()),
				slog.String("place_id", placeID.String()))
			return NewPlaceServiceError("delete_place", "failed to update membership list", err)
		}

		if err := txPlaces.Delete(ctx, place.ID); err != nil {
			log.Error("failed to delete place in transaction",
				slog.String("error", err.Error()),
				slog.String("place_id", placeID.String()))
			return NewPlaceServiceError("delete_place", "failed to delete place", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	log.Info("place deleted successfully in transaction",
		slog.String("place_id", placeID.String()),
		slog.String("caller_id", callerID.String()))

	// Outside the consistency boundary: observed, never propagated.
	s.removeImage(ctx, imagePath)

	return nil
}

// removeImage best-effort deletes a stored image and logs any failure.
func (s *placeServiceImpl) removeImage(ctx context.Context, path string) {
	if path == "" {
		return
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.images.Remove(ctx, path); err != nil {
		log.Warn("failed to remove stored image",
			slog.String("error", err.Error()),
			slog.String("image_path", path))
		return
	}

	log.Debug("stored image removed", slog.String("image_path", path))
}

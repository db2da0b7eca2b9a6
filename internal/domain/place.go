package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common place validation errors
var (
	ErrEmptyPlaceID     = errors.New("place ID cannot be empty")
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrEmptyAddress     = errors.New("address cannot be empty")
	ErrEmptyImagePath   = errors.New("image path cannot be empty")
	ErrEmptyCreatorID   = errors.New("creator ID cannot be empty")
)

// Coordinates is a latitude/longitude pair resolved from a postal address.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the pair lies inside the WGS84 value range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Place is an address-bound resource record owned by exactly one user.
// Location and ImagePath are set once at creation and never re-resolved;
// CreatorID is immutable after creation.
type Place struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Address     string      `json:"address"`
	Location    Coordinates `json:"location"`
	ImagePath   string      `json:"image_path"`
	CreatorID   uuid.UUID   `json:"creator_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewPlace creates a new Place owned by creatorID with the given resolved
// location. It generates a new UUID for the place ID and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewPlace(
	creatorID uuid.UUID,
	title, description, address string,
	location Coordinates,
	imagePath string,
) (*Place, error) {
	now := time.Now().UTC()
	place := &Place{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Address:     address,
		Location:    location,
		ImagePath:   imagePath,
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := place.Validate(); err != nil {
		return nil, err
	}

	return place, nil
}

// Validate checks if the Place has valid data.
// Returns an error if any field fails validation.
func (p *Place) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPlaceID
	}
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if p.Description == "" {
		return ErrEmptyDescription
	}
	if p.Address == "" {
		return ErrEmptyAddress
	}
	if p.ImagePath == "" {
		return ErrEmptyImagePath
	}
	if p.CreatorID == uuid.Nil {
		return ErrEmptyCreatorID
	}
	if !p.Location.Valid() {
		return ErrInvalidCoordinates
	}
	return nil
}

// UpdateDetails overwrites the mutable fields of the place. Title and
// description are the only fields an update may touch; location, image and
// creator stay fixed for the lifetime of the record.
func (p *Place) UpdateDetails(title, description string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if description == "" {
		return ErrEmptyDescription
	}

	p.Title = title
	p.Description = description
	p.UpdatedAt = time.Now().UTC()
	return nil
}

package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/waypointco/waypoint-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

// CreatePlaceRequest defines the payload for place creation.
type CreatePlaceRequest struct {
	Title       string `json:"title"       validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"required,min=1,max=2000"`
	Address     string `json:"address"     validate:"required,min=1,max=500"`
	ImagePath   string `json:"image_path"  validate:"required,min=1"`
}

// UpdatePlaceRequest defines the payload for place updates. Only the title
// and description are mutable.
type UpdatePlaceRequest struct {
	Title       string `json:"title"       validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"required,min=1,max=2000"`
}

// LocationResponse is the resolved coordinate pair of a place.
type LocationResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceResponse is the API representation of a place.
type PlaceResponse struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Address     string           `json:"address"`
	Location    LocationResponse `json:"location"`
	ImagePath   string           `json:"image_path"`
	CreatorID   uuid.UUID        `json:"creator_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// PlaceListResponse wraps a list of places.
type PlaceListResponse struct {
	Places []PlaceResponse `json:"places"`
}

// UserResponse is the public API representation of a user. The password hash
// never appears here.
type UserResponse struct {
	ID         uuid.UUID   `json:"id"`
	Email      string      `json:"email"`
	PlaceIDs   []uuid.UUID `json:"place_ids"`
	PlaceCount int         `json:"place_count"`
}

// UserListResponse wraps a list of users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// ToPlaceResponse converts a domain place into its API representation.
func ToPlaceResponse(p *domain.Place) PlaceResponse {
	return PlaceResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Address:     p.Address,
		Location: LocationResponse{
			Lat: p.Location.Lat,
			Lng: p.Location.Lng,
		},
		ImagePath: p.ImagePath,
		CreatorID: p.CreatorID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToUserResponse converts a domain user into its public API representation.
func ToUserResponse(u *domain.User) UserResponse {
	placeIDs := u.PlaceIDs
	if placeIDs == nil {
		placeIDs = []uuid.UUID{}
	}
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		PlaceIDs:   placeIDs,
		PlaceCount: len(placeIDs),
	}
}

// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/waypointco/waypoint-api/internal/api/shared"
	"github.com/waypointco/waypoint-api/internal/platform/logger"
	"github.com/waypointco/waypoint-api/internal/service"
)

// PlaceHandler handles place-related HTTP requests
type PlaceHandler struct {
	placeService service.PlaceService
	validator    *validator.Validate
	logger       *slog.Logger
}

// NewPlaceHandler creates a new PlaceHandler
func NewPlaceHandler(placeService service.PlaceService, log *slog.Logger) *PlaceHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PlaceHandler")
	}

	return &PlaceHandler{
		placeService: placeService,
		validator:    validator.New(),
		logger:       log.With(slog.String("component", "place_handler")),
	}
}

// GetPlace handles GET /places/{pid} requests.
func (h *PlaceHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	placeID, err := getPathUUID(r, "pid")
	if err != nil {
		log.Warn("invalid place ID in URL path")
		HandleAPIError(w, r, err, "")
		return
	}

	place, err := h.placeService.GetPlace(r.Context(), placeID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ToPlaceResponse(place))
}

// ListPlacesByUser handles GET /places/user/{uid} requests. It returns the
// places owned by the given user in creation order; a user with no places
// yields 404.
func (h *PlaceHandler) ListPlacesByUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	creatorID, err := getPathUUID(r, "uid")
	if err != nil {
		log.Warn("invalid user ID in URL path")
		HandleAPIError(w, r, err, "")
		return
	}

	places, err := h.placeService.ListPlacesByCreator(r.Context(), creatorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	response := PlaceListResponse{Places: make([]PlaceResponse, 0, len(places))}
	for _, place := range places {
		response.Places = append(response.Places, ToPlaceResponse(place))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// CreatePlace handles POST /places requests. The address is resolved to
// coordinates before anything is written; the place record and the creator's
// membership list then update atomically.
func (h *PlaceHandler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreatePlaceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode create place request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	place, err := h.placeService.CreatePlace(r.Context(), userID, service.CreatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		ImagePath:   req.ImagePath,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("place created",
		slog.String("place_id", place.ID.String()),
		slog.String("user_id", userID.String()))

	shared.RespondWithJSON(w, r, http.StatusCreated, ToPlaceResponse(place))
}

// UpdatePlace handles PATCH /places/{pid} requests. Only the place's owner
// may update it.
func (h *PlaceHandler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, placeID, ok := handleUserIDAndPathUUID(w, r, "pid", log)
	if !ok {
		return
	}

	var req UpdatePlaceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode update place request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	place, err := h.placeService.UpdatePlace(r.Context(), userID, placeID, req.Title, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ToPlaceResponse(place))
}

// DeletePlace handles DELETE /places/{pid} requests. Only the owner may
// delete; the place and its membership entry disappear together.
func (h *PlaceHandler) DeletePlace(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, placeID, ok := handleUserIDAndPathUUID(w, r, "pid", log)
	if !ok {
		return
	}

	if err := h.placeService.DeletePlace(r.Context(), userID, placeID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("place deleted",
		slog.String("place_id", placeID.String()),
		slog.String("user_id", userID.String()))

	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Deleted place."})
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/waypointco/waypoint-api/internal/api/shared"
	"github.com/waypointco/waypoint-api/internal/platform/logger"
	"github.com/waypointco/waypoint-api/internal/store"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userStore store.UserStore
	logger    *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userStore store.UserStore, log *slog.Logger) *UserHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UserHandler")
	}

	return &UserHandler{
		userStore: userStore,
		logger:    log.With(slog.String("component", "user_handler")),
	}
}

// ListUsers handles GET /users requests. It returns every user's public
// profile, including the membership list of owned place ids. Password hashes
// never leave the store layer's result struct unserialized.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	users, err := h.userStore.List(r.Context())
	if err != nil {
		log.Error("failed to list users", slog.String("error", err.Error()))
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}

	response := UserListResponse{Users: make([]UserResponse, 0, len(users))}
	for _, user := range users {
		response.Users = append(response.Users, ToUserResponse(user))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

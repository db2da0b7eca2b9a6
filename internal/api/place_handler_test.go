package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointco/waypoint-api/internal/api/shared"
	"github.com/waypointco/waypoint-api/internal/domain"
	"github.com/waypointco/waypoint-api/internal/geocoding"
	"github.com/waypointco/waypoint-api/internal/service"
	"github.com/waypointco/waypoint-api/internal/testutils"
)

type placeHandlerFixture struct {
	router     http.Handler
	placeStore *testutils.FakePlaceStore
	userStore  *testutils.FakeUserStore
	geocoder   *testutils.FakeGeocoder
	images     *testutils.FakeImageStore
}

// newPlaceHandlerFixture wires the real place service to in-memory fakes and
// mounts the handler on the routes the server uses.
func newPlaceHandlerFixture(t *testing.T) *placeHandlerFixture {
	t.Helper()

	placeStore := testutils.NewFakePlaceStore()
	userStore := testutils.NewFakeUserStore()
	txRunner := testutils.NewFakeTxRunner(placeStore, userStore)
	geocoder := &testutils.FakeGeocoder{
		Coords: domain.Coordinates{Lat: 40.748817, Lng: -73.985428},
	}
	images := &testutils.FakeImageStore{}

	svc, err := service.NewPlaceService(
		placeStore, userStore, txRunner, geocoder, images, slog.Default())
	require.NoError(t, err)

	handler := NewPlaceHandler(svc, slog.Default())

	r := chi.NewRouter()
	r.Get("/api/places/{pid}", handler.GetPlace)
	r.Get("/api/places/user/{uid}", handler.ListPlacesByUser)
	r.Post("/api/places", handler.CreatePlace)
	r.Patch("/api/places/{pid}", handler.UpdatePlace)
	r.Delete("/api/places/{pid}", handler.DeletePlace)

	return &placeHandlerFixture{
		router:     r,
		placeStore: placeStore,
		userStore:  userStore,
		geocoder:   geocoder,
		images:     images,
	}
}

func (f *placeHandlerFixture) seedUser(t *testing.T, email string) *domain.User {
	t.Helper()

	user, err := domain.NewUser(email, "password123")
	require.NoError(t, err)
	user.HashedPassword = "$2a$10$fakehashfakehashfakehash"
	user.Password = ""
	require.NoError(t, f.userStore.Create(context.Background(), user))
	return user
}

func (f *placeHandlerFixture) seedPlace(t *testing.T, creatorID uuid.UUID) PlaceResponse {
	t.Helper()

	body := `{
		"title": "Empire State Building",
		"description": "A famous skyscraper.",
		"address": "20 W 34th St, New York, NY 10001",
		"image_path": "uploads/images/empire.jpg"
	}`
	rec := f.do(t, http.MethodPost, "/api/places", body, creatorID)
	require.Equal(t, http.StatusCreated, rec.Code)

	var place PlaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &place))
	return place
}

// do performs a request against the fixture router. A non-nil userID is
// placed in the context the way the auth middleware would.
func (f *placeHandlerFixture) do(
	t *testing.T,
	method, target, body string,
	userID uuid.UUID,
) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	if userID != uuid.Nil {
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePlaceHandler(t *testing.T) {
	t.Run("creates place and returns 201", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		user := f.seedUser(t, "owner@example.com")

		place := f.seedPlace(t, user.ID)

		assert.Equal(t, user.ID, place.CreatorID)
		assert.Equal(t, 40.748817, place.Location.Lat)
		assert.Equal(t, -73.985428, place.Location.Lng)
		assert.Equal(t, 1, f.placeStore.Count())
	})

	t.Run("missing user context returns 401", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/places",
			`{"title":"T","description":"D","address":"A","image_path":"p.jpg"}`, uuid.Nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 0, f.placeStore.Count())
	})

	t.Run("invalid body returns 400", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		user := f.seedUser(t, "owner@example.com")

		rec := f.do(t, http.MethodPost, "/api/places", `{not json`, user.ID)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields return 400", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		user := f.seedUser(t, "owner@example.com")

		rec := f.do(t, http.MethodPost, "/api/places",
			`{"title":"Only a title"}`, user.ID)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, f.placeStore.Count())
	})

	t.Run("geocoder failure returns 502 and writes nothing", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		user := f.seedUser(t, "owner@example.com")
		f.geocoder.Err = geocoding.ErrNoResults

		rec := f.do(t, http.MethodPost, "/api/places",
			`{"title":"T","description":"D","address":"Nowhere","image_path":"p.jpg"}`, user.ID)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, 0, f.placeStore.Count())
	})
}

func TestGetPlaceHandler(t *testing.T) {
	f := newPlaceHandlerFixture(t)
	user := f.seedUser(t, "owner@example.com")
	place := f.seedPlace(t, user.ID)

	t.Run("returns the place", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/places/"+place.ID.String(), "", uuid.Nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var got PlaceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, place.ID, got.ID)
		assert.Equal(t, place.Title, got.Title)
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/places/"+uuid.NewString(), "", uuid.Nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/places/not-a-uuid", "", uuid.Nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListPlacesByUserHandler(t *testing.T) {
	f := newPlaceHandlerFixture(t)
	user := f.seedUser(t, "owner@example.com")
	first := f.seedPlace(t, user.ID)

	t.Run("returns owned places in creation order", func(t *testing.T) {
		body := `{
			"title": "Chrysler Building",
			"description": "Art deco landmark.",
			"address": "405 Lexington Ave, New York, NY 10174",
			"image_path": "uploads/images/chrysler.jpg"
		}`
		rec := f.do(t, http.MethodPost, "/api/places", body, user.ID)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = f.do(t, http.MethodGet, "/api/places/user/"+user.ID.String(), "", uuid.Nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got PlaceListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got.Places, 2)
		assert.Equal(t, first.ID, got.Places[0].ID)
	})

	t.Run("user with no places returns 404", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/places/user/"+uuid.NewString(), "", uuid.Nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdatePlaceHandler(t *testing.T) {
	t.Run("owner updates the place", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		user := f.seedUser(t, "owner@example.com")
		place := f.seedPlace(t, user.ID)

		rec := f.do(t, http.MethodPatch, "/api/places/"+place.ID.String(),
			`{"title":"New Title","description":"New description."}`, user.ID)

		require.Equal(t, http.StatusOK, rec.Code)
		var got PlaceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "New Title", got.Title)
		assert.Equal(t, place.Address, got.Address)
	})

	t.Run("non-owner gets 403 and nothing changes", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		owner := f.seedUser(t, "owner@example.com")
		intruder := f.seedUser(t, "intruder@example.com")
		place := f.seedPlace(t, owner.ID)

		rec := f.do(t, http.MethodPatch, "/api/places/"+place.ID.String(),
			`{"title":"Hijacked","description":"Should never stick."}`, intruder.ID)

		assert.Equal(t, http.StatusForbidden, rec.Code)

		stored, err := f.placeStore.GetByID(context.Background(), place.ID)
		require.NoError(t, err)
		assert.Equal(t, place.Title, stored.Title)
	})

	t.Run("without authentication returns 401", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		owner := f.seedUser(t, "owner@example.com")
		place := f.seedPlace(t, owner.ID)

		rec := f.do(t, http.MethodPatch, "/api/places/"+place.ID.String(),
			`{"title":"T","description":"D"}`, uuid.Nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDeletePlaceHandler(t *testing.T) {
	t.Run("owner deletes place and membership together", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		user := f.seedUser(t, "owner@example.com")
		place := f.seedPlace(t, user.ID)

		rec := f.do(t, http.MethodDelete, "/api/places/"+place.ID.String(), "", user.ID)

		require.Equal(t, http.StatusOK, rec.Code)
		var got shared.MessageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Deleted place.", got.Message)

		assert.Equal(t, 0, f.placeStore.Count())
		owner, err := f.userStore.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Empty(t, owner.PlaceIDs)
		assert.Equal(t, []string{place.ImagePath}, f.images.RemovedPaths())
	})

	t.Run("non-owner gets 403 and both records survive", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		owner := f.seedUser(t, "owner@example.com")
		intruder := f.seedUser(t, "intruder@example.com")
		place := f.seedPlace(t, owner.ID)

		rec := f.do(t, http.MethodDelete, "/api/places/"+place.ID.String(), "", intruder.ID)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, 1, f.placeStore.Count())
		ownerUser, err := f.userStore.GetByID(context.Background(), owner.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{place.ID}, ownerUser.PlaceIDs)
	})

	t.Run("unknown place returns 404", func(t *testing.T) {
		f := newPlaceHandlerFixture(t)
		user := f.seedUser(t, "owner@example.com")

		rec := f.do(t, http.MethodDelete, "/api/places/"+uuid.NewString(), "", user.ID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPlaceResponseShape(t *testing.T) {
	f := newPlaceHandlerFixture(t)
	user := f.seedUser(t, "owner@example.com")
	place := f.seedPlace(t, user.ID)

	rec := f.do(t, http.MethodGet, "/api/places/"+place.ID.String(), "", uuid.Nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{
		"id", "title", "description", "address", "location",
		"image_path", "creator_id", "created_at", "updated_at",
	} {
		assert.Contains(t, raw, key, fmt.Sprintf("response missing %q", key))
	}
}

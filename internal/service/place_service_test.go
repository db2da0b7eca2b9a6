package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointco/waypoint-api/internal/domain"
	"github.com/waypointco/waypoint-api/internal/geocoding"
	"github.com/waypointco/waypoint-api/internal/store"
	"github.com/waypointco/waypoint-api/internal/testutils"
)

type placeServiceFixture struct {
	service    PlaceService
	placeStore *testutils.FakePlaceStore
	userStore  *testutils.FakeUserStore
	txRunner   *testutils.FakeTxRunner
	geocoder   *testutils.FakeGeocoder
	images     *testutils.FakeImageStore
}

func newPlaceServiceFixture(t *testing.T) *placeServiceFixture {
	t.Helper()

	placeStore := testutils.NewFakePlaceStore()
	userStore := testutils.NewFakeUserStore()
	txRunner := testutils.NewFakeTxRunner(placeStore, userStore)
	geocoder := &testutils.FakeGeocoder{
		Coords: domain.Coordinates{Lat: 40.748817, Lng: -73.985428},
	}
	images := &testutils.FakeImageStore{}

	svc, err := NewPlaceService(placeStore, userStore, txRunner, geocoder, images, slog.Default())
	require.NoError(t, err)

	return &placeServiceFixture{
		service:    svc,
		placeStore: placeStore,
		userStore:  userStore,
		txRunner:   txRunner,
		geocoder:   geocoder,
		images:     images,
	}
}

func (f *placeServiceFixture) seedUser(t *testing.T) *domain.User {
	t.Helper()

	user, err := domain.NewUser("owner@example.com", "password123")
	require.NoError(t, err)
	user.HashedPassword = "$2a$10$fakehashfakehashfakehash"
	user.Password = ""
	require.NoError(t, f.userStore.Create(context.Background(), user))
	return user
}

func (f *placeServiceFixture) seedPlace(t *testing.T, creatorID uuid.UUID) *domain.Place {
	t.Helper()

	ctx := context.Background()
	place, err := f.service.CreatePlace(ctx, creatorID, CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "One of the most famous skyscrapers in the world.",
		Address:     "20 W 34th St, New York, NY 10001",
		ImagePath:   "uploads/images/empire.jpg",
	})
	require.NoError(t, err)
	return place
}

func TestNewPlaceService(t *testing.T) {
	placeStore := testutils.NewFakePlaceStore()
	userStore := testutils.NewFakeUserStore()
	txRunner := testutils.NewFakeTxRunner(placeStore, userStore)
	geocoder := &testutils.FakeGeocoder{}
	images := &testutils.FakeImageStore{}

	tests := []struct {
		name        string
		placeStore  store.PlaceStore
		userStore   store.UserStore
		txRunner    store.TxRunner
		geocoder    *testutils.FakeGeocoder
		images      *testutils.FakeImageStore
		expectError string
	}{
		{"nil placeStore", nil, userStore, txRunner, geocoder, images, "placeStore"},
		{"nil userStore", placeStore, nil, txRunner, geocoder, images, "userStore"},
		{"nil txRunner", placeStore, userStore, nil, geocoder, images, "txRunner"},
		{"all provided", placeStore, userStore, txRunner, geocoder, images, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewPlaceService(
				tt.placeStore, tt.userStore, tt.txRunner, tt.geocoder, tt.images, nil)

			if tt.expectError != "" {
				assert.Error(t, err)
				assert.Nil(t, svc)
				assert.Contains(t, err.Error(), tt.expectError)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreatePlace_CommitsBothRecords(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	ctx := context.Background()

	place, err := f.service.CreatePlace(ctx, user.ID, CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "A famous skyscraper.",
		Address:     "20 W 34th St, New York, NY 10001",
		ImagePath:   "uploads/images/empire.jpg",
	})
	require.NoError(t, err)
	require.NotNil(t, place)

	assert.Equal(t, user.ID, place.CreatorID)
	assert.Equal(t, f.geocoder.Coords, place.Location)

	// The place record is visible.
	stored, err := f.placeStore.GetByID(ctx, place.ID)
	require.NoError(t, err)
	assert.Equal(t, place.Title, stored.Title)

	// The owner's membership list references it.
	owner, err := f.userStore.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{place.ID}, owner.PlaceIDs)

	// Nothing was cleaned up.
	assert.Empty(t, f.images.RemovedPaths())
}

func TestCreatePlace_GeocodeFailureWritesNothing(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	f.geocoder.Err = geocoding.ErrGeocodeFailed
	ctx := context.Background()

	_, err := f.service.CreatePlace(ctx, user.ID, CreatePlaceInput{
		Title:       "Nowhere",
		Description: "An address the resolver cannot place.",
		Address:     "1 Nonexistent Way",
		ImagePath:   "uploads/images/nowhere.jpg",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, geocoding.ErrGeocodeFailed)

	assert.Equal(t, 0, f.placeStore.Count())
	owner, getErr := f.userStore.GetByID(ctx, user.ID)
	require.NoError(t, getErr)
	assert.Empty(t, owner.PlaceIDs)

	// The uploaded image would be orphaned, so it gets cleaned up.
	assert.Equal(t, []string{"uploads/images/nowhere.jpg"}, f.images.RemovedPaths())
}

func TestCreatePlace_UnknownCreatorAborts(t *testing.T) {
	f := newPlaceServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.CreatePlace(ctx, uuid.New(), CreatePlaceInput{
		Title:       "Orphan",
		Description: "Created with a credential for a deleted account.",
		Address:     "20 W 34th St, New York, NY 10001",
		ImagePath:   "uploads/images/orphan.jpg",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	assert.Equal(t, 0, f.placeStore.Count())
	assert.Equal(t, []string{"uploads/images/orphan.jpg"}, f.images.RemovedPaths())
}

func TestCreatePlace_MembershipFailureRollsBackPlace(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	f.userStore.AppendPlaceErr = errors.New("membership write refused")
	ctx := context.Background()

	_, err := f.service.CreatePlace(ctx, user.ID, CreatePlaceInput{
		Title:       "Half Written",
		Description: "The second half of the dual write fails.",
		Address:     "20 W 34th St, New York, NY 10001",
		ImagePath:   "uploads/images/half.jpg",
	})
	require.Error(t, err)

	// Neither half is visible.
	assert.Equal(t, 0, f.placeStore.Count())
	owner, getErr := f.userStore.GetByID(ctx, user.ID)
	require.NoError(t, getErr)
	assert.Empty(t, owner.PlaceIDs)
}

func TestCreatePlace_CommitFailureSurfacesTransactionError(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	f.txRunner.CommitErr = errors.New("connection reset")
	ctx := context.Background()

	_, err := f.service.CreatePlace(ctx, user.ID, CreatePlaceInput{
		Title:       "Unlucky",
		Description: "The commit itself fails.",
		Address:     "20 W 34th St, New York, NY 10001",
		ImagePath:   "uploads/images/unlucky.jpg",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrTransactionFailed)

	assert.Equal(t, 0, f.placeStore.Count())
}

func TestGetPlace(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	place := f.seedPlace(t, user.ID)
	ctx := context.Background()

	t.Run("existing place", func(t *testing.T) {
		got, err := f.service.GetPlace(ctx, place.ID)
		require.NoError(t, err)
		assert.Equal(t, place.ID, got.ID)
		assert.Equal(t, place.Title, got.Title)
	})

	t.Run("repeated reads observe the same state", func(t *testing.T) {
		first, err := f.service.GetPlace(ctx, place.ID)
		require.NoError(t, err)
		second, err := f.service.GetPlace(ctx, place.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("missing place", func(t *testing.T) {
		_, err := f.service.GetPlace(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrPlaceNotFound)
	})
}

func TestListPlacesByCreator(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	first := f.seedPlace(t, user.ID)
	ctx := context.Background()

	second, err := f.service.CreatePlace(ctx, user.ID, CreatePlaceInput{
		Title:       "Chrysler Building",
		Description: "Art deco landmark.",
		Address:     "405 Lexington Ave, New York, NY 10174",
		ImagePath:   "uploads/images/chrysler.jpg",
	})
	require.NoError(t, err)

	t.Run("returns places in creation order", func(t *testing.T) {
		places, err := f.service.ListPlacesByCreator(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, places, 2)
		assert.Equal(t, first.ID, places[0].ID)
		assert.Equal(t, second.ID, places[1].ID)
	})

	t.Run("user with no places yields not found", func(t *testing.T) {
		_, err := f.service.ListPlacesByCreator(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrPlaceNotFound)
	})
}

func TestUpdatePlace(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can update title and description", func(t *testing.T) {
		f := newPlaceServiceFixture(t)
		user := f.seedUser(t)
		place := f.seedPlace(t, user.ID)

		updated, err := f.service.UpdatePlace(
			ctx, user.ID, place.ID, "New Title", "New description.")
		require.NoError(t, err)
		assert.Equal(t, "New Title", updated.Title)
		assert.Equal(t, "New description.", updated.Description)
		assert.Equal(t, place.Location, updated.Location)
		assert.Equal(t, place.Address, updated.Address)

		stored, err := f.placeStore.GetByID(ctx, place.ID)
		require.NoError(t, err)
		assert.Equal(t, "New Title", stored.Title)
	})

	t.Run("non-owner is rejected and nothing changes", func(t *testing.T) {
		f := newPlaceServiceFixture(t)
		user := f.seedUser(t)
		place := f.seedPlace(t, user.ID)

		_, err := f.service.UpdatePlace(
			ctx, uuid.New(), place.ID, "Hijacked", "Should never stick.")
		assert.ErrorIs(t, err, ErrNotOwned)

		stored, getErr := f.placeStore.GetByID(ctx, place.ID)
		require.NoError(t, getErr)
		assert.Equal(t, place.Title, stored.Title)
	})

	t.Run("missing place", func(t *testing.T) {
		f := newPlaceServiceFixture(t)
		user := f.seedUser(t)

		_, err := f.service.UpdatePlace(ctx, user.ID, uuid.New(), "Title", "Description.")
		assert.ErrorIs(t, err, store.ErrPlaceNotFound)
	})
}

func TestDeletePlace_RemovesBothRecords(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	place := f.seedPlace(t, user.ID)
	ctx := context.Background()

	err := f.service.DeletePlace(ctx, user.ID, place.ID)
	require.NoError(t, err)

	_, err = f.placeStore.GetByID(ctx, place.ID)
	assert.ErrorIs(t, err, store.ErrPlaceNotFound)

	owner, err := f.userStore.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, owner.PlaceIDs)

	assert.Equal(t, []string{place.ImagePath}, f.images.RemovedPaths())
}

func TestDeletePlace_NonOwnerIsRejected(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	place := f.seedPlace(t, user.ID)
	ctx := context.Background()

	intruder, err := domain.NewUser("intruder@example.com", "password123")
	require.NoError(t, err)
	intruder.HashedPassword = "$2a$10$fakehashfakehashfakehash"
	intruder.Password = ""
	require.NoError(t, f.userStore.Create(ctx, intruder))

	err = f.service.DeletePlace(ctx, intruder.ID, place.ID)
	assert.ErrorIs(t, err, ErrNotOwned)

	// Nothing was deleted, including the image.
	_, err = f.placeStore.GetByID(ctx, place.ID)
	assert.NoError(t, err)
	owner, err := f.userStore.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{place.ID}, owner.PlaceIDs)
	assert.Empty(t, f.images.RemovedPaths())
}

func TestDeletePlace_MissingPlace(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)

	err := f.service.DeletePlace(context.Background(), user.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrPlaceNotFound)
}

func TestDeletePlace_PlaceDeleteFailureRestoresMembership(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	place := f.seedPlace(t, user.ID)
	f.placeStore.DeleteErr = errors.New("place delete refused")
	ctx := context.Background()

	err := f.service.DeletePlace(ctx, user.ID, place.ID)
	require.Error(t, err)

	// The membership removal inside the transaction was rolled back.
	owner, getErr := f.userStore.GetByID(ctx, user.ID)
	require.NoError(t, getErr)
	assert.Equal(t, []uuid.UUID{place.ID}, owner.PlaceIDs)

	_, getErr = f.placeStore.GetByID(ctx, place.ID)
	assert.NoError(t, getErr)

	// No cleanup after an aborted delete.
	assert.Empty(t, f.images.RemovedPaths())
}

func TestDeletePlace_ImageCleanupFailureDoesNotFailDelete(t *testing.T) {
	f := newPlaceServiceFixture(t)
	user := f.seedUser(t)
	place := f.seedPlace(t, user.ID)
	f.images.Err = errors.New("disk unreachable")
	ctx := context.Background()

	err := f.service.DeletePlace(ctx, user.ID, place.ID)
	require.NoError(t, err)

	// Both records are gone even though the image cleanup failed.
	_, err = f.placeStore.GetByID(ctx, place.ID)
	assert.ErrorIs(t, err, store.ErrPlaceNotFound)
	owner, getErr := f.userStore.GetByID(ctx, user.ID)
	require.NoError(t, getErr)
	assert.Empty(t, owner.PlaceIDs)
}

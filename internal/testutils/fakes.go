// Package testutils provides in-memory store fakes for service and handler
// tests. The fakes honor the same transaction contract as the SQL stores:
// FakeTxRunner snapshots every registered store before running the function
// and restores the snapshots when it fails, so a failed dual write leaves no
// trace, exactly like a rolled-back database transaction.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/waypointco/waypoint-api/internal/domain"
	"github.com/waypointco/waypoint-api/internal/store"
)

// snapshotter is implemented by fakes whose state FakeTxRunner can save and
// restore.
type snapshotter interface {
	snapshot() interface{}
	restore(state interface{})
}

// FakeTxRunner implements store.TxRunner over in-memory fakes. BeginErr and
// CommitErr inject infrastructure failures; both surface wrapped in
// store.ErrTransactionFailed like the SQL runner's.
type FakeTxRunner struct {
	stores []snapshotter

	BeginErr  error
	CommitErr error
}

// NewFakeTxRunner creates a TxRunner coordinating the given fakes.
func NewFakeTxRunner(stores ...snapshotter) *FakeTxRunner {
	return &FakeTxRunner{stores: stores}
}

// Run implements store.TxRunner. The *sql.Tx passed to fn is nil; the fakes'
// WithTx methods ignore it.
func (r *FakeTxRunner) Run(ctx context.Context, fn store.TxFn) error {
	if r.BeginErr != nil {
		return fmt.Errorf("%w: begin: %v", store.ErrTransactionFailed, r.BeginErr)
	}

	states := make([]interface{}, len(r.stores))
	for i, s := range r.stores {
		states[i] = s.snapshot()
	}

	rollback := func() {
		for i, s := range r.stores {
			s.restore(states[i])
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, nil); err != nil {
		rollback()
		return err
	}

	if r.CommitErr != nil {
		rollback()
		return fmt.Errorf("%w: commit: %v", store.ErrTransactionFailed, r.CommitErr)
	}

	return nil
}

// FakePlaceStore is an in-memory store.PlaceStore with per-method failure
// injection.
type FakePlaceStore struct {
	mu     sync.Mutex
	places map[uuid.UUID]*domain.Place
	nextID int
	order  map[uuid.UUID]int

	CreateErr error
	GetErr    error
	ListErr   error
	UpdateErr error
	DeleteErr error
}

// NewFakePlaceStore creates an empty FakePlaceStore.
func NewFakePlaceStore() *FakePlaceStore {
	return &FakePlaceStore{
		places: make(map[uuid.UUID]*domain.Place),
		order:  make(map[uuid.UUID]int),
	}
}

type fakePlaceState struct {
	places map[uuid.UUID]*domain.Place
	nextID int
	order  map[uuid.UUID]int
}

func (s *FakePlaceStore) snapshot() interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := fakePlaceState{
		places: make(map[uuid.UUID]*domain.Place, len(s.places)),
		nextID: s.nextID,
		order:  make(map[uuid.UUID]int, len(s.order)),
	}
	for id, p := range s.places {
		state.places[id] = clonePlace(p)
	}
	for id, seq := range s.order {
		state.order[id] = seq
	}
	return state
}

func (s *FakePlaceStore) restore(state interface{}) {
	st := state.(fakePlaceState)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.places = make(map[uuid.UUID]*domain.Place, len(st.places))
	for id, p := range st.places {
		s.places[id] = clonePlace(p)
	}
	s.nextID = st.nextID
	s.order = make(map[uuid.UUID]int, len(st.order))
	for id, seq := range st.order {
		s.order[id] = seq
	}
}

// Create implements store.PlaceStore.
func (s *FakePlaceStore) Create(ctx context.Context, place *domain.Place) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.places[place.ID] = clonePlace(place)
	s.nextID++
	s.order[place.ID] = s.nextID
	return nil
}

// GetByID implements store.PlaceStore.
func (s *FakePlaceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	place, ok := s.places[id]
	if !ok {
		return nil, store.ErrPlaceNotFound
	}
	return clonePlace(place), nil
}

// ListByCreator implements store.PlaceStore.
func (s *FakePlaceStore) ListByCreator(
	ctx context.Context,
	creatorID uuid.UUID,
) ([]*domain.Place, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	places := make([]*domain.Place, 0)
	for _, place := range s.places {
		if place.CreatorID == creatorID {
			places = append(places, clonePlace(place))
		}
	}
	sort.Slice(places, func(i, j int) bool {
		return s.order[places[i].ID] < s.order[places[j].ID]
	})
	return places, nil
}

// Update implements store.PlaceStore.
func (s *FakePlaceStore) Update(ctx context.Context, place *domain.Place) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.places[place.ID]
	if !ok {
		return store.ErrPlaceNotFound
	}
	existing.Title = place.Title
	existing.Description = place.Description
	existing.UpdatedAt = place.UpdatedAt
	return nil
}

// Delete implements store.PlaceStore.
func (s *FakePlaceStore) Delete(ctx context.Context, id uuid.UUID) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.places[id]; !ok {
		return store.ErrPlaceNotFound
	}
	delete(s.places, id)
	delete(s.order, id)
	return nil
}

// WithTx implements store.PlaceStore. The fake has a single shared state;
// transactional semantics come from FakeTxRunner's snapshots.
func (s *FakePlaceStore) WithTx(tx *sql.Tx) store.PlaceStore {
	return s
}

// Count returns the number of stored places.
func (s *FakePlaceStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.places)
}

// FakeUserStore is an in-memory store.UserStore with per-method failure
// injection.
type FakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	CreateErr      error
	GetErr         error
	ListErr        error
	AppendPlaceErr error
	RemovePlaceErr error
}

// NewFakeUserStore creates an empty FakeUserStore.
func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *FakeUserStore) snapshot() interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := make(map[uuid.UUID]*domain.User, len(s.users))
	for id, u := range s.users {
		state[id] = cloneUser(u)
	}
	return state
}

func (s *FakeUserStore) restore(state interface{}) {
	st := state.(map[uuid.UUID]*domain.User)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[uuid.UUID]*domain.User, len(st))
	for id, u := range st {
		s.users[id] = cloneUser(u)
	}
}

// Create implements store.UserStore.
func (s *FakeUserStore) Create(ctx context.Context, user *domain.User) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID implements store.UserStore.
func (s *FakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// GetByEmail implements store.UserStore.
func (s *FakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// List implements store.UserStore.
func (s *FakeUserStore) List(ctx context.Context) ([]*domain.User, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// AppendPlace implements store.UserStore.
func (s *FakeUserStore) AppendPlace(ctx context.Context, userID, placeID uuid.UUID) error {
	if s.AppendPlaceErr != nil {
		return s.AppendPlaceErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	for _, id := range user.PlaceIDs {
		if id == placeID {
			return fmt.Errorf("%w: place membership", store.ErrDuplicate)
		}
	}
	user.PlaceIDs = append(user.PlaceIDs, placeID)
	return nil
}

// RemovePlace implements store.UserStore.
func (s *FakeUserStore) RemovePlace(ctx context.Context, userID, placeID uuid.UUID) error {
	if s.RemovePlaceErr != nil {
		return s.RemovePlaceErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	for i, id := range user.PlaceIDs {
		if id == placeID {
			user.PlaceIDs = append(user.PlaceIDs[:i], user.PlaceIDs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: place membership", store.ErrNotFound)
}

// WithTx implements store.UserStore.
func (s *FakeUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return s
}

func clonePlace(p *domain.Place) *domain.Place {
	cp := *p
	return &cp
}

func cloneUser(u *domain.User) *domain.User {
	cu := *u
	cu.PlaceIDs = append([]uuid.UUID(nil), u.PlaceIDs...)
	return &cu
}

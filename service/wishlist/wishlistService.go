package wishlist

import (
	"context"
	"errors"
	"sync"

	"booknest/model"
	wishlistrepo "booknest/repository/wishlist"

	"github.com/google/uuid"
)

var (
	ErrDuplicate = wishlistrepo.ErrDuplicate
	ErrNotFound  = errors.New("wishlist item not found")
)

type Service interface {
	Add(ctx context.Context, userID, bookID int64, priority int, notes string) (*model.WishlistItem, error)
	RemoveByBook(ctx context.Context, userID, bookID int64) error
	RemoveByID(ctx context.Context, userID int64, id uuid.UUID) error
	Update(ctx context.Context, userID int64, id uuid.UUID, priority *int, notes *string) (*model.WishlistItem, error)
	List(ctx context.Context, userID int64) ([]model.WishlistItem, error)

	// Contains answers from the local id-set cache without touching the store.
	Contains(ctx context.Context, userID, bookID int64) (bool, error)

	// Refresh rebuilds a user's cached id set from the store, which stays
	// the source of truth whenever the cache and store diverge.
	Refresh(ctx context.Context, userID int64) error

	Clear(ctx context.Context, userID int64) error
}

// command pairs an optimistic cache mutation with its inverse. The mutation
// is applied before the store call and undone if that call fails.
type command struct {
	apply func()
	undo  func()
}

type service struct {
	r wishlistrepo.Repo

	mu    sync.Mutex
	cache map[int64]map[int64]struct{} // userID -> set of bookIDs
}

func New(r wishlistrepo.Repo) Service {
	return &service{r: r, cache: make(map[int64]map[int64]struct{})}
}

func (s *service) Add(ctx context.Context, userID, bookID int64, priority int, notes string) (*model.WishlistItem, error) {
	if priority == 0 {
		priority = 3
	}
	if err := s.ensureCached(ctx, userID); err != nil {
		return nil, err
	}

	item := &model.WishlistItem{
		ID:       uuid.New(),
		UserID:   userID,
		BookID:   bookID,
		Priority: priority,
		Notes:    notes,
	}
	cmd := command{
		apply: func() { s.cacheAdd(userID, bookID) },
		undo:  func() { s.cacheRemove(userID, bookID) },
	}
	if err := s.run(cmd, func() error { return s.r.Add(ctx, item) }); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) RemoveByBook(ctx context.Context, userID, bookID int64) error {
	if err := s.ensureCached(ctx, userID); err != nil {
		return err
	}
	cmd := command{
		apply: func() { s.cacheRemove(userID, bookID) },
		undo:  func() { s.cacheAdd(userID, bookID) },
	}
	return s.run(cmd, func() error {
		ok, err := s.r.RemoveByBook(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

func (s *service) RemoveByID(ctx context.Context, userID int64, id uuid.UUID) error {
	ok, err := s.r.RemoveByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	// the cache is keyed by book id, which the delete does not report back
	return s.Refresh(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID int64, id uuid.UUID, priority *int, notes *string) (*model.WishlistItem, error) {
	it, err := s.r.Update(ctx, userID, id, priority, notes)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, ErrNotFound
	}
	return it, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	return s.r.List(ctx, userID)
}

func (s *service) Contains(ctx context.Context, userID, bookID int64) (bool, error) {
	if err := s.ensureCached(ctx, userID); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache[userID][bookID]
	return ok, nil
}

func (s *service) Refresh(ctx context.Context, userID int64) error {
	ids, err := s.r.BookIDs(ctx, userID)
	if err != nil {
		return err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	s.mu.Lock()
	s.cache[userID] = set
	s.mu.Unlock()
	return nil
}

func (s *service) Clear(ctx context.Context, userID int64) error {
	if err := s.r.Clear(ctx, userID); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache[userID] = make(map[int64]struct{})
	s.mu.Unlock()
	return nil
}

// run applies the optimistic mutation, then the store call, rolling the
// mutation back if the store rejects it. Last writer wins on the cache;
// Refresh reconciles any divergence.
func (s *service) run(cmd command, remote func() error) error {
	cmd.apply()
	if err := remote(); err != nil {
		cmd.undo()
		return err
	}
	return nil
}

func (s *service) ensureCached(ctx context.Context, userID int64) error {
	s.mu.Lock()
	_, ok := s.cache[userID]
	s.mu.Unlock()
	if ok {
		return nil
	}
	return s.Refresh(ctx, userID)
}

func (s *service) cacheAdd(userID, bookID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.cache[userID]
	if set == nil {
		set = make(map[int64]struct{})
		s.cache[userID] = set
	}
	set[bookID] = struct{}{}
}

func (s *service) cacheRemove(userID, bookID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache[userID], bookID)
}

package cartsvc

import (
	"context"
	"log/slog"
	"time"

	"booknest/model"
	cartrepo "booknest/repository/cart"
)

// Service wraps the cart aggregate with its persistence adapter. The cart is
// a staging cache: every mutation is written through, but a failed write is
// logged and the mutated cart still returned, since the reservation submit
// re-validates everything anyway.
type Service interface {
	Get(ctx context.Context, userID int64) (*model.Cart, error)
	Add(ctx context.Context, userID, bookID int64, pickup *time.Time, durationDays int) (*model.Cart, error)
	Remove(ctx context.Context, userID, bookID int64) (*model.Cart, error)
	Update(ctx context.Context, userID, bookID int64, patch model.CartPatch) (*model.Cart, error)
	Clear(ctx context.Context, userID int64) error
}

type service struct {
	r   cartrepo.Repo
	log *slog.Logger
}

func New(r cartrepo.Repo, log *slog.Logger) Service { return &service{r: r, log: log} }

func (s *service) Get(ctx context.Context, userID int64) (*model.Cart, error) {
	return s.r.Load(ctx, userID)
}

func (s *service) Add(ctx context.Context, userID, bookID int64, pickup *time.Time, durationDays int) (*model.Cart, error) {
	c, err := s.r.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.Add(bookID, pickup, durationDays); err != nil {
		return nil, err
	}
	s.persist(ctx, userID, c)
	return c, nil
}

func (s *service) Remove(ctx context.Context, userID, bookID int64) (*model.Cart, error) {
	c, err := s.r.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.Remove(bookID) {
		s.persist(ctx, userID, c)
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, userID, bookID int64, patch model.CartPatch) (*model.Cart, error) {
	c, err := s.r.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	changed, err := c.Update(bookID, patch)
	if err != nil {
		return nil, err
	}
	if changed {
		s.persist(ctx, userID, c)
	}
	return c, nil
}

func (s *service) Clear(ctx context.Context, userID int64) error {
	return s.r.Clear(ctx, userID)
}

func (s *service) persist(ctx context.Context, userID int64, c *model.Cart) {
	if err := s.r.Save(ctx, userID, c); err != nil {
		s.log.Error("cart save failed", "user_id", userID, "err", err)
	}
}

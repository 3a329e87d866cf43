package booksvc

import (
	"context"
	"errors"

	"booknest/model"
)

type Repo interface {
	CreateBook(ctx context.Context, b *model.Book) (int64, error)
	AddCopies(ctx context.Context, bookID int64, n int) (int64, error)
	SetCopyStatus(ctx context.Context, copyID int64, status model.CopyStatus) error
	List(ctx context.Context, genre, search string) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type Service interface {
	// Create normalizes the loose inbound shape before anything touches storage.
	Create(ctx context.Context, raw model.RawBook) (int64, error)
	AddCopies(ctx context.Context, bookID int64, n int) (int64, error)
	SetCopyStatus(ctx context.Context, copyID int64, status model.CopyStatus) error
	List(ctx context.Context, genre, search string) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, raw model.RawBook) (int64, error) {
	b := raw.Normalize()
	if b.Title == "" || b.Author == "" {
		return 0, errors.New("invalid payload")
	}
	return s.r.CreateBook(ctx, &b)
}

func (s *service) AddCopies(ctx context.Context, bookID int64, n int) (int64, error) {
	return s.r.AddCopies(ctx, bookID, n)
}

func (s *service) SetCopyStatus(ctx context.Context, copyID int64, status model.CopyStatus) error {
	switch status {
	case model.CopyAvailable, model.CopyMaintenance:
		return s.r.SetCopyStatus(ctx, copyID, status)
	}
	// RESERVED/BORROWED are owned by the reservation lifecycle
	return errors.New("status not settable by hand")
}

func (s *service) List(ctx context.Context, genre, search string) ([]model.Book, error) {
	return s.r.List(ctx, genre, search)
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	return s.r.Detail(ctx, id)
}

package booksvc_test

import (
	"context"
	"errors"
	"testing"

	"booknest/model"
	booksvc "booknest/service/book"
)

type repoMock struct {
	createFn        func(ctx context.Context, b *model.Book) (int64, error)
	addCopiesFn     func(ctx context.Context, bookID int64, n int) (int64, error)
	setCopyStatusFn func(ctx context.Context, copyID int64, status model.CopyStatus) error
	listFn          func(ctx context.Context, genre, search string) ([]model.Book, error)
	detailFn        func(ctx context.Context, id int64) (*model.Book, error)
}

func (m *repoMock) CreateBook(ctx context.Context, b *model.Book) (int64, error) {
	return m.createFn(ctx, b)
}
func (m *repoMock) AddCopies(ctx context.Context, bookID int64, n int) (int64, error) {
	return m.addCopiesFn(ctx, bookID, n)
}
func (m *repoMock) SetCopyStatus(ctx context.Context, copyID int64, status model.CopyStatus) error {
	return m.setCopyStatusFn(ctx, copyID, status)
}
func (m *repoMock) List(ctx context.Context, genre, search string) ([]model.Book, error) {
	return m.listFn(ctx, genre, search)
}
func (m *repoMock) Detail(ctx context.Context, id int64) (*model.Book, error) {
	return m.detailFn(ctx, id)
}

func TestCreate_NormalizesLooseFields(t *testing.T) {
	var got *model.Book
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) (int64, error) {
			got = b
			return 42, nil
		},
	}
	s := booksvc.New(m)

	id, err := s.Create(context.Background(), model.RawBook{
		Title:      "Dune",
		AuthorName: "Frank Herbert",
		Category:   "Sci-Fi",
		CoverImage: "https://covers.example/dune.jpg",
	})
	if err != nil || id != 42 {
		t.Fatalf("got id=%v err=%v; want 42 nil", id, err)
	}
	if got.Author != "Frank Herbert" {
		t.Fatalf("author = %q; want authorName fallback", got.Author)
	}
	if len(got.Genres) != 1 || got.Genres[0] != "Sci-Fi" {
		t.Fatalf("genres = %v; want category fallback", got.Genres)
	}
	if got.CoverURL != "https://covers.example/dune.jpg" {
		t.Fatalf("cover = %q; want coverImage fallback", got.CoverURL)
	}
}

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{})
	if _, err := s.Create(context.Background(), model.RawBook{Author: "someone"}); err == nil {
		t.Fatal("expected error for missing title")
	}
	if _, err := s.Create(context.Background(), model.RawBook{Title: "untitled"}); err == nil {
		t.Fatal("expected error for missing author")
	}
}

func TestSetCopyStatus_LifecycleStatesRejected(t *testing.T) {
	called := false
	m := &repoMock{
		setCopyStatusFn: func(ctx context.Context, copyID int64, status model.CopyStatus) error {
			called = true
			return nil
		},
	}
	s := booksvc.New(m)

	for _, st := range []model.CopyStatus{model.CopyReserved, model.CopyBorrowed} {
		if err := s.SetCopyStatus(context.Background(), 1, st); err == nil {
			t.Fatalf("expected %s to be rejected", st)
		}
	}
	if called {
		t.Fatal("repo must not be touched for rejected statuses")
	}

	if err := s.SetCopyStatus(context.Background(), 1, model.CopyMaintenance); err != nil {
		t.Fatalf("MAINTENANCE: %v", err)
	}
	if !called {
		t.Fatal("repo not called for MAINTENANCE")
	}
}

func TestPassThroughs(t *testing.T) {
	m := &repoMock{
		addCopiesFn: func(ctx context.Context, bookID int64, n int) (int64, error) { return 3, nil },
		listFn: func(ctx context.Context, genre, search string) ([]model.Book, error) {
			if genre != "Sci-Fi" || search != "dune" {
				return nil, errors.New("filters not forwarded")
			}
			return nil, nil
		},
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) { return &model.Book{ID: id}, nil },
	}
	s := booksvc.New(m)

	if n, err := s.AddCopies(context.Background(), 7, 3); err != nil || n != 3 {
		t.Fatalf("AddCopies got %v %v; want 3 nil", n, err)
	}
	if _, err := s.List(context.Background(), "Sci-Fi", "dune"); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if _, err := s.Detail(context.Background(), 99); err != nil {
		t.Fatalf("Detail error: %v", err)
	}
}

// model/book.go
package model

type Book struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Author         string   `json:"author"`
	Genres         []string `json:"genres"`
	CoverURL       string   `json:"cover_url,omitempty"`
	CopiesTotal    int64    `json:"copies_total"`
	CopiesOnShelf  int64    `json:"copies_on_shelf"`
}

type CopyStatus string

const (
	CopyAvailable   CopyStatus = "AVAILABLE"
	CopyReserved    CopyStatus = "RESERVED"
	CopyBorrowed    CopyStatus = "BORROWED"
	CopyMaintenance CopyStatus = "MAINTENANCE"
)

type BookCopy struct {
	ID     int64      `json:"id"`
	BookID int64      `json:"book_id"`
	Status CopyStatus `json:"status"`
}

// RawBook is the loose shape book data arrives in: imports and the legacy
// admin tooling disagree on field names for author, genre and cover.
// Normalize is the single place those variants collapse into a Book.
type RawBook struct {
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	AuthorName string   `json:"authorName"`
	Authors    []string `json:"authors"`
	Genre      string   `json:"genre"`
	Genres     []string `json:"genres"`
	Category   string   `json:"category"`
	CoverURL   string   `json:"cover_url"`
	CoverImage string   `json:"coverImage"`
}

func (r RawBook) Normalize() Book {
	b := Book{Title: r.Title}

	switch {
	case r.Author != "":
		b.Author = r.Author
	case r.AuthorName != "":
		b.Author = r.AuthorName
	case len(r.Authors) > 0:
		b.Author = r.Authors[0]
	}

	switch {
	case len(r.Genres) > 0:
		b.Genres = r.Genres
	case r.Genre != "":
		b.Genres = []string{r.Genre}
	case r.Category != "":
		b.Genres = []string{r.Category}
	}

	b.CoverURL = r.CoverURL
	if b.CoverURL == "" {
		b.CoverURL = r.CoverImage
	}
	return b
}

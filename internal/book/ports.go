package book

import (
	"context"

	"libraryapi/internal/platform/openlibrary"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, int, error)
	GetByID(ctx context.Context, id int64) (Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, id int64, p Patch) (Book, error)
	Delete(ctx context.Context, id int64) error
}

// Catalog looks up bibliographic data for an ISBN.
type Catalog interface {
	GetBookByISBN(ctx context.Context, isbn string) (openlibrary.BookDetails, error)
}

package book

import (
	"context"
	"errors"
	"fmt"

	"libraryapi/internal/platform/openlibrary"
)

// Service provides book-related business logic.
type Service struct {
	repo    Repository
	catalog Catalog
}

// NewService creates a new book service. catalog may be nil, which disables Import.
func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Book, error) {
	if err := ValidateFee(in.DailyFee); err != nil {
		return Book{}, err
	}
	b := &Book{
		Title:     in.Title,
		Author:    in.Author,
		Cover:     in.Cover,
		Inventory: in.Inventory,
		DailyFee:  in.DailyFee,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	return *b, nil
}

// Update replaces every writable field.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Book, error) {
	return s.Patch(ctx, id, in.Patch())
}

// Patch changes only the fields set in p, leaving a concurrent inventory change intact.
func (s *Service) Patch(ctx context.Context, id int64, p Patch) (Book, error) {
	if p.DailyFee != nil {
		if err := ValidateFee(*p.DailyFee); err != nil {
			return Book{}, err
		}
	}
	if p.Empty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Import creates a book from Open Library metadata for isbn.
func (s *Service) Import(ctx context.Context, in ImportInput) (Book, error) {
	if s.catalog == nil {
		return Book{}, ErrCatalogUnavailable
	}
	details, err := s.catalog.GetBookByISBN(ctx, in.ISBN)
	if err != nil {
		if errors.Is(err, openlibrary.ErrNotFound) {
			return Book{}, ErrISBNNotFound
		}
		return Book{}, fmt.Errorf("%w: lookup isbn %s: %v", ErrCatalogUnavailable, in.ISBN, err)
	}

	author := details.AuthorNames()
	if author == "" {
		author = "Unknown"
	}
	return s.Create(ctx, Input{
		Title:     truncate(details.FullTitle(), 255),
		Author:    truncate(author, 255),
		Cover:     in.Cover,
		Inventory: in.Inventory,
		DailyFee:  in.DailyFee,
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

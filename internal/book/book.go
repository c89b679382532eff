package book

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CoverHard = "HARD"
	CoverSoft = "SOFT"
)

var (
	ErrNotFound           = errors.New("book not found")
	ErrNoCopiesAvailable  = errors.New("no copies of this book available")
	ErrHasBorrowings      = errors.New("book has borrowings")
	ErrInvalidFee         = errors.New("daily fee must be between 0 and 999.99 with at most 2 decimal places")
	ErrInvalidBook        = errors.New("book violates a data constraint")
	ErrISBNNotFound       = errors.New("isbn not found")
	ErrCatalogUnavailable = errors.New("book catalog unavailable")
)

var maxDailyFee = decimal.RequireFromString("999.99")

type Book struct {
	ID        int64
	Title     string
	Author    string
	Cover     string
	Inventory int
	DailyFee  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available reports whether at least one copy can be borrowed.
func (b Book) Available() bool {
	return b.Inventory > 0
}

// CoverLabel is the human readable name of a cover code.
func CoverLabel(cover string) string {
	switch cover {
	case CoverHard:
		return "Hardcover"
	case CoverSoft:
		return "Softcover"
	}
	return cover
}

// ValidateFee checks that fee fits NUMERIC(5,2) and is not negative.
func ValidateFee(fee decimal.Decimal) error {
	if fee.IsNegative() || fee.GreaterThan(maxDailyFee) || !fee.Equal(fee.Round(2)) {
		return ErrInvalidFee
	}
	return nil
}

// Input is a complete set of writable fields.
type Input struct {
	Title     string
	Author    string
	Cover     string
	Inventory int
	DailyFee  decimal.Decimal
}

// ImportInput describes a book whose title and author come from an ISBN lookup.
type ImportInput struct {
	ISBN      string
	Cover     string
	Inventory int
	DailyFee  decimal.Decimal
}

// Patch holds the fields to change; nil means untouched.
type Patch struct {
	Title     *string
	Author    *string
	Cover     *string
	Inventory *int
	DailyFee  *decimal.Decimal
}

func (in Input) Patch() Patch {
	return Patch{
		Title:     &in.Title,
		Author:    &in.Author,
		Cover:     &in.Cover,
		Inventory: &in.Inventory,
		DailyFee:  &in.DailyFee,
	}
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.Cover == nil && p.Inventory == nil && p.DailyFee == nil
}

// Query defines filters, ordering and pagination for listing books.
type Query struct {
	Q         string
	Cover     string
	Available bool
	Sort      string
	Desc      bool
	Limit     int
	Offset    int
}

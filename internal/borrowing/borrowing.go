package borrowing

import (
	"errors"
	"time"
)

var (
	ErrNotFound                  = errors.New("borrowing not found")
	ErrBookNotFound              = errors.New("book does not exist")
	ErrAlreadyReturned           = errors.New("this book has already been returned")
	ErrInvalidExpectedReturnDate = errors.New("expected return date cannot be before the borrow date")
	ErrInvalidReturnDate         = errors.New("actual return date cannot be before the borrow date")
)

const DateLayout = "2006-01-02"

// Borrowing is one user renting one copy of a book. Dates carry no time of day.
type Borrowing struct {
	ID                 int64
	UserID             string
	BookID             int64
	BorrowDate         time.Time
	ExpectedReturnDate time.Time
	ActualReturnDate   *time.Time
	CreatedAt          time.Time
}

// Active reports whether the book has not been returned yet.
func (b Borrowing) Active() bool {
	return b.ActualReturnDate == nil
}

func (b Borrowing) Overdue(today time.Time) bool {
	return b.Active() && b.ExpectedReturnDate.Before(today)
}

// Viewer is the authenticated caller. Non-staff viewers only ever see their own borrowings.
type Viewer struct {
	UserID string
	Staff  bool
}

// OwnerScope is the user id every query must be restricted to, or "" for staff.
func (v Viewer) OwnerScope() string {
	if v.Staff {
		return ""
	}
	return v.UserID
}

// Filter narrows a borrowing list.
type Filter struct {
	OwnerID       string
	UserID        string
	BookID        int64
	Active        *bool
	OverdueBefore *time.Time
	Limit         int
	Offset        int
}

// DateOf drops the time of day, keeping the calendar date of t in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

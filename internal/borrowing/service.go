package borrowing

import (
	"context"
	"time"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock replaces the clock used for borrow dates and defaults.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Today is the current calendar date.
func (s *Service) Today() time.Time {
	return DateOf(s.now())
}

// Borrow lends one copy of bookID to the viewer, starting today.
func (s *Service) Borrow(ctx context.Context, viewer Viewer, bookID int64, expectedReturn time.Time) (Borrowing, error) {
	today := s.Today()
	expectedReturn = DateOf(expectedReturn)
	if expectedReturn.Before(today) {
		return Borrowing{}, ErrInvalidExpectedReturnDate
	}

	b := &Borrowing{
		UserID:             viewer.UserID,
		BookID:             bookID,
		BorrowDate:         today,
		ExpectedReturnDate: expectedReturn,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return Borrowing{}, err
	}
	return *b, nil
}

func (s *Service) List(ctx context.Context, viewer Viewer, f Filter) ([]Borrowing, int, error) {
	f.OwnerID = viewer.OwnerScope()
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, viewer Viewer, id int64) (Borrowing, error) {
	return s.repo.Get(ctx, id, viewer.OwnerScope())
}

// Return closes a borrowing. A nil date means today.
func (s *Service) Return(ctx context.Context, viewer Viewer, id int64, actual *time.Time) (Borrowing, error) {
	returnDate := s.Today()
	if actual != nil {
		returnDate = DateOf(*actual)
	}

	return s.repo.Return(ctx, id, viewer.OwnerScope(), func(b *Borrowing) error {
		if !b.Active() {
			return ErrAlreadyReturned
		}
		if returnDate.Before(b.BorrowDate) {
			return ErrInvalidReturnDate
		}
		b.ActualReturnDate = &returnDate
		return nil
	})
}

package borrowing

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=borrowing

// Repository stores borrowings and keeps book inventory in step with them.
type Repository interface {
	// Create takes one copy of the book and inserts b in a single transaction.
	Create(ctx context.Context, b *Borrowing) error
	List(ctx context.Context, f Filter) ([]Borrowing, int, error)
	Get(ctx context.Context, id int64, ownerID string) (Borrowing, error)
	// Return locks the row, lets apply validate and set the return date, then
	// saves it and puts the copy back, all in one transaction.
	Return(ctx context.Context, id int64, ownerID string, apply func(b *Borrowing) error) (Borrowing, error)
}

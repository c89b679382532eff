package borrowing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"libraryapi/internal/book"
	"libraryapi/internal/platform/postgres"
)

const (
	dialectPostgres = "postgres"
	tableBorrowings = "borrowings"
)

var borrowingColumns = []any{"id", "user_id", "book_id", "borrow_date", "expected_return_date", "actual_return_date", "created_at"}

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanBorrowing(row pgx.Row) (Borrowing, error) {
	var b Borrowing
	err := row.Scan(&b.ID, &b.UserID, &b.BookID, &b.BorrowDate, &b.ExpectedReturnDate, &b.ActualReturnDate, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Borrowing{}, ErrNotFound
		}
		return Borrowing{}, err
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, b *Borrowing) error {
	const takeCopy = `
		UPDATE books
		SET inventory = inventory - 1, updated_at = now()
		WHERE id = $1 AND inventory > 0
	`
	const bookExists = `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`
	const insert = `
		INSERT INTO borrowings (user_id, book_id, borrow_date, expected_return_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	return postgres.InTx(timeoutCtx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(timeoutCtx, takeCopy, b.BookID)
		if err != nil {
			return fmt.Errorf("take copy: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(timeoutCtx, bookExists, b.BookID).Scan(&exists); err != nil {
				return fmt.Errorf("check book: %w", err)
			}
			if !exists {
				return ErrBookNotFound
			}
			return book.ErrNoCopiesAvailable
		}

		err = tx.QueryRow(timeoutCtx, insert, b.UserID, b.BookID, b.BorrowDate, b.ExpectedReturnDate).
			Scan(&b.ID, &b.CreatedAt)
		if postgres.IsCheckViolation(err) {
			return ErrInvalidExpectedReturnDate
		}
		if err != nil {
			return fmt.Errorf("insert borrowing: %w", err)
		}
		return nil
	})
}

func filterExpressions(f Filter) []exp.Expression {
	var where []exp.Expression
	if f.OwnerID != "" {
		where = append(where, goqu.C("user_id").Eq(f.OwnerID))
	}
	if f.UserID != "" {
		where = append(where, goqu.C("user_id").Eq(f.UserID))
	}
	if f.BookID > 0 {
		where = append(where, goqu.C("book_id").Eq(f.BookID))
	}
	if f.Active != nil {
		if *f.Active {
			where = append(where, goqu.C("actual_return_date").IsNull())
		} else {
			where = append(where, goqu.C("actual_return_date").IsNotNull())
		}
	}
	if f.OverdueBefore != nil {
		where = append(where,
			goqu.C("actual_return_date").IsNull(),
			goqu.C("expected_return_date").Lt(*f.OverdueBefore),
		)
	}
	return where
}

// BuildListSQL returns the count and page queries for f.
func BuildListSQL(f Filter) (countSQL string, countArgs []any, pageSQL string, pageArgs []any, err error) {
	base := goqu.Dialect(dialectPostgres).From(tableBorrowings).Prepared(true).Where(filterExpressions(f)...)

	countSQL, countArgs, err = base.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build count query: %w", err)
	}

	page := base.Select(borrowingColumns...).Order(goqu.I("id").Asc())
	if f.Limit > 0 {
		page = page.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		page = page.Offset(uint(f.Offset))
	}
	pageSQL, pageArgs, err = page.ToSQL()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build list query: %w", err)
	}
	return countSQL, countArgs, pageSQL, pageArgs, nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Borrowing, int, error) {
	countSQL, countArgs, pageSQL, pageArgs, err := BuildListSQL(f)
	if err != nil {
		return nil, 0, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRow(timeoutCtx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(timeoutCtx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Borrowing{}
	for rows.Next() {
		b, err := scanBorrowing(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id int64, ownerID string) (Borrowing, error) {
	const query = `
		SELECT id, user_id, book_id, borrow_date, expected_return_date, actual_return_date, created_at
		FROM borrowings
		WHERE id = $1 AND ($2 = '' OR user_id::text = $2)
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBorrowing(r.db.QueryRow(timeoutCtx, query, id, ownerID))
}

func (r *PostgresRepo) Return(ctx context.Context, id int64, ownerID string, apply func(b *Borrowing) error) (Borrowing, error) {
	const lock = `
		SELECT id, user_id, book_id, borrow_date, expected_return_date, actual_return_date, created_at
		FROM borrowings
		WHERE id = $1 AND ($2 = '' OR user_id::text = $2)
		FOR UPDATE
	`
	const setReturned = `UPDATE borrowings SET actual_return_date = $2 WHERE id = $1`
	const putCopyBack = `UPDATE books SET inventory = inventory + 1, updated_at = now() WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out Borrowing
	err := postgres.InTx(timeoutCtx, r.db, func(tx pgx.Tx) error {
		b, err := scanBorrowing(tx.QueryRow(timeoutCtx, lock, id, ownerID))
		if err != nil {
			return err
		}
		if err := apply(&b); err != nil {
			return err
		}
		if _, err := tx.Exec(timeoutCtx, setReturned, b.ID, b.ActualReturnDate); err != nil {
			if postgres.IsCheckViolation(err) {
				return ErrInvalidReturnDate
			}
			return fmt.Errorf("set return date: %w", err)
		}
		if _, err := tx.Exec(timeoutCtx, putCopyBack, b.BookID); err != nil {
			return fmt.Errorf("put copy back: %w", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return Borrowing{}, err
	}
	return out, nil
}

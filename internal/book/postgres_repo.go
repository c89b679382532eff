package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"libraryapi/internal/platform/postgres"
)

const (
	dialectPostgres = "postgres"
	tableBooks      = "books"
)

var bookColumns = []any{"id", "title", "author", "cover", "inventory", "daily_fee", "created_at", "updated_at"}

// sortColumns maps the public sort keys to columns.
var sortColumns = map[string]string{
	"id":        "id",
	"title":     "title",
	"author":    "author",
	"daily_fee": "daily_fee",
	"inventory": "inventory",
}

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

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func filterExpressions(q Query) []exp.Expression {
	var where []exp.Expression
	if q.Q != "" {
		pattern := "%" + escapeLike(q.Q) + "%"
		where = append(where, goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
		))
	}
	if q.Cover != "" {
		where = append(where, goqu.Ex{"cover": q.Cover})
	}
	if q.Available {
		where = append(where, goqu.C("inventory").Gt(0))
	}
	return where
}

func orderExpressions(q Query) []exp.OrderedExpression {
	col, ok := sortColumns[q.Sort]
	if !ok {
		col = "id"
	}
	order := goqu.I(col).Asc()
	if q.Desc {
		order = goqu.I(col).Desc()
	}
	if col == "id" {
		return []exp.OrderedExpression{order}
	}
	return []exp.OrderedExpression{order, goqu.I("id").Asc()}
}

// BuildListSQL returns the count and page queries for q.
func BuildListSQL(q Query) (countSQL string, countArgs []any, pageSQL string, pageArgs []any, err error) {
	base := goqu.Dialect(dialectPostgres).From(tableBooks).Prepared(true).Where(filterExpressions(q)...)

	countSQL, countArgs, err = base.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build count query: %w", err)
	}

	page := base.Select(bookColumns...).Order(orderExpressions(q)...)
	if q.Limit > 0 {
		page = page.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		page = page.Offset(uint(q.Offset))
	}
	pageSQL, pageArgs, err = page.ToSQL()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build list query: %w", err)
	}
	return countSQL, countArgs, pageSQL, pageArgs, nil
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	countSQL, countArgs, pageSQL, pageArgs, err := BuildListSQL(q)
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

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Cover, &b.Inventory, &b.DailyFee, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	const query = `
		SELECT id, title, author, cover, inventory, daily_fee, created_at, updated_at
		FROM books
		WHERE id = $1
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, query, id))
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const query = `
		INSERT INTO books (title, author, cover, inventory, daily_fee)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, b.Title, b.Author, b.Cover, b.Inventory, b.DailyFee).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if postgres.IsCheckViolation(err) {
		return ErrInvalidBook
	}
	return err
}

// BuildUpdateSQL sets only the columns present in p.
func BuildUpdateSQL(id int64, p Patch) (string, []any, error) {
	record := goqu.Record{"updated_at": goqu.L("now()")}
	if p.Title != nil {
		record["title"] = *p.Title
	}
	if p.Author != nil {
		record["author"] = *p.Author
	}
	if p.Cover != nil {
		record["cover"] = *p.Cover
	}
	if p.Inventory != nil {
		record["inventory"] = *p.Inventory
	}
	if p.DailyFee != nil {
		record["daily_fee"] = p.DailyFee.String()
	}

	return goqu.Dialect(dialectPostgres).
		Update(tableBooks).
		Prepared(true).
		Set(record).
		Where(goqu.Ex{"id": id}).
		Returning(bookColumns...).
		ToSQL()
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, p Patch) (Book, error) {
	query, args, err := BuildUpdateSQL(id, p)
	if err != nil {
		return Book{}, fmt.Errorf("build update query: %w", err)
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if postgres.IsCheckViolation(err) {
		return Book{}, ErrInvalidBook
	}
	return b, err
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM books WHERE id = $1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	result, err := r.db.Exec(timeoutCtx, query, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrHasBorrowings
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

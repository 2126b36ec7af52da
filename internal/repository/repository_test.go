package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/go-books/internal/database/databasetest"
	"github.com/function61/gokit/assert"
	"github.com/jackc/pgx/v5/pgconn"
)

func storedBook(id int64, name string) []any {
	return []any{
		id,
		name,
		"978-0-00-000000-0",
		`["Ann Author","Ben Author"]`,
		"Norway",
		320,
		"Acme",
		time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

func answerRows(rows ...[]any) func(string, []any) databasetest.Result {
	return func(string, []any) databasetest.Result {
		return databasetest.Result{Rows: rows}
	}
}

func TestBuildListQueryWithoutFilters(t *testing.T) {
	query, args, err := buildListQuery(nil)
	assert.Ok(t, err)
	assert.EqualString(t, query, "SELECT id, name, isbn, authors, country, number_of_pages, publisher, release_date FROM books")
	assert.Assert(t, len(args) == 0)

	query, _, err = buildListQuery(map[string]any{})
	assert.Ok(t, err)
	assert.EqualString(t, query, selectBooks)
}

func TestBuildListQueryOrdersPredicates(t *testing.T) {
	query, args, err := buildListQuery(map[string]any{
		"release_date": "2019",
		"name":         "Y",
		"country":      "X",
	})
	assert.Ok(t, err)

	assert.EqualString(t, query, selectBooks+" WHERE country=$1 and name=$2 and date_part('year', release_date)=$3")
	assert.EqualString(t, fmt.Sprint(args), "[X Y 2019]")
	assert.Assert(t, args[2] == 2019)
}

func TestBuildListQueryCoercesValues(t *testing.T) {
	// as decoded from a JSON body
	_, args, err := buildListQuery(map[string]any{
		"publisher":    float64(1984),
		"release_date": float64(2001),
	})
	assert.Ok(t, err)

	assert.Assert(t, args[0] == "1984")
	assert.Assert(t, args[1] == 2001)

	_, args, err = buildListQuery(map[string]any{"release_date": " 2019 "})
	assert.Ok(t, err)
	assert.Assert(t, args[0] == 2019)

	// strings are always decimal
	_, args, err = buildListQuery(map[string]any{"release_date": "010"})
	assert.Ok(t, err)
	assert.Assert(t, args[0] == 10)
}

func TestBuildListQueryRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]any
	}{
		{"non-numeric year", map[string]any{"release_date": "last year"}},
		{"boolean year", map[string]any{"release_date": true}},
		{"hexadecimal year", map[string]any{"release_date": "0x7E3"}},
		{"fractional year", map[string]any{"release_date": float64(2019.9)}},
		{"object as text", map[string]any{"name": map[string]any{"$ne": ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildListQuery(tt.filters)
			assert.Assert(t, errors.Is(err, ErrFilter))
		})
	}
}

func TestListBooksRejectsUnsupportedFilters(t *testing.T) {
	pool := &databasetest.Pool{}
	repo := New(pool, nil)

	books, err := repo.ListBooks(context.Background(), map[string]any{
		"name":  "Y",
		"genre": "fantasy",
		"isbn":  "123",
	})

	assert.Assert(t, books == nil)
	assert.Assert(t, errors.Is(err, ErrFilter))
	assert.EqualString(t, err.Error(), "Given filters: [genre, isbn] are not supported")
	assert.Assert(t, pool.Acquired() == 0)
	assert.Assert(t, len(pool.Calls()) == 0)
}

func TestListBooksReturnsRecords(t *testing.T) {
	pool := &databasetest.Pool{Handler: answerRows(storedBook(1, "First"), storedBook(2, "Second"))}
	repo := New(pool, nil)

	books, err := repo.ListBooks(context.Background(), map[string]any{"country": "Norway"})
	assert.Ok(t, err)
	assert.Assert(t, len(books) == 2)

	id, ok := books[1].ID()
	assert.Assert(t, ok && id == 2)
	assert.EqualString(t, books[1].Name(), "Second")
	assert.EqualString(t, strings.Join(books[0].Authors(), "|"), "Ann Author|Ben Author")
	assert.EqualString(t, books[0].ReleaseDate(), "2019-03-01")
	assert.Assert(t, books[0].NumberOfPages() == 320)

	calls := pool.Calls()
	assert.Assert(t, len(calls) == 1)
	assert.EqualString(t, calls[0].SQL, selectBooks+" WHERE country=$1")
	assert.EqualString(t, fmt.Sprint(calls[0].Args), "[Norway]")
	assert.Assert(t, pool.Outstanding() == 0)
}

func TestListBooksWithoutMatches(t *testing.T) {
	pool := &databasetest.Pool{}
	repo := New(pool, nil)

	books, err := repo.ListBooks(context.Background(), map[string]any{"name": "Nobody"})
	assert.Ok(t, err)
	assert.Assert(t, books != nil)
	assert.Assert(t, len(books) == 0)
}

func TestListBooksStorageError(t *testing.T) {
	pool := &databasetest.Pool{Handler: func(string, []any) databasetest.Result {
		return databasetest.Result{Err: &pgconn.PgError{
			Severity: "ERROR",
			Code:     "42P01",
			Message:  `relation "books" does not exist`,
		}}
	}}
	repo := New(pool, nil)

	_, err := repo.ListBooks(context.Background(), map[string]any{"name": "Y"})
	assert.Assert(t, errors.Is(err, ErrFetch))
	assert.EqualString(t, err.Error(), `Unable to fetch books with filters: {name=Y} due to error: relation "books" does not exist 42P01`)

	var pgErr *pgconn.PgError
	assert.Assert(t, errors.As(err, &pgErr))

	var bookErr *Error
	assert.Assert(t, errors.As(err, &bookErr))
	assert.Assert(t, bookErr.Filters["name"] == "Y")
	assert.Assert(t, pool.Outstanding() == 0)
}

func TestListBooksMalformedRowAbortsRead(t *testing.T) {
	broken := storedBook(3, "Broken")
	broken[3] = "Ann Author"

	pool := &databasetest.Pool{Handler: answerRows(storedBook(1, "Fine"), broken)}
	repo := New(pool, nil)

	books, err := repo.ListBooks(context.Background(), nil)
	assert.Assert(t, books == nil)
	assert.Assert(t, errors.Is(err, ErrFetch))
	assert.Assert(t, pool.Outstanding() == 0)
}

func TestListBooksAcquireErrorIsUnchanged(t *testing.T) {
	exhausted := errors.New("pool exhausted")
	repo := New(&databasetest.Pool{AcquireErr: exhausted}, nil)

	_, err := repo.ListBooks(context.Background(), nil)
	assert.Assert(t, err == exhausted)

	_, ok := KindOf(err)
	assert.Assert(t, !ok)
}

func TestGetBookMissing(t *testing.T) {
	pool := &databasetest.Pool{}
	repo := New(pool, nil)

	book, err := repo.GetBook(context.Background(), 404)
	assert.Ok(t, err)
	assert.Assert(t, book == nil)

	calls := pool.Calls()
	assert.EqualString(t, calls[0].SQL, selectBooks+" WHERE id=$1")
	assert.EqualString(t, fmt.Sprint(calls[0].Args), "[404]")
}

func TestGetBookFound(t *testing.T) {
	pool := &databasetest.Pool{Handler: answerRows(storedBook(7, "Seventh"))}
	repo := New(pool, nil)

	book, err := repo.GetBook(context.Background(), 7)
	assert.Ok(t, err)

	id, ok := book.ID()
	assert.Assert(t, ok && id == 7)
	assert.EqualString(t, book.Name(), "Seventh")
	assert.EqualString(t, book.Publisher(), "Acme")
	assert.Assert(t, pool.Outstanding() == 0)
}

func TestGetBookStorageError(t *testing.T) {
	pool := &databasetest.Pool{Handler: func(string, []any) databasetest.Result {
		return databasetest.Result{Err: &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}}
	}}
	repo := New(pool, nil)

	_, err := repo.GetBook(context.Background(), 7)
	assert.Assert(t, errors.Is(err, ErrFetch))
	assert.EqualString(t, err.Error(), "Unable to fetch book with id: 7 due to error: canceling statement due to statement timeout 57014")
}

func TestUnsupportedFilters(t *testing.T) {
	assert.Assert(t, len(UnsupportedFilters(nil)) == 0)
	assert.Assert(t, len(UnsupportedFilters(map[string]any{"name": 1, "release_date": 2})) == 0)
	assert.EqualString(t, strings.Join(UnsupportedFilters(map[string]any{"z": 1, "a": 2, "country": 3}), ","), "a,z")
}

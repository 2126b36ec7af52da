package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/deppfellow/go-books/internal/database/databasetest"
	"github.com/deppfellow/go-books/internal/errs"
	"github.com/deppfellow/go-books/internal/repository"
	"github.com/function61/gokit/assert"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func newTestService(pool *databasetest.Pool) *BookService {
	log := zerolog.Nop()
	return NewBookService(&log, repository.New(pool, &log))
}

func httpError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	assert.Assert(t, errors.As(err, &httpErr))
	return httpErr
}

func failWith(pgErr *pgconn.PgError) func(string, []any) databasetest.Result {
	return func(string, []any) databasetest.Result {
		return databasetest.Result{Err: pgErr}
	}
}

func TestGetMissingBook(t *testing.T) {
	books := newTestService(&databasetest.Pool{})

	_, err := books.Get(context.Background(), 31)

	httpErr := httpError(t, err)
	assert.Assert(t, httpErr.Status == http.StatusNotFound)
	assert.EqualString(t, httpErr.Code, BookNotFoundCode)
	assert.EqualString(t, httpErr.Message, "Book with id: 31 not found")
}

func TestListUnsupportedFilter(t *testing.T) {
	books := newTestService(&databasetest.Pool{})

	_, err := books.List(context.Background(), map[string]any{"genre": "horror"})

	httpErr := httpError(t, err)
	assert.Assert(t, httpErr.Status == http.StatusBadRequest)
	assert.EqualString(t, httpErr.Code, "FILTER_ERROR")
	assert.EqualString(t, httpErr.Message, "Given filters: [genre] are not supported")
	assert.Assert(t, errors.Is(err, repository.ErrFilter))
}

func TestCreateInvalidProperty(t *testing.T) {
	pool := &databasetest.Pool{}
	books := newTestService(pool)

	_, err := books.Create(context.Background(), map[string]any{"name": "Dune", "release_date": "soon"})

	httpErr := httpError(t, err)
	assert.Assert(t, httpErr.Status == http.StatusBadRequest)
	assert.EqualString(t, httpErr.Code, "INVALID_PROPERTY")
	assert.Assert(t, len(httpErr.Errors) == 1)
	assert.EqualString(t, httpErr.Errors[0].Field, "release_date")
	assert.Assert(t, pool.Acquired() == 0)
}

func TestCreateConstraintViolation(t *testing.T) {
	books := newTestService(&databasetest.Pool{Handler: failWith(&pgconn.PgError{
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "books_isbn_key"`,
		TableName:      "books",
		ConstraintName: "books_isbn_key",
	})})

	_, err := books.Create(context.Background(), map[string]any{"name": "Dune", "isbn": "1"})

	httpErr := httpError(t, err)
	assert.Assert(t, httpErr.Status == http.StatusBadRequest)
	assert.EqualString(t, httpErr.Code, "BOOK_ALREADY_EXISTS")
	assert.Assert(t, errors.Is(err, repository.ErrSave))
}

func TestCreateStorageFailureHidesDetails(t *testing.T) {
	books := newTestService(&databasetest.Pool{Handler: failWith(&pgconn.PgError{
		Code:    "42P01",
		Message: `relation "books" does not exist`,
	})})

	_, err := books.Create(context.Background(), map[string]any{"name": "Dune", "isbn": "1"})

	httpErr := httpError(t, err)
	assert.Assert(t, httpErr.Status == http.StatusInternalServerError)
	assert.EqualString(t, httpErr.Code, "SAVE_BOOK_ERROR")
	assert.EqualString(t, httpErr.Message, "Internal Server Error")
	assert.Assert(t, errors.Is(err, repository.ErrSave))
}

func TestCreateReturnsSavedBook(t *testing.T) {
	books := newTestService(&databasetest.Pool{Handler: func(string, []any) databasetest.Result {
		return databasetest.Result{Rows: [][]any{{int64(8)}}}
	}})

	book, err := books.Create(context.Background(), map[string]any{"name": "Dune", "isbn": "1"})
	assert.Ok(t, err)

	id, ok := book.ID()
	assert.Assert(t, ok && id == 8)
}

func TestUpdateMissingBook(t *testing.T) {
	pool := &databasetest.Pool{}
	books := newTestService(pool)

	_, err := books.Update(context.Background(), 5, map[string]any{"name": "New"})

	httpErr := httpError(t, err)
	assert.Assert(t, httpErr.Status == http.StatusNotFound)
	assert.Assert(t, len(pool.Calls()) == 1)
}

func TestDeleteMissingBook(t *testing.T) {
	pool := &databasetest.Pool{}
	books := newTestService(pool)

	_, err := books.Delete(context.Background(), 5)

	httpErr := httpError(t, err)
	assert.EqualString(t, httpErr.Code, BookNotFoundCode)
	assert.Assert(t, len(pool.Calls()) == 1)
}

func TestInfrastructureErrorsPassThrough(t *testing.T) {
	down := errors.New("pool closed")
	books := newTestService(&databasetest.Pool{AcquireErr: down})

	_, err := books.List(context.Background(), nil)
	assert.Assert(t, err == down)
}

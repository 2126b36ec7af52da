package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/go-books/internal/errs"
	"github.com/function61/gokit/assert"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapCode(t *testing.T) {
	assert.Assert(t, MapCode("23505") == UniqueViolation)
	assert.Assert(t, MapCode("22P02") == InvalidTextRepr)
	assert.Assert(t, MapCode("42P01") == UndefinedTable)
	assert.Assert(t, MapCode("XX000") == Other)
	assert.Assert(t, MapCode("") == Other)
}

func TestMapSeverity(t *testing.T) {
	assert.Assert(t, MapSeverity("FATAL") == SeverityFatal)
	assert.Assert(t, MapSeverity("NOTICE") == SeverityNotice)
	assert.Assert(t, MapSeverity("") == SeverityError)
	assert.Assert(t, MapSeverity("fatal") == SeverityError)
}

func TestErrCode(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23502"}

	assert.Assert(t, ErrCode(pgErr) == NotNullViolation)
	assert.Assert(t, ErrCode(fmt.Errorf("saving: %w", pgErr)) == NotNullViolation)
	assert.Assert(t, ErrCode(ConvertPgError(&pgconn.PgError{Code: "40P01"})) == DeadlockDetected)
	assert.Assert(t, ErrCode(errors.New("plain")) == Other)
	assert.Assert(t, ErrCode(nil) == Other)
}

func TestConvertPgError(t *testing.T) {
	src := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "books_isbn_key"`,
		TableName:      "books",
		ConstraintName: "books_isbn_key",
	}

	converted := ConvertPgError(src)
	assert.Assert(t, converted.Code == UniqueViolation)
	assert.EqualString(t, converted.DatabaseCode, "23505")
	assert.EqualString(t, converted.Error(), `ERROR 23505: duplicate key value violates unique constraint "books_isbn_key"`)

	var unwrapped *pgconn.PgError
	assert.Assert(t, errors.As(converted, &unwrapped))
	assert.Assert(t, unwrapped == src)
}

func TestGenerateErrorCode(t *testing.T) {
	assert.EqualString(t, generateErrorCode("books", UniqueViolation), "BOOK_ALREADY_EXISTS")
	assert.EqualString(t, generateErrorCode("books", NotNullViolation), "BOOK_REQUIRED")
	assert.EqualString(t, generateErrorCode("books", InvalidTextRepr), "BOOK_INVALID")
	assert.EqualString(t, generateErrorCode("publishers", ForeignKeyViolation), "PUBLISHER_NOT_FOUND")
	assert.EqualString(t, generateErrorCode("", DeadlockDetected), "RECORD_ERROR")
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.EqualString(t, extractColumnForUniqueViolation("books_isbn_key"), "isbn")
	assert.EqualString(t, extractColumnForUniqueViolation("unique_books_isbn"), "isbn")
	assert.EqualString(t, extractColumnForUniqueViolation("books_pkey"), "")
	assert.EqualString(t, extractColumnForUniqueViolation(""), "")
}

func TestHumanizeText(t *testing.T) {
	assert.EqualString(t, humanizeText("release_date"), "Release Date")
	assert.EqualString(t, humanizeText("isbn"), "Isbn")
	assert.EqualString(t, humanizeText(""), "")
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name: "unique violation",
			err: &pgconn.PgError{
				Code:           "23505",
				TableName:      "books",
				ConstraintName: "books_isbn_key",
			},
			status:  http.StatusBadRequest,
			code:    "BOOK_ALREADY_EXISTS",
			message: "A Book with this Isbn already exists",
		},
		{
			name:    "not null violation",
			err:     &pgconn.PgError{Code: "23502", TableName: "books", ColumnName: "isbn"},
			status:  http.StatusBadRequest,
			code:    "BOOK_REQUIRED",
			message: "The Isbn is required",
		},
		{
			name:    "out of range",
			err:     &pgconn.PgError{Code: "22003", TableName: "books", ColumnName: "number_of_pages"},
			status:  http.StatusBadRequest,
			code:    "BOOK_INVALID",
			message: "One or more values are out of range or malformed",
		},
		{
			name:    "undefined table",
			err:     &pgconn.PgError{Code: "42P01"},
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_SERVER_ERROR",
			message: "Internal Server Error",
		},
		{
			name:    "no rows",
			err:     fmt.Errorf("get book: %w", pgx.ErrNoRows),
			status:  http.StatusNotFound,
			code:    "NOT_FOUND",
			message: "Resource not found",
		},
		{
			name:    "unknown",
			err:     errors.New("connection refused"),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_SERVER_ERROR",
			message: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var httpErr *errs.HTTPError
			assert.Assert(t, errors.As(HandleError(tt.err), &httpErr))
			assert.Assert(t, httpErr.Status == tt.status)
			assert.EqualString(t, httpErr.Code, tt.code)
			assert.EqualString(t, httpErr.Message, tt.message)
		})
	}
}

func TestHandleErrorKeepsHTTPErrors(t *testing.T) {
	code := "BOOK_NOT_FOUND"
	original := errs.NewNotFoundError("Book with id: 1 not found", true, &code)

	assert.Assert(t, HandleError(original) == error(original))
}

func TestHandleErrorNotNullFieldErrors(t *testing.T) {
	var httpErr *errs.HTTPError
	assert.Assert(t, errors.As(HandleError(&pgconn.PgError{Code: "23502", TableName: "books", ColumnName: "ISBN"}), &httpErr))

	assert.Assert(t, len(httpErr.Errors) == 1)
	assert.EqualString(t, httpErr.Errors[0].Field, "isbn")
	assert.EqualString(t, httpErr.Errors[0].Error, "is required")
}

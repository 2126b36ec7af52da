package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/deppfellow/go-books/internal/sqlerr"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a book error. The string value doubles as the
// machine-readable error code handed to API clients.
type Kind string

const (
	// KindFilter: a list query named a field outside the supported set.
	KindFilter Kind = "FILTER_ERROR"
	// KindFetch: storage failure while listing or fetching books.
	KindFetch Kind = "FETCH_BOOK_ERROR"
	// KindSave: storage failure while inserting or updating a book.
	KindSave Kind = "SAVE_BOOK_ERROR"
	// KindDelete: storage failure while deleting a book.
	KindDelete Kind = "DELETE_BOOK_ERROR"
	// KindInvalidProperty: a field assignment violated its rule.
	KindInvalidProperty Kind = "INVALID_PROPERTY"
)

// IsValidation reports whether the caller can fix the error by changing
// its input, as opposed to a storage failure.
func (k Kind) IsValidation() bool {
	return k == KindFilter || k == KindInvalidProperty
}

// Error is the single error type returned by the books repository.
type Error struct {
	Kind    Kind
	Message string

	// Field names the rejected property for KindInvalidProperty.
	Field string

	// Filters holds the filters of the failed list query (KindFilter,
	// KindFetch).
	Filters map[string]any

	// Err is the underlying cause, typically a pgx/pgconn error.
	Err error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrFilter          = &Error{Kind: KindFilter}
	ErrFetch           = &Error{Kind: KindFetch}
	ErrSave            = &Error{Kind: KindSave}
	ErrDelete          = &Error{Kind: KindDelete}
	ErrInvalidProperty = &Error{Kind: KindInvalidProperty}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var bookErr *Error
	if errors.As(err, &bookErr) {
		return bookErr.Kind, true
	}
	return "", false
}

func invalidProperty(field, reason string, cause error) *Error {
	return &Error{
		Kind:    KindInvalidProperty,
		Message: fmt.Sprintf("%s %s", field, reason),
		Field:   field,
		Err:     cause,
	}
}

func unsupportedFilters(keys []string, filters map[string]any) *Error {
	return &Error{
		Kind:    KindFilter,
		Message: fmt.Sprintf("Given filters: [%s] are not supported", strings.Join(keys, ", ")),
		Filters: filters,
	}
}

// storageError wraps a failed statement with the intent of the operation.
// The Postgres diagnostic (message and SQLSTATE) is appended when present;
// the raw error stays reachable through Unwrap.
func storageError(kind Kind, intent string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s due to error: %s", intent, diagnostic(err)),
		Err:     err,
	}
}

func diagnostic(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		converted := sqlerr.ConvertPgError(pgErr)
		return fmt.Sprintf("%s %s", converted.Message, converted.DatabaseCode)
	}
	return err.Error()
}

// formatFilters renders filters deterministically for messages.
func formatFilters(filters map[string]any) string {
	keys := sortedKeys(filters)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, filters[key]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update books, abstracting SQL logic away from the service layer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deppfellow/go-books/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
)

const selectBooks = "SELECT id, name, isbn, authors, country, number_of_pages, publisher, release_date FROM books"

// SupportedFilters lists the fields ListBooks can filter on.
var SupportedFilters = []string{FieldCountry, FieldName, FieldPublisher, FieldReleaseDate}

// Repository is the entry point for querying and creating books.
type Repository struct {
	scope database.ConnectionScope
	log   *zerolog.Logger

	slowQueryThreshold time.Duration
}

type Option func(*Repository)

// WithSlowQueryThreshold makes the repository warn about reads slower
// than d. Zero disables the warning.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(r *Repository) {
		r.slowQueryThreshold = d
	}
}

// New builds a Repository over pool. Every operation checks out exactly
// one connection for its own duration.
func New(pool database.Pool, logger *zerolog.Logger, opts ...Option) *Repository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	r := &Repository{
		scope: database.NewConnectionScope(pool),
		log:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewBook returns an unsaved book with every field at its empty value.
// It does no I/O.
func (r *Repository) NewBook() *Book {
	return newBook(r)
}

// ListBooks returns the books matching every filter, all books when
// filters is empty. Filter keys outside SupportedFilters are rejected
// before any query is sent.
func (r *Repository) ListBooks(ctx context.Context, filters map[string]any) ([]*Book, error) {
	query, args, err := buildListQuery(filters)
	if err != nil {
		return nil, err
	}

	books := []*Book{}
	err = r.scope.Do(ctx, func(conn database.Conn) error {
		start := time.Now()
		r.log.Debug().Str("query", query).Interface("args", args).Msg("listing books")

		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return r.fetchBooksError(filters, err)
		}

		books, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Book, error) {
			var stored bookRow
			if err := row.Scan(stored.scanTargets()...); err != nil {
				return nil, err
			}
			return r.bookFromRow(stored)
		})
		if err != nil {
			return r.fetchBooksError(filters, err)
		}

		r.logSlowQuery(query, time.Since(start))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return books, nil
}

// GetBook returns the book with the given id, or nil (and no error) when
// there is none.
func (r *Repository) GetBook(ctx context.Context, id int64) (*Book, error) {
	query := selectBooks + " WHERE id=$1"

	var book *Book
	err := r.scope.Do(ctx, func(conn database.Conn) error {
		start := time.Now()
		r.log.Debug().Int64("id", id).Msg("fetching book")

		var stored bookRow
		err := conn.QueryRow(ctx, query, id).Scan(stored.scanTargets()...)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return storageError(KindFetch, fmt.Sprintf("Unable to fetch book with id: %d", id), err)
		}

		book, err = r.bookFromRow(stored)
		if err != nil {
			return storageError(KindFetch, fmt.Sprintf("Unable to fetch book with id: %d", id), err)
		}

		r.logSlowQuery(query, time.Since(start))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return book, nil
}

func (r *Repository) fetchBooksError(filters map[string]any, err error) *Error {
	bookErr := storageError(KindFetch, "Unable to fetch books with filters: "+formatFilters(filters), err)
	bookErr.Filters = filters
	return bookErr
}

func (r *Repository) logSlowQuery(query string, elapsed time.Duration) {
	if r.slowQueryThreshold <= 0 || elapsed < r.slowQueryThreshold {
		return
	}
	r.log.Warn().
		Str("query", query).
		Dur("elapsed", elapsed).
		Dur("threshold", r.slowQueryThreshold).
		Msg("slow query")
}

// UnsupportedFilters returns the sorted filter keys ListBooks would reject.
func UnsupportedFilters(filters map[string]any) []string {
	var unsupported []string
	for _, key := range sortedKeys(filters) {
		if !isSupportedFilter(key) {
			unsupported = append(unsupported, key)
		}
	}
	return unsupported
}

func isSupportedFilter(key string) bool {
	for _, supported := range SupportedFilters {
		if key == supported {
			return true
		}
	}
	return false
}

// buildListQuery renders the list query for filters. Predicates follow
// the sorted key order and their placeholders are numbered in step with
// the returned arguments.
func buildListQuery(filters map[string]any) (string, []any, error) {
	if unsupported := UnsupportedFilters(filters); len(unsupported) > 0 {
		return "", nil, unsupportedFilters(unsupported, filters)
	}
	if len(filters) == 0 {
		return selectBooks, nil, nil
	}

	keys := sortedKeys(filters)
	predicates := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for i, key := range keys {
		placeholder := "$" + strconv.Itoa(i+1)

		if key == FieldReleaseDate {
			year, err := filterYear(filters[key])
			if err != nil {
				return "", nil, &Error{
					Kind:    KindFilter,
					Message: fmt.Sprintf("Filter release_date expects a year, got: %v", filters[key]),
					Filters: filters,
					Err:     err,
				}
			}
			predicates = append(predicates, "date_part('year', release_date)="+placeholder)
			args = append(args, year)
			continue
		}

		value, err := filterText(filters[key])
		if err != nil {
			return "", nil, &Error{
				Kind:    KindFilter,
				Message: fmt.Sprintf("Filter %s expects text, got: %v", key, filters[key]),
				Filters: filters,
				Err:     err,
			}
		}
		predicates = append(predicates, key+"="+placeholder)
		args = append(args, value)
	}

	return selectBooks + " WHERE " + strings.Join(predicates, " and "), args, nil
}

func filterYear(value any) (int, error) {
	return wholeNumber(value)
}

func filterText(value any) (string, error) {
	switch value.(type) {
	case string, float64, float32, int, int32, int64:
		return cast.ToStringE(value)
	default:
		return "", fmt.Errorf("unable to use %#v of type %T as text", value, value)
	}
}

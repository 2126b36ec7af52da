package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/deppfellow/go-books/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Field names, as used in value mappings and filters.
const (
	FieldID            = "id"
	FieldName          = "name"
	FieldISBN          = "isbn"
	FieldAuthors       = "authors"
	FieldCountry       = "country"
	FieldNumberOfPages = "number_of_pages"
	FieldPublisher     = "publisher"
	FieldReleaseDate   = "release_date"
)

// DateLayout is the canonical form of a release date.
const DateLayout = "2006-01-02"

// parseLayout also accepts single-digit month and day.
const parseLayout = "2006-1-2"

const (
	insertBook = `INSERT INTO books (name, isbn, authors, country, number_of_pages, publisher, release_date)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	updateBook = `UPDATE books
SET name = $1, isbn = $2, authors = $3, country = $4,
number_of_pages = $5, publisher = $6, release_date = $7
WHERE id = $8`

	deleteBook = `DELETE FROM books WHERE id = $1`
)

// Book is one row of the books relation.
//
// Fields are validated when assigned, so a Book never holds a blank name
// or isbn (once set) nor an unparseable release date. A Book created by
// Repository.NewBook has no id until its first successful Save.
type Book struct {
	repo *Repository

	id        int64
	persisted bool

	name          string
	isbn          string
	authors       []string
	country       string
	numberOfPages int
	publisher     string
	releaseDate   string
	releaseTime   time.Time
}

func newBook(repo *Repository) *Book {
	return &Book{repo: repo, authors: []string{}}
}

// ID returns the storage-assigned id; ok is false before the first insert.
func (b *Book) ID() (id int64, ok bool) {
	return b.id, b.persisted
}

func (b *Book) Name() string { return b.name }

func (b *Book) ISBN() string { return b.isbn }

// Authors returns a copy of the ordered author list.
func (b *Book) Authors() []string { return append([]string{}, b.authors...) }

func (b *Book) Country() string { return b.country }

func (b *Book) NumberOfPages() int { return b.numberOfPages }

func (b *Book) Publisher() string { return b.publisher }

// ReleaseDate returns the date as YYYY-MM-DD, or "" when unset.
func (b *Book) ReleaseDate() string { return b.releaseDate }

// SetName rejects blank (empty or whitespace-only) names.
func (b *Book) SetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalidProperty(FieldName, "is blank", nil)
	}
	b.name = name
	return nil
}

// SetISBN rejects blank isbns.
func (b *Book) SetISBN(isbn string) error {
	if strings.TrimSpace(isbn) == "" {
		return invalidProperty(FieldISBN, "is blank", nil)
	}
	b.isbn = isbn
	return nil
}

func (b *Book) SetAuthors(authors []string) {
	b.authors = append([]string{}, authors...)
}

func (b *Book) SetCountry(country string) {
	b.country = country
}

func (b *Book) SetNumberOfPages(numberOfPages int) {
	b.numberOfPages = numberOfPages
}

func (b *Book) SetPublisher(publisher string) {
	b.publisher = publisher
}

// SetReleaseDate accepts a calendar date in YYYY-MM-DD form and stores its
// canonical representation.
func (b *Book) SetReleaseDate(date string) error {
	t, err := time.Parse(parseLayout, strings.TrimSpace(date))
	if err != nil {
		return invalidProperty(FieldReleaseDate, "is not a date", err)
	}
	b.releaseTime = t
	b.releaseDate = t.Format(DateLayout)
	return nil
}

// fieldSetters is the allow-list of bulk-assignable fields. Values arrive
// JSON-decoded (float64 numbers, []any arrays) and are coerced here.
var fieldSetters = map[string]func(b *Book, value any) error{
	FieldName: func(b *Book, value any) error {
		s, err := stringValue(FieldName, value)
		if err != nil {
			return err
		}
		return b.SetName(s)
	},
	FieldISBN: func(b *Book, value any) error {
		s, err := stringValue(FieldISBN, value)
		if err != nil {
			return err
		}
		return b.SetISBN(s)
	},
	FieldAuthors: func(b *Book, value any) error {
		authors, err := stringsValue(FieldAuthors, value)
		if err != nil {
			return err
		}
		b.SetAuthors(authors)
		return nil
	},
	FieldCountry: func(b *Book, value any) error {
		s, err := stringValue(FieldCountry, value)
		if err != nil {
			return err
		}
		b.SetCountry(s)
		return nil
	},
	FieldNumberOfPages: func(b *Book, value any) error {
		n, err := intValue(FieldNumberOfPages, value)
		if err != nil {
			return err
		}
		b.SetNumberOfPages(n)
		return nil
	},
	FieldPublisher: func(b *Book, value any) error {
		s, err := stringValue(FieldPublisher, value)
		if err != nil {
			return err
		}
		b.SetPublisher(s)
		return nil
	},
	FieldReleaseDate: func(b *Book, value any) error {
		s, ok := value.(string)
		if !ok {
			return invalidProperty(FieldReleaseDate, "is not a date", nil)
		}
		return b.SetReleaseDate(s)
	},
}

// SetValues assigns every recognised field of values through its setter.
//
// The id key is skipped (ids are only ever assigned by storage) and keys
// that name no field are ignored. Keys are applied in sorted order and the
// first rejected value stops the assignment; fields applied before it keep
// their new values.
func (b *Book) SetValues(values map[string]any) error {
	for _, key := range sortedKeys(values) {
		if key == FieldID {
			continue
		}
		setter, ok := fieldSetters[key]
		if !ok {
			continue
		}
		if err := setter(b, values[key]); err != nil {
			return err
		}
	}
	return nil
}

// Values returns a snapshot of every field. id is nil before the first
// insert and release_date is nil while unset.
func (b *Book) Values() map[string]any {
	var id any
	if b.persisted {
		id = b.id
	}

	var releaseDate any
	if b.releaseDate != "" {
		releaseDate = b.releaseDate
	}

	return map[string]any{
		FieldID:            id,
		FieldName:          b.name,
		FieldISBN:          b.isbn,
		FieldAuthors:       b.Authors(),
		FieldCountry:       b.country,
		FieldNumberOfPages: b.numberOfPages,
		FieldPublisher:     b.publisher,
		FieldReleaseDate:   releaseDate,
	}
}

func (b *Book) String() string {
	return fmt.Sprintf("%v", b.Values())
}

// Save inserts the book when it has no id yet, otherwise overwrites every
// column of its row. Either way the statement is committed before Save
// returns. On insert the id returned by storage is fixed on the book.
func (b *Book) Save(ctx context.Context) error {
	return b.repo.scope.Do(ctx, func(conn database.Conn) error {
		var newID int64

		err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			if b.persisted {
				return b.update(ctx, tx)
			}
			return tx.QueryRow(ctx, insertBook, b.insertArgs()...).Scan(&newID)
		})
		if err != nil {
			return storageError(KindSave, "Unable to save a book", err)
		}

		if !b.persisted {
			b.id = newID
			b.persisted = true
			b.repo.log.Debug().Int64("id", b.id).Msg("new book record has been created")
		}
		return nil
	})
}

func (b *Book) update(ctx context.Context, tx pgx.Tx) error {
	args := append(b.insertArgs(), b.id)
	if _, err := tx.Exec(ctx, updateBook, args...); err != nil {
		return err
	}
	b.repo.log.Debug().Int64("id", b.id).Msg("book record has been updated")
	return nil
}

// Delete removes the book's row. A row that is already gone is not an
// error, and the in-memory id is kept. A book that was never saved has no
// row and Delete does nothing.
func (b *Book) Delete(ctx context.Context) error {
	if !b.persisted {
		b.repo.log.Debug().Msg("delete of unsaved book record skipped")
		return nil
	}

	return b.repo.scope.Do(ctx, func(conn database.Conn) error {
		err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, deleteBook, b.id)
			return err
		})
		if err != nil {
			return storageError(KindDelete, "Unable to delete a book", err)
		}

		b.repo.log.Debug().Int64("id", b.id).Msg("book record has been deleted")
		return nil
	})
}

// insertArgs returns the column values in insert order. Authors are stored
// as a JSON array, or NULL when there are none.
func (b *Book) insertArgs() []any {
	var authors any
	if len(b.authors) > 0 {
		encoded, _ := json.Marshal(b.authors) // []string always encodes
		authors = string(encoded)
	}

	releaseDate := pgtype.Date{}
	if b.releaseDate != "" {
		releaseDate = pgtype.Date{Time: b.releaseTime, Valid: true}
	}

	return []any{
		b.name,
		b.isbn,
		authors,
		b.country,
		b.numberOfPages,
		b.publisher,
		releaseDate,
	}
}

// bookRow holds the scanned columns of one books row, in column order.
type bookRow struct {
	ID            int64
	Name          pgtype.Text
	ISBN          pgtype.Text
	Authors       pgtype.Text
	Country       pgtype.Text
	NumberOfPages pgtype.Int4
	Publisher     pgtype.Text
	ReleaseDate   pgtype.Date
}

func (r *bookRow) scanTargets() []any {
	return []any{
		&r.ID,
		&r.Name,
		&r.ISBN,
		&r.Authors,
		&r.Country,
		&r.NumberOfPages,
		&r.Publisher,
		&r.ReleaseDate,
	}
}

// bookFromRow rebuilds a Book from stored columns. The id is assigned
// directly; everything else goes through the validating setters, so a row
// that would not pass validation fails the read.
func (r *Repository) bookFromRow(row bookRow) (*Book, error) {
	book := newBook(r)
	book.id = row.ID
	book.persisted = true

	if err := book.SetName(row.Name.String); err != nil {
		return nil, err
	}
	if err := book.SetISBN(row.ISBN.String); err != nil {
		return nil, err
	}

	if row.Authors.Valid {
		var authors []string
		if err := json.Unmarshal([]byte(row.Authors.String), &authors); err != nil {
			return nil, errors.Wrapf(err, "decoding stored authors of book %d", row.ID)
		}
		book.SetAuthors(authors)
	}

	book.SetCountry(row.Country.String)
	book.SetNumberOfPages(int(row.NumberOfPages.Int32))
	book.SetPublisher(row.Publisher.String)

	if row.ReleaseDate.Valid {
		if row.ReleaseDate.InfinityModifier != pgtype.Finite {
			return nil, errors.Errorf("stored release_date of book %d is not a calendar date", row.ID)
		}
		if err := book.SetReleaseDate(row.ReleaseDate.Time.Format(DateLayout)); err != nil {
			return nil, err
		}
	}

	return book, nil
}

func stringValue(field string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", invalidProperty(field, fmt.Sprintf("must be a string, got %T", value), nil)
	}
}

func stringsValue(field string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalidProperty(field, fmt.Sprintf("must be a list of strings, item %d is %T", i, item), nil)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, invalidProperty(field, fmt.Sprintf("must be a list of strings, got %T", value), nil)
	}
}

func intValue(field string, value any) (int, error) {
	if value == nil {
		return 0, nil
	}

	n, err := wholeNumber(value)
	if err != nil {
		return 0, invalidProperty(field, "must be an integer", err)
	}
	if n < 0 {
		return 0, invalidProperty(field, "must not be negative", nil)
	}
	return n, nil
}

// wholeNumber accepts integers, floats without a fractional part (JSON
// numbers) and decimal strings. Booleans are rejected.
func wholeNumber(value any) (int, error) {
	switch v := value.(type) {
	case bool:
		return 0, errors.Errorf("unable to use %v of type bool as a number", v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, errors.Wrapf(err, "unable to parse %q as a decimal number", v)
		}
		return n, nil
	case float64:
		if math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, errors.Errorf("%v is not a whole number", v)
		}
	case float32:
		if math.IsInf(float64(v), 0) || float64(v) != math.Trunc(float64(v)) {
			return 0, errors.Errorf("%v is not a whole number", v)
		}
	}

	return cast.ToIntE(value)
}

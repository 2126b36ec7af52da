package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/go-books/internal/errs"
	"github.com/deppfellow/go-books/internal/repository"
	"github.com/rs/zerolog"
)

// BookNotFoundCode is the error code of a request naming an unknown book id.
const BookNotFoundCode = "BOOK_NOT_FOUND"

// BookService runs the book use cases on top of the repository. Errors it
// returns are *errs.HTTPError except for infrastructure failures (such as
// an unavailable pool), which the global error handler maps to 500.
type BookService struct {
	log   *zerolog.Logger
	books *repository.Repository
}

func NewBookService(logger *zerolog.Logger, books *repository.Repository) *BookService {
	return &BookService{
		log:   logger,
		books: books,
	}
}

// List returns the books matching filters.
func (s *BookService) List(ctx context.Context, filters map[string]any) ([]*repository.Book, error) {
	s.log.Debug().Interface("filters", filters).Msg("get all books matching with filters")

	books, err := s.books.ListBooks(ctx, filters)
	if err != nil {
		return nil, bookError(err)
	}

	s.log.Info().Int("count", len(books)).Interface("filters", filters).Msg("found books for given filters")
	return books, nil
}

// Get returns the book with id, or a 404 when there is none.
func (s *BookService) Get(ctx context.Context, id int64) (*repository.Book, error) {
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		return nil, bookError(err)
	}
	if book == nil {
		code := BookNotFoundCode
		return nil, errs.NewNotFoundError(fmt.Sprintf("Book with id: %d not found", id), true, &code)
	}
	return book, nil
}

// Create stores a new book built from values.
func (s *BookService) Create(ctx context.Context, values map[string]any) (*repository.Book, error) {
	book := s.books.NewBook()
	if err := book.SetValues(values); err != nil {
		return nil, bookError(err)
	}
	if err := book.Save(ctx); err != nil {
		return nil, bookError(err)
	}

	id, _ := book.ID()
	s.log.Info().Int64("book_id", id).Msg("created a new book")
	return book, nil
}

// Update applies values to the stored book with id and saves it.
func (s *BookService) Update(ctx context.Context, id int64, values map[string]any) (*repository.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := book.SetValues(values); err != nil {
		return nil, bookError(err)
	}
	if err := book.Save(ctx); err != nil {
		return nil, bookError(err)
	}

	s.log.Info().Int64("book_id", id).Msg("updated a book")
	return book, nil
}

// Delete removes the book with id and returns it as it was.
func (s *BookService) Delete(ctx context.Context, id int64) (*repository.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := book.Delete(ctx); err != nil {
		return nil, bookError(err)
	}

	s.log.Info().Int64("book_id", id).Msg("deleted a book")
	return book, nil
}

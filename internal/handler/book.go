package handler

import (
	"fmt"
	"net/http"

	"github.com/deppfellow/go-books/internal/server"
	"github.com/deppfellow/go-books/internal/service"
	"github.com/labstack/echo/v4"
)

// BookHandler exposes the book service over HTTP.
type BookHandler struct {
	Handler
	books *service.BookService
}

func NewBookHandler(s *server.Server, books *service.BookService) *BookHandler {
	return &BookHandler{
		Handler: NewHandler(s),
		books:   books,
	}
}

func (h *BookHandler) ListBooks(c echo.Context, req *ListBooksRequest) (Envelope, error) {
	books, err := h.books.List(c.Request().Context(), req.Filters)
	if err != nil {
		return Envelope{}, err
	}

	data := make([]map[string]any, 0, len(books))
	for _, book := range books {
		data = append(data, book.Values())
	}
	return ok(data), nil
}

func (h *BookHandler) GetBook(c echo.Context, req *BookIDRequest) (Envelope, error) {
	book, err := h.books.Get(c.Request().Context(), req.ID)
	if err != nil {
		return Envelope{}, err
	}
	return ok(book.Values()), nil
}

func (h *BookHandler) CreateBook(c echo.Context, req *CreateBookRequest) (Envelope, error) {
	book, err := h.books.Create(c.Request().Context(), req.Values)
	if err != nil {
		return Envelope{}, err
	}
	return success(http.StatusCreated, []map[string]any{{"book": book.Values()}}), nil
}

func (h *BookHandler) UpdateBook(c echo.Context, req *UpdateBookRequest) (Envelope, error) {
	book, err := h.books.Update(c.Request().Context(), req.ID, req.Values)
	if err != nil {
		return Envelope{}, err
	}

	env := ok(book.Values())
	env.Message = fmt.Sprintf("The book %s was updated successfully", book.Name())
	return env, nil
}

func (h *BookHandler) DeleteBook(c echo.Context, req *BookIDRequest) error {
	_, err := h.books.Delete(c.Request().Context(), req.ID)
	return err
}

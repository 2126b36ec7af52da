package router

import (
	"net/http"

	"github.com/deppfellow/go-books/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerBookRoutes registers the books API. Update and delete are also
// reachable through POST aliases for clients limited to GET and POST.
func registerBookRoutes(r *echo.Echo, h *handler.Handlers) {
	books := r.Group("/books")
	base := h.Book.Handler

	list := handler.Handle(base, h.Book.ListBooks, http.StatusOK, func() *handler.ListBooksRequest {
		return &handler.ListBooksRequest{}
	})
	create := handler.Handle(base, h.Book.CreateBook, http.StatusCreated, func() *handler.CreateBookRequest {
		return &handler.CreateBookRequest{}
	})
	get := handler.Handle(base, h.Book.GetBook, http.StatusOK, func() *handler.BookIDRequest {
		return &handler.BookIDRequest{}
	})
	update := handler.Handle(base, h.Book.UpdateBook, http.StatusOK, func() *handler.UpdateBookRequest {
		return &handler.UpdateBookRequest{}
	})
	remove := handler.HandleNoContent(base, h.Book.DeleteBook, http.StatusNoContent, func() *handler.BookIDRequest {
		return &handler.BookIDRequest{}
	})

	books.GET("", list)
	books.POST("", create)
	books.GET("/:id", get)
	books.PATCH("/:id", update)
	books.POST("/:id/update", update)
	books.DELETE("/:id", remove)
	books.POST("/:id/delete", remove)
}

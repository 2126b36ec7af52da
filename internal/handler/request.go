package handler

import (
	"github.com/deppfellow/go-books/internal/validation"
	"github.com/labstack/echo/v4"
)

var bodyBinder = &echo.DefaultBinder{}

const missingBodyMessage = "No json found in the request"

// bindJSONObject decodes the request body into a map. An absent body or a
// JSON null yields an empty map.
func bindJSONObject(c echo.Context) (map[string]any, error) {
	values := map[string]any{}
	if err := bodyBinder.BindBody(c, &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

// ListBooksRequest carries the list filters, read from a JSON object body
// and from the query string. Body entries win over query parameters of the
// same name.
type ListBooksRequest struct {
	Filters map[string]any
}

func (r *ListBooksRequest) Bind(c echo.Context) error {
	filters, err := bindJSONObject(c)
	if err != nil {
		return err
	}

	for key, values := range c.QueryParams() {
		if _, ok := filters[key]; !ok && len(values) > 0 {
			filters[key] = values[0]
		}
	}

	r.Filters = filters
	return nil
}

// Validate leaves filter checks to the repository, which knows the
// supported set.
func (r *ListBooksRequest) Validate() error {
	return nil
}

// BookIDRequest addresses one book through the :id path parameter.
type BookIDRequest struct {
	ID int64 `validate:"gt=0"`
}

func (r *BookIDRequest) Bind(c echo.Context) error {
	return echo.PathParamsBinder(c).MustInt64("id", &r.ID).BindError()
}

func (r *BookIDRequest) Validate() error {
	return validation.Struct(r)
}

// CreateBookRequest carries the field values of a new book.
type CreateBookRequest struct {
	Values map[string]any
}

func (r *CreateBookRequest) Bind(c echo.Context) error {
	values, err := bindJSONObject(c)
	r.Values = values
	return err
}

func (r *CreateBookRequest) Validate() error {
	if len(r.Values) == 0 {
		return validation.CustomValidationErrors{{Field: "body", Message: missingBodyMessage}}
	}
	return nil
}

// UpdateBookRequest carries the book id and the field values to change.
type UpdateBookRequest struct {
	BookIDRequest
	Values map[string]any
}

func (r *UpdateBookRequest) Bind(c echo.Context) error {
	if err := r.BookIDRequest.Bind(c); err != nil {
		return err
	}

	values, err := bindJSONObject(c)
	r.Values = values
	return err
}

func (r *UpdateBookRequest) Validate() error {
	if err := r.BookIDRequest.Validate(); err != nil {
		return err
	}
	if len(r.Values) == 0 {
		return validation.CustomValidationErrors{{Field: "body", Message: missingBodyMessage}}
	}
	return nil
}

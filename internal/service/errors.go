package service

import (
	"errors"
	"net/http"

	"github.com/deppfellow/go-books/internal/errs"
	"github.com/deppfellow/go-books/internal/repository"
	"github.com/deppfellow/go-books/internal/sqlerr"
)

// bookError turns a repository error into the HTTPError sent to clients.
//
//   - filter and property errors are the caller's fault: 400 with the kind
//     as code
//   - a storage error caused by a constraint or malformed value is mapped
//     by sqlerr to a 400
//   - other storage errors are a 500 that keeps the kind as code
//
// Errors that are not book errors are returned unchanged.
func bookError(err error) error {
	var bookErr *repository.Error
	if !errors.As(err, &bookErr) {
		return err
	}

	code := string(bookErr.Kind)

	if bookErr.Kind.IsValidation() {
		var fieldErrors []errs.FieldError
		if bookErr.Field != "" {
			fieldErrors = []errs.FieldError{{Field: bookErr.Field, Error: bookErr.Message}}
		}
		return errs.NewBadRequestError(bookErr.Message, true, &code, fieldErrors, nil).WithCause(err)
	}

	switch sqlerr.ErrCode(err) {
	case sqlerr.NotNullViolation, sqlerr.UniqueViolation, sqlerr.CheckViolation,
		sqlerr.ForeignKeyViolation, sqlerr.InvalidTextRepr, sqlerr.DatetimeFieldOverflow,
		sqlerr.NumericOutOfRange:
		var httpErr *errs.HTTPError
		if errors.As(sqlerr.HandleError(err), &httpErr) {
			return httpErr.WithCause(err)
		}
	}

	return errs.NewStorageError(code, http.StatusText(http.StatusInternalServerError)).WithCause(err)
}

// Package errs defines the error shapes returned to API clients.
//
// Every failed request is answered with an HTTPError serialized as JSON,
// optionally carrying field-level errors for invalid input.
package errs

// Package sqlerr handles errors reported by PostgreSQL through pgx.
//
// It maps SQLSTATE codes to coarse categories and converts constraint
// and data errors (for example a duplicate isbn) into "Bad Request"
// responses, leaving everything else as an internal error.
package sqlerr

// Package service contains the book use cases.
//
// It sits between the handler and repository layers. It receives
// validated payloads from the handler, drives the repository records
// through create, update and delete, and turns repository errors into
// client-facing HTTP errors.
package service

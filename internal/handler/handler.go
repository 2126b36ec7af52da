// Package handler is the HTTP layer between the router and the services.
//
// Handlers bind and validate requests through the validation package,
// call the service layer and shape the response envelope.
package handler

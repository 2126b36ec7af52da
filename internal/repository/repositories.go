package repository

import (
	"github.com/deppfellow/go-books/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Books *Repository
}

// NewRepositories wires the repositories onto the server's database pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Books: New(
			s.DB.Books(),
			s.Logger,
			WithSlowQueryThreshold(s.Config.Observability.Logging.SlowQueryThreshold),
		),
	}
}

package service

import (
	"github.com/deppfellow/go-books/internal/repository"
	"github.com/deppfellow/go-books/internal/server"
)

// Services is a container for all business services.
type Services struct {
	Books *BookService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Books: NewBookService(s.Logger, repos.Books),
	}, nil
}

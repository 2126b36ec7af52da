// Package router builds the Echo router: global middleware, the error
// handler and every route group.
package router

import (
	"github.com/deppfellow/go-books/internal/handler"
	"github.com/deppfellow/go-books/internal/middleware"
	"github.com/deppfellow/go-books/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter returns the fully wired router.
//
// Middleware order matters: the New Relic transaction and the request id
// must exist before the context enhancer derives the request logger,
// which the request logger and the rate limiter then use.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middleware.RequestID(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.RateLimit.Limit(),
	)

	registerSystemRoutes(router, h)
	registerBookRoutes(router, h)

	return router
}

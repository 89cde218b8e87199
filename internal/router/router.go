// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/handler"
	"github.com/sebastianleon1-sys/Zerby2/internal/middleware"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

// NewRouter builds the Echo instance with the global middleware chain and
// every route.
//
// Order matters: the request id must exist before the context logger is
// built, and tracing must wrap the logger so trace ids reach it.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	mws := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = mws.Global.GlobalErrorHandler

	router.Use(
		mws.Global.Recover(),
		mws.Global.BodyLimit(),
		mws.Global.CORS(),
		mws.Global.Secure(),
		middleware.RequestID(),
		mws.Tracing.NewRelicMiddleware(),
		mws.Tracing.EnhanceTracing(),
		mws.ContextEnhancer.EnhanceContext(),
		mws.Metrics.Observe(),
		mws.Global.RequestLogger(),
	)

	registerSystemRoutes(router, s, h)
	registerAuthRoutes(router, mws, h)
	registerDiscoveryRoutes(router, mws, h)
	registerSolicitudRoutes(router, mws, h)
	registerChatRoutes(router, mws, h)
	registerRatingRoutes(router, mws, h)
	registerPortfolioRoutes(router, mws, h)

	return router
}

// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"os"

	"github.com/deppfellow/student-records/internal/handler"
	"github.com/deppfellow/student-records/internal/middleware"
	"github.com/deppfellow/student-records/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance with the middleware chain and every route.
//
// Order matters:
//   - rate limiting first, so rejected clients cost as little as possible
//   - RequestID before anything that logs or traces
//   - NewRelicMiddleware before EnhanceTracing and ContextEnhancer, which read the transaction
//   - ContextEnhancer before RequestLogger, which uses the request-scoped logger
//   - Recover last, closest to the handlers
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	if middlewares.RateLimit.Enabled() {
		router.Use(middlewares.RateLimit.Limit())
	}

	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	api := router.Group("/api")
	registerStudentRoutes(api, h)

	if dir := s.Config.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			router.Use(middlewares.Global.Static(dir))
		} else {
			s.Logger.Warn().Str("static_dir", dir).Msg("static directory not found, frontend hosting disabled")
		}
	}

	return router
}

// registerStudentRoutes wires the students resource.
//
// The collection answers both with and without a trailing slash.
func registerStudentRoutes(api *echo.Group, h *handler.Handlers) {
	students := api.Group("/students")

	for _, path := range []string{"", "/"} {
		students.POST(path, h.Student.CreateStudent)
		students.GET(path, h.Student.ListStudents)
	}

	students.GET("/:id", h.Student.GetStudent)
	students.PUT("/:id", h.Student.UpdateStudent)
	students.DELETE("/:id", h.Student.DeleteStudent)
}

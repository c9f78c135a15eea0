package api

import (
	"net/http"
	"time"

	"github.com/futig/report-grounder/internal/api/docs"
	"github.com/futig/report-grounder/internal/api/middleware"
	reportapi "github.com/futig/report-grounder/internal/api/report"
	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(reportHandler *reportapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, entity.PingResponse{Msg: "pong"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, response.HealthResponse{Status: "healthy"})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	reportapi.RegisterRoutes(r, reportHandler)

	return r
}

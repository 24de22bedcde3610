package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"taxharvest/pkg/harvest"
)

// Refresher re-runs both feed fetches.
type Refresher interface {
	Load(ctx context.Context) error
}

// ReportGenerator renders a state as a downloadable workbook.
type ReportGenerator interface {
	Generate(ctx context.Context, st harvest.State) ([]byte, error)
}

// Deps are the collaborators the router serves.
type Deps struct {
	// Dashboard is the harvest session store.
	Dashboard harvest.Dashboard
	// Provider backs the raw data endpoints.
	Provider harvest.Source
	Loader   Refresher
	Report   ReportGenerator
	Logger   *slog.Logger
}

// NewRouter builds the HTTP API router.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(logger))
	r.Use(recoveryLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	h := &handler{
		dashboard: deps.Dashboard,
		provider:  deps.Provider,
		loader:    deps.Loader,
		report:    deps.Report,
		logger:    logger,
	}

	r.Get("/api/health", h.health)

	// Provider feeds
	r.Get("/api/holdings", h.getHoldings)
	r.Get("/api/capital-gains", h.getCapitalGains)

	// Harvest session
	r.Route("/api/harvest", func(r chi.Router) {
		r.Get("/", h.getHarvest)
		r.Post("/selection/{coin}/toggle", h.toggleSelection)
		r.Post("/selection/all", h.selectAll)
		r.Delete("/selection", h.clearSelection)
		r.Post("/refresh", h.refresh)
		r.Get("/events", h.streamEvents)
		r.Get("/report.xlsx", h.downloadReport)
	})

	return r
}

type handler struct {
	dashboard harvest.Dashboard
	provider  harvest.Source
	loader    Refresher
	report    ReportGenerator
	logger    *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	if lw, ok := w.(interface{ SetErrorMessage(string) }); ok {
		lw.SetErrorMessage(message)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

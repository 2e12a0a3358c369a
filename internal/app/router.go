package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/cv-matcher/internal/adapter/httpserver"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/cv-matcher/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func requestTimeout(cfg config.Config) time.Duration {
	if cfg.HTTPWriteTimeout > time.Second {
		return cfg.HTTPWriteTimeout - time.Second
	}
	return 60 * time.Second
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.RequestID())
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(httpserver.TimeoutMiddleware(requestTimeout(cfg)))

		// Mutating endpoints are rate limited per client IP.
		v1.Group(func(wr chi.Router) {
			wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
			wr.Post("/candidates", srv.CreateCandidateHandler())
			wr.Delete("/candidates/{id}", srv.DeleteCandidateHandler())
			wr.Post("/analyses", srv.CreateAnalysisHandler())
		})

		v1.Get("/candidates", srv.ListCandidatesHandler())
		v1.Get("/candidates/{id}", srv.GetCandidateHandler())
		v1.Get("/analyses/{id}", srv.GetAnalysisHandler())
		v1.Get("/analyses/{id}/export.xlsx", srv.ExportAnalysisHandler())
		v1.Get("/dashboard", srv.DashboardHandler())
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", srv.ReadyzHandler())
	r.Handle("/metrics", promhttp.Handler())

	return httpserver.SecurityHeaders(r)
}

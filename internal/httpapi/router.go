// Package httpapi exposes the inbound trigger surface from spec §6: a
// thin chi router fronting the orchestrator and store. It carries no
// auth/CORS stack — this is an internal trigger surface, not a public
// gateway.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps bundles everything the router's handlers need.
type Deps struct {
	Logger  zerolog.Logger
	Scraper ScrapingHandler
}

// ScrapingHandler is the seam between the router and the orchestrator
// + store, kept as an interface so handler tests can stub it.
type ScrapingHandler interface {
	Trigger(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

// NewRouter returns a configured chi Router with the middleware chain
// and every route from spec §6 mounted.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mwRequestLogger(deps.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ingestor"})
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/scraping", func(r chi.Router) {
		r.Post("/trigger", deps.Scraper.Trigger)
		r.Get("/status/{task_id}", deps.Scraper.Status)
		r.Get("/history", deps.Scraper.History)
		r.Get("/stats", deps.Scraper.Stats)
	})

	return r
}

func mwRequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rw, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("req_id", chimw.GetReqID(r.Context())).
				Int("status", rw.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}

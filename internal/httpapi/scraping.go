package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zenwatch/ingestor/internal/model"
	"github.com/zenwatch/ingestor/internal/scraper"
	"github.com/zenwatch/ingestor/internal/store"
)

// Orchestrator is the subset of *ingest.Orchestrator the scraping
// handler depends on.
type Orchestrator interface {
	StartIngestAll(ctx context.Context, keywords []scraper.Keyword) (string, error)
}

// RunStore is the subset of *store.DB the scraping handler depends on.
type RunStore interface {
	RunByTaskID(ctx context.Context, taskID string) (*model.IngestionRun, error)
	RecentRuns(ctx context.Context, limit int) ([]*model.IngestionRun, error)
	Stats(ctx context.Context) (*store.RunStats, error)
}

// scrapingHandler implements ScrapingHandler over an Orchestrator and
// a RunStore.
type scrapingHandler struct {
	orchestrator Orchestrator
	store        RunStore
	logger       zerolog.Logger
}

// NewScrapingHandler builds the handler backing /scraping/*.
func NewScrapingHandler(orchestrator Orchestrator, store RunStore, logger zerolog.Logger) ScrapingHandler {
	return &scrapingHandler{orchestrator: orchestrator, store: store, logger: logger}
}

type triggerRequest struct {
	Keywords []string `json:"keywords"`
}

// Trigger handles POST /scraping/trigger. It enqueues an orchestrator
// run and returns its task_id immediately (202) rather than blocking
// on the full ingestion pass.
func (h *scrapingHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	var keywords []scraper.Keyword
	for _, kw := range req.Keywords {
		keywords = append(keywords, scraper.Keyword{Keyword: kw, Weight: 1.0})
	}

	taskID, err := h.orchestrator.StartIngestAll(r.Context(), keywords)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to start ingestion run")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start ingestion run"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"task_id": taskID,
		"message": "ingestion run enqueued",
	})
}

// Status handles GET /scraping/status/{task_id}.
func (h *scrapingHandler) Status(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	run, err := h.store.RunByTaskID(r.Context(), taskID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// History handles GET /scraping/history?limit=N.
func (h *scrapingHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.store.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load run history")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// Stats handles GET /scraping/stats.
func (h *scrapingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute run stats")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

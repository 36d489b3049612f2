package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/maltedev/car-deal-analyzer/internal/analysis"
	"github.com/maltedev/car-deal-analyzer/internal/database"
	"github.com/maltedev/car-deal-analyzer/internal/fetch"
	"github.com/maltedev/car-deal-analyzer/internal/models"
	"github.com/maltedev/car-deal-analyzer/internal/scraper"
)

const htmlPreviewLength = 1000

type Analyzer interface {
	Analyze(ctx context.Context, url string) (*models.DealAnalysis, error)
	MarketComparison(ctx context.Context, carMake, carModel string) (*models.MarketComparison, error)
	CacheStats(ctx context.Context) analysis.CacheStats
	ClearCache(ctx context.Context)
}

type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]database.HistoryEntry, error)
}

type OutboxStats interface {
	PendingCount(ctx context.Context) (int64, error)
	DeadLetterCount(ctx context.Context) (int64, error)
}

// Deps are the collaborators behind the handlers. Only Analyzer is required.
type Deps struct {
	Analyzer  Analyzer
	History   HistoryReader
	Outbox    OutboxStats
	Fetcher   fetch.Fetcher
	Extractor scraper.Extractor
}

type Handlers struct {
	deps     Deps
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger
}

func NewHandlers(deps Deps, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		deps:     deps,
		validate: validator.New(),
		now:      time.Now,
		logger:   logger.With("component", "api"),
	}
}

type AnalyzeRequest struct {
	URL string `json:"url" validate:"required"`
}

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Health reports liveness, plus outbox backlog when persistence is enabled.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}

	if h.deps.Outbox != nil {
		pending, err := h.deps.Outbox.PendingCount(r.Context())
		if err != nil {
			h.logger.Warn("failed to count pending events", "error", err)
		}
		deadLetter, err := h.deps.Outbox.DeadLetterCount(r.Context())
		if err != nil {
			h.logger.Warn("failed to count dead letter events", "error", err)
		}
		health["outbox"] = map[string]int64{
			"pending":     pending,
			"dead_letter": deadLetter,
		}
	}

	h.respondJSON(w, http.StatusOK, health)
}

func (h *Handlers) decodeURLRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "URL is required")
		return "", false
	}
	return req.URL, true
}

func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	url, ok := h.decodeURLRequest(w, r)
	if !ok {
		return
	}

	h.logger.Info("analyzing car listing", "url", url)

	result, err := h.deps.Analyzer.Analyze(r.Context(), url)
	if err != nil {
		switch {
		case errors.Is(err, scraper.ErrNotACarListing), errors.Is(err, scraper.ErrExtractionFailed):
			h.logger.Info("could not extract listing", "url", url, "error", err)
			h.respondJSON(w, http.StatusNotFound, errorResponse{
				Error:   "Could not extract car data from URL",
				Details: err.Error(),
				URL:     url,
			})
		default:
			h.logger.Error("analysis failed", "url", url, "error", err)
			h.respondJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "Failed to analyze car listing",
				Details: err.Error(),
			})
		}
		return
	}

	h.respondJSON(w, http.StatusOK, successResponse{Success: true, Data: result})
}

func (h *Handlers) MarketData(w http.ResponseWriter, r *http.Request) {
	carMake := chi.URLParam(r, "make")
	carModel := chi.URLParam(r, "model")

	mc, err := h.deps.Analyzer.MarketComparison(r.Context(), carMake, carModel)
	if err != nil {
		h.logger.Error("failed to fetch market data", "make", carMake, "model", carModel, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch market data")
		return
	}

	h.respondJSON(w, http.StatusOK, successResponse{Success: true, Data: mc})
}

func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data:    h.deps.Analyzer.CacheStats(r.Context()),
	})
}

func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.deps.Analyzer.ClearCache(r.Context())
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Cache cleared",
	})
}

func (h *Handlers) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.deps.History.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list analyses", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}

	h.respondJSON(w, http.StatusOK, successResponse{Success: true, Data: entries})
}

type debugScrapeResponse struct {
	Success     bool               `json:"success"`
	URL         string             `json:"url"`
	HTMLLength  int                `json:"htmlLength"`
	CarData     *models.CarListing `json:"carData"`
	HTMLPreview string             `json:"htmlPreview"`
}

// DebugScrape shows the raw page next to what the extractor made of it.
func (h *Handlers) DebugScrape(w http.ResponseWriter, r *http.Request) {
	url, ok := h.decodeURLRequest(w, r)
	if !ok {
		return
	}

	html, err := h.deps.Fetcher.Fetch(r.Context(), url)
	if err != nil {
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Debug scraping failed",
			Details: err.Error(),
		})
		return
	}

	listing, err := h.deps.Extractor.Extract(r.Context(), url)
	if err != nil {
		h.logger.Info("debug extraction failed", "url", url, "error", err)
	}

	preview := html
	if len(preview) > htmlPreviewLength {
		preview = preview[:htmlPreviewLength]
	}

	h.respondJSON(w, http.StatusOK, debugScrapeResponse{
		Success:     true,
		URL:         url,
		HTMLLength:  len(html),
		CarData:     listing,
		HTMLPreview: preview,
	})
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

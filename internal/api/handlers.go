package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/trogers1052/metal-price-tracker/internal/cache"
	"github.com/trogers1052/metal-price-tracker/internal/database"
	"github.com/trogers1052/metal-price-tracker/internal/logx"
	"github.com/trogers1052/metal-price-tracker/internal/models"
	"github.com/trogers1052/metal-price-tracker/internal/pipeline"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxRangeDays bounds GET /prices
const maxRangeDays = 366

// Store is the read side of the price database
type Store interface {
	GetPriceByDate(ctx context.Context, date time.Time) (*models.PriceRecord, error)
	GetLatestPrice(ctx context.Context) (*models.PriceRecord, error)
	GetPriceRange(ctx context.Context, from, to time.Time) ([]*models.PriceRecord, error)
	GetDeliveriesByDate(ctx context.Context, date time.Time) ([]models.DeliveryResult, error)
	Ping(ctx context.Context) error
}

// RunFunc runs the pipeline once
type RunFunc func(ctx context.Context, trigger string) pipeline.Outcome

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db    Store
	cache cache.PriceCache
	run   RunFunc
}

// NewHandler creates a new Handler. A nil run disables POST /runs.
func NewHandler(db Store, c cache.PriceCache, run RunFunc) *Handler {
	return &Handler{
		db:    db,
		cache: c,
		run:   run,
	}
}

// GetLatestPrice handles GET /prices/latest
func (h *Handler) GetLatestPrice(w http.ResponseWriter, r *http.Request) {
	record, err := h.db.GetLatestPrice(r.Context())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// GetPrice handles GET /prices/{date}
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(w, mux.Vars(r)["date"])
	if !ok {
		return
	}

	if h.cache != nil {
		if record, hit := h.cache.Get(r.Context(), date); hit {
			respondJSON(w, http.StatusOK, record)
			return
		}
	}

	// misses are not written back, entries come from the pipeline only
	record, err := h.db.GetPriceByDate(r.Context(), date)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// GetPrices handles GET /prices?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("from") == "" || q.Get("to") == "" {
		respondError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	from, ok := parseDate(w, q.Get("from"))
	if !ok {
		return
	}
	to, ok := parseDate(w, q.Get("to"))
	if !ok {
		return
	}
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "to must not be before from")
		return
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		respondError(w, http.StatusBadRequest, "range too large")
		return
	}

	records, err := h.db.GetPriceRange(r.Context(), from, to)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// GetDeliveries handles GET /deliveries/{date}
func (h *Handler) GetDeliveries(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(w, mux.Vars(r)["date"])
	if !ok {
		return
	}

	results, err := h.db.GetDeliveriesByDate(r.Context(), date)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// TriggerRun handles POST /runs. The response carries the run outcome,
// 502 when no price could be stored.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.run == nil {
		respondError(w, http.StatusServiceUnavailable, "manual runs disabled")
		return
	}

	out := h.run(r.Context(), pipeline.TriggerHTTP)

	status := http.StatusOK
	if !out.OK() {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, out)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		logx.FromContext(r.Context()).Warn("health check failed", logx.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	logx.FromContext(r.Context()).Error("store request failed", logx.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

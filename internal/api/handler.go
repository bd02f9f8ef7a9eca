// Package api is the HTTP surface: request parsing, validation and JSON
// rendering around the app package.
package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"signal-scout/internal/app"
	"signal-scout/models"
)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
}

// NewHandler creates a new Handler
func NewHandler(a *app.App) *Handler {
	return &Handler{app: a}
}

var universePattern = regexp.MustCompile(`^[A-Za-z0-9.,\- ]*$`)

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	database := h.app.DatabaseStatus(r.Context())

	status := "ok"
	if database == "disconnected" {
		status = "degraded"
	}

	h.jsonResponse(w, map[string]interface{}{
		"status": status,
		"services": map[string]string{
			"database": database,
		},
	})
}

// HandleScan runs a scan over the requested universe
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req app.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An empty body scans the default universe
		req = app.ScanRequest{}
	}

	if !universePattern.MatchString(req.Universe) {
		h.jsonError(w, "invalid universe", http.StatusBadRequest)
		return
	}

	results, err := h.app.RunScan(r.Context(), req)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// HandleGetResults returns the persisted results of the latest scan
func (h *Handler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	minScore := h.parseIntParam(r, "min_score", 0)

	results, err := h.app.GetLatestResults(r.Context(), minScore)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, results)
}

// HandleGetTrades returns trades, optionally filtered by status
func (h *Handler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", string(models.TradeStatusPending), string(models.TradeStatusOpen), string(models.TradeStatusClosed):
	default:
		h.jsonError(w, "invalid status", http.StatusBadRequest)
		return
	}

	limit := h.parseIntParam(r, "limit", 50)

	trades, err := h.app.GetTrades(r.Context(), status, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, trades)
}

// HandleCreateTrades converts the latest scan's BUY results into trades
func (h *Handler) HandleCreateTrades(w http.ResponseWriter, r *http.Request) {
	creations, err := h.app.CreateTradesFromLatestScan(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"trades": creations,
		"count":  len(creations),
	})
}

// HandleGetSummary returns closed-trade performance over a window
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	days := h.parseIntParam(r, "days", 1)

	summary, err := h.app.GetSummary(r.Context(), days)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, summary)
}

// HandleGetRisk returns today's realized R and the breaker state
func (h *Handler) HandleGetRisk(w http.ResponseWriter, r *http.Request) {
	dailyR, tripped, err := h.app.GetDailyRisk(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"daily_r":         dailyR,
		"breaker_tripped": tripped,
	})
}

func (h *Handler) parseIntParam(r *http.Request, name string, defaultValue int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/marketgate/internal/common"
	"github.com/bobmcallan/marketgate/internal/models"
)

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// --- Market data handlers ---

// handleStock serves GET /api/stock/{symbol}?period=1mo&kind=prices.
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathSuffix(r, "/api/stock/")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	kind := models.DataKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = models.KindPrices
	}
	period := r.URL.Query().Get("period")

	outcome := s.app.FetchService.Fetch(r.Context(), models.Query{
		Symbol: symbol,
		Kind:   kind,
		Period: period,
	})

	WriteJSON(w, statusForOutcome(outcome), outcome)
}

// handleBatch serves POST /api/batch with a JSON list of queries.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Queries []models.Query `json:"queries"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Queries) == 0 {
		WriteError(w, http.StatusBadRequest, "At least one query is required")
		return
	}

	results := s.app.FetchService.FetchMany(r.Context(), req.Queries)

	outcomes := make([]models.FetchOutcome, 0, len(results))
	ok := 0
	for _, outcome := range results {
		if outcome.OK() {
			ok++
		}
		outcomes = append(outcomes, outcome)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total":    len(outcomes),
		"ok":       ok,
		"outcomes": outcomes,
	})
}

// handleComprehensive serves GET /api/comprehensive/{symbol}.
func (s *Server) handleComprehensive(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathSuffix(r, "/api/comprehensive/")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	data := s.app.FetchService.FetchComprehensive(r.Context(), symbol)
	WriteJSON(w, http.StatusOK, data)
}

// --- Observability handlers ---

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sources": s.app.FetchService.SourceStatus(),
	})
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.FetchService.ValidationSummary())
}

// statusForOutcome maps a fetch outcome to an HTTP status. Partial
// information still returns a body; the status reflects the result class.
func statusForOutcome(outcome models.FetchOutcome) int {
	switch outcome.Status {
	case models.FetchOK:
		return http.StatusOK
	case models.FetchTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

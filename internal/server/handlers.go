package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/priceforge/priceforge/internal/apperr"
	"github.com/priceforge/priceforge/internal/recommend"
	"github.com/priceforge/priceforge/internal/store"
)

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

type pricingResponse struct {
	ExperimentID string         `json:"experimentId"`
	Variant      *store.Variant `json:"variant"`
}

// handlePricing assigns the caller's user to a variant and records the
// view. Inactive or unknown experiments answer 204 so client snippets can
// fall back to the default price without error handling.
func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	experimentID := r.URL.Query().Get("experiment")
	userID := r.URL.Query().Get("user")
	if experimentID == "" || userID == "" {
		http.Error(w, "experiment and user parameters are required", http.StatusBadRequest)
		return
	}

	variant, err := s.engine.AssignVariant(r.Context(), experimentID, userID)
	if err != nil {
		s.internalError(w, "assign variant", err)
		return
	}
	if variant == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.engine.RecordView(r.Context(), experimentID, variant.ID); err != nil {
		s.internalError(w, "record view", err)
		return
	}

	writeJSON(w, http.StatusOK, pricingResponse{ExperimentID: experimentID, Variant: variant})
}

type conversionRequest struct {
	ExperimentID string   `json:"experimentId"`
	UserID       string   `json:"userId"`
	Revenue      *float64 `json:"revenue,omitempty"`
}

// handleConversion records a conversion for the variant the user was
// assigned to. When no revenue is supplied, the variant's listed price is
// the fallback. Events for inactive experiments are accepted and dropped.
func (s *Server) handleConversion(w http.ResponseWriter, r *http.Request) {
	var req conversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ExperimentID == "" || req.UserID == "" {
		http.Error(w, "experimentId and userId are required", http.StatusBadRequest)
		return
	}

	variant, err := s.engine.AssignVariant(r.Context(), req.ExperimentID, req.UserID)
	if err != nil {
		s.internalError(w, "assign variant", err)
		return
	}
	if variant == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	revenue := variant.Price
	if req.Revenue != nil {
		revenue = *req.Revenue
	}

	if err := s.engine.RecordConversion(r.Context(), req.ExperimentID, variant.ID, revenue); err != nil {
		s.internalError(w, "record conversion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuickAnalysis(w http.ResponseWriter, r *http.Request) {
	current, err1 := strconv.ParseFloat(r.URL.Query().Get("current"), 64)
	proposed, err2 := strconv.ParseFloat(r.URL.Query().Get("proposed"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "current and proposed prices are required", http.StatusBadRequest)
		return
	}
	elasticity := 0.0
	if raw := r.URL.Query().Get("elasticity"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "elasticity must be a number", http.StatusBadRequest)
			return
		}
		elasticity = parsed
	}

	analysis, err := recommend.Quick(current, proposed, elasticity)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := s.tenant(w, r)
	if !ok {
		return
	}

	filter := store.ListFilter{Status: store.Status(r.URL.Query().Get("status"))}
	experiments, err := s.engine.List(r.Context(), tenantID, filter)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if experiments == nil {
		experiments = []*store.Experiment{}
	}
	writeJSON(w, http.StatusOK, experiments)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := s.tenant(w, r)
	if !ok {
		return
	}

	results, err := s.engine.Results(r.Context(), chi.URLParam(r, "id"), tenantID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type recommendationRequest struct {
	Objective    string  `json:"objective"`
	MinPrice     float64 `json:"minPrice,omitempty"`
	MaxPrice     float64 `json:"maxPrice,omitempty"`
	TargetMargin float64 `json:"targetMargin,omitempty"`
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := s.tenant(w, r)
	if !ok {
		return
	}

	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Objective == "" {
		req.Objective = "revenue"
	}

	objective, err := recommend.ParseObjective(req.Objective)
	if err != nil {
		s.respondError(w, err)
		return
	}

	results, err := s.engine.Results(r.Context(), chi.URLParam(r, "id"), tenantID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	rec, err := recommend.Generate(results, recommend.Goals{
		Objective:    objective,
		MinPrice:     req.MinPrice,
		MaxPrice:     req.MaxPrice,
		TargetMargin: req.TargetMargin,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := s.tenant(w, r)
	if !ok {
		return
	}

	overview, err := s.agg.Overview(r.Context(), tenantID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// tenant extracts the caller's tenant from the X-Tenant-ID header or the
// tenant query parameter.
func (s *Server) tenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID := r.Header.Get("X-Tenant-ID")
	if tenantID == "" {
		tenantID = r.URL.Query().Get("tenant")
	}
	if tenantID == "" {
		http.Error(w, "tenant is required", http.StatusBadRequest)
		return "", false
	}
	return tenantID, true
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case apperr.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.internalError(w, "request failed", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zhaddad/aeromind/internal/agent"
	"github.com/zhaddad/aeromind/internal/vectordb"
)

type askRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type askResponse struct {
	SessionID string `json:"session_id"`
	agent.Envelope
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	env := s.agent.ExecuteQuery(r.Context(), req.Query, agent.Context{
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})

	writeJSON(w, http.StatusOK, askResponse{SessionID: req.SessionID, Envelope: *env})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	plan, err := s.agent.PlanQuery(r.Context(), req.Query, agent.Context{
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"session_id": req.SessionID, "plan": plan})
}

func (s *Server) handleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, `{"error":"q is required"}`, http.StatusBadRequest)
		return
	}

	limit := 8
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	var filter *vectordb.SearchFilter
	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		docType := vectordb.DocumentType(typeStr)
		filter = &vectordb.SearchFilter{Type: &docType}
	}

	results, err := s.store.Search(r.Context(), query, limit, filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	enhanced, err := s.longterm.EnhanceContext(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	category := r.URL.Query().Get("category")
	records, err := s.longterm.Records(r.Context(), userID, category, 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"context": enhanced,
		"records": records,
	})
}

func (s *Server) handleStandInfo(w http.ResponseWriter, r *http.Request) {
	standID := chi.URLParam(r, "standID")

	stand, err := s.data.StandInfo(r.Context(), standID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if stand == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "stand not found: " + standID})
		return
	}

	writeJSON(w, http.StatusOK, stand)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

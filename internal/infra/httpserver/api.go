package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
	"github.com/bryanwahyu/fraudwatch/internal/middleware"
)

// GET /api/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, r.svc.Status())
	return nil
}

// GET /api/agents
func (r *Router) handleListAgents(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, r.svc.List())
	return nil
}

// GET /api/agents/{id}
func (r *Router) handleGetAgent(w http.ResponseWriter, req *http.Request) error {
	a, err := r.svc.Get(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, a)
	return nil
}

// POST /api/agents
// Body: {"name": "...", "account_ids": ["ACC001"]}
func (r *Router) handleCreateAgent(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Name       string   `json:"name"`
		AccountIDs []string `json:"account_ids"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<16)).Decode(&body); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", fraud.ErrValidation, err)
	}
	name, err := middleware.ValidateAgentName(body.Name)
	if err != nil {
		return err
	}
	ids, err := middleware.ValidateAccountIDs(body.AccountIDs)
	if err != nil {
		return err
	}

	a, err := r.svc.Create(name, ids)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, message{Success: true, AgentID: a.ID, Message: "Agent created"})
	return nil
}

// POST /api/agents/{id}/start, /stop and DELETE /api/agents/{id}
func (r *Router) handleLifecycle(op func(string) error, done string) handlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		if err := op(chi.URLParam(req, "id")); err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, message{Success: true, Message: done})
		return nil
	}
}

// GET /api/analyses?limit=20
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(queryInt(req, "limit"), apiAnalyses, maxListLimit)
	writeJSON(w, http.StatusOK, r.svc.RecentAnalyses(limit))
	return nil
}

// GET /api/analyses/{id}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	a, err := r.svc.Analysis(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, a)
	return nil
}

// GET /api/archive/analyses?page=&page_size=
func (r *Router) handleArchive(w http.ResponseWriter, req *http.Request) error {
	page := queryInt(req, "page")
	size := middleware.ValidateLimit(queryInt(req, "page_size"), 20, maxListLimit)
	list, err := r.svc.ArchivedAnalyses(req.Context(), page, size)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /api/alerts?limit=50
func (r *Router) handleListAlerts(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(queryInt(req, "limit"), 50, maxListLimit)
	writeJSON(w, http.StatusOK, r.svc.Alerts(limit))
	return nil
}

// GET /api/alerts/{id}
func (r *Router) handleGetAlert(w http.ResponseWriter, req *http.Request) error {
	a, err := r.svc.Alert(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, a)
	return nil
}

// POST /api/alerts/{id}/acknowledge
func (r *Router) handleAcknowledge(w http.ResponseWriter, req *http.Request) error {
	if _, err := r.svc.Acknowledge(req.Context(), chi.URLParam(req, "id")); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, message{Success: true, Message: "Alert acknowledged"})
	return nil
}

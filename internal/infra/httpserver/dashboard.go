package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
	"github.com/bryanwahyu/fraudwatch/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"pct":  func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"join": strings.Join,
}).ParseFS(templateFS, "templates/index.html"))

type dashboardStats struct {
	TotalAgents    int
	RunningAgents  int
	TotalEvents    int
	HighRiskAlerts int
}

type dashboardView struct {
	Stats    dashboardStats
	Agents   []fraud.Agent
	Analyses []fraud.Analysis
	Alerts   []fraud.Alert
}

// GET /
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	view := dashboardView{
		Agents:   r.svc.List(),
		Analyses: r.svc.RecentAnalyses(dashboardAnalyses),
		Alerts:   r.svc.Alerts(dashboardAnalyses),
	}
	view.Stats.TotalAgents = len(view.Agents)
	for _, a := range view.Agents {
		if a.Status == fraud.AgentRunning {
			view.Stats.RunningAgents++
		}
		view.Stats.TotalEvents += a.EventsProcessed
	}
	for _, a := range view.Analyses {
		if a.RiskScore > 0.7 {
			view.Stats.HighRiskAlerts++
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return dashboardTmpl.Execute(w, view)
}

// POST /create_agent (form: name, account_ids comma separated)
func (r *Router) handleFormCreate(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", fraud.ErrValidation, err)
	}
	name, err := middleware.ValidateAgentName(req.PostFormValue("name"))
	if err != nil {
		return err
	}
	ids, err := middleware.ValidateAccountIDs(middleware.SplitAccountIDs(req.PostFormValue("account_ids")))
	if err != nil {
		return err
	}
	if _, err := r.svc.Create(name, ids); err != nil {
		return err
	}
	http.Redirect(w, req, "/", http.StatusSeeOther)
	return nil
}

// POST /start_agent/{id}, /stop_agent/{id}, /delete_agent/{id}
func (r *Router) handleFormLifecycle(op func(string) error) handlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		if err := op(chi.URLParam(req, "id")); err != nil {
			return err
		}
		http.Redirect(w, req, "/", http.StatusSeeOther)
		return nil
	}
}

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/fraudwatch/internal/application/agents"
	domai "github.com/bryanwahyu/fraudwatch/internal/domain/ai"
	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
	"github.com/bryanwahyu/fraudwatch/internal/middleware"
)

// Service is what the HTTP layer needs from the agent manager.
type Service interface {
	Create(name string, accountIDs []string) (fraud.Agent, error)
	Start(id string) error
	Stop(id string) error
	Delete(id string) error
	Get(id string) (fraud.Agent, error)
	List() []fraud.Agent
	RecentAnalyses(limit int) []fraud.Analysis
	Analysis(id string) (fraud.Analysis, error)
	ArchivedAnalyses(ctx context.Context, page, pageSize int) (fraud.PaginatedAnalyses, error)
	Alerts(limit int) []fraud.Alert
	Alert(id string) (fraud.Alert, error)
	Acknowledge(ctx context.Context, id string) (fraud.Alert, error)
	Status() agents.Status
}

// Options configure the cross-cutting parts of the router.
type Options struct {
	CORSOrigins []string
	APIKeys     map[string]string
	RateLimiter *middleware.RateLimiter
	Health      map[string]middleware.HealthChecker
	Log         *zap.SugaredLogger
}

const (
	dashboardAnalyses = 10
	apiAnalyses       = 20
	maxListLimit      = 100
)

type Router struct {
	svc Service
	log *zap.SugaredLogger
}

func NewRouter(svc Service, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	r := &Router{svc: svc, log: opts.Log}
	mux := chi.NewRouter()

	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware(opts.Log))
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Handle("/metrics", middleware.MetricsHandler())

	// dashboard + form routes
	mux.Get("/", r.wrapForm(r.handleDashboard))
	mux.Post("/create_agent", r.wrapForm(r.handleFormCreate))
	mux.Post("/start_agent/{id}", r.wrapForm(r.handleFormLifecycle(svc.Start)))
	mux.Post("/stop_agent/{id}", r.wrapForm(r.handleFormLifecycle(svc.Stop)))
	mux.Post("/delete_agent/{id}", r.wrapForm(r.handleFormLifecycle(svc.Delete)))

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins(opts.CORSOrigins),
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		if opts.RateLimiter != nil {
			rt.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
		}

		rt.Get("/status", r.wrap(r.handleStatus))

		rt.Get("/agents", r.wrap(r.handleListAgents))
		rt.Post("/agents", r.wrap(r.handleCreateAgent))
		rt.Get("/agents/{id}", r.wrap(r.handleGetAgent))
		rt.Post("/agents/{id}/start", r.wrap(r.handleLifecycle(svc.Start, "Agent started")))
		rt.Post("/agents/{id}/stop", r.wrap(r.handleLifecycle(svc.Stop, "Agent stopped")))
		rt.Delete("/agents/{id}", r.wrap(r.handleLifecycle(svc.Delete, "Agent deleted")))

		rt.Get("/analyses", r.wrap(r.handleListAnalyses))
		rt.Get("/analyses/{id}", r.wrap(r.handleGetAnalysis))
		rt.Get("/archive/analyses", r.wrap(r.handleArchive))

		rt.Get("/alerts", r.wrap(r.handleListAlerts))
		rt.Get("/alerts/{id}", r.wrap(r.handleGetAlert))
		rt.Post("/alerts/{id}/acknowledge", r.wrap(r.handleAcknowledge))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors onto JSON error responses.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			code := statusFor(err)
			if code >= http.StatusInternalServerError {
				r.log.Errorw("request failed", "path", req.URL.Path, "err", err)
			}
			writeJSON(w, code, map[string]string{"error": err.Error()})
		}
	}
}

// wrapForm is wrap for browser routes: plain text errors.
func (r *Router) wrapForm(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			code := statusFor(err)
			if code >= http.StatusInternalServerError {
				r.log.Errorw("request failed", "path", req.URL.Path, "err", err)
			}
			http.Error(w, err.Error(), code)
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fraud.ErrAgentNotFound),
		errors.Is(err, fraud.ErrAnalysisNotFound),
		errors.Is(err, fraud.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, fraud.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, fraud.ErrArchiveDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type message struct {
	Success bool   `json:"success"`
	AgentID string `json:"agent_id,omitempty"`
	Message string `json:"message"`
}

func queryInt(req *http.Request, key string) int {
	n, _ := strconv.Atoi(req.URL.Query().Get(key))
	return n
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

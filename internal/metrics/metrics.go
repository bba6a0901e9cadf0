package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudwatch_http_requests_total",
		Help: "Total HTTP requests, labelled by method and status class.",
	}, []string{"method", "status"})

	HTTPInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fraudwatch_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})

	HTTPDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraudwatch_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	AgentsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fraudwatch_agents_running",
		Help: "Agents currently in the running state.",
	})

	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraudwatch_events_processed_total",
		Help: "Total number of events processed by agents.",
	})

	EventFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudwatch_event_failures_total",
		Help: "Collaborator failures while processing an event, labelled by stage.",
	}, []string{"stage"})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudwatch_alerts_raised_total",
		Help: "Total alerts raised, labelled by severity.",
	}, []string{"severity"})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudwatch_actions_executed_total",
		Help: "Recommended actions executed, labelled by action and status.",
	}, []string{"action", "status"})

	AnalyzerFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudwatch_analyzer_fallbacks_total",
		Help: "Analyses that used the rule-based fallback, labelled by reason.",
	}, []string{"reason"})

	RiskScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraudwatch_risk_scores",
		Help:    "Distribution of analysis risk scores.",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	EventProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraudwatch_event_processing_duration_ms",
		Help:    "End-to-end event processing latency in milliseconds.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
)

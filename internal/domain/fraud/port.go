package fraud

import (
	"context"
	"time"
)

// EventSource port (produces the next batch of events for an agent)
type EventSource interface {
	Next(ctx context.Context, agent Agent) ([]Event, error)
}

// SimilarityStore port (embedding index over past events)
type SimilarityStore interface {
	Add(ctx context.Context, ev Event) error
	Search(ctx context.Context, query string, limit int) ([]SimilarEvent, error)
}

// ActionExecutor port (runs one recommended action for an alert)
type ActionExecutor interface {
	Execute(ctx context.Context, action string, alert Alert, ev Event) error
}

// Archive port (optional durable copy of analyses and alerts)
type Archive interface {
	SaveAnalysis(ctx context.Context, a *Analysis) error
	SaveAlert(ctx context.Context, a *Alert) error
	UpdateAlertStatus(ctx context.Context, id string, status AlertStatus, at time.Time) error
	PaginateAnalyses(ctx context.Context, page, pageSize int) ([]*Analysis, error)
	Ping(ctx context.Context) error
}

// ReportStore port (object storage for alert reports)
type ReportStore interface {
	PutAlertReport(ctx context.Context, a Alert) (string, error)
}

// Notifier port (publishes raised alerts and escalation requests downstream)
type Notifier interface {
	PublishAlert(ctx context.Context, a Alert) error
	PublishAction(ctx context.Context, action string, a Alert) error
}

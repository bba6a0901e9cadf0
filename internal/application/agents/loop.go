package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
	"github.com/bryanwahyu/fraudwatch/internal/metrics"
)

// run is the per-agent loop: fetch a batch, process it event by event, sleep,
// repeat. Cancellation is checked before every event and before every sleep.
// A failing event source (or a panic outside event processing) ends the loop
// and leaves the agent in error; nothing restarts it.
func (m *Manager) run(ctx context.Context, id string, h *runHandle) {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			m.markError(id, h, fmt.Errorf("agent loop panic: %v", r))
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		agent, ok := m.snapshot(id)
		if !ok {
			return
		}

		events, err := m.deps.Source.Next(ctx, agent)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.markError(id, h, fmt.Errorf("fetch events: %w", err))
			return
		}

		for _, ev := range events {
			if ctx.Err() != nil {
				return
			}
			alerted, completed := m.processEvent(ctx, id, ev)
			if !completed {
				return
			}
			m.recordEvent(id, alerted)
			metrics.EventsProcessed.Inc()
		}

		timer := time.NewTimer(m.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// processEvent indexes the event, finds its neighbours, scores it, records the
// analysis and raises an alert when warranted. Collaborator failures are
// logged and absorbed here. completed is false only when ctx was cancelled
// mid-event, in which case nothing is recorded.
func (m *Manager) processEvent(ctx context.Context, agentID string, ev fraud.Event) (alerted, completed bool) {
	start := time.Now()
	log := m.log.With("agent_id", agentID, "event_id", ev.ID)
	defer func() {
		if r := recover(); r != nil {
			metrics.EventFailures.WithLabelValues("panic").Inc()
			log.Errorw("event processing panicked", "panic", r)
			alerted, completed = false, ctx.Err() == nil
		}
		metrics.EventProcessingDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	if err := m.deps.Store.Add(ctx, ev); err != nil {
		metrics.EventFailures.WithLabelValues("index").Inc()
		log.Warnw("similarity store add failed", "err", err)
	}

	similar, err := m.deps.Store.Search(ctx, ev.QueryText(), m.opts.SimilarLimit)
	if err != nil {
		metrics.EventFailures.WithLabelValues("search").Inc()
		log.Warnw("similarity search failed", "err", err)
		similar = nil
	}
	if ctx.Err() != nil {
		return false, false
	}

	res := m.deps.Analyzer.Analyze(ctx, ev, similar)
	if ctx.Err() != nil {
		return false, false
	}

	analysis := fraud.Analysis{
		ID:                 uuid.NewString(),
		AgentID:            agentID,
		EventID:            ev.ID,
		Timestamp:          m.deps.Clock.Now(),
		RiskScore:          res.RiskScore,
		FraudIndicators:    res.FraudIndicators,
		Reasoning:          res.Reasoning,
		RecommendedActions: res.Actions,
		Confidence:         res.Confidence,
		Fallback:           res.Fallback,
	}
	m.analyses.append(analysis)
	metrics.RiskScores.Observe(analysis.RiskScore)

	if m.deps.Archive != nil {
		if err := m.deps.Archive.SaveAnalysis(ctx, &analysis); err != nil {
			metrics.EventFailures.WithLabelValues("archive").Inc()
			log.Warnw("archive analysis failed", "analysis_id", analysis.ID, "err", err)
		}
	}

	th := m.Thresholds()
	if analysis.RiskScore < th.Alert {
		return false, true
	}
	m.raiseAlert(ctx, analysis, ev, analysis.RiskScore > th.Action)
	return true, true
}

// raiseAlert builds and stores the alert. For high-risk alerts every
// recommended action runs independently; one failing does not stop the rest.
func (m *Manager) raiseAlert(ctx context.Context, analysis fraud.Analysis, ev fraud.Event, execute bool) {
	alert := fraud.NewAlert(uuid.NewString(), analysis, ev)
	log := m.log.With("agent_id", analysis.AgentID, "event_id", ev.ID, "alert_id", alert.ID)

	if execute {
		log.Warnw("high risk alert", "risk_score", alert.RiskScore, "severity", alert.Severity)
		for _, action := range alert.RecommendedActions {
			m.executeAction(ctx, action, alert, ev)
		}
		alert.ActionsExecuted = true
	} else {
		log.Infow("alert raised", "risk_score", alert.RiskScore, "severity", alert.Severity)
	}

	if m.deps.Reports != nil {
		url, err := m.deps.Reports.PutAlertReport(ctx, alert)
		if err != nil {
			metrics.EventFailures.WithLabelValues("report").Inc()
			log.Warnw("alert report upload failed", "err", err)
		} else {
			alert.ReportURL = url
		}
	}

	m.alerts.append(alert)
	metrics.AlertsRaised.WithLabelValues(string(alert.Severity)).Inc()

	if m.deps.Archive != nil {
		if err := m.deps.Archive.SaveAlert(ctx, &alert); err != nil {
			metrics.EventFailures.WithLabelValues("archive").Inc()
			log.Warnw("archive alert failed", "err", err)
		}
	}
	if m.deps.Notifier != nil {
		if err := m.deps.Notifier.PublishAlert(ctx, alert); err != nil {
			metrics.EventFailures.WithLabelValues("notify").Inc()
			log.Warnw("alert publish failed", "err", err)
		}
	}
}

func (m *Manager) executeAction(ctx context.Context, action string, alert fraud.Alert, ev fraud.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorw("action panicked", "action", action, "alert_id", alert.ID, "panic", r)
		}
	}()
	if m.deps.Actions == nil {
		return
	}
	if err := m.deps.Actions.Execute(ctx, action, alert, ev); err != nil {
		m.log.Warnw("action failed", "action", action, "alert_id", alert.ID, "err", err)
	}
}

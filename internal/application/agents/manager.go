package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/fraudwatch/internal/application"
	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
	"github.com/bryanwahyu/fraudwatch/internal/domain/risk"
	"github.com/bryanwahyu/fraudwatch/internal/metrics"
)

// Options tunes the agent loop and the in-memory history.
type Options struct {
	Interval     time.Duration
	SimilarLimit int
	HistoryLimit int
	AlertLimit   int
	Thresholds   Thresholds
}

// Thresholds decide when an analysis becomes an alert and when the alert's
// recommended actions are executed automatically.
type Thresholds struct {
	Alert  float64 // alert when score >= Alert
	Action float64 // execute actions when score > Action
}

func DefaultOptions() Options {
	return Options{
		Interval:     10 * time.Second,
		SimilarLimit: 5,
		HistoryLimit: 100,
		AlertLimit:   50,
		Thresholds:   Thresholds{Alert: 0.5, Action: 0.7},
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.Interval <= 0 {
		o.Interval = def.Interval
	}
	if o.SimilarLimit <= 0 {
		o.SimilarLimit = def.SimilarLimit
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = def.HistoryLimit
	}
	if o.AlertLimit <= 0 {
		o.AlertLimit = def.AlertLimit
	}
	if o.Thresholds.Alert <= 0 {
		o.Thresholds.Alert = def.Thresholds.Alert
	}
	if o.Thresholds.Action <= 0 {
		o.Thresholds.Action = def.Thresholds.Action
	}
	return o
}

// Deps are the collaborators of the manager. Archive, Reports and Notifier
// are optional.
type Deps struct {
	Source   fraud.EventSource
	Store    fraud.SimilarityStore
	Analyzer risk.Analyzer
	Actions  fraud.ActionExecutor
	Archive  fraud.Archive
	Reports  fraud.ReportStore
	Notifier fraud.Notifier
	Clock    application.Clock
}

// runHandle identifies one launch of an agent loop.
type runHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type entry struct {
	agent fraud.Agent
	run   *runHandle
}

// Manager owns the agent registry, the per-agent loops, and the bounded
// analysis and alert history. It is safe for concurrent use.
type Manager struct {
	deps Deps
	opts Options
	log  *zap.SugaredLogger

	thresholds atomic.Pointer[Thresholds]

	mu     sync.RWMutex
	agents map[string]*entry

	analyses *analysisLog
	alerts   *alertLog

	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewManager(deps Deps, opts Options, log *zap.SugaredLogger) *Manager {
	if deps.Clock == nil {
		deps.Clock = application.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	opts = opts.normalized()
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		deps:     deps,
		opts:     opts,
		log:      log,
		agents:   make(map[string]*entry),
		analyses: newAnalysisLog(opts.HistoryLimit),
		alerts:   newAlertLog(opts.AlertLimit),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	m.SetThresholds(opts.Thresholds)
	return m
}

// SetThresholds swaps alert/action thresholds; used by config hot reload.
func (m *Manager) SetThresholds(t Thresholds) {
	def := DefaultOptions().Thresholds
	if t.Alert <= 0 {
		t.Alert = def.Alert
	}
	if t.Action <= 0 {
		t.Action = def.Action
	}
	m.thresholds.Store(&t)
}

func (m *Manager) Thresholds() Thresholds {
	return *m.thresholds.Load()
}

// Create registers a stopped agent and returns a copy of it.
func (m *Manager) Create(name string, accountIDs []string) (fraud.Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fraud.Agent{}, fmt.Errorf("%w: name is required", fraud.ErrValidation)
	}
	accounts := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		if id = strings.TrimSpace(id); id != "" {
			accounts = append(accounts, id)
		}
	}

	a := fraud.Agent{
		ID:         uuid.NewString(),
		Name:       name,
		Status:     fraud.AgentStopped,
		AccountIDs: accounts,
		CreatedAt:  m.deps.Clock.Now(),
	}

	m.mu.Lock()
	m.agents[a.ID] = &entry{agent: a}
	m.mu.Unlock()

	m.log.Infow("agent created", "agent_id", a.ID, "name", a.Name, "accounts", len(accounts))
	return a.Clone(), nil
}

// Start launches the agent loop. Starting a running agent is a no-op.
func (m *Manager) Start(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.agents[id]
	if !ok {
		return fraud.ErrAgentNotFound
	}
	if e.agent.Status == fraud.AgentRunning {
		return nil
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	h := &runHandle{cancel: cancel, done: make(chan struct{})}
	e.run = h
	e.agent.Status = fraud.AgentRunning
	e.agent.LastError = ""
	m.updateRunningGaugeLocked()

	go m.run(ctx, id, h)
	m.log.Infow("agent started", "agent_id", id)
	return nil
}

// Stop cancels the agent loop and waits for it to exit. The agent ends up
// stopped whatever state it was in.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	e, ok := m.agents[id]
	if !ok {
		m.mu.Unlock()
		return fraud.ErrAgentNotFound
	}
	e.agent.Status = fraud.AgentStopped
	h := e.run
	e.run = nil
	m.updateRunningGaugeLocked()
	m.mu.Unlock()

	if h != nil {
		h.cancel()
		<-h.done
		m.log.Infow("agent stopped", "agent_id", id)
	}
	return nil
}

// Delete stops the agent, waits for its loop to exit, then removes it.
func (m *Manager) Delete(id string) error {
	if err := m.Stop(id); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.agents, id)
	m.mu.Unlock()
	m.log.Infow("agent deleted", "agent_id", id)
	return nil
}

// Shutdown stops every agent.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.agents))
	for id := range m.agents {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.Stop(id)
	}
	m.cancel()
}

func (m *Manager) Get(id string) (fraud.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.agents[id]
	if !ok {
		return fraud.Agent{}, fraud.ErrAgentNotFound
	}
	return e.agent.Clone(), nil
}

// List returns all agents ordered by creation time.
func (m *Manager) List() []fraud.Agent {
	m.mu.RLock()
	out := make([]fraud.Agent, 0, len(m.agents))
	for _, e := range m.agents {
		out = append(out, e.agent.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// RecentAnalyses returns up to limit analyses, newest first.
func (m *Manager) RecentAnalyses(limit int) []fraud.Analysis {
	return m.analyses.recent(limit)
}

func (m *Manager) Analysis(id string) (fraud.Analysis, error) {
	a, ok := m.analyses.get(id)
	if !ok {
		return fraud.Analysis{}, fraud.ErrAnalysisNotFound
	}
	return a, nil
}

// ArchivedAnalyses pages through the durable archive.
func (m *Manager) ArchivedAnalyses(ctx context.Context, page, pageSize int) (fraud.PaginatedAnalyses, error) {
	if m.deps.Archive == nil {
		return fraud.PaginatedAnalyses{}, fraud.ErrArchiveDisabled
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	list, err := m.deps.Archive.PaginateAnalyses(ctx, page, pageSize)
	if err != nil {
		return fraud.PaginatedAnalyses{}, fmt.Errorf("archive paginate: %w", err)
	}
	if list == nil {
		list = []*fraud.Analysis{}
	}
	return fraud.PaginatedAnalyses{Data: list, Page: page, PageSize: pageSize}, nil
}

// Alerts returns up to limit alerts, newest first.
func (m *Manager) Alerts(limit int) []fraud.Alert {
	return m.alerts.recent(limit)
}

func (m *Manager) Alert(id string) (fraud.Alert, error) {
	a, ok := m.alerts.get(id)
	if !ok {
		return fraud.Alert{}, fraud.ErrAlertNotFound
	}
	return a, nil
}

// Acknowledge moves an alert from new to acknowledged. Repeating it is a no-op.
func (m *Manager) Acknowledge(ctx context.Context, id string) (fraud.Alert, error) {
	a, changed, ok := m.alerts.acknowledge(id, m.deps.Clock.Now())
	if !ok {
		return fraud.Alert{}, fraud.ErrAlertNotFound
	}
	if changed && m.deps.Archive != nil {
		if err := m.deps.Archive.UpdateAlertStatus(ctx, a.ID, a.Status, *a.AcknowledgedAt); err != nil {
			m.log.Warnw("archive alert status update failed", "alert_id", a.ID, "err", err)
		}
	}
	return a, nil
}

// Status aggregates counters for the dashboard and /api/status.
type Status struct {
	Status          string `json:"status"`
	Agents          int    `json:"agents"`
	RunningAgents   int    `json:"running_agents"`
	TotalEvents     int    `json:"total_events"`
	AlertsGenerated int    `json:"high_risk_alerts"`
	ActiveAlerts    int    `json:"active_alerts"`
	CriticalAlerts  int    `json:"critical_alerts"`
}

func (m *Manager) Status() Status {
	st := Status{Status: "running"}
	m.mu.RLock()
	st.Agents = len(m.agents)
	for _, e := range m.agents {
		if e.agent.Status == fraud.AgentRunning {
			st.RunningAgents++
		}
		st.TotalEvents += e.agent.EventsProcessed
		st.AlertsGenerated += e.agent.AlertsGenerated
	}
	m.mu.RUnlock()
	st.ActiveAlerts, st.CriticalAlerts = m.alerts.counts()
	return st
}

// recordEvent bumps counters after an event finished processing.
func (m *Manager) recordEvent(id string, alerted bool) {
	now := m.deps.Clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.agents[id]
	if !ok {
		return
	}
	e.agent.EventsProcessed++
	if alerted {
		e.agent.AlertsGenerated++
	}
	e.agent.LastActivity = &now
}

// markError moves the agent to error, unless it was stopped or restarted
// since h was launched.
func (m *Manager) markError(id string, h *runHandle, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.agents[id]
	if !ok || e.run != h {
		return
	}
	e.agent.Status = fraud.AgentError
	e.agent.LastError = err.Error()
	e.run = nil
	m.updateRunningGaugeLocked()
	m.log.Errorw("agent loop failed", "agent_id", id, "err", err)
}

func (m *Manager) updateRunningGaugeLocked() {
	n := 0
	for _, e := range m.agents {
		if e.agent.Status == fraud.AgentRunning {
			n++
		}
	}
	metrics.AgentsRunning.Set(float64(n))
}

// snapshot copies the agent for the loop; ok is false once it is gone.
func (m *Manager) snapshot(id string) (fraud.Agent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.agents[id]
	if !ok {
		return fraud.Agent{}, false
	}
	return e.agent.Clone(), true
}

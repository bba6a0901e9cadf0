package actions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
	"github.com/bryanwahyu/fraudwatch/internal/metrics"
)

// Handler performs one recommended action.
type Handler func(ctx context.Context, alert fraud.Alert, ev fraud.Event) error

// Registry maps normalised action names to handlers. Register is meant for
// startup; Execute is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	log      *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{handlers: make(map[string]Handler), log: log}
}

// Register adds a handler. Panics on duplicate names to surface misconfiguration early.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := Normalize(name)
	if _, exists := r.handlers[key]; exists {
		panic(fmt.Sprintf("action registry: duplicate action %q", key))
	}
	r.handlers[key] = h
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Execute implements fraud.ActionExecutor.
func (r *Registry) Execute(ctx context.Context, action string, alert fraud.Alert, ev fraud.Event) (err error) {
	key := Normalize(action)
	r.mu.RLock()
	h, ok := r.handlers[key]
	r.mu.RUnlock()
	if !ok {
		metrics.ActionsExecuted.WithLabelValues("unknown", "unsupported").Inc()
		return fmt.Errorf("no handler registered for action %q", action)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("action %s panicked: %v", key, rec)
		}
		status := "success"
		if err != nil {
			status = "failed"
		}
		metrics.ActionsExecuted.WithLabelValues(key, status).Inc()
	}()
	return h(ctx, alert, ev)
}

// Normalize lowercases an action and joins words with underscores, so
// "Manual Review" and "manual-review" resolve to manual_review.
func Normalize(action string) string {
	s := strings.ToLower(strings.TrimSpace(action))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

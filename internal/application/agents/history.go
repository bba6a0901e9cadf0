package agents

import (
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// analysisLog keeps the most recent analyses, oldest first, capped at limit.
type analysisLog struct {
	mu    sync.RWMutex
	limit int
	items []fraud.Analysis
}

func newAnalysisLog(limit int) *analysisLog {
	return &analysisLog{limit: limit, items: make([]fraud.Analysis, 0, limit)}
}

func (l *analysisLog) append(a fraud.Analysis) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, a)
	if len(l.items) > l.limit {
		l.items = append(make([]fraud.Analysis, 0, l.limit), l.items[len(l.items)-l.limit:]...)
	}
}

func (l *analysisLog) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// recent returns up to limit analyses, newest first.
func (l *analysisLog) recent(limit int) []fraud.Analysis {
	l.mu.RLock()
	out := make([]fraud.Analysis, len(l.items))
	copy(out, l.items)
	l.mu.RUnlock()

	// append order is per-agent chronological; agents interleave, so sort
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (l *analysisLog) get(id string) (fraud.Analysis, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.items) - 1; i >= 0; i-- {
		if l.items[i].ID == id {
			return l.items[i], true
		}
	}
	return fraud.Analysis{}, false
}

// alertLog keeps the most recent alerts, capped at limit. Status flips happen
// under the same lock as appends and trims.
type alertLog struct {
	mu    sync.RWMutex
	limit int
	items []*fraud.Alert
}

func newAlertLog(limit int) *alertLog {
	return &alertLog{limit: limit, items: make([]*fraud.Alert, 0, limit)}
}

func (l *alertLog) append(a fraud.Alert) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, &a)
	if len(l.items) > l.limit {
		l.items = append(make([]*fraud.Alert, 0, l.limit), l.items[len(l.items)-l.limit:]...)
	}
}

func (l *alertLog) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *alertLog) recent(limit int) []fraud.Alert {
	l.mu.RLock()
	out := make([]fraud.Alert, 0, len(l.items))
	for _, a := range l.items {
		out = append(out, a.Clone())
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (l *alertLog) get(id string) (fraud.Alert, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.items) - 1; i >= 0; i-- {
		if l.items[i].ID == id {
			return l.items[i].Clone(), true
		}
	}
	return fraud.Alert{}, false
}

// acknowledge flips new→acknowledged. changed is false when the alert was
// already acknowledged.
func (l *alertLog) acknowledge(id string, at time.Time) (alert fraud.Alert, changed, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.items) - 1; i >= 0; i-- {
		a := l.items[i]
		if a.ID != id {
			continue
		}
		if a.Status == fraud.AlertNew {
			a.Status = fraud.AlertAcknowledged
			a.AcknowledgedAt = &at
			changed = true
		}
		return a.Clone(), changed, true
	}
	return fraud.Alert{}, false, false
}

// counts returns how many stored alerts are still new and how many are critical.
func (l *alertLog) counts() (active, critical int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, a := range l.items {
		if a.Status == fraud.AlertNew {
			active++
		}
		if a.Severity == fraud.SeverityCritical {
			critical++
		}
	}
	return active, critical
}

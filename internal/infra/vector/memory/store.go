package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/fraudwatch/internal/domain/ai"
	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

type point struct {
	vector  []float32
	payload fraud.SimilarEvent
}

// Store is an in-process cosine-similarity index for running without Qdrant.
// It keeps at most Capacity points, dropping the oldest.
type Store struct {
	embedder ai.Embedder
	capacity int

	mu     sync.RWMutex
	points []point
}

func New(embedder ai.Embedder, capacity int) *Store {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Store{embedder: embedder, capacity: capacity}
}

func (s *Store) Add(ctx context.Context, ev fraud.Event) error {
	text := ev.IndexText()
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed event %s: %w", ev.ID, err)
	}
	p := point{
		vector: vec,
		payload: fraud.SimilarEvent{
			EventID:   ev.ID,
			EventType: ev.Type,
			AccountID: orUnknown(ev.AccountID),
			IPAddress: orUnknown(ev.IPAddress),
			RiskScore: ev.RiskScore,
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
			Text:      text,
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, p)
	if len(s.points) > s.capacity {
		s.points = append([]point(nil), s.points[len(s.points)-s.capacity:]...)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query string, limit int) ([]fraud.SimilarEvent, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	hits := make([]fraud.SimilarEvent, 0, len(s.points))
	for _, p := range s.points {
		h := p.payload
		h.Score = cosine(vec, p.vector)
		hits = append(hits, h)
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

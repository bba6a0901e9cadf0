package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bryanwahyu/fraudwatch/internal/domain/ai"
	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// Store is the Qdrant-backed similarity index.
type Store struct {
	client     *qdrant.Client
	embedder   ai.Embedder
	collection string
}

// New buat koneksi Qdrant dan pastikan collection ada
func New(ctx context.Context, host string, port int, apiKey string, useTLS bool, collection string, dim uint64, embedder ai.Embedder) (*Store, error) {
	cli, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	exists, err := cli.CollectionExists(ctx, collection)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("qdrant collection check: %w", err)
	}
	if !exists {
		err = cli.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			cli.Close()
			return nil, fmt.Errorf("qdrant create collection %s: %w", collection, err)
		}
	}

	return &Store{client: cli, embedder: embedder, collection: collection}, nil
}

func (s *Store) Add(ctx context.Context, ev fraud.Event) error {
	text := ev.IndexText()
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed event %s: %w", ev.ID, err)
	}

	wait := true
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(uuid.NewString()),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(payloadFor(ev, text)),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert %s: %w", ev.ID, err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query string, limit int) ([]fraud.SimilarEvent, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if limit <= 0 {
		limit = 10
	}
	n := uint64(limit)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &n,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	out := make([]fraud.SimilarEvent, 0, len(hits))
	for _, h := range hits {
		out = append(out, fromPayload(h.GetPayload(), h.GetScore()))
	}
	return out, nil
}

// Ping implements the health checker.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HealthCheck(ctx)
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}

func payloadFor(ev fraud.Event, text string) map[string]any {
	return map[string]any{
		"event_id":   ev.ID,
		"event_type": string(ev.Type),
		"account_id": orUnknown(ev.AccountID),
		"ip_address": orUnknown(ev.IPAddress),
		"risk_score": ev.RiskScore,
		"timestamp":  ev.Timestamp.UTC().Format(time.RFC3339),
		"text":       text,
	}
}

func fromPayload(p map[string]*qdrant.Value, score float32) fraud.SimilarEvent {
	str := func(k string) string {
		if v, ok := p[k]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	var risk float64
	if v, ok := p["risk_score"]; ok {
		switch v.GetKind().(type) {
		case *qdrant.Value_DoubleValue:
			risk = v.GetDoubleValue()
		case *qdrant.Value_IntegerValue:
			risk = float64(v.GetIntegerValue())
		}
	}
	return fraud.SimilarEvent{
		EventID:   str("event_id"),
		EventType: fraud.EventType(str("event_type")),
		AccountID: str("account_id"),
		IPAddress: str("ip_address"),
		RiskScore: risk,
		Timestamp: str("timestamp"),
		Text:      str("text"),
		Score:     score,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

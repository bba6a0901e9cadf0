package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	domai "github.com/bryanwahyu/fraudwatch/internal/domain/ai"
	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
	"github.com/bryanwahyu/fraudwatch/internal/domain/risk"
)

type fakeClient struct {
	out    string
	err    error
	system string
	user   string
}

func (f *fakeClient) CompleteJSON(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.out, f.err
}

type fakeLocator struct{}

func (fakeLocator) Locate(ip string) string { return "Testville, TV" }

func sampleEvent() fraud.Event {
	amount := 6000.0
	return fraud.Event{
		ID:           "EVT12345",
		Timestamp:    time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC),
		Type:         fraud.EventTransaction,
		AccountID:    "ACC001",
		IPAddress:    "192.168.1.7",
		Data:         fraud.EventData{Amount: &amount},
		AnomalyFlags: []string{"ip_mismatch"},
	}
}

func TestAnalyzeUsesModelResult(t *testing.T) {
	c := &fakeClient{out: `{"risk_score": 0.91, "fraud_indicators": ["device_change"], "reasoning": "new device", "actions": ["lock_account"], "confidence": 0.8}`}
	svc := NewService(c, risk.FallbackRules{}, nil)
	svc.Locator = fakeLocator{}

	res := svc.Analyze(context.Background(), sampleEvent(), []fraud.SimilarEvent{{EventID: "EVT1", EventType: fraud.EventSignIn}})

	if res.Fallback {
		t.Fatal("did not expect fallback")
	}
	if res.RiskScore != 0.91 || res.Actions[0] != "lock_account" {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(c.user, "Similar Events: 1 found") {
		t.Errorf("prompt missing neighbours: %s", c.user)
	}
	if !strings.Contains(c.user, "IP Location: Testville, TV") {
		t.Errorf("prompt missing location: %s", c.user)
	}
	if !strings.Contains(c.system, "risk_score") {
		t.Error("system prompt missing schema")
	}
}

func TestAnalyzeFallsBackOnCallError(t *testing.T) {
	c := &fakeClient{err: errors.New("connection refused")}
	svc := NewService(c, risk.FallbackRules{}, nil)

	res := svc.Analyze(context.Background(), sampleEvent(), nil)

	if !res.Fallback {
		t.Fatal("expected fallback")
	}
	if res.RiskScore != 0.85 {
		t.Errorf("risk = %v, want 0.85", res.RiskScore)
	}
	if !strings.HasPrefix(res.Reasoning, "Fallback analysis:") {
		t.Errorf("reasoning = %q", res.Reasoning)
	}
}

func TestAnalyzeFallsBackOnQuota(t *testing.T) {
	c := &fakeClient{err: fmt.Errorf("wrapped: %w", domai.ErrQuotaExceeded)}
	res := NewService(c, risk.FallbackRules{}, nil).Analyze(context.Background(), sampleEvent(), nil)
	if !res.Fallback || !strings.Contains(res.Reasoning, "quota exceeded") {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAnalyzeFallsBackOnGarbage(t *testing.T) {
	c := &fakeClient{out: "I think this looks fine."}
	res := NewService(c, risk.FallbackRules{}, nil).Analyze(context.Background(), sampleEvent(), nil)

	if !res.Fallback {
		t.Fatal("expected fallback")
	}
	found := false
	for _, ind := range res.FraudIndicators {
		if ind == IndicatorIncomplete {
			found = true
		}
	}
	if !found {
		t.Errorf("indicators %v missing %s", res.FraudIndicators, IndicatorIncomplete)
	}
}

func TestAnalyzeWithoutClient(t *testing.T) {
	res := NewService(nil, risk.FallbackRules{}, nil).Analyze(context.Background(), sampleEvent(), nil)
	if !res.Fallback || !strings.Contains(res.Reasoning, "not configured") {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSetRulesAppliesDefaults(t *testing.T) {
	c := &fakeClient{out: `{"risk_score": "high"}`}
	svc := NewService(c, risk.FallbackRules{}, nil)
	svc.SetRules(risk.FallbackRules{Defaults: risk.Defaults{InvalidRisk: 0.6, DefaultActions: []string{"escalate"}}})

	res := svc.Analyze(context.Background(), sampleEvent(), nil)
	if res.RiskScore != 0.6 {
		t.Errorf("risk = %v, want configured 0.6", res.RiskScore)
	}
	if len(res.Actions) != 1 || res.Actions[0] != "escalate" {
		t.Errorf("actions = %v", res.Actions)
	}
}

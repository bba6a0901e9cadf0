package risk

import (
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

func TestValidateInvalidTypes(t *testing.T) {
	res := Validate(map[string]any{
		"risk_score":       "not-a-number",
		"confidence":       []any{1},
		"fraud_indicators": "ip_mismatch",
		"actions":          42,
	}, Defaults{})

	if res.RiskScore != 0.5 {
		t.Errorf("risk = %v, want 0.5", res.RiskScore)
	}
	if res.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", res.Confidence)
	}
	if res.FraudIndicators == nil || len(res.FraudIndicators) != 0 {
		t.Errorf("indicators = %#v, want empty list", res.FraudIndicators)
	}
	if len(res.Actions) != 1 || res.Actions[0] != ActionManualReview {
		t.Errorf("actions = %#v", res.Actions)
	}
	if strings.TrimSpace(res.Reasoning) == "" {
		t.Error("reasoning must never be empty")
	}
}

func TestValidateClamps(t *testing.T) {
	res := Validate(map[string]any{
		"risk_score":       1.7,
		"confidence":       -3.0,
		"fraud_indicators": []any{"a", 3, "", "b"},
		"actions":          []any{"lock_account"},
		"reasoning":        "  because  ",
	}, Defaults{})

	if res.RiskScore != 1 {
		t.Errorf("risk = %v", res.RiskScore)
	}
	if res.Confidence != 0 {
		t.Errorf("confidence = %v", res.Confidence)
	}
	if strings.Join(res.FraudIndicators, ",") != "a,b" {
		t.Errorf("indicators = %v", res.FraudIndicators)
	}
	if strings.Join(res.Actions, ",") != "lock_account" {
		t.Errorf("actions = %v", res.Actions)
	}
	if res.Reasoning != "because" {
		t.Errorf("reasoning = %q", res.Reasoning)
	}
}

func TestParse(t *testing.T) {
	res, err := Parse("```json\n{\"risk_score\": 0.82, \"fraud_indicators\": [\"x\"], \"reasoning\": \"r\", \"actions\": [\"manual_review\"], \"confidence\": 0.9}\n```", Defaults{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.RiskScore != 0.82 || res.Confidence != 0.9 || res.Fallback {
		t.Errorf("unexpected result %+v", res)
	}

	for _, bad := range []string{"", "not json", "[1,2]", "null"} {
		if _, err := Parse(bad, Defaults{}); err == nil {
			t.Errorf("Parse(%q) expected error", bad)
		}
	}
}

func TestFallbackAdditiveScore(t *testing.T) {
	amount := 6000.0
	ev := fraud.Event{
		ID:           "EVT1",
		Timestamp:    time.Date(2024, 5, 1, 3, 12, 0, 0, time.UTC),
		Type:         fraud.EventTransaction,
		IPAddress:    "192.168.1.50",
		Data:         fraud.EventData{Amount: &amount},
		AnomalyFlags: []string{"ip_mismatch"},
	}

	res := FallbackRules{}.Evaluate(ev, "timeout")

	if res.RiskScore != 0.85 {
		t.Fatalf("risk = %v, want 0.85", res.RiskScore)
	}
	for _, want := range []string{"ip_mismatch", IndicatorUnusualTime, IndicatorLargeAmount} {
		if !contains(res.FraudIndicators, want) {
			t.Errorf("indicators %v missing %s", res.FraudIndicators, want)
		}
	}
	if !res.Fallback {
		t.Error("fallback result must be marked")
	}
	if !strings.HasPrefix(res.Reasoning, "Fallback analysis:") {
		t.Errorf("reasoning not labelled: %q", res.Reasoning)
	}
	if !contains(res.Actions, ActionManualReview) {
		t.Errorf("actions = %v", res.Actions)
	}
}

func TestFallbackCapsAndBaseline(t *testing.T) {
	amount := 9000.0
	loud := fraud.Event{
		Timestamp:    time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC),
		Data:         fraud.EventData{Amount: &amount},
		AnomalyFlags: []string{"a", "b", "c"},
	}
	if got := (FallbackRules{}).Evaluate(loud, "").RiskScore; got != 1.0 {
		t.Errorf("capped risk = %v", got)
	}

	quiet := fraud.Event{
		Timestamp: time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC),
		IPAddress: "8.8.8.8",
	}
	res := FallbackRules{}.Evaluate(quiet, "")
	if res.RiskScore != 0.1 {
		t.Errorf("baseline risk = %v", res.RiskScore)
	}
	if len(res.FraudIndicators) != 0 {
		t.Errorf("indicators = %v", res.FraudIndicators)
	}

	withPrefix := FallbackRules{SuspiciousPrefixes: []string{"8.8."}}.Evaluate(quiet, "")
	if withPrefix.RiskScore != WeightSuspiciousIP {
		t.Errorf("prefix risk = %v", withPrefix.RiskScore)
	}
}

func TestFallbackDeterministic(t *testing.T) {
	ev := fraud.Event{Timestamp: time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC), AnomalyFlags: []string{"unusual_time"}}
	a := FallbackRules{}.Evaluate(ev, "x")
	b := FallbackRules{}.Evaluate(ev, "x")
	if a.RiskScore != b.RiskScore || a.Reasoning != b.Reasoning || strings.Join(a.FraudIndicators, ",") != strings.Join(b.FraudIndicators, ",") {
		t.Errorf("non-deterministic fallback: %+v vs %+v", a, b)
	}
	if len(a.FraudIndicators) != 2 {
		t.Errorf("indicators should not repeat: %v", a.FraudIndicators)
	}
}

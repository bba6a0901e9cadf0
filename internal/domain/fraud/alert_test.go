package fraud

import (
	"testing"
	"time"
)

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		score float64
		want  Severity
	}{
		{0, SeverityLow},
		{0.49, SeverityLow},
		{0.5, SeverityMedium},
		{0.69, SeverityMedium},
		{0.7, SeverityHigh},
		{0.89, SeverityHigh},
		{0.9, SeverityCritical},
		{1, SeverityCritical},
	}
	for _, c := range cases {
		if got := SeverityFor(c.score); got != c.want {
			t.Errorf("SeverityFor(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestSeverityBandsExhaustive(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		s := float64(i) / 1000
		got := SeverityFor(s)
		var want Severity
		switch {
		case s >= 0.9:
			want = SeverityCritical
		case s >= 0.7:
			want = SeverityHigh
		case s >= 0.5:
			want = SeverityMedium
		default:
			want = SeverityLow
		}
		if got != want {
			t.Fatalf("SeverityFor(%v) = %s, want %s", s, got, want)
		}
	}
}

func TestRiskFactors(t *testing.T) {
	got := RiskFactors([]string{"unusual_time", "ip_mismatch", "Large_Transaction_Amount", "new_device"})
	want := []string{"temporal", "location", "transaction", "device"}
	if len(got) != len(want) {
		t.Fatalf("got %d factors, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Category != w {
			t.Errorf("factor %d = %s, want %s", i, got[i].Category, w)
		}
		if got[i].Description == "" {
			t.Errorf("factor %s has no description", w)
		}
	}

	if f := RiskFactors(nil); len(f) != 0 {
		t.Errorf("expected no factors for empty indicators, got %+v", f)
	}
}

func TestNewAlert(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	an := Analysis{
		ID:                 "an-1",
		AgentID:            "ag-1",
		EventID:            "EVT1",
		Timestamp:          ts,
		RiskScore:          0.93,
		FraudIndicators:    []string{"behavior_anomaly"},
		Reasoning:          "odd",
		RecommendedActions: []string{"manual_review"},
	}
	ev := Event{ID: "EVT1", Type: EventTransaction, AccountID: "ACC1", IPAddress: "10.0.0.1"}

	a := NewAlert("al-1", an, ev)
	if a.Severity != SeverityCritical {
		t.Errorf("severity = %s", a.Severity)
	}
	if a.Status != AlertNew {
		t.Errorf("status = %s", a.Status)
	}
	if a.AnalysisID != "an-1" || a.EventID != "EVT1" || a.AccountID != "ACC1" {
		t.Errorf("unexpected linkage: %+v", a)
	}
	if len(a.RiskFactors) != 1 || a.RiskFactors[0].Category != "behavioral" {
		t.Errorf("risk factors = %+v", a.RiskFactors)
	}
	if a.OverallAssessment != OverallAssessment(0.93) {
		t.Errorf("assessment = %q", a.OverallAssessment)
	}

	// the alert owns its slices
	an.FraudIndicators[0] = "changed"
	if a.FraudIndicators[0] != "behavior_anomaly" {
		t.Error("alert shares indicator slice with analysis")
	}
}

func TestEventTexts(t *testing.T) {
	ev := Event{Type: EventSignIn, AccountID: "ACC001", IPAddress: "192.168.1.4"}
	if got := ev.IndexText(); got != "Event: sign_in Account: ACC001 IP: 192.168.1.4" {
		t.Errorf("IndexText = %q", got)
	}
	if got := ev.QueryText(); got != "Event: sign_in Account: ACC001" {
		t.Errorf("QueryText = %q", got)
	}
	if got := (Event{Type: EventTransaction}).QueryText(); got != "Event: transaction Account: unknown" {
		t.Errorf("QueryText without account = %q", got)
	}
}

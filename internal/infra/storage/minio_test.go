package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

func TestObjectKey(t *testing.T) {
	a := fraud.Alert{ID: "AL1", Timestamp: time.Date(2024, 3, 7, 23, 30, 0, 0, time.UTC)}
	if got, want := ObjectKey(a), "alerts/2024/03/07/AL1.json"; got != want {
		t.Errorf("key = %s, want %s", got, want)
	}
}

func TestObjectKeyUsesUTC(t *testing.T) {
	jkt := time.FixedZone("WIB", 7*3600)
	a := fraud.Alert{ID: "AL2", Timestamp: time.Date(2024, 3, 8, 2, 0, 0, 0, jkt)}
	if got, want := ObjectKey(a), "alerts/2024/03/07/AL2.json"; got != want {
		t.Errorf("key = %s, want %s", got, want)
	}
}

func TestReportBody(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b, err := reportBody(fraud.Alert{ID: "AL1", ReportURL: "stale", RiskScore: 0.8}, at)
	if err != nil {
		t.Fatal(err)
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		t.Fatal(err)
	}
	if r.Alert.ID != "AL1" || r.Alert.ReportURL != "" || !r.GeneratedAt.Equal(at) {
		t.Errorf("report = %+v", r)
	}
}

package fraud

import (
	"strings"
	"time"
)

// Severity enum
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// AlertStatus enum
type AlertStatus string

const (
	AlertNew          AlertStatus = "new"
	AlertAcknowledged AlertStatus = "acknowledged"
)

// RiskFactor is one human-readable line of an alert breakdown.
type RiskFactor struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Alert is the user-facing view over an Analysis whose score crossed the
// alert threshold. Only Status, AcknowledgedAt and ReportURL change after
// creation.
type Alert struct {
	ID                 string       `json:"alert_id"`
	AnalysisID         string       `json:"analysis_id"`
	AgentID            string       `json:"agent_id"`
	EventID            string       `json:"event_id"`
	EventType          EventType    `json:"event_type"`
	AccountID          string       `json:"account_id,omitempty"`
	IPAddress          string       `json:"ip_address,omitempty"`
	Timestamp          time.Time    `json:"timestamp"`
	RiskScore          float64      `json:"risk_score"`
	Severity           Severity     `json:"severity"`
	Status             AlertStatus  `json:"status"`
	FraudIndicators    []string     `json:"fraud_indicators"`
	Reasoning          string       `json:"reasoning"`
	RecommendedActions []string     `json:"recommended_actions"`
	RiskFactors        []RiskFactor `json:"risk_factors"`
	OverallAssessment  string       `json:"overall_assessment"`
	ActionsExecuted    bool         `json:"actions_executed"`
	ReportURL          string       `json:"report_url,omitempty"`
	AcknowledgedAt     *time.Time   `json:"acknowledged_at,omitempty"`
}

// Clone returns a deep copy safe to hand out of the alert store.
func (a Alert) Clone() Alert {
	out := a
	out.FraudIndicators = append([]string(nil), a.FraudIndicators...)
	out.RecommendedActions = append([]string(nil), a.RecommendedActions...)
	out.RiskFactors = append([]RiskFactor(nil), a.RiskFactors...)
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		out.AcknowledgedAt = &t
	}
	return out
}

// SeverityFor maps a risk score onto a severity band.
func SeverityFor(score float64) Severity {
	switch {
	case score >= 0.9:
		return SeverityCritical
	case score >= 0.7:
		return SeverityHigh
	case score >= 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

var factorRules = []struct {
	category    string
	needles     []string
	description string
}{
	{"temporal", []string{"time", "temporal", "hour", "night"},
		"Activity occurred outside the account's normal hours."},
	{"location", []string{"location", "geo", "ip", "country"},
		"Request origin does not match the account's known locations or networks."},
	{"behavioral", []string{"behavior", "behaviour", "pattern", "velocity"},
		"Behaviour deviates from the account's established usage pattern."},
	{"transaction", []string{"transaction", "amount", "payment", "transfer"},
		"Transaction characteristics are unusual for this account."},
	{"device", []string{"device", "fingerprint", "browser"},
		"Request came from an unrecognised or suspicious device."},
}

// RiskFactors scans indicator strings for known substrings and returns one
// factor per matched category, in a fixed category order.
func RiskFactors(indicators []string) []RiskFactor {
	out := make([]RiskFactor, 0, len(factorRules))
	for _, rule := range factorRules {
		if matchesAny(indicators, rule.needles) {
			out = append(out, RiskFactor{Category: rule.category, Description: rule.description})
		}
	}
	return out
}

func matchesAny(indicators, needles []string) bool {
	for _, ind := range indicators {
		l := strings.ToLower(ind)
		for _, n := range needles {
			if strings.Contains(l, n) {
				return true
			}
		}
	}
	return false
}

// OverallAssessment picks the summary sentence for a score band.
func OverallAssessment(score float64) string {
	switch {
	case score >= 0.9:
		return "Critical risk: strong evidence of fraudulent activity, immediate intervention required."
	case score >= 0.7:
		return "High risk: multiple fraud indicators present, account should be secured and reviewed."
	case score >= 0.5:
		return "Moderate risk: some suspicious signals, manual review recommended."
	default:
		return "Low risk: activity appears consistent with normal behaviour."
	}
}

// NewAlert derives an alert from an analysis and the event it scored.
func NewAlert(id string, a Analysis, ev Event) Alert {
	return Alert{
		ID:                 id,
		AnalysisID:         a.ID,
		AgentID:            a.AgentID,
		EventID:            a.EventID,
		EventType:          ev.Type,
		AccountID:          ev.AccountID,
		IPAddress:          ev.IPAddress,
		Timestamp:          a.Timestamp,
		RiskScore:          a.RiskScore,
		Severity:           SeverityFor(a.RiskScore),
		Status:             AlertNew,
		FraudIndicators:    append([]string(nil), a.FraudIndicators...),
		Reasoning:          a.Reasoning,
		RecommendedActions: append([]string(nil), a.RecommendedActions...),
		RiskFactors:        RiskFactors(a.FraudIndicators),
		OverallAssessment:  OverallAssessment(a.RiskScore),
	}
}

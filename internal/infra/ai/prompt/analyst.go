package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// maxNeighbours caps how many similar events are spelled out in the prompt.
const maxNeighbours = 5

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a fraud detection expert reviewing account activity. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- risk_score and confidence are numbers between 0.0 and 1.0.
- fraud_indicators is an array of short snake_case strings (e.g. "unusual_time", "ip_mismatch", "device_change", "large_transaction_amount").
- actions is an array of snake_case action names chosen from: manual_review, monitor_account, require_step_up_auth, lock_account, block_transaction, notify_security_team.
- reasoning is one or two sentences explaining the score.
- Compare the current event with the similar past events; repeated risky patterns raise the score.

Schema (example with empty values):
{
  "risk_score": 0.0,
  "fraud_indicators": [],
  "reasoning": "<string>",
  "actions": [],
  "confidence": 0.0
}`
}

// GetUserPrompt renders the current event, optional location, and its neighbours.
func GetUserPrompt(ev fraud.Event, similar []fraud.SimilarEvent, location string) string {
	var b strings.Builder
	b.WriteString("Analyze this event for fraud indicators and respond with the JSON per schema.\n\n")
	b.WriteString("Current Event:\n")
	fmt.Fprintf(&b, "- ID: %s\n", ev.ID)
	fmt.Fprintf(&b, "- Type: %s\n", ev.Type)
	fmt.Fprintf(&b, "- Time: %s\n", ev.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Account: %s\n", orDash(ev.AccountID))
	fmt.Fprintf(&b, "- User: %s\n", orDash(ev.UserID))
	fmt.Fprintf(&b, "- IP: %s\n", orDash(ev.IPAddress))
	if location != "" {
		fmt.Fprintf(&b, "- IP Location: %s\n", location)
	}
	fmt.Fprintf(&b, "- Device: %s\n", orDash(ev.DeviceID))
	fmt.Fprintf(&b, "- Source Risk Score: %.2f\n", ev.RiskScore)
	if ev.Data.Amount != nil {
		fmt.Fprintf(&b, "- Amount: %.2f %s\n", *ev.Data.Amount, ev.Data.Currency)
	}
	if len(ev.AnomalyFlags) > 0 {
		fmt.Fprintf(&b, "- Anomaly Flags: %s\n", strings.Join(ev.AnomalyFlags, ", "))
	}

	fmt.Fprintf(&b, "\nSimilar Events: %d found\n", len(similar))
	for i, s := range similar {
		if i == maxNeighbours {
			break
		}
		fmt.Fprintf(&b, "- %s type=%s account=%s ip=%s risk=%.2f similarity=%.3f\n",
			orDash(s.EventID), s.EventType, orDash(s.AccountID), orDash(s.IPAddress), s.RiskScore, s.Score)
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

package risk

import (
	"fmt"
	"math"
	"net"
	"strings"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// Rule weights for the deterministic fallback.
const (
	WeightAnomalyFlag  = 0.2
	WeightUnusualTime  = 0.15
	WeightSuspiciousIP = 0.2
	WeightLargeAmount  = 0.3

	LargeAmountThreshold = 5000.0
)

// Indicator names emitted by the fallback rules.
const (
	IndicatorUnusualTime  = "unusual_time"
	IndicatorSuspiciousIP = "suspicious_ip_range"
	IndicatorLargeAmount  = "large_transaction_amount"
)

// FallbackRules scores an event without the primary analyzer. Every signal
// adds a fixed weight and the sum is capped at 1.0.
type FallbackRules struct {
	Defaults Defaults
	// SuspiciousPrefixes are textual IP prefixes always treated as suspicious.
	SuspiciousPrefixes []string
}

// Evaluate runs the rules. reason describes why the primary analyzer was not
// used and is embedded in the reasoning text.
func (f FallbackRules) Evaluate(ev fraud.Event, reason string) Result {
	d := f.Defaults.Normalized()

	var (
		score      float64
		indicators []string
		notes      []string
	)
	add := func(indicator string, weight float64, note string) {
		score += weight
		if !contains(indicators, indicator) {
			indicators = append(indicators, indicator)
		}
		notes = append(notes, fmt.Sprintf("%s (+%.2f)", note, weight))
	}

	for _, flag := range ev.AnomalyFlags {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		add(flag, WeightAnomalyFlag, "anomaly flag "+flag)
	}

	if h := ev.Timestamp.UTC().Hour(); h < 6 {
		add(IndicatorUnusualTime, WeightUnusualTime, fmt.Sprintf("activity at %02d:00 UTC", h))
	}

	if f.suspiciousIP(ev.IPAddress) {
		ip := ev.IPAddress
		if ip == "" {
			ip = "missing"
		}
		add(IndicatorSuspiciousIP, WeightSuspiciousIP, "unattributable source IP "+ip)
	}

	if amt := ev.Data.AmountOr(0); amt > LargeAmountThreshold {
		add(IndicatorLargeAmount, WeightLargeAmount, fmt.Sprintf("amount %.2f above %.0f", amt, LargeAmountThreshold))
	}

	if len(notes) == 0 {
		score = d.BaselineRisk
	}
	score = math.Min(1.0, score)
	// Keep two decimals so additive weights compare cleanly.
	score = math.Round(score*100) / 100

	if indicators == nil {
		indicators = []string{}
	}

	reasoning := "Fallback analysis: primary analyzer unavailable"
	if reason != "" {
		reasoning += " (" + reason + ")"
	}
	if len(notes) == 0 {
		reasoning += "; no rule-based signals matched."
	} else {
		reasoning += "; rule-based signals: " + strings.Join(notes, ", ") + "."
	}

	return Result{
		RiskScore:       score,
		FraudIndicators: indicators,
		Reasoning:       reasoning,
		Actions:         fallbackActions(score, d),
		Confidence:      d.FallbackConfidence,
		Fallback:        true,
	}
}

func (f FallbackRules) suspiciousIP(raw string) bool {
	raw = strings.TrimSpace(raw)
	for _, p := range f.SuspiciousPrefixes {
		if p != "" && strings.HasPrefix(raw, p) {
			return true
		}
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return true
	}
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

func fallbackActions(score float64, d Defaults) []string {
	actions := append([]string(nil), d.DefaultActions...)
	switch {
	case score > 0.7:
		actions = appendUnique(actions, "require_step_up_auth", "notify_security_team")
	case score >= 0.5:
		actions = appendUnique(actions, "monitor_account")
	}
	return actions
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		if !contains(list, it) {
			list = append(list, it)
		}
	}
	return list
}

func contains(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}

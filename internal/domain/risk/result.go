package risk

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// ActionManualReview is the action used whenever an analyzer gives none.
const ActionManualReview = "manual_review"

// Analyzer port (scores one event against its neighbours). Implementations
// must always return a usable Result; failures are folded into a fallback.
type Analyzer interface {
	Analyze(ctx context.Context, ev fraud.Event, similar []fraud.SimilarEvent) Result
}

// Result is a validated analyzer output.
type Result struct {
	RiskScore       float64  `json:"risk_score"`
	FraudIndicators []string `json:"fraud_indicators"`
	Reasoning       string   `json:"reasoning"`
	Actions         []string `json:"actions"`
	Confidence      float64  `json:"confidence"`
	Fallback        bool     `json:"fallback"`
}

// Defaults holds the constants used when an analyzer result is missing or
// malformed. They have no derivation beyond "reasonable middle ground", so
// they are configurable.
type Defaults struct {
	InvalidRisk        float64  `yaml:"invalidRisk"`
	InvalidConfidence  float64  `yaml:"invalidConfidence"`
	FallbackConfidence float64  `yaml:"fallbackConfidence"`
	BaselineRisk       float64  `yaml:"baselineRisk"`
	DefaultActions     []string `yaml:"defaultActions"`
	Reasoning          string   `yaml:"reasoning"`
}

// DefaultDefaults returns the stock constants.
func DefaultDefaults() Defaults {
	return Defaults{
		InvalidRisk:        0.5,
		InvalidConfidence:  0.5,
		FallbackConfidence: 0.5,
		BaselineRisk:       0.1,
		DefaultActions:     []string{ActionManualReview},
		Reasoning:          "No reasoning provided by analyzer.",
	}
}

// Normalized fills zero values from DefaultDefaults.
func (d Defaults) Normalized() Defaults {
	def := DefaultDefaults()
	if d.InvalidRisk == 0 {
		d.InvalidRisk = def.InvalidRisk
	}
	if d.InvalidConfidence == 0 {
		d.InvalidConfidence = def.InvalidConfidence
	}
	if d.FallbackConfidence == 0 {
		d.FallbackConfidence = def.FallbackConfidence
	}
	if d.BaselineRisk == 0 {
		d.BaselineRisk = def.BaselineRisk
	}
	if len(d.DefaultActions) == 0 {
		d.DefaultActions = def.DefaultActions
	}
	if strings.TrimSpace(d.Reasoning) == "" {
		d.Reasoning = def.Reasoning
	}
	return d
}

var errNotObject = errors.New("analyzer result is not a JSON object")

// Parse decodes raw analyzer JSON and validates it. It fails only when the
// payload is not a JSON object at all.
func Parse(raw string, d Defaults) (Result, error) {
	var m map[string]any
	dec := json.NewDecoder(strings.NewReader(stripFences(raw)))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return Result{}, err
	}
	if m == nil {
		return Result{}, errNotObject
	}
	return Validate(m, d), nil
}

// Validate turns a loosely typed analyzer payload into a Result: scores are
// clamped to [0,1], invalid scores take the configured defaults, lists drop
// non-string items, and an empty reasoning is replaced.
func Validate(m map[string]any, d Defaults) Result {
	d = d.Normalized()
	res := Result{
		RiskScore:       d.InvalidRisk,
		FraudIndicators: []string{},
		Reasoning:       d.Reasoning,
		Actions:         append([]string(nil), d.DefaultActions...),
		Confidence:      d.InvalidConfidence,
	}
	if v, ok := number(m["risk_score"]); ok {
		res.RiskScore = clamp01(v)
	}
	if v, ok := number(m["confidence"]); ok {
		res.Confidence = clamp01(v)
	}
	if list, ok := stringList(m["fraud_indicators"]); ok {
		res.FraudIndicators = list
	}
	actions, ok := stringList(m["actions"])
	if !ok {
		actions, ok = stringList(m["recommended_actions"])
	}
	if ok && len(actions) > 0 {
		res.Actions = actions
	}
	if s, ok := m["reasoning"].(string); ok && strings.TrimSpace(s) != "" {
		res.Reasoning = strings.TrimSpace(s)
	}
	return res
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case int:
		f = float64(n)
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringList(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return append([]string{}, l...), true
	case []any:
		out := make([]string, 0, len(l))
		for _, it := range l {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

// stripFences removes a ```json ... ``` wrapper some models add despite JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

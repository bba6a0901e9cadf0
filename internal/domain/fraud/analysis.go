package fraud

import "time"

// Analysis is the immutable risk-evaluation result for one event.
type Analysis struct {
	ID                 string    `json:"analysis_id"`
	AgentID            string    `json:"agent_id"`
	EventID            string    `json:"event_id"`
	Timestamp          time.Time `json:"timestamp"`
	RiskScore          float64   `json:"risk_score"`
	FraudIndicators    []string  `json:"fraud_indicators"`
	Reasoning          string    `json:"reasoning"`
	RecommendedActions []string  `json:"recommended_actions"`
	Confidence         float64   `json:"confidence"`
	Fallback           bool      `json:"fallback"`
}

// PaginatedAnalyses is one page of archived analyses.
type PaginatedAnalyses struct {
	Data     []*Analysis `json:"data"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

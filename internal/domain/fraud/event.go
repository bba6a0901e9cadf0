package fraud

import "time"

// EventType enum
type EventType string

const (
	EventSignIn        EventType = "sign_in"
	EventAccountLookup EventType = "account_lookup"
	EventTransaction   EventType = "transaction"
	EventPasswordReset EventType = "password_reset"
)

// EventTypes lists every known event type, in declaration order.
var EventTypes = []EventType{EventSignIn, EventAccountLookup, EventTransaction, EventPasswordReset}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	for _, k := range EventTypes {
		if t == k {
			return true
		}
	}
	return false
}

// EventData carries the typed part of an event payload. Anything the source
// sends that has no field here lands in Extra.
type EventData struct {
	Amount   *float64       `json:"amount,omitempty"`
	Currency string         `json:"currency,omitempty"`
	Merchant string         `json:"merchant,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// AmountOr returns the amount, or def when the event has none.
func (d EventData) AmountOr(def float64) float64 {
	if d.Amount == nil {
		return def
	}
	return *d.Amount
}

// Event is a single account activity record. Events are never mutated after
// the source creates them.
type Event struct {
	ID           string    `json:"event_id"`
	Timestamp    time.Time `json:"timestamp"`
	Type         EventType `json:"event_type"`
	AccountID    string    `json:"account_id,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	DeviceID     string    `json:"device_id,omitempty"`
	RiskScore    float64   `json:"risk_score"`
	Data         EventData `json:"event_data"`
	AnomalyFlags []string  `json:"anomaly_flags"`
	SourceSystem string    `json:"source_system"`
}

// SimilarEvent is one nearest-neighbour hit returned by the similarity store.
type SimilarEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	AccountID string    `json:"account_id"`
	IPAddress string    `json:"ip_address"`
	RiskScore float64   `json:"risk_score"`
	Timestamp string    `json:"timestamp"`
	Text      string    `json:"text,omitempty"`
	Score     float32   `json:"score"`
}

// IndexText is the text embedded when an event is stored.
func (e Event) IndexText() string {
	return "Event: " + string(e.Type) + " Account: " + orUnknown(e.AccountID) + " IP: " + orUnknown(e.IPAddress)
}

// QueryText is the text used to look up neighbours of an event.
func (e Event) QueryText() string {
	return "Event: " + string(e.Type) + " Account: " + orUnknown(e.AccountID)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

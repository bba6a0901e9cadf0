package events

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/fraudwatch/internal/application"
	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// SourceSystem is stamped on every generated event.
const SourceSystem = "demo"

var flagChoices = [][]string{{}, {"unusual_time"}, {"ip_mismatch"}}

// Generator produces synthetic account activity for demo agents.
// Each call yields one to three events.
type Generator struct {
	clock application.Clock

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a generator seeded from seed. Same seed, same events
// (except ids and timestamps).
func NewGenerator(clock application.Clock, seed uint64) *Generator {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Generator{
		clock: clock,
		rnd:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *Generator) Next(ctx context.Context, agent fraud.Agent) ([]fraud.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	n := 1 + g.rnd.IntN(3)
	out := make([]fraud.Event, 0, n)
	for range n {
		out = append(out, g.event(agent))
	}
	return out, nil
}

func (g *Generator) event(agent fraud.Agent) fraud.Event {
	account := fmt.Sprintf("ACC%d", 100+g.rnd.IntN(900))
	if len(agent.AccountIDs) > 0 {
		account = agent.AccountIDs[g.rnd.IntN(len(agent.AccountIDs))]
	}
	amount := 10 + g.rnd.Float64()*990
	amount = float64(int(amount*100)) / 100
	flags := flagChoices[g.rnd.IntN(len(flagChoices))]

	return fraud.Event{
		ID:        uuid.NewString(),
		Timestamp: g.clock.Now(),
		Type:      fraud.EventTypes[g.rnd.IntN(len(fraud.EventTypes))],
		AccountID: account,
		UserID:    fmt.Sprintf("USER%03d", 1+g.rnd.IntN(100)),
		IPAddress: fmt.Sprintf("192.168.1.%d", 1+g.rnd.IntN(254)),
		DeviceID:  fmt.Sprintf("DEV%04d", 1+g.rnd.IntN(9999)),
		RiskScore: float64(int(g.rnd.Float64()*100)) / 100,
		Data: fraud.EventData{
			Amount:   &amount,
			Currency: "USD",
		},
		AnomalyFlags: append([]string(nil), flags...),
		SourceSystem: SourceSystem,
	}
}

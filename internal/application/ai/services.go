package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/fraudwatch/internal/domain/ai"
	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
	"github.com/bryanwahyu/fraudwatch/internal/domain/risk"
	"github.com/bryanwahyu/fraudwatch/internal/infra/ai/prompt"
	"github.com/bryanwahyu/fraudwatch/internal/metrics"
)

// IndicatorIncomplete marks a fallback caused by an unusable model answer.
const IndicatorIncomplete = "analysis_incomplete"

// Locator resolves an IP to a human readable location ("" when unknown).
type Locator interface {
	Locate(ip string) string
}

// Service is the risk analyzer: it asks the model for a JSON verdict and
// falls back to deterministic rules when the model fails or answers badly.
type Service struct {
	client  ai.Client
	rules   atomic.Pointer[risk.FallbackRules]
	Locator Locator
	// Timeout bounds a single model call; zero means no limit.
	Timeout time.Duration
	log     *zap.SugaredLogger
}

func NewService(client ai.Client, rules risk.FallbackRules, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Service{client: client, log: log}
	s.SetRules(rules)
	return s
}

// SetRules swaps the fallback rules and defaults; safe while analyses run.
func (s *Service) SetRules(rules risk.FallbackRules) {
	rules.Defaults = rules.Defaults.Normalized()
	s.rules.Store(&rules)
}

func (s *Service) Rules() risk.FallbackRules {
	return *s.rules.Load()
}

// Analyze never fails: every error path yields a labelled fallback result.
func (s *Service) Analyze(ctx context.Context, ev fraud.Event, similar []fraud.SimilarEvent) risk.Result {
	rules := s.Rules()
	if s.client == nil {
		metrics.AnalyzerFallbacks.WithLabelValues("disabled").Inc()
		return rules.Evaluate(ev, "analyzer not configured")
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	location := ""
	if s.Locator != nil {
		location = s.Locator.Locate(ev.IPAddress)
	}

	raw, err := s.client.CompleteJSON(ctx, prompt.GetSystemPrompt(), prompt.GetUserPrompt(ev, similar, location))
	if err != nil {
		reason := "call failed"
		if errors.Is(err, ai.ErrQuotaExceeded) {
			reason = "quota exceeded"
		}
		metrics.AnalyzerFallbacks.WithLabelValues(reason).Inc()
		s.log.Warnw("risk analyzer call failed, using fallback", "event_id", ev.ID, "err", err)
		return rules.Evaluate(ev, reason+": "+err.Error())
	}

	res, err := risk.Parse(raw, rules.Defaults)
	if err != nil {
		metrics.AnalyzerFallbacks.WithLabelValues("unparsable").Inc()
		s.log.Warnw("risk analyzer returned unparsable output, using fallback", "event_id", ev.ID, "err", err)
		fb := rules.Evaluate(ev, "unparsable analyzer response")
		fb.FraudIndicators = append(fb.FraudIndicators, IndicatorIncomplete)
		return fb
	}
	return res
}

package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// Log is the notifier used when no broker is configured.
type Log struct {
	log *zap.SugaredLogger
}

func NewLog(log *zap.SugaredLogger) *Log {
	return &Log{log: log}
}

func (l *Log) PublishAlert(_ context.Context, a fraud.Alert) error {
	l.log.Infow("alert raised",
		"alert_id", a.ID,
		"agent_id", a.AgentID,
		"account_id", a.AccountID,
		"severity", a.Severity,
		"risk_score", a.RiskScore,
	)
	return nil
}

func (l *Log) PublishAction(_ context.Context, action string, a fraud.Alert) error {
	l.log.Warnw("security team notified",
		"action", action,
		"alert_id", a.ID,
		"account_id", a.AccountID,
		"severity", a.Severity,
	)
	return nil
}

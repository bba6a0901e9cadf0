package actions

import (
	"context"
	"errors"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// RegisterBuiltins installs the stock demo actions. Account-side actions are
// simulated and only logged; notify_security_team goes through the notifier.
func RegisterBuiltins(r *Registry, notifier fraud.Notifier) {
	logOnly := func(name string) Handler {
		return func(_ context.Context, a fraud.Alert, ev fraud.Event) error {
			r.log.Infow("action executed",
				"action", name,
				"alert_id", a.ID,
				"account_id", ev.AccountID,
				"event_id", ev.ID,
				"simulated", true,
			)
			return nil
		}
	}

	for _, name := range []string{
		"manual_review",
		"monitor_account",
		"require_step_up_auth",
		"lock_account",
		"block_transaction",
	} {
		r.Register(name, logOnly(name))
	}

	r.Register("notify_security_team", func(ctx context.Context, a fraud.Alert, _ fraud.Event) error {
		if notifier == nil {
			return errors.New("no notifier configured")
		}
		return notifier.PublishAction(ctx, "notify_security_team", a)
	})
}

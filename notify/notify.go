// Package notify defines the notification collaborator invoked by the API
// layer after a successful approve or reject transition. Actual email
// delivery lives outside this repository; the zap implementation records
// what a mailer would send.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/engine"
)

// Notifier receives transition results after they have been committed.
// Failures here never roll back the transition.
type Notifier interface {
	TransitionApplied(ctx context.Context, res engine.TransitionResult) error
}

// =============================================================================
// IMPLEMENTATIONS
// =============================================================================

// Noop discards all notifications.
type Noop struct{}

func (Noop) TransitionApplied(context.Context, engine.TransitionResult) error { return nil }

// LogNotifier writes each transition to a structured log. Stands in for
// the external mailer in dev and tests.
type LogNotifier struct {
	Log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) TransitionApplied(_ context.Context, res engine.TransitionResult) error {
	n.Log.Info("notification",
		zap.String("target", string(res.Target)),
		zap.String("id", res.ID),
		zap.String("owner", string(res.Owner)),
		zap.String("event", string(res.Transition.Event)),
		zap.String("to", string(res.Transition.To)),
		zap.String("comment", res.Comment),
	)
	return nil
}

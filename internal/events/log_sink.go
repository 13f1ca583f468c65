package events

import (
	"context"

	"hearth/internal/logger"

	"go.uber.org/zap"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	log *zap.SugaredLogger
}

// NewLogSink creates a sink that logs through the global logger.
func NewLogSink() *LogSink {
	return &LogSink{log: logger.Named("notifications")}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Deliver implements Sink.
func (s *LogSink) Deliver(_ context.Context, event Event) error {
	switch p := event.Payload.(type) {
	case BudgetExceeded:
		s.log.Warnw("Budget bucket exceeded",
			"event_id", event.ID,
			"budget_id", p.BudgetID,
			"household_id", p.HouseholdID,
			"bucket", p.Bucket,
			"exceeded_amount", p.ExceededAmount.StringFixed(2),
		)
	case GoalReached:
		s.log.Infow("Savings goal reached",
			"event_id", event.ID,
			"goal_id", p.GoalID,
			"user_id", p.UserID,
			"name", p.Name,
		)
	default:
		s.log.Infow("Event", "event_id", event.ID, "kind", event.Kind)
	}
	return nil
}

// Package events carries domain notifications (budget exceeded, savings goal
// reached) from the services to external sinks. Publishing never blocks the
// caller and delivery failures never reach it.
package events

import (
	"encoding/json"
	"time"

	"hearth/internal/models"
	"hearth/internal/uuid"

	"github.com/shopspring/decimal"
)

// Kind identifies the type of an event; it doubles as the AMQP routing key suffix.
type Kind string

const (
	KindBudgetExceeded Kind = "budget.exceeded"
	KindGoalReached    Kind = "savings.goal_reached"
)

// Event is the envelope delivered to sinks.
type Event struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// ToJSON serializes the event for transport.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BudgetExceeded is emitted when a bucket goes over its limit.
type BudgetExceeded struct {
	BudgetID       string              `json:"budget_id"`
	HouseholdID    string              `json:"household_id"`
	Bucket         models.BudgetBucket `json:"bucket"`
	ExceededAmount decimal.Decimal     `json:"exceeded_amount"`
	Spent          decimal.Decimal     `json:"spent"`
	Limit          decimal.Decimal     `json:"limit"`
}

// GoalReached is emitted when a savings goal reaches its target.
type GoalReached struct {
	GoalID        string          `json:"goal_id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
}

// NewBudgetExceeded wraps p in an event envelope.
func NewBudgetExceeded(p BudgetExceeded, at time.Time) Event {
	return Event{ID: uuid.New(), Kind: KindBudgetExceeded, OccurredAt: at.UTC(), Payload: p}
}

// NewGoalReached wraps p in an event envelope.
func NewGoalReached(p GoalReached, at time.Time) Event {
	return Event{ID: uuid.New(), Kind: KindGoalReached, OccurredAt: at.UTC(), Payload: p}
}

// Publisher accepts events for asynchronous delivery.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(Event) {}

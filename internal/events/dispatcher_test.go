package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hearth/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu       sync.Mutex
	received []Event
	err      error
	block    chan struct{}
}

func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) Deliver(ctx context.Context, event Event) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, event)
	return s.err
}

func (s *memorySink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.received...)
}

func exceededEvent() Event {
	return NewBudgetExceeded(BudgetExceeded{
		BudgetID:       "budget-1",
		HouseholdID:    "household-1",
		Bucket:         models.BucketNeeds,
		ExceededAmount: decimal.NewFromInt(1000),
	}, time.Now())
}

func TestDispatcher_FansOutToAllSinks(t *testing.T) {
	first := &memorySink{}
	failing := &memorySink{err: errors.New("broker unavailable")}

	d := NewDispatcher(8, first, failing, NewLogSink())
	d.Start(context.Background())

	d.Publish(exceededEvent())
	d.Publish(NewGoalReached(GoalReached{GoalID: "goal-1", Name: "Holiday"}, time.Now()))
	d.Close()

	require.Len(t, first.events(), 2)
	require.Len(t, failing.events(), 2)
	assert.Equal(t, KindBudgetExceeded, first.events()[0].Kind)
	assert.Equal(t, KindGoalReached, first.events()[1].Kind)
}

func TestDispatcher_DropsWhenBufferFull(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	d := NewDispatcher(1, sink)
	d.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Publish(exceededEvent())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}

	close(sink.block)
	d.Close()

	got := len(sink.events())
	assert.GreaterOrEqual(t, got, 1)
	assert.Less(t, got, 50)
}

func TestDispatcher_PublishAfterCloseIsDropped(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(4, sink)
	d.Start(context.Background())
	d.Close()

	assert.NotPanics(t, func() { d.Publish(exceededEvent()) })
	assert.Empty(t, sink.events())

	// Closing twice is harmless.
	d.Close()
}

func TestEvent_ToJSON(t *testing.T) {
	body, err := exceededEvent().ToJSON()
	require.NoError(t, err)

	assert.Contains(t, string(body), `"kind":"budget.exceeded"`)
	assert.Contains(t, string(body), `"bucket":"needs"`)
	assert.Contains(t, string(body), `"exceeded_amount":"1000"`)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "budget.savings.goal_reached", routingKey("budget", KindGoalReached))
	assert.Equal(t, "budget.exceeded", routingKey("", KindBudgetExceeded))
}

// Package events implements the in-process post-commit event bus.
//
// Services publish events after their store transaction committed.
// Handlers (calendar projection, notifications, gamification) are
// best-effort: a failing or panicking handler is logged and never
// propagates to the caller that produced the event.
package events

import (
	"sync"

	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Kind identifies what happened.
type Kind string

const (
	TransactionCreated  Kind = "transaction.created"
	TransactionUpdated  Kind = "transaction.updated"
	TransactionDeleted  Kind = "transaction.deleted"
	BillCreated         Kind = "bill.created"
	BillPaid            Kind = "bill.paid"
	BillCancelled       Kind = "bill.cancelled"
	TransferCompleted   Kind = "transfer.completed"
	TransferCancelled   Kind = "transfer.cancelled"
	GoalCreated         Kind = "goal.created"
	GoalCompleted       Kind = "goal.completed"
	GoalCancelled       Kind = "goal.cancelled"
	ContributionAdded   Kind = "goal.contribution_added"
	ContributionDeleted Kind = "goal.contribution_deleted"
	ScheduleExecuted    Kind = "schedule.executed"
)

// Event is one committed domain change. Exactly one of the payload
// fields matching the kind is set.
type Event struct {
	Kind         Kind
	UserID       uuid.UUID
	Transaction  *models.Transaction
	Previous     *models.Transaction // for updates, the pre-update state
	Bill         *models.Bill
	Transfer     *models.Transfer
	Goal         *models.Goal
	Contribution *models.GoalContribution
}

// Handler consumes events. Handlers must be safe for concurrent use.
type Handler interface {
	Name() string
	Handle(event Event)
}

// Bus fans committed events out to handlers on a background worker.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler

	queue chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

// NewBus returns a started bus with the given queue depth.
func NewBus(depth int) *Bus {
	b := &Bus{
		queue: make(chan Event, depth),
	}

	b.wg.Add(1)
	go b.run()

	return b
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish enqueues an event. When the queue is full the event is
// handled synchronously instead of being dropped; side effects are
// advisory but losing them silently would make sync operations lie.
func (b *Bus) Publish(event Event) {
	select {
	case b.queue <- event:
	default:
		b.dispatch(event)
	}
}

// Close drains the queue and stops the worker.
func (b *Bus) Close() {
	b.once.Do(func() {
		close(b.queue)
	})
	b.wg.Wait()
}

func (b *Bus) run() {
	defer b.wg.Done()

	for event := range b.queue {
		b.dispatch(event)
	}
}

func (b *Bus) dispatch(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.deliver(handler, event)
	}
}

// deliver runs one handler with panic isolation.
func (b *Bus) deliver(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("handler", handler.Name()).
				Str("kind", string(event.Kind)).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()

	handler.Handle(event)
}

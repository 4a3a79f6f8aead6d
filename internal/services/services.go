// Package services implements the write path of the financial engine.
//
// Every operation that modifies more than one row runs inside a single
// store transaction and goes through the balance engine, so account
// balances, paired bills, transfer legs and goal amounts can never
// drift apart. Post-commit side effects are published on the event bus
// and never fail the originating call.
package services

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/events"
	"gorm.io/gorm"
)

// Services bundles the domain services over one database handle.
type Services struct {
	Transactions *TransactionService
	Bills        *BillService
	Transfers    *TransferService
	Goals        *GoalService
	Families     *FamilyService
	Scheduled    *ScheduledService
}

// New wires all services to the database, evaluator and event bus.
func New(db *gorm.DB, evaluator *access.Evaluator, bus *events.Bus) *Services {
	s := &Services{}

	s.Transactions = &TransactionService{db: db, access: evaluator, bus: bus}
	s.Bills = &BillService{db: db, access: evaluator, bus: bus}
	s.Transfers = &TransferService{db: db, access: evaluator, bus: bus}
	s.Goals = &GoalService{db: db, access: evaluator, bus: bus}
	s.Families = &FamilyService{db: db, access: evaluator}
	s.Scheduled = &ScheduledService{db: db, access: evaluator, bus: bus}

	return s
}

const transientRetries = 3

// inTransaction runs fn in a store transaction, retrying transient
// store failures (serialization conflicts, deadlocks, busy databases)
// with jittered backoff before propagating.
func inTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error

	for attempt := 0; attempt < transientRetries; attempt++ {
		err = db.Transaction(fn)
		if !isTransient(err) {
			return err
		}

		time.Sleep(time.Duration(10+rand.Intn(40)) * time.Millisecond)
	}

	return err
}

// isTransient reports whether the error is a retriable store failure.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrInvalidTransaction) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// publishAll emits the collected events after a successful commit.
func publishAll(bus *events.Bus, pending []events.Event) {
	if bus == nil {
		return
	}

	for _, event := range pending {
		bus.Publish(event)
	}
}

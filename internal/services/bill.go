package services

import (
	"fmt"
	"time"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/events"
	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillService owns the lifecycle of payables and receivables.
type BillService struct {
	db     *gorm.DB
	access *access.Evaluator
	bus    *events.Bus
}

// ErrBillNotPending is returned when paying a bill that is already
// settled or cancelled. Of two concurrent pay calls, exactly one
// observes this error.
var ErrBillNotPending = fmt.Errorf("%w: the bill is already paid or cancelled", models.ErrConflict)

// BillCreate holds the caller-supplied fields for a new bill.
type BillCreate struct {
	Name              string
	Amount            decimal.Decimal
	Type              models.TransactionType
	DueDate           time.Time
	IsRecurring       bool
	Recurrence        models.Recurrence
	RecurrenceDay     *int
	RecurrenceEndDate *time.Time
	Notes             string
	AccountID         *uuid.UUID
	CategoryID        *uuid.UUID
	WorkspaceID       *uuid.UUID
}

// Create validates and persists a new bill.
func (s *BillService) Create(actor models.User, create BillCreate) (models.Bill, error) {
	bill := models.Bill{
		Name:              create.Name,
		Amount:            create.Amount,
		Type:              create.Type,
		DueDate:           create.DueDate,
		IsRecurring:       create.IsRecurring,
		Recurrence:        create.Recurrence,
		RecurrenceDay:     create.RecurrenceDay,
		RecurrenceEndDate: create.RecurrenceEndDate,
		Notes:             create.Notes,
		UserID:            actor.ID,
		AccountID:         create.AccountID,
		CategoryID:        create.CategoryID,
		WorkspaceID:       create.WorkspaceID,
	}

	err := s.db.Create(&bill).Error
	if err != nil {
		return models.Bill{}, err
	}

	publishAll(s.bus, []events.Event{{
		Kind:   events.BillCreated,
		UserID: actor.ID,
		Bill:   &bill,
	}})

	return bill, nil
}

// Get returns a single bill the actor may view.
func (s *BillService) Get(actor models.User, id uuid.UUID) (models.Bill, error) {
	var bill models.Bill
	err := s.db.Preload("Account").First(&bill, "id = ?", id).Error
	if err != nil {
		return models.Bill{}, err
	}

	err = s.access.CanAccess(actor, bill.AccessRef(), access.ActionView)
	if err != nil {
		return models.Bill{}, err
	}

	return bill, nil
}

// List returns all bills visible to the actor, optionally filtered by status.
func (s *BillService) List(actor models.User, status models.BillStatus) ([]models.Bill, error) {
	scope, err := s.access.Scope(actor, models.ModuleBills)
	if err != nil {
		return nil, err
	}

	q := scope.ApplyOwned(s.db.Model(&models.Bill{}), "bills")
	if status != "" {
		q = q.Where("bills.status = ?", status)
	}

	var bills []models.Bill
	err = q.Order("bills.due_date ASC").Find(&bills).Error
	return bills, err
}

// ListUpcoming returns pending bills due within the given number of days.
func (s *BillService) ListUpcoming(actor models.User, days int) ([]models.Bill, error) {
	scope, err := s.access.Scope(actor, models.ModuleBills)
	if err != nil {
		return nil, err
	}

	now := time.Now().In(time.UTC)
	var bills []models.Bill
	err = scope.ApplyOwned(s.db.Model(&models.Bill{}), "bills").
		Where("bills.status = ?", models.BillStatusPending).
		Where("bills.due_date >= ? AND bills.due_date < ?", now, now.AddDate(0, 0, days)).
		Order("bills.due_date ASC").
		Find(&bills).Error
	return bills, err
}

// ListOverdue returns pending bills whose due date has passed.
// Overdue is derived at read time; no job writes an overdue status.
func (s *BillService) ListOverdue(actor models.User) ([]models.Bill, error) {
	scope, err := s.access.Scope(actor, models.ModuleBills)
	if err != nil {
		return nil, err
	}

	var bills []models.Bill
	err = scope.ApplyOwned(s.db.Model(&models.Bill{}), "bills").
		Where("bills.status = ?", models.BillStatusPending).
		Where("bills.due_date < ?", time.Now().In(time.UTC)).
		Order("bills.due_date ASC").
		Find(&bills).Error
	return bills, err
}

// PayParams control how a bill is settled.
type PayParams struct {
	PaymentDate       *time.Time // defaults to now
	AccountID         *uuid.UUID // overrides the bill's account
	CreateTransaction bool
}

// DefaultPayParams settles at the current time, on the bill's account,
// creating the settlement transaction.
func DefaultPayParams() PayParams {
	return PayParams{CreateTransaction: true}
}

// Pay settles a pending bill: marks it paid (or received), creates the
// settlement transaction, applies the balance delta, and rolls the
// recurrence horizon forward by one occurrence.
func (s *BillService) Pay(actor models.User, id uuid.UUID, params PayParams) (models.Bill, error) {
	var loaded models.Bill
	err := s.db.Preload("Account").First(&loaded, "id = ?", id).Error
	if err != nil {
		return models.Bill{}, err
	}

	err = s.access.CanAccess(actor, loaded.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.Bill{}, err
	}

	paymentDate := time.Now().In(time.UTC)
	if params.PaymentDate != nil {
		paymentDate = params.PaymentDate.In(time.UTC)
	}

	var bill models.Bill
	var pending []events.Event
	err = inTransaction(s.db, func(tx *gorm.DB) error {
		pending = pending[:0]

		// Re-read under lock: of two concurrent payers only one sees pending.
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := q.First(&bill, "id = ?", id).Error
		if err != nil {
			return err
		}

		if bill.Status != models.BillStatusPending {
			return ErrBillNotPending
		}

		bill.Status = bill.SettledStatus()
		bill.PaymentDate = &paymentDate

		if params.CreateTransaction {
			accountID := bill.AccountID
			if params.AccountID != nil {
				accountID = params.AccountID
			}

			// A bill without any account is settled without a
			// transaction; the balance stays untouched.
			if accountID != nil {
				transaction := models.Transaction{
					Description: bill.Name,
					Amount:      bill.Amount,
					Type:        bill.Type,
					Status:      models.TransactionStatusCompleted,
					Date:        paymentDate,
					UserID:      bill.UserID,
					AccountID:   *accountID,
					CategoryID:  bill.CategoryID,
					WorkspaceID: bill.WorkspaceID,
				}

				err = tx.Create(&transaction).Error
				if err != nil {
					return err
				}

				err = applyOnCreate(tx, transaction)
				if err != nil {
					return err
				}

				bill.TransactionID = &transaction.ID
				pending = append(pending, events.Event{
					Kind:        events.TransactionCreated,
					UserID:      bill.UserID,
					Transaction: &transaction,
				})
			}
		}

		err = tx.Save(&bill).Error
		if err != nil {
			return err
		}

		return s.rollRecurrence(tx, bill, &pending)
	})
	if err != nil {
		return models.Bill{}, err
	}

	pending = append([]events.Event{{
		Kind:   events.BillPaid,
		UserID: actor.ID,
		Bill:   &bill,
	}}, pending...)
	publishAll(s.bus, pending)

	return bill, nil
}

// rollRecurrence creates the next pending occurrence of a recurring
// bill. At most one pending future occurrence exists per series.
func (s *BillService) rollRecurrence(tx *gorm.DB, bill models.Bill, pending *[]events.Event) error {
	next, ok := bill.NextOccurrence()
	if !ok {
		return nil
	}

	clone := models.Bill{
		Name:              bill.Name,
		Amount:            bill.Amount,
		Type:              bill.Type,
		DueDate:           next,
		Status:            models.BillStatusPending,
		IsRecurring:       true,
		Recurrence:        bill.Recurrence,
		RecurrenceDay:     bill.RecurrenceDay,
		RecurrenceEndDate: bill.RecurrenceEndDate,
		Notes:             bill.Notes,
		UserID:            bill.UserID,
		AccountID:         bill.AccountID,
		CategoryID:        bill.CategoryID,
		WorkspaceID:       bill.WorkspaceID,
	}

	err := tx.Create(&clone).Error
	if err != nil {
		return err
	}

	*pending = append(*pending, events.Event{
		Kind:   events.BillCreated,
		UserID: bill.UserID,
		Bill:   &clone,
	})

	return nil
}

// BillUpdate holds a partial update; nil fields stay unchanged.
type BillUpdate struct {
	Name              *string
	Amount            *decimal.Decimal
	DueDate           *time.Time
	Notes             *string
	IsRecurring       *bool
	Recurrence        *models.Recurrence
	RecurrenceDay     *int
	RecurrenceEndDate *time.Time
	AccountID         *uuid.UUID
	CategoryID        *uuid.UUID
}

// Update modifies a pending bill. Settled and cancelled bills are immutable.
func (s *BillService) Update(actor models.User, id uuid.UUID, update BillUpdate) (models.Bill, error) {
	var bill models.Bill
	err := s.db.Preload("Account").First(&bill, "id = ?", id).Error
	if err != nil {
		return models.Bill{}, err
	}

	err = s.access.CanAccess(actor, bill.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.Bill{}, err
	}

	if bill.Status != models.BillStatusPending {
		return models.Bill{}, fmt.Errorf("%w: only pending bills can be updated", models.ErrPrecondition)
	}

	if update.Name != nil {
		bill.Name = *update.Name
	}
	if update.Amount != nil {
		bill.Amount = *update.Amount
	}
	if update.DueDate != nil {
		bill.DueDate = *update.DueDate
	}
	if update.Notes != nil {
		bill.Notes = *update.Notes
	}
	if update.IsRecurring != nil {
		bill.IsRecurring = *update.IsRecurring
	}
	if update.Recurrence != nil {
		bill.Recurrence = *update.Recurrence
	}
	if update.RecurrenceDay != nil {
		bill.RecurrenceDay = update.RecurrenceDay
	}
	if update.RecurrenceEndDate != nil {
		bill.RecurrenceEndDate = update.RecurrenceEndDate
	}
	if update.AccountID != nil {
		bill.AccountID = update.AccountID
	}
	if update.CategoryID != nil {
		bill.CategoryID = update.CategoryID
	}

	err = s.db.Save(&bill).Error
	if err != nil {
		return models.Bill{}, err
	}

	return bill, nil
}

// Delete cancels a bill. A linked settlement transaction keeps its
// balance effect; only deleting the transaction itself reverses it.
func (s *BillService) Delete(actor models.User, id uuid.UUID) error {
	var bill models.Bill
	err := s.db.Preload("Account").First(&bill, "id = ?", id).Error
	if err != nil {
		return err
	}

	err = s.access.CanAccess(actor, bill.AccessRef(), access.ActionDelete)
	if err != nil {
		return err
	}

	err = inTransaction(s.db, func(tx *gorm.DB) error {
		bill.Status = models.BillStatusCancelled
		err := tx.Save(&bill).Error
		if err != nil {
			return err
		}

		return tx.Delete(&bill).Error
	})
	if err != nil {
		return err
	}

	publishAll(s.bus, []events.Event{{
		Kind:   events.BillCancelled,
		UserID: actor.ID,
		Bill:   &bill,
	}})

	return nil
}

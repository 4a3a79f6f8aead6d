package services

import (
	"errors"
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

// ScheduledService owns recurrence rules and their materialization
// into transactions. The scheduler is its only caller for the due-item
// path; the lifecycle operations are exposed to users as well.
type ScheduledService struct {
	db     *gorm.DB
	access *access.Evaluator
	bus    *events.Bus
}

// ScheduledCreate holds the caller-supplied fields for a new schedule.
type ScheduledCreate struct {
	Description   string
	Amount        decimal.Decimal
	Type          models.TransactionType
	StartDate     time.Time
	EndDate       *time.Time
	Recurrence    models.Recurrence
	RecurrenceDay *int
	MaxExecutions *int
	AutoExecute   bool
	AccountID     uuid.UUID
	CategoryID    *uuid.UUID
	WorkspaceID   *uuid.UUID
}

// Create validates and persists a new scheduled transaction.
func (s *ScheduledService) Create(actor models.User, create ScheduledCreate) (models.ScheduledTransaction, error) {
	var account models.Account
	err := s.db.First(&account, "id = ?", create.AccountID).Error
	if err != nil {
		return models.ScheduledTransaction{}, err
	}

	err = s.access.CanAccess(actor, account.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.ScheduledTransaction{}, err
	}

	scheduled := models.ScheduledTransaction{
		Description:   create.Description,
		Amount:        create.Amount,
		Type:          create.Type,
		Status:        models.ScheduleStatusActive,
		StartDate:     create.StartDate,
		EndDate:       create.EndDate,
		Recurrence:    create.Recurrence,
		RecurrenceDay: create.RecurrenceDay,
		MaxExecutions: create.MaxExecutions,
		AutoExecute:   create.AutoExecute,
		UserID:        actor.ID,
		AccountID:     create.AccountID,
		CategoryID:    create.CategoryID,
		WorkspaceID:   create.WorkspaceID,
	}

	err = s.db.Create(&scheduled).Error
	if err != nil {
		return models.ScheduledTransaction{}, err
	}

	return scheduled, nil
}

// Get returns a single schedule the actor may view.
func (s *ScheduledService) Get(actor models.User, id uuid.UUID) (models.ScheduledTransaction, error) {
	var scheduled models.ScheduledTransaction
	err := s.db.First(&scheduled, "id = ?", id).Error
	if err != nil {
		return models.ScheduledTransaction{}, err
	}

	err = s.access.CanAccess(actor, scheduled.AccessRef(), access.ActionView)
	if err != nil {
		return models.ScheduledTransaction{}, err
	}

	return scheduled, nil
}

// List returns all schedules visible to the actor, optionally filtered
// by status.
func (s *ScheduledService) List(actor models.User, status models.ScheduleStatus) ([]models.ScheduledTransaction, error) {
	scope, err := s.access.Scope(actor, models.ModuleTransactions)
	if err != nil {
		return nil, err
	}

	q := scope.ApplyOwned(s.db.Model(&models.ScheduledTransaction{}), "scheduled_transactions")
	if status != "" {
		q = q.Where("scheduled_transactions.status = ?", status)
	}

	var scheduled []models.ScheduledTransaction
	err = q.Order("scheduled_transactions.next_execution_date ASC").Find(&scheduled).Error
	return scheduled, err
}

// transition moves a schedule between lifecycle states.
func (s *ScheduledService) transition(actor models.User, id uuid.UUID, from []models.ScheduleStatus, to models.ScheduleStatus) (models.ScheduledTransaction, error) {
	var scheduled models.ScheduledTransaction
	err := s.db.First(&scheduled, "id = ?", id).Error
	if err != nil {
		return models.ScheduledTransaction{}, err
	}

	err = s.access.CanAccess(actor, scheduled.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.ScheduledTransaction{}, err
	}

	allowed := false
	for _, status := range from {
		if scheduled.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.ScheduledTransaction{}, fmt.Errorf("%w: a %s schedule can not become %s", models.ErrPrecondition, scheduled.Status, to)
	}

	scheduled.Status = to
	err = s.db.Save(&scheduled).Error
	if err != nil {
		return models.ScheduledTransaction{}, err
	}

	return scheduled, nil
}

// Pause suspends an active schedule. The stored cursor is kept, so
// resuming may materialize a backlog on the next tick.
func (s *ScheduledService) Pause(actor models.User, id uuid.UUID) (models.ScheduledTransaction, error) {
	return s.transition(actor, id, []models.ScheduleStatus{models.ScheduleStatusActive}, models.ScheduleStatusPaused)
}

// Resume reactivates a paused schedule.
func (s *ScheduledService) Resume(actor models.User, id uuid.UUID) (models.ScheduledTransaction, error) {
	return s.transition(actor, id, []models.ScheduleStatus{models.ScheduleStatusPaused}, models.ScheduleStatusActive)
}

// Cancel terminates a schedule.
func (s *ScheduledService) Cancel(actor models.User, id uuid.UUID) (models.ScheduledTransaction, error) {
	return s.transition(actor, id,
		[]models.ScheduleStatus{models.ScheduleStatusActive, models.ScheduleStatusPaused},
		models.ScheduleStatusCancelled)
}

// ExecuteNow materializes an active schedule immediately, regardless of
// its next execution date.
func (s *ScheduledService) ExecuteNow(actor models.User, id uuid.UUID) (models.Transaction, error) {
	var scheduled models.ScheduledTransaction
	err := s.db.First(&scheduled, "id = ?", id).Error
	if err != nil {
		return models.Transaction{}, err
	}

	err = s.access.CanAccess(actor, scheduled.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.Transaction{}, err
	}

	return s.executeOne(id, time.Now().In(time.UTC), true)
}

// DueIDs returns the IDs of due auto-executing schedules, oldest first.
func (s *ScheduledService) DueIDs(now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&models.ScheduledTransaction{}).
		Where("status = ? AND auto_execute = ?", models.ScheduleStatusActive, true).
		Where("next_execution_date <= ?", now).
		Order("next_execution_date ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ExecuteDue materializes one claimed due schedule. The row is re-read
// under a skip-locked row lock, so of two concurrent workers only one
// executes it; the other silently skips.
func (s *ScheduledService) ExecuteDue(id uuid.UUID, now time.Time) (executed bool, err error) {
	_, err = s.executeOne(id, now, false)
	if errors.Is(err, errScheduleClaimed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// errScheduleClaimed means another worker holds or already executed the row.
var errScheduleClaimed = fmt.Errorf("schedule already claimed")

// executeOne runs a single materialization in its own store
// transaction: audit row, transaction, balance delta and cursor advance
// commit together. A failed attempt records a failed audit row and
// leaves the cursor untouched.
func (s *ScheduledService) executeOne(id uuid.UUID, now time.Time, force bool) (models.Transaction, error) {
	var transaction models.Transaction
	err := inTransaction(s.db, func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var scheduled models.ScheduledTransaction
		err := q.First(&scheduled, "id = ?", id).Error
		if err != nil {
			return err
		}

		if scheduled.Status != models.ScheduleStatusActive {
			if force {
				return fmt.Errorf("%w: %s", models.ErrPrecondition, models.ErrScheduleNotActive)
			}
			return errScheduleClaimed
		}
		if !force && scheduled.NextExecutionDate.After(now) {
			return errScheduleClaimed
		}

		transaction = models.Transaction{
			Description: scheduled.Description,
			Amount:      scheduled.Amount,
			Type:        scheduled.Type,
			Status:      models.TransactionStatusCompleted,
			Date:        scheduled.NextExecutionDate,
			UserID:      scheduled.UserID,
			AccountID:   scheduled.AccountID,
			CategoryID:  scheduled.CategoryID,
			WorkspaceID: scheduled.WorkspaceID,
		}
		err = tx.Create(&transaction).Error
		if err != nil {
			return err
		}

		err = applyOnCreate(tx, transaction)
		if err != nil {
			return err
		}

		execution := models.TransactionExecution{
			ScheduledTransactionID: scheduled.ID,
			TransactionID:          &transaction.ID,
			ExecutionDate:          now,
			Status:                 models.ExecutionStatusSuccess,
		}
		err = tx.Create(&execution).Error
		if err != nil {
			return err
		}

		// Cursor advance is the last step so an aborted execution
		// never skips an occurrence.
		scheduled.Advance(now)
		return tx.Save(&scheduled).Error
	})
	if errors.Is(err, errScheduleClaimed) {
		return models.Transaction{}, err
	}
	if err != nil {
		s.recordFailure(id, now, err)
		return models.Transaction{}, err
	}

	publishAll(s.bus, []events.Event{{
		Kind:        events.ScheduleExecuted,
		UserID:      transaction.UserID,
		Transaction: &transaction,
	}})

	return transaction, nil
}

// recordFailure writes the failed audit row outside the rolled-back
// transaction. Best effort; a failure to record is swallowed.
func (s *ScheduledService) recordFailure(id uuid.UUID, now time.Time, cause error) {
	execution := models.TransactionExecution{
		ScheduledTransactionID: id,
		ExecutionDate:          now,
		Status:                 models.ExecutionStatusFailed,
		ErrorMessage:           cause.Error(),
	}
	_ = s.db.Create(&execution).Error
}

// Executions lists the audit rows of a schedule, newest first.
func (s *ScheduledService) Executions(actor models.User, id uuid.UUID) ([]models.TransactionExecution, error) {
	_, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}

	var executions []models.TransactionExecution
	err = s.db.Where("scheduled_transaction_id = ?", id).
		Order("execution_date DESC").
		Find(&executions).Error
	return executions, err
}

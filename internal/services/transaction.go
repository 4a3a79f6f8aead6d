package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/events"
	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionService is the entry point for creating, updating,
// deleting and searching transactions. It coordinates the balance
// engine, the paired-bill mirroring and the post-commit hooks.
type TransactionService struct {
	db     *gorm.DB
	access *access.Evaluator
	bus    *events.Bus
}

// TransactionCreate holds the caller-supplied fields for a new transaction.
type TransactionCreate struct {
	Description string
	Amount      decimal.Decimal
	Type        models.TransactionType
	Status      models.TransactionStatus
	Date        time.Time
	Notes       string
	AccountID   uuid.UUID
	CategoryID  *uuid.UUID
	WorkspaceID *uuid.UUID
}

// Create validates and persists a new transaction, applies its balance
// delta and mirrors a pending expense into a bill.
func (s *TransactionService) Create(actor models.User, create TransactionCreate) (models.Transaction, error) {
	var account models.Account
	err := s.db.First(&account, "id = ?", create.AccountID).Error
	if err != nil {
		return models.Transaction{}, err
	}

	err = s.access.CanAccess(actor, account.AccessRef(), access.ActionView)
	if err != nil {
		return models.Transaction{}, err
	}

	transaction := models.Transaction{
		Description: create.Description,
		Amount:      create.Amount,
		Type:        create.Type,
		Status:      create.Status,
		Date:        create.Date,
		Notes:       create.Notes,
		UserID:      actor.ID,
		AccountID:   create.AccountID,
		CategoryID:  create.CategoryID,
		WorkspaceID: create.WorkspaceID,
	}

	var pending []events.Event
	err = inTransaction(s.db, func(tx *gorm.DB) error {
		err := tx.Create(&transaction).Error
		if err != nil {
			return err
		}

		err = applyOnCreate(tx, transaction)
		if err != nil {
			return err
		}

		err = s.mirrorBillOnCreate(tx, transaction, &pending)
		if err != nil {
			return err
		}

		return s.autoContribute(tx, transaction, &pending)
	})
	if err != nil {
		return models.Transaction{}, err
	}

	pending = append([]events.Event{{
		Kind:        events.TransactionCreated,
		UserID:      actor.ID,
		Transaction: &transaction,
	}}, pending...)
	publishAll(s.bus, pending)

	return transaction, nil
}

// Get returns a single transaction the actor may view.
func (s *TransactionService) Get(actor models.User, id uuid.UUID) (models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Preload("Account").First(&transaction, "id = ?", id).Error
	if err != nil {
		return models.Transaction{}, err
	}

	err = s.access.CanAccess(actor, transaction.AccessRef(), access.ActionView)
	if err != nil {
		return models.Transaction{}, err
	}

	return transaction, nil
}

// TransactionUpdate holds a partial update; nil fields stay unchanged.
type TransactionUpdate struct {
	Description *string
	Amount      *decimal.Decimal
	Type        *models.TransactionType
	Status      *models.TransactionStatus
	Date        *time.Time
	Notes       *string
	AccountID   *uuid.UUID
	CategoryID  *uuid.UUID
	WorkspaceID *uuid.UUID
}

// Update diffs old and new state, reconciles the balance and keeps the
// paired bill in lock-step with the transaction.
func (s *TransactionService) Update(actor models.User, id uuid.UUID, update TransactionUpdate) (models.Transaction, error) {
	var old models.Transaction
	err := s.db.Preload("Account").First(&old, "id = ?", id).Error
	if err != nil {
		return models.Transaction{}, err
	}

	err = s.access.CanAccess(actor, old.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.Transaction{}, err
	}

	var updated models.Transaction
	var pending []events.Event
	err = inTransaction(s.db, func(tx *gorm.DB) error {
		pending = pending[:0]

		// Re-read under lock so concurrent updates diff against the
		// committed state, not a shared stale read
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := q.First(&old, "id = ?", id).Error
		if err != nil {
			return err
		}

		updated = old
		if update.Description != nil {
			updated.Description = *update.Description
		}
		if update.Amount != nil {
			updated.Amount = *update.Amount
		}
		if update.Type != nil {
			updated.Type = *update.Type
		}
		if update.Status != nil {
			if !old.TransitionAllowed(*update.Status) {
				return fmt.Errorf("%w: %s to %s", models.ErrPrecondition, old.Status, *update.Status)
			}
			updated.Status = *update.Status
		}
		if update.Date != nil {
			updated.Date = *update.Date
		}
		if update.Notes != nil {
			updated.Notes = *update.Notes
		}
		if update.AccountID != nil {
			updated.AccountID = *update.AccountID
		}
		if update.CategoryID != nil {
			updated.CategoryID = update.CategoryID
		}
		if update.WorkspaceID != nil {
			updated.WorkspaceID = update.WorkspaceID
		}

		err = tx.Save(&updated).Error
		if err != nil {
			return err
		}

		err = applyOnUpdate(tx, old, updated)
		if err != nil {
			return err
		}

		err = s.reconcileBill(tx, updated, &pending)
		if err != nil {
			return err
		}

		if old.Status != models.TransactionStatusCompleted && updated.Status == models.TransactionStatusCompleted {
			return s.autoContribute(tx, updated, &pending)
		}

		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	pending = append([]events.Event{{
		Kind:        events.TransactionUpdated,
		UserID:      actor.ID,
		Transaction: &updated,
		Previous:    &old,
	}}, pending...)
	publishAll(s.bus, pending)

	return updated, nil
}

// Delete reverses the balance effect and cancels a paired bill instead
// of deleting it, preserving the audit trail.
func (s *TransactionService) Delete(actor models.User, id uuid.UUID) error {
	var transaction models.Transaction
	err := s.db.Preload("Account").First(&transaction, "id = ?", id).Error
	if err != nil {
		return err
	}

	err = s.access.CanAccess(actor, transaction.AccessRef(), access.ActionDelete)
	if err != nil {
		return err
	}

	err = inTransaction(s.db, func(tx *gorm.DB) error {
		err := applyOnDelete(tx, transaction)
		if err != nil {
			return err
		}

		var bill models.Bill
		err = tx.Where("transaction_id = ?", transaction.ID).First(&bill).Error
		if err == nil {
			bill.Status = models.BillStatusCancelled
			err = tx.Save(&bill).Error
			if err != nil {
				return err
			}
		} else if !errors.Is(err, models.ErrResourceNotFound) {
			return err
		}

		return tx.Delete(&transaction).Error
	})
	if err != nil {
		return err
	}

	publishAll(s.bus, []events.Event{{
		Kind:        events.TransactionDeleted,
		UserID:      actor.ID,
		Transaction: &transaction,
	}})

	return nil
}

// TransactionSearch narrows a transaction listing.
type TransactionSearch struct {
	Text        string // case-insensitive substring across description and notes
	Type        models.TransactionType
	Status      models.TransactionStatus
	CategoryID  *uuid.UUID
	AccountID   *uuid.UUID
	WorkspaceID *uuid.UUID
	AmountMin   *decimal.Decimal
	AmountMax   *decimal.Decimal
	From        time.Time
	Until       time.Time
	Offset      int
	Limit       int
}

// TransactionPage is one page of search results.
type TransactionPage struct {
	Transactions []models.Transaction
	Total        int64
}

// Search lists transactions visible to the actor. Transactions that
// settle a cancelled bill are excluded; that is how bill cancellation
// tombstones propagate to search results without deleting history.
func (s *TransactionService) Search(actor models.User, search TransactionSearch) (TransactionPage, error) {
	scope, err := s.access.Scope(actor, models.ModuleTransactions)
	if err != nil {
		return TransactionPage{}, err
	}

	q := scope.ApplyTransactions(s.db.Model(&models.Transaction{}))

	// Soft-deleted bills keep tombstoning their settlement, so the
	// subquery must not filter on deleted_at.
	q = q.Where("transactions.id NOT IN (?)",
		s.db.Session(&gorm.Session{NewDB: true}).
			Table("bills").
			Select("transaction_id").
			Where("status = ? AND transaction_id IS NOT NULL", models.BillStatusCancelled))

	if search.Text != "" {
		pattern := "%" + strings.ToLower(search.Text) + "%"
		q = q.Where("LOWER(transactions.description) LIKE ? OR LOWER(transactions.notes) LIKE ?", pattern, pattern)
	}
	if search.Type != "" {
		q = q.Where("transactions.type = ?", search.Type)
	}
	if search.Status != "" {
		q = q.Where("transactions.status = ?", search.Status)
	}
	if search.CategoryID != nil {
		q = q.Where("transactions.category_id = ?", *search.CategoryID)
	}
	if search.AccountID != nil {
		q = q.Where("transactions.account_id = ?", *search.AccountID)
	}
	if search.WorkspaceID != nil {
		q = q.Where("transactions.workspace_id = ?", *search.WorkspaceID)
	}
	if search.AmountMin != nil {
		q = q.Where("transactions.amount >= ?", *search.AmountMin)
	}
	if search.AmountMax != nil {
		q = q.Where("transactions.amount <= ?", *search.AmountMax)
	}
	if !search.From.IsZero() {
		q = q.Where("transactions.date >= ?", search.From)
	}
	if !search.Until.IsZero() {
		q = q.Where("transactions.date < ?", search.Until)
	}

	var total int64
	err = q.Count(&total).Error
	if err != nil {
		return TransactionPage{}, err
	}

	limit := search.Limit
	if limit <= 0 {
		limit = 50
	}

	var transactions []models.Transaction
	err = q.Order("transactions.date DESC, transactions.created_at DESC").
		Offset(search.Offset).
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return TransactionPage{}, err
	}

	return TransactionPage{Transactions: transactions, Total: total}, nil
}

// mirrorBillOnCreate makes "pending expense" and "bill to pay"
// synonymous: a pending expense transaction without a bill gets one.
func (s *TransactionService) mirrorBillOnCreate(tx *gorm.DB, transaction models.Transaction, pending *[]events.Event) error {
	if transaction.Type != models.TransactionTypeExpense || transaction.Status != models.TransactionStatusPending {
		return nil
	}

	var count int64
	err := tx.Model(&models.Bill{}).Where("transaction_id = ?", transaction.ID).Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	accountID := transaction.AccountID
	bill := models.Bill{
		Name:          transaction.Description,
		Amount:        transaction.Amount,
		Type:          models.TransactionTypeExpense,
		DueDate:       transaction.Date,
		Status:        models.BillStatusPending,
		Notes:         transaction.Notes,
		UserID:        transaction.UserID,
		AccountID:     &accountID,
		CategoryID:    transaction.CategoryID,
		TransactionID: &transaction.ID,
		WorkspaceID:   transaction.WorkspaceID,
	}

	err = tx.Create(&bill).Error
	if err != nil {
		return err
	}

	*pending = append(*pending, events.Event{
		Kind:   events.BillCreated,
		UserID: transaction.UserID,
		Bill:   &bill,
	})

	return nil
}

// reconcileBill keeps a paired bill in lock-step with its transaction.
func (s *TransactionService) reconcileBill(tx *gorm.DB, transaction models.Transaction, pending *[]events.Event) error {
	var bill models.Bill
	err := tx.Where("transaction_id = ?", transaction.ID).First(&bill).Error
	if errors.Is(err, models.ErrResourceNotFound) {
		return s.mirrorBillOnCreate(tx, transaction, pending)
	}
	if err != nil {
		return err
	}

	accountID := transaction.AccountID
	bill.Name = transaction.Description
	bill.Amount = transaction.Amount
	bill.DueDate = transaction.Date
	bill.Notes = transaction.Notes
	bill.AccountID = &accountID
	bill.CategoryID = transaction.CategoryID

	switch transaction.Status {
	case models.TransactionStatusCompleted:
		bill.Status = bill.SettledStatus()
		paymentDate := transaction.Date
		bill.PaymentDate = &paymentDate
	case models.TransactionStatusPending:
		bill.Status = models.BillStatusPending
		bill.PaymentDate = nil
	case models.TransactionStatusCancelled:
		// The balance effect was already reversed by the engine.
		bill.Status = models.BillStatusCancelled
	}

	return tx.Save(&bill).Error
}

// autoContribute splits a completed transaction into goal
// contributions for goals whose savings category matches and that have
// an auto contribution percentage configured.
func (s *TransactionService) autoContribute(tx *gorm.DB, transaction models.Transaction, pending *[]events.Event) error {
	if transaction.Status != models.TransactionStatusCompleted || transaction.CategoryID == nil {
		return nil
	}

	var goals []models.Goal
	err := tx.Where("user_id = ? AND status = ? AND savings_category_id = ? AND auto_contribution_percentage IS NOT NULL",
		transaction.UserID, models.GoalStatusActive, *transaction.CategoryID).
		Find(&goals).Error
	if err != nil {
		return err
	}

	for i := range goals {
		goal := &goals[i]
		amount := transaction.Amount.
			Mul(*goal.AutoContributionPercentage).
			Div(decimal.NewFromInt(100)).
			Round(2)
		if !amount.IsPositive() {
			continue
		}

		contribution := models.GoalContribution{
			GoalID:        goal.ID,
			Amount:        amount,
			Date:          transaction.Date,
			TransactionID: &transaction.ID,
		}
		err = tx.Create(&contribution).Error
		if err != nil {
			return err
		}

		goal.CurrentAmount = goal.CurrentAmount.Add(amount)
		if goal.Reached() {
			goal.Status = models.GoalStatusCompleted
		}

		err = tx.Save(goal).Error
		if err != nil {
			return err
		}

		*pending = append(*pending, events.Event{
			Kind:         events.ContributionAdded,
			UserID:       transaction.UserID,
			Goal:         goal,
			Contribution: &contribution,
		})
		if goal.Status == models.GoalStatusCompleted {
			*pending = append(*pending, events.Event{
				Kind:   events.GoalCompleted,
				UserID: transaction.UserID,
				Goal:   goal,
			})
		}
	}

	return nil
}

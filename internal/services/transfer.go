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
)

// TransferService moves money between two accounts atomically by
// creating two mirrored transactions and adjusting both balances in
// one store transaction.
type TransferService struct {
	db     *gorm.DB
	access *access.Evaluator
	bus    *events.Bus
}

// ErrInsufficientBalance is returned when the source account cannot
// cover an immediate transfer.
var ErrInsufficientBalance = fmt.Errorf("%w: the source account balance is insufficient", models.ErrConflict)

// TransferCreate holds the caller-supplied fields for a new transfer.
type TransferCreate struct {
	Amount        decimal.Decimal
	Description   string
	Date          time.Time
	ScheduledDate *time.Time
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	WorkspaceID   *uuid.UUID
}

// Create validates and executes a transfer. A scheduled date in the
// future persists the transfer as pending; the scheduler materializes
// it when the date arrives.
func (s *TransferService) Create(actor models.User, create TransferCreate) (models.Transfer, error) {
	var from, to models.Account
	err := s.db.First(&from, "id = ?", create.FromAccountID).Error
	if err != nil {
		return models.Transfer{}, err
	}
	err = s.db.First(&to, "id = ?", create.ToAccountID).Error
	if err != nil {
		return models.Transfer{}, err
	}

	err = s.access.CanAccess(actor, from.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.Transfer{}, err
	}
	err = s.access.CanAccess(actor, to.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.Transfer{}, err
	}

	transfer := models.Transfer{
		Amount:        create.Amount,
		Description:   create.Description,
		Date:          create.Date,
		ScheduledDate: create.ScheduledDate,
		FromAccountID: create.FromAccountID,
		ToAccountID:   create.ToAccountID,
		UserID:        actor.ID,
		WorkspaceID:   create.WorkspaceID,
	}

	now := time.Now().In(time.UTC)
	if create.ScheduledDate != nil && create.ScheduledDate.After(now) {
		transfer.Status = models.TransferStatusPending
		err = s.db.Create(&transfer).Error
		if err != nil {
			return models.Transfer{}, err
		}
		return transfer, nil
	}

	err = inTransaction(s.db, func(tx *gorm.DB) error {
		// The coverage check happens under the row lock; a concurrent
		// spend between an early check and the execution could
		// otherwise take the source below the transfer amount.
		err := lockAccounts(tx, transfer.FromAccountID, transfer.ToAccountID)
		if err != nil {
			return err
		}

		var source models.Account
		err = tx.First(&source, "id = ?", transfer.FromAccountID).Error
		if err != nil {
			return err
		}
		if source.Balance.LessThan(create.Amount) {
			return ErrInsufficientBalance
		}

		err = tx.Create(&transfer).Error
		if err != nil {
			return err
		}

		return s.execute(tx, &transfer)
	})
	if err != nil {
		return models.Transfer{}, err
	}

	publishAll(s.bus, []events.Event{{
		Kind:     events.TransferCompleted,
		UserID:   actor.ID,
		Transfer: &transfer,
	}})

	return transfer, nil
}

// execute materializes a pending transfer inside the caller's open
// store transaction: both accounts are locked in canonical order, the
// expense and income legs are created and both balances adjusted.
func (s *TransferService) execute(tx *gorm.DB, transfer *models.Transfer) error {
	err := lockAccounts(tx, transfer.FromAccountID, transfer.ToAccountID)
	if err != nil {
		return err
	}

	fromLeg := models.Transaction{
		Description: transferLegDescription(transfer.Description, "sent"),
		Amount:      transfer.Amount,
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusCompleted,
		Date:        transfer.Date,
		UserID:      transfer.UserID,
		AccountID:   transfer.FromAccountID,
		WorkspaceID: transfer.WorkspaceID,
	}
	err = tx.Create(&fromLeg).Error
	if err != nil {
		return err
	}

	toLeg := models.Transaction{
		Description: transferLegDescription(transfer.Description, "received"),
		Amount:      transfer.Amount,
		Type:        models.TransactionTypeIncome,
		Status:      models.TransactionStatusCompleted,
		Date:        transfer.Date,
		UserID:      transfer.UserID,
		AccountID:   transfer.ToAccountID,
		WorkspaceID: transfer.WorkspaceID,
	}
	err = tx.Create(&toLeg).Error
	if err != nil {
		return err
	}

	err = addToBalance(tx, transfer.FromAccountID, transfer.Amount.Neg())
	if err != nil {
		return err
	}
	err = addToBalance(tx, transfer.ToAccountID, transfer.Amount)
	if err != nil {
		return err
	}

	transfer.FromTransactionID = &fromLeg.ID
	transfer.ToTransactionID = &toLeg.ID
	transfer.Status = models.TransferStatusCompleted

	return tx.Save(transfer).Error
}

// ExecutePending materializes a due pending transfer. The scheduler
// calls this when a scheduled date arrives.
func (s *TransferService) ExecutePending(tx *gorm.DB, id uuid.UUID) (models.Transfer, error) {
	var transfer models.Transfer
	err := tx.First(&transfer, "id = ?", id).Error
	if err != nil {
		return models.Transfer{}, err
	}

	if transfer.Status != models.TransferStatusPending {
		return models.Transfer{}, fmt.Errorf("%w: the transfer is not pending", models.ErrPrecondition)
	}

	err = s.execute(tx, &transfer)
	if err != nil {
		return models.Transfer{}, err
	}

	return transfer, nil
}

// DuePendingIDs returns pending transfers whose scheduled date has
// arrived, oldest first.
func (s *TransferService) DuePendingIDs(now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&models.Transfer{}).
		Where("status = ?", models.TransferStatusPending).
		Where("scheduled_date <= ?", now).
		Order("scheduled_date ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ExecuteDue materializes one due pending transfer in its own store
// transaction. Already-executed transfers are skipped silently.
func (s *TransferService) ExecuteDue(id uuid.UUID) (models.Transfer, error) {
	var transfer models.Transfer
	err := inTransaction(s.db, func(tx *gorm.DB) error {
		var err error
		transfer, err = s.ExecutePending(tx, id)
		return err
	})
	if err != nil {
		return models.Transfer{}, err
	}

	publishAll(s.bus, []events.Event{{
		Kind:     events.TransferCompleted,
		UserID:   transfer.UserID,
		Transfer: &transfer,
	}})

	return transfer, nil
}

// Get returns a single transfer the actor may view.
func (s *TransferService) Get(actor models.User, id uuid.UUID) (models.Transfer, error) {
	var transfer models.Transfer
	err := s.db.Preload("FromAccount").First(&transfer, "id = ?", id).Error
	if err != nil {
		return models.Transfer{}, err
	}

	err = s.access.CanAccess(actor, transfer.AccessRef(), access.ActionView)
	if err != nil {
		return models.Transfer{}, err
	}

	return transfer, nil
}

// List returns all transfers visible to the actor.
func (s *TransferService) List(actor models.User) ([]models.Transfer, error) {
	scope, err := s.access.Scope(actor, models.ModuleTransfers)
	if err != nil {
		return nil, err
	}

	var transfers []models.Transfer
	err = scope.ApplyOwned(s.db.Model(&models.Transfer{}), "transfers").
		Order("transfers.date DESC").
		Find(&transfers).Error
	return transfers, err
}

// Cancel reverses a completed transfer: both balances are restored and
// both mirror transactions removed, atomically. A pending transfer is
// simply marked cancelled.
func (s *TransferService) Cancel(actor models.User, id uuid.UUID) (models.Transfer, error) {
	var transfer models.Transfer
	err := s.db.Preload("FromAccount").First(&transfer, "id = ?", id).Error
	if err != nil {
		return models.Transfer{}, err
	}

	err = s.access.CanAccess(actor, transfer.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.Transfer{}, err
	}

	switch transfer.Status {
	case models.TransferStatusPending:
		transfer.Status = models.TransferStatusCancelled
		err = s.db.Save(&transfer).Error
		if err != nil {
			return models.Transfer{}, err
		}
		return transfer, nil

	case models.TransferStatusCompleted:
		// handled below
	default:
		return models.Transfer{}, fmt.Errorf("%w: only pending and completed transfers can be cancelled", models.ErrPrecondition)
	}

	err = inTransaction(s.db, func(tx *gorm.DB) error {
		err := lockAccounts(tx, transfer.FromAccountID, transfer.ToAccountID)
		if err != nil {
			return err
		}

		for _, legID := range []*uuid.UUID{transfer.FromTransactionID, transfer.ToTransactionID} {
			if legID == nil {
				continue
			}

			var leg models.Transaction
			err := tx.First(&leg, "id = ?", *legID).Error
			if err != nil {
				return err
			}

			err = addToBalance(tx, leg.AccountID, leg.SignedDelta().Neg())
			if err != nil {
				return err
			}

			// The mirror legs vanish entirely, they were never
			// user-created history.
			err = tx.Unscoped().Delete(&leg).Error
			if err != nil {
				return err
			}
		}

		transfer.Status = models.TransferStatusCancelled
		transfer.FromTransactionID = nil
		transfer.ToTransactionID = nil

		return tx.Save(&transfer).Error
	})
	if err != nil {
		return models.Transfer{}, err
	}

	publishAll(s.bus, []events.Event{{
		Kind:     events.TransferCancelled,
		UserID:   actor.ID,
		Transfer: &transfer,
	}})

	return transfer, nil
}

func transferLegDescription(description, direction string) string {
	if description == "" {
		return "Transfer " + direction
	}
	return description + " (" + direction + ")"
}

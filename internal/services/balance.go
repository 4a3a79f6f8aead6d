package services

import (
	"sort"

	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The balance engine keeps account.balance equal to initial_balance
// plus the signed sum of all completed transactions referencing the
// account. It is the only code that writes the balance column, always
// inside the caller's open store transaction and always after taking a
// row lock on the account.

// lockAccounts locks the given account rows in canonical ID order so
// concurrent writers on overlapping accounts cannot deadlock.
//
// sqlite has no row locks; its single writer connection serializes
// writes instead, so the locking clause is only added on postgres.
func lockAccounts(tx *gorm.DB, ids ...uuid.UUID) error {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	for _, id := range sorted {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var account models.Account
		err := q.First(&account, "id = ?", id).Error
		if err != nil {
			return err
		}
	}

	return nil
}

// addToBalance applies a delta to a locked account row.
//
// UpdateColumn bypasses the model hooks; the account's own validation
// must not run against the zero-value destination of a column update.
func addToBalance(tx *gorm.DB, accountID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	return tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error
}

// applyOnCreate adds the transaction's signed delta when it is completed.
func applyOnCreate(tx *gorm.DB, t models.Transaction) error {
	if t.Status != models.TransactionStatusCompleted {
		return nil
	}

	err := lockAccounts(tx, t.AccountID)
	if err != nil {
		return err
	}

	return addToBalance(tx, t.AccountID, t.SignedDelta())
}

// applyOnDelete reverses the transaction's signed delta when it was completed.
func applyOnDelete(tx *gorm.DB, t models.Transaction) error {
	if t.Status != models.TransactionStatusCompleted {
		return nil
	}

	err := lockAccounts(tx, t.AccountID)
	if err != nil {
		return err
	}

	return addToBalance(tx, t.AccountID, t.SignedDelta().Neg())
}

// applyOnUpdate reconciles the balance effect of an update that may
// change amount, type, status and account at the same time: the old
// contribution is reversed against the old account, then the new
// contribution is applied against the new account.
func applyOnUpdate(tx *gorm.DB, old, updated models.Transaction) error {
	oldDelta := decimal.Zero
	if old.Status == models.TransactionStatusCompleted {
		oldDelta = old.SignedDelta()
	}

	newDelta := decimal.Zero
	if updated.Status == models.TransactionStatusCompleted {
		newDelta = updated.SignedDelta()
	}

	if old.AccountID == updated.AccountID {
		diff := newDelta.Sub(oldDelta)
		if diff.IsZero() {
			return nil
		}

		err := lockAccounts(tx, old.AccountID)
		if err != nil {
			return err
		}

		return addToBalance(tx, old.AccountID, diff)
	}

	err := lockAccounts(tx, old.AccountID, updated.AccountID)
	if err != nil {
		return err
	}

	err = addToBalance(tx, old.AccountID, oldDelta.Neg())
	if err != nil {
		return err
	}

	return addToBalance(tx, updated.AccountID, newDelta)
}

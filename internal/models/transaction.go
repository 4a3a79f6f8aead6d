package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType describes the direction of a money event.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// ParseTransactionType parses a canonical lower-case transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return TransactionType(s), nil
	}
	return "", ErrInvalidEnumValue
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// ParseTransactionStatus parses a canonical lower-case transaction status.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch TransactionStatus(s) {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusCancelled:
		return TransactionStatus(s), nil
	}
	return "", ErrInvalidEnumValue
}

// Transaction is a realized money event on an account.
type Transaction struct {
	DefaultModel
	Description string
	Amount      decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	Type        TransactionType
	Status      TransactionStatus `gorm:"default:pending;index:idx_transactions_user_date,priority:3"`
	Date        time.Time         `gorm:"index:idx_transactions_user_date,priority:2,sort:desc;index:idx_transactions_account_date,priority:2,sort:desc"`
	Notes       string
	UserID      uuid.UUID `gorm:"index:idx_transactions_user_date,priority:1"`
	User        User      `json:"-"`
	AccountID   uuid.UUID `gorm:"index:idx_transactions_account_date,priority:1"`
	Account     Account   `json:"-"`
	CategoryID  *uuid.UUID
	Category    *Category `json:"-"`
	WorkspaceID *uuid.UUID
	Workspace   *Workspace `json:"-"`
	ReceiptID   *uuid.UUID
}

func (t *Transaction) BeforeSave(tx *gorm.DB) error {
	t.Description = strings.TrimSpace(t.Description)
	t.Notes = strings.TrimSpace(t.Notes)

	if !t.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return err
	}

	if t.Status == "" {
		t.Status = TransactionStatusPending
	}
	if _, err := ParseTransactionStatus(string(t.Status)); err != nil {
		return err
	}

	if t.Date.IsZero() {
		t.Date = time.Now().In(time.UTC)
	} else {
		t.Date = t.Date.In(time.UTC)
	}

	return t.checkCategory(tx)
}

// checkCategory verifies that the category type matches the transaction type.
func (t *Transaction) checkCategory(tx *gorm.DB) error {
	if t.CategoryID == nil {
		return nil
	}

	var category Category
	err := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).First(&category, "id = ?", *t.CategoryID).Error
	if err != nil {
		return err
	}

	if category.Type != CategoryType(t.Type) {
		return ErrCategoryTypeMismatch
	}

	return nil
}

// AfterFind updates the date to use UTC as timezone, not +0000.
func (t *Transaction) AfterFind(tx *gorm.DB) error {
	_ = t.DefaultModel.AfterFind(tx)
	t.Date = t.Date.In(time.UTC)
	return nil
}

// SignedDelta is the contribution of the transaction to its account
// balance when completed: positive for income, negative for expense,
// zero for the abstract transfer type. Transfer legs are stored as
// income and expense transactions, so they carry their own deltas.
func (t Transaction) SignedDelta() decimal.Decimal {
	switch t.Type {
	case TransactionTypeIncome:
		return t.Amount
	case TransactionTypeExpense:
		return t.Amount.Neg()
	}
	return decimal.Zero
}

// TransitionAllowed reports whether a status transition is legal.
// Cancelled is terminal.
func (t Transaction) TransitionAllowed(to TransactionStatus) bool {
	if t.Status == to {
		return true
	}
	return t.Status != TransactionStatusCancelled
}

// AccessRef returns the authorization reference for the transaction.
// The family scope comes from the account, which callers preload.
func (t Transaction) AccessRef() AccessRef {
	owner := t.UserID
	return AccessRef{
		OwnerID:     &owner,
		FamilyID:    t.Account.FamilyID,
		WorkspaceID: t.WorkspaceID,
		Module:      ModuleTransactions,
	}
}

package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountType describes what kind of balance container an account is.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeCash       AccountType = "cash"
	AccountTypeOther      AccountType = "other"
)

// ParseAccountType parses a canonical lower-case account type.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard, AccountTypeCash, AccountTypeOther:
		return AccountType(s), nil
	}
	return "", ErrInvalidEnumValue
}

// Account is a balance-holding container.
//
// The balance always equals the initial balance plus the signed sum of
// all completed transactions referencing the account. The balance
// engine is the only writer of the Balance column.
type Account struct {
	DefaultModel
	Name           string
	Type           AccountType
	Balance        decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	InitialBalance decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	Currency       string          `gorm:"default:BRL"`
	OwnerID        *uuid.UUID      `gorm:"index"`
	Owner          *User           `json:"-"`
	FamilyID       *uuid.UUID      `gorm:"index"`
	Family         *Family         `json:"-"`
	WorkspaceID    *uuid.UUID
	Workspace      *Workspace `json:"-"`
	Active         bool       `gorm:"default:true"`
}

var (
	ErrAccountNameRequired = errors.New("the account name must be set")
	ErrAccountScopeInvalid = errors.New("an account belongs to exactly one of a user or a family")
	ErrAccountCurrency     = errors.New("the account currency must be a 3-letter code")
)

func (a *Account) BeforeSave(_ *gorm.DB) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return ErrAccountNameRequired
	}

	if a.Type == "" {
		a.Type = AccountTypeChecking
	}

	if _, err := ParseAccountType(string(a.Type)); err != nil {
		return err
	}

	if (a.OwnerID == nil) == (a.FamilyID == nil) {
		return ErrAccountScopeInvalid
	}

	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if a.Currency == "" {
		a.Currency = "BRL"
	}
	if len(a.Currency) != 3 {
		return ErrAccountCurrency
	}

	return nil
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	_ = a.DefaultModel.BeforeCreate(tx)

	// A new account starts at its initial balance.
	if a.Balance.IsZero() {
		a.Balance = a.InitialBalance
	}

	return nil
}

// AccessRef returns the authorization reference for the account.
func (a Account) AccessRef() AccessRef {
	return AccessRef{
		OwnerID:     a.OwnerID,
		FamilyID:    a.FamilyID,
		WorkspaceID: a.WorkspaceID,
		Module:      ModuleAccounts,
	}
}

// RecalculatedBalance derives the balance from the initial balance and
// all completed transactions referencing the account. It exists so
// tests and consistency checks can verify the stored balance.
func (a Account) RecalculatedBalance(db *gorm.DB) (decimal.Decimal, error) {
	var rows []Transaction
	err := db.Where(&Transaction{AccountID: a.ID, Status: TransactionStatusCompleted}).Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}

	balance := a.InitialBalance
	for _, t := range rows {
		balance = balance.Add(t.SignedDelta())
	}

	return balance, nil
}

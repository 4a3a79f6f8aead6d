package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
	TransferStatusFailed    TransferStatus = "failed"
)

// ParseTransferStatus parses a canonical lower-case transfer status.
func ParseTransferStatus(s string) (TransferStatus, error) {
	switch TransferStatus(s) {
	case TransferStatusPending, TransferStatusCompleted, TransferStatusCancelled, TransferStatusFailed:
		return TransferStatus(s), nil
	}
	return "", ErrInvalidEnumValue
}

// Transfer is an atomic money movement between two accounts.
//
// A completed transfer references exactly two mirror transactions: an
// expense leg on the source account and an income leg on the
// destination account, both with the transfer's amount and date.
type Transfer struct {
	DefaultModel
	Amount            decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	Status            TransferStatus  `gorm:"default:pending"`
	Date              time.Time
	ScheduledDate     *time.Time
	Description       string
	FromAccountID     uuid.UUID `gorm:"index"`
	FromAccount       Account   `json:"-"`
	ToAccountID       uuid.UUID `gorm:"index"`
	ToAccount         Account   `json:"-"`
	UserID            uuid.UUID
	User              User `json:"-"`
	WorkspaceID       *uuid.UUID
	FromTransactionID *uuid.UUID
	ToTransactionID   *uuid.UUID
}

var ErrTransferSameAccount = errors.New("a transfer needs two different accounts")

func (t *Transfer) BeforeSave(_ *gorm.DB) error {
	if !t.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if t.FromAccountID == t.ToAccountID {
		return ErrTransferSameAccount
	}

	if t.Status == "" {
		t.Status = TransferStatusPending
	}
	if _, err := ParseTransferStatus(string(t.Status)); err != nil {
		return err
	}

	if t.Date.IsZero() {
		t.Date = time.Now().In(time.UTC)
	} else {
		t.Date = t.Date.In(time.UTC)
	}

	return nil
}

// AccessRef returns the authorization reference for the transfer.
func (t Transfer) AccessRef() AccessRef {
	owner := t.UserID
	return AccessRef{
		OwnerID:     &owner,
		FamilyID:    t.FromAccount.FamilyID,
		WorkspaceID: t.WorkspaceID,
		Module:      ModuleTransfers,
	}
}

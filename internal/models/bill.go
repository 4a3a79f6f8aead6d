package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillStatus is the lifecycle state of a bill.
//
// Overdue is accepted for externally imported data only; the engine
// never writes it. A pending bill past its due date is reported as
// overdue at read time.
type BillStatus string

const (
	BillStatusPending   BillStatus = "pending"
	BillStatusPaid      BillStatus = "paid"
	BillStatusReceived  BillStatus = "received"
	BillStatusOverdue   BillStatus = "overdue"
	BillStatusCancelled BillStatus = "cancelled"
)

// ParseBillStatus parses a canonical lower-case bill status.
func ParseBillStatus(s string) (BillStatus, error) {
	switch BillStatus(s) {
	case BillStatusPending, BillStatusPaid, BillStatusReceived, BillStatusOverdue, BillStatusCancelled:
		return BillStatus(s), nil
	}
	return "", ErrInvalidEnumValue
}

// Bill is a payable (type expense) or receivable (type income).
//
// A settled bill pairs one-to-one with a completed transaction via
// TransactionID. The pairing invariants are maintained by the bill and
// transaction services, never by referential cascades.
type Bill struct {
	DefaultModel
	Name              string
	Amount            decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	Type              TransactionType
	DueDate           time.Time `gorm:"index:idx_bills_user_status_due,priority:3"`
	PaymentDate       *time.Time
	Status            BillStatus `gorm:"default:pending;index:idx_bills_user_status_due,priority:2"`
	IsRecurring       bool
	Recurrence        Recurrence `gorm:"default:none"`
	RecurrenceDay     *int
	RecurrenceEndDate *time.Time
	Notes             string
	UserID            uuid.UUID `gorm:"index:idx_bills_user_status_due,priority:1"`
	User              User      `json:"-"`
	AccountID         *uuid.UUID
	Account           *Account `json:"-"`
	CategoryID        *uuid.UUID
	Category          *Category `json:"-"`
	TransactionID     *uuid.UUID
	Transaction       *Transaction `json:"-"`
	WorkspaceID       *uuid.UUID
}

var (
	ErrBillNameRequired    = errors.New("the bill name must be set")
	ErrBillDueDateRequired = errors.New("the bill due date must be set")
	ErrBillRecurrence      = errors.New("recurring bills must have a recurrence other than none")
	ErrBillRecurrenceDay   = errors.New("monthly recurring bills must have a recurrence day")
	ErrBillTypeInvalid     = errors.New("a bill is either a payable (expense) or a receivable (income)")
)

func (b *Bill) BeforeSave(_ *gorm.DB) error {
	b.Name = strings.TrimSpace(b.Name)
	b.Notes = strings.TrimSpace(b.Notes)

	if b.Name == "" {
		return ErrBillNameRequired
	}

	if !b.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if b.Type == "" {
		b.Type = TransactionTypeExpense
	}
	if b.Type != TransactionTypeExpense && b.Type != TransactionTypeIncome {
		return ErrBillTypeInvalid
	}

	if b.DueDate.IsZero() {
		return ErrBillDueDateRequired
	}
	b.DueDate = b.DueDate.In(time.UTC)

	if b.Status == "" {
		b.Status = BillStatusPending
	}
	if _, err := ParseBillStatus(string(b.Status)); err != nil {
		return err
	}

	if b.Recurrence == "" {
		b.Recurrence = RecurrenceNone
	}
	if _, err := ParseRecurrence(string(b.Recurrence)); err != nil {
		return err
	}

	if b.IsRecurring {
		if b.Recurrence == RecurrenceNone {
			return ErrBillRecurrence
		}
		if b.Recurrence == RecurrenceMonthly && b.RecurrenceDay == nil {
			return ErrBillRecurrenceDay
		}
	}

	return nil
}

// Overdue reports whether the bill is overdue at the given time.
// Overdue is derived, never stored.
func (b Bill) Overdue(now time.Time) bool {
	return b.Status == BillStatusPending && b.DueDate.Before(now)
}

// SettledStatus is the status a bill of this type gets when settled.
func (b Bill) SettledStatus() BillStatus {
	if b.Type == TransactionTypeIncome {
		return BillStatusReceived
	}
	return BillStatusPaid
}

// NextOccurrence computes the due date of the next bill in a recurring
// series, or false when the series ends.
func (b Bill) NextOccurrence() (time.Time, bool) {
	if !b.IsRecurring || b.Recurrence == RecurrenceNone {
		return time.Time{}, false
	}

	next := b.Recurrence.NextDate(b.DueDate, b.RecurrenceDay)
	if b.RecurrenceEndDate != nil && next.After(*b.RecurrenceEndDate) {
		return time.Time{}, false
	}

	return next, true
}

// AccessRef returns the authorization reference for the bill.
func (b Bill) AccessRef() AccessRef {
	owner := b.UserID
	var familyID *uuid.UUID
	if b.Account != nil {
		familyID = b.Account.FamilyID
	}

	return AccessRef{
		OwnerID:     &owner,
		FamilyID:    familyID,
		WorkspaceID: b.WorkspaceID,
		Module:      ModuleBills,
	}
}

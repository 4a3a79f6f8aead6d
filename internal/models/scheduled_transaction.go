package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ScheduleStatus is the lifecycle state of a scheduled transaction.
type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusPaused    ScheduleStatus = "paused"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

// ParseScheduleStatus parses a canonical lower-case schedule status.
func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	switch ScheduleStatus(s) {
	case ScheduleStatusActive, ScheduleStatusPaused, ScheduleStatusCompleted, ScheduleStatusCancelled:
		return ScheduleStatus(s), nil
	}
	return "", ErrInvalidEnumValue
}

// ScheduledTransaction is a recurrence rule that the scheduler
// materializes into transactions as due dates arrive.
//
// NextExecutionDate is monotonically non-decreasing across successful
// executions; the scheduler is the only writer of the cursor fields.
type ScheduledTransaction struct {
	DefaultModel
	Description       string
	Amount            decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	Type              TransactionType
	Status            ScheduleStatus `gorm:"default:active;index:idx_scheduled_status_next,priority:1"`
	StartDate         time.Time
	EndDate           *time.Time
	NextExecutionDate time.Time  `gorm:"index:idx_scheduled_status_next,priority:2"`
	Recurrence        Recurrence `gorm:"default:none"`
	RecurrenceDay     *int
	RecurrenceWeekday *int // advisory, for display only
	ExecutionCount    int
	MaxExecutions     *int
	LastExecutionDate *time.Time
	AutoExecute       bool
	UserID            uuid.UUID `gorm:"index"`
	User              User      `json:"-"`
	AccountID         uuid.UUID
	Account           Account `json:"-"`
	CategoryID        *uuid.UUID
	Category          *Category `json:"-"`
	WorkspaceID       *uuid.UUID
}

var (
	ErrScheduleDescriptionRequired = errors.New("the scheduled transaction description must be set")
	ErrScheduleStartDateRequired   = errors.New("the scheduled transaction start date must be set")
	ErrScheduleNotActive           = errors.New("the scheduled transaction is not active")
)

func (s *ScheduledTransaction) BeforeSave(_ *gorm.DB) error {
	s.Description = strings.TrimSpace(s.Description)
	if s.Description == "" {
		return ErrScheduleDescriptionRequired
	}

	if !s.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if _, err := ParseTransactionType(string(s.Type)); err != nil {
		return err
	}

	if s.Status == "" {
		s.Status = ScheduleStatusActive
	}
	if _, err := ParseScheduleStatus(string(s.Status)); err != nil {
		return err
	}

	if s.Recurrence == "" {
		s.Recurrence = RecurrenceNone
	}
	if _, err := ParseRecurrence(string(s.Recurrence)); err != nil {
		return err
	}

	if s.StartDate.IsZero() {
		return ErrScheduleStartDateRequired
	}
	s.StartDate = s.StartDate.In(time.UTC)

	if s.NextExecutionDate.IsZero() {
		s.NextExecutionDate = s.StartDate
	}
	s.NextExecutionDate = s.NextExecutionDate.In(time.UTC)

	return nil
}

// Advance moves the cursor after a successful execution and reports
// whether the schedule is terminated.
//
// Terminal conditions: the execution count reached the maximum, the
// next date passed the end date, or the recurrence is none after the
// first execution.
func (s *ScheduledTransaction) Advance(executedAt time.Time) (terminated bool) {
	s.ExecutionCount++
	executed := s.NextExecutionDate
	s.LastExecutionDate = &executed

	if s.Recurrence == RecurrenceNone {
		s.Status = ScheduleStatusCompleted
		return true
	}

	next := s.Recurrence.NextDate(s.NextExecutionDate, s.RecurrenceDay)
	s.NextExecutionDate = next

	if s.MaxExecutions != nil && s.ExecutionCount >= *s.MaxExecutions {
		s.Status = ScheduleStatusCompleted
		return true
	}

	if s.EndDate != nil && next.After(*s.EndDate) {
		s.Status = ScheduleStatusCompleted
		return true
	}

	return false
}

// AccessRef returns the authorization reference for the schedule.
func (s ScheduledTransaction) AccessRef() AccessRef {
	owner := s.UserID
	return AccessRef{
		OwnerID:     &owner,
		WorkspaceID: s.WorkspaceID,
		Module:      ModuleTransactions,
	}
}

// ExecutionStatus is the outcome of a materialization attempt.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// TransactionExecution is the audit row for one materialization attempt
// of a scheduled transaction.
type TransactionExecution struct {
	DefaultModel
	ScheduledTransactionID uuid.UUID            `gorm:"index"`
	ScheduledTransaction   ScheduledTransaction `json:"-"`
	TransactionID          *uuid.UUID
	ExecutionDate          time.Time
	Status                 ExecutionStatus
	ErrorMessage           string
}

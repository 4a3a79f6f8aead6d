package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalType describes what a savings goal is for.
type GoalType string

const (
	GoalTypeHouse      GoalType = "house"
	GoalTypeCar        GoalType = "car"
	GoalTypeTrip       GoalType = "trip"
	GoalTypeWedding    GoalType = "wedding"
	GoalTypeEducation  GoalType = "education"
	GoalTypeEmergency  GoalType = "emergency"
	GoalTypeRetirement GoalType = "retirement"
	GoalTypeOther      GoalType = "other"
)

// ParseGoalType parses a canonical lower-case goal type.
func ParseGoalType(s string) (GoalType, error) {
	switch GoalType(s) {
	case GoalTypeHouse, GoalTypeCar, GoalTypeTrip, GoalTypeWedding, GoalTypeEducation, GoalTypeEmergency, GoalTypeRetirement, GoalTypeOther:
		return GoalType(s), nil
	}
	return "", ErrInvalidEnumValue
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusCancelled GoalStatus = "cancelled"
)

// ParseGoalStatus parses a canonical lower-case goal status.
func ParseGoalStatus(s string) (GoalStatus, error) {
	switch GoalStatus(s) {
	case GoalStatusActive, GoalStatusPaused, GoalStatusCompleted, GoalStatusCancelled:
		return GoalStatus(s), nil
	}
	return "", ErrInvalidEnumValue
}

// Goal is a savings target accumulated from explicit contributions.
// CurrentAmount always equals the sum of the goal's contributions.
type Goal struct {
	DefaultModel
	Name                       string
	Type                       GoalType
	TargetAmount               decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	CurrentAmount              decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	TargetDate                 *time.Time
	Status                     GoalStatus `gorm:"default:active"`
	UserID                     uuid.UUID  `gorm:"index"`
	User                       User       `json:"-"`
	SavingsCategoryID          *uuid.UUID
	SavingsCategory            *Category `json:"-"`
	AutoContributionPercentage *decimal.Decimal `gorm:"type:DECIMAL(5,2)"`
}

var (
	ErrGoalNameRequired      = errors.New("the goal name must be set")
	ErrGoalTargetNotPositive = errors.New("the goal target amount must be larger than zero")
	ErrGoalNotActive         = errors.New("contributions are only allowed on active goals")
	ErrGoalPercentage        = errors.New("the auto contribution percentage must be between 0 and 100")
)

func (g *Goal) BeforeSave(_ *gorm.DB) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return ErrGoalNameRequired
	}

	if g.Type == "" {
		g.Type = GoalTypeOther
	}
	if _, err := ParseGoalType(string(g.Type)); err != nil {
		return err
	}

	if !g.TargetAmount.IsPositive() {
		return ErrGoalTargetNotPositive
	}

	if g.Status == "" {
		g.Status = GoalStatusActive
	}
	if _, err := ParseGoalStatus(string(g.Status)); err != nil {
		return err
	}

	if g.AutoContributionPercentage != nil {
		p := *g.AutoContributionPercentage
		if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
			return ErrGoalPercentage
		}
	}

	return nil
}

// Reached reports whether the goal target has been reached.
func (g Goal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// SuggestedMonthlyContribution is (target - current) / months remaining
// until the target date, or zero without a target date.
func (g Goal) SuggestedMonthlyContribution(now time.Time) decimal.Decimal {
	if g.TargetDate == nil || !g.TargetDate.After(now) {
		return decimal.Zero
	}

	months := int64(g.TargetDate.Year()-now.Year())*12 + int64(g.TargetDate.Month()-now.Month())
	if months < 1 {
		months = 1
	}

	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if !remaining.IsPositive() {
		return decimal.Zero
	}

	return remaining.DivRound(decimal.NewFromInt(months), 2)
}

// AccessRef returns the authorization reference for the goal.
func (g Goal) AccessRef() AccessRef {
	owner := g.UserID
	return AccessRef{
		OwnerID: &owner,
		Module:  ModuleGoals,
	}
}

// GoalContribution is a single payment into a goal. Contributions are
// immutable after creation; deleting one subtracts its amount again.
type GoalContribution struct {
	DefaultModel
	GoalID        uuid.UUID `gorm:"index"`
	Goal          Goal      `json:"-"`
	Amount        decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	Date          time.Time
	Notes         string
	TransactionID *uuid.UUID
	Transaction   *Transaction `json:"-"`
}

func (c *GoalContribution) BeforeSave(_ *gorm.DB) error {
	if !c.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if c.Date.IsZero() {
		c.Date = time.Now().In(time.UTC)
	} else {
		c.Date = c.Date.In(time.UTC)
	}

	return nil
}

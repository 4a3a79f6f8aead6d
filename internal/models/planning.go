package models

import (
	"errors"
	"time"

	"github.com/cofrinho/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlanningType selects which detail table holds a planning's periods.
type PlanningType string

const (
	PlanningTypeMonthly PlanningType = "monthly"
	PlanningTypeWeekly  PlanningType = "weekly"
	PlanningTypeDaily   PlanningType = "daily"
	PlanningTypeAnnual  PlanningType = "annual"
)

// ParsePlanningType parses a canonical lower-case planning type.
func ParsePlanningType(s string) (PlanningType, error) {
	switch PlanningType(s) {
	case PlanningTypeMonthly, PlanningTypeWeekly, PlanningTypeDaily, PlanningTypeAnnual:
		return PlanningType(s), nil
	}
	return "", ErrInvalidEnumValue
}

// Planning is a budget expectation, optionally scoped to a category.
// A planning with a nil category represents planned income for the
// period.
type Planning struct {
	DefaultModel
	Name        string
	Type        PlanningType `gorm:"default:monthly"`
	UserID      uuid.UUID    `gorm:"index"`
	User        User         `json:"-"`
	CategoryID  *uuid.UUID
	Category    *Category `json:"-"`
	WorkspaceID *uuid.UUID
	Active      bool `gorm:"default:true"`
}

var ErrPlanningTypeInvalid = errors.New("the planning type is not valid")

func (p *Planning) BeforeSave(_ *gorm.DB) error {
	if p.Type == "" {
		p.Type = PlanningTypeMonthly
	}

	if _, err := ParsePlanningType(string(p.Type)); err != nil {
		return ErrPlanningTypeInvalid
	}

	return nil
}

// AccessRef returns the authorization reference for the planning.
func (p Planning) AccessRef() AccessRef {
	owner := p.UserID
	return AccessRef{
		OwnerID:     &owner,
		WorkspaceID: p.WorkspaceID,
		Module:      ModulePlanning,
	}
}

// MonthlyPlanning is the per-month detail row of a monthly planning.
// ActualAmount is derived from completed transactions in the month and
// recomputed on every write that could affect it.
type MonthlyPlanning struct {
	Timestamps
	PlanningID   uuid.UUID   `gorm:"primaryKey"`
	Month        types.Month `gorm:"primaryKey"`
	TargetAmount decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	ActualAmount decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
}

// WeeklyPlanning is the per-week detail row of a weekly planning.
type WeeklyPlanning struct {
	Timestamps
	PlanningID   uuid.UUID `gorm:"primaryKey"`
	Year         int       `gorm:"primaryKey"`
	Week         int       `gorm:"primaryKey"`
	TargetAmount decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	ActualAmount decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
}

// DailyPlanning is the per-day detail row of a daily planning.
type DailyPlanning struct {
	Timestamps
	PlanningID   uuid.UUID `gorm:"primaryKey"`
	Date         time.Time `gorm:"primaryKey;type:date"`
	TargetAmount decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	ActualAmount decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
}

// AnnualPlanning is the per-year detail row of an annual planning.
type AnnualPlanning struct {
	Timestamps
	PlanningID   uuid.UUID `gorm:"primaryKey"`
	Year         int       `gorm:"primaryKey"`
	TargetAmount decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	ActualAmount decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
}

// QuarterlyGoal is a quarterly milestone attached to an annual planning.
type QuarterlyGoal struct {
	Timestamps
	PlanningID   uuid.UUID `gorm:"primaryKey"`
	Year         int       `gorm:"primaryKey"`
	Quarter      int       `gorm:"primaryKey"`
	TargetAmount decimal.Decimal `gorm:"type:DECIMAL(15,2)"`
	Achieved     bool
}

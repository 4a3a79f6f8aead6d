package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventType describes what a calendar event represents.
//
// Events of the financial types (transaction, bill, goal,
// goal_contribution) are projections: they exist iff the underlying
// entity exists and is not cancelled.
type EventType string

const (
	EventTypeTransaction      EventType = "transaction"
	EventTypeBill             EventType = "bill"
	EventTypeGoal             EventType = "goal"
	EventTypeGoalContribution EventType = "goal_contribution"
	EventTypeTravel           EventType = "travel"
	EventTypeBirthday         EventType = "birthday"
	EventTypeImportantEvent   EventType = "important_event"
	EventTypeReminder         EventType = "reminder"
	EventTypeCustom           EventType = "custom"
)

// ParseEventType parses a canonical lower-case event type.
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventTypeTransaction, EventTypeBill, EventTypeGoal, EventTypeGoalContribution,
		EventTypeTravel, EventTypeBirthday, EventTypeImportantEvent, EventTypeReminder, EventTypeCustom:
		return EventType(s), nil
	}
	return "", ErrInvalidEnumValue
}

// CalendarEvent is a projection-only calendar entry.
type CalendarEvent struct {
	DefaultModel
	Type          EventType
	Title         string
	StartDate     time.Time `gorm:"index:idx_calendar_events_user_start,priority:2"`
	EndDate       *time.Time
	AllDay        bool
	UserID        uuid.UUID `gorm:"index:idx_calendar_events_user_start,priority:1"`
	User          User      `json:"-"`
	CreatedByID   uuid.UUID
	WorkspaceID   *uuid.UUID
	FamilyID      *uuid.UUID
	TransactionID *uuid.UUID `gorm:"index"`
	BillID        *uuid.UUID `gorm:"index"`
	GoalID        *uuid.UUID `gorm:"index"`
	ContributionID *uuid.UUID `gorm:"index"`
	Color         string
	Icon          string
	Location      string
	IsShared      bool
	IsPublic      bool
}

var ErrEventTitleRequired = errors.New("the event title must be set")

func (e *CalendarEvent) BeforeSave(_ *gorm.DB) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return ErrEventTitleRequired
	}

	if e.Type == "" {
		e.Type = EventTypeCustom
	}
	if _, err := ParseEventType(string(e.Type)); err != nil {
		return err
	}

	e.StartDate = e.StartDate.In(time.UTC)
	return nil
}

// AccessRef returns the authorization reference for the event.
func (e CalendarEvent) AccessRef() AccessRef {
	owner := e.UserID
	return AccessRef{
		OwnerID:     &owner,
		FamilyID:    e.FamilyID,
		WorkspaceID: e.WorkspaceID,
		Module:      ModuleCalendar,
	}
}

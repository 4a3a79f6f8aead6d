package calendar

import (
	"fmt"
	"time"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service offers CRUD on personal calendar events and the range query.
// Financial projections are read-only here; they are owned by the
// projector.
type Service struct {
	db        *gorm.DB
	access    *access.Evaluator
	projector *Projector
}

// NewService returns a calendar service over the database.
func NewService(db *gorm.DB, evaluator *access.Evaluator, projector *Projector) *Service {
	return &Service{db: db, access: evaluator, projector: projector}
}

// financialTypes are projection-only; users cannot create or edit them.
var financialTypes = map[models.EventType]bool{
	models.EventTypeTransaction:      true,
	models.EventTypeBill:             true,
	models.EventTypeGoal:             true,
	models.EventTypeGoalContribution: true,
}

// EventCreate holds the caller-supplied fields for a personal event.
type EventCreate struct {
	Type      models.EventType
	Title     string
	StartDate time.Time
	EndDate   *time.Time
	AllDay    bool
	Color     string
	Icon      string
	Location  string
	IsShared  bool
}

// Create persists a personal event.
func (s *Service) Create(actor models.User, create EventCreate) (models.CalendarEvent, error) {
	if financialTypes[create.Type] {
		return models.CalendarEvent{}, fmt.Errorf("%w: financial events are projected, not created", models.ErrPrecondition)
	}

	event := models.CalendarEvent{
		Type:        create.Type,
		Title:       create.Title,
		StartDate:   create.StartDate,
		EndDate:     create.EndDate,
		AllDay:      create.AllDay,
		UserID:      actor.ID,
		CreatedByID: actor.ID,
		Color:       create.Color,
		Icon:        create.Icon,
		Location:    create.Location,
		IsShared:    create.IsShared,
	}

	err := s.db.Create(&event).Error
	if err != nil {
		return models.CalendarEvent{}, err
	}

	return event, nil
}

// Get returns a single event the actor may view.
func (s *Service) Get(actor models.User, id uuid.UUID) (models.CalendarEvent, error) {
	var event models.CalendarEvent
	err := s.db.First(&event, "id = ?", id).Error
	if err != nil {
		return models.CalendarEvent{}, err
	}

	err = s.access.CanAccess(actor, event.AccessRef(), access.ActionView)
	if err != nil {
		return models.CalendarEvent{}, err
	}

	return event, nil
}

// Range lists the actor's events in [from, until), soonest first.
func (s *Service) Range(actor models.User, from, until time.Time) ([]models.CalendarEvent, error) {
	scope, err := s.access.Scope(actor, models.ModuleCalendar)
	if err != nil {
		return nil, err
	}

	var list []models.CalendarEvent
	err = scope.ApplyOwned(s.db.Model(&models.CalendarEvent{}), "calendar_events").
		Where("calendar_events.start_date >= ? AND calendar_events.start_date < ?", from, until).
		Order("calendar_events.start_date ASC").
		Find(&list).Error
	return list, err
}

// EventUpdate holds a partial update; nil fields stay unchanged.
type EventUpdate struct {
	Title     *string
	StartDate *time.Time
	EndDate   *time.Time
	AllDay    *bool
	Color     *string
	Icon      *string
	Location  *string
	IsShared  *bool
}

// Update modifies a personal event. Projections are immutable.
func (s *Service) Update(actor models.User, id uuid.UUID, update EventUpdate) (models.CalendarEvent, error) {
	var event models.CalendarEvent
	err := s.db.First(&event, "id = ?", id).Error
	if err != nil {
		return models.CalendarEvent{}, err
	}

	err = s.access.CanAccess(actor, event.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.CalendarEvent{}, err
	}

	if financialTypes[event.Type] {
		return models.CalendarEvent{}, fmt.Errorf("%w: financial events are projected, not edited", models.ErrPrecondition)
	}

	if update.Title != nil {
		event.Title = *update.Title
	}
	if update.StartDate != nil {
		event.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		event.EndDate = update.EndDate
	}
	if update.AllDay != nil {
		event.AllDay = *update.AllDay
	}
	if update.Color != nil {
		event.Color = *update.Color
	}
	if update.Icon != nil {
		event.Icon = *update.Icon
	}
	if update.Location != nil {
		event.Location = *update.Location
	}
	if update.IsShared != nil {
		event.IsShared = *update.IsShared
	}

	err = s.db.Save(&event).Error
	if err != nil {
		return models.CalendarEvent{}, err
	}

	return event, nil
}

// Delete removes a personal event.
func (s *Service) Delete(actor models.User, id uuid.UUID) error {
	var event models.CalendarEvent
	err := s.db.First(&event, "id = ?", id).Error
	if err != nil {
		return err
	}

	err = s.access.CanAccess(actor, event.AccessRef(), access.ActionDelete)
	if err != nil {
		return err
	}

	if financialTypes[event.Type] {
		return fmt.Errorf("%w: financial events are projected, not deleted", models.ErrPrecondition)
	}

	return s.db.Delete(&event).Error
}

// SyncFinancialEvents backfills missing projections for the actor,
// typically after a bulk import.
func (s *Service) SyncFinancialEvents(actor models.User) error {
	return s.projector.Sync(actor.ID)
}

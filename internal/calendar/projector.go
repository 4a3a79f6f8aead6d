// Package calendar mirrors financial entities into calendar events and
// offers CRUD on personal events.
package calendar

import (
	"errors"

	"github.com/cofrinho/backend/internal/events"
	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Projection colors per entity state.
const (
	colorIncome       = "#4CAF50"
	colorExpense      = "#F44336"
	colorBillPending  = "#FF9800"
	colorBillSettled  = "#4CAF50"
	colorGoal         = "#3F51B5"
	colorContribution = "#009688"
)

// Projector consumes committed domain events and keeps the calendar in
// sync. Projections are advisory: every failure is logged and dropped.
type Projector struct {
	db *gorm.DB
}

// NewProjector returns a projector over the database.
func NewProjector(db *gorm.DB) *Projector {
	return &Projector{db: db}
}

// Name implements events.Handler.
func (p *Projector) Name() string {
	return "calendar"
}

// Handle implements events.Handler.
func (p *Projector) Handle(event events.Event) {
	var err error

	switch event.Kind {
	case events.TransactionCreated, events.ScheduleExecuted:
		err = p.projectTransaction(event.Transaction)
	case events.TransactionUpdated:
		err = p.reprojectTransaction(event.Transaction)
	case events.TransactionDeleted:
		err = p.dropBy(p.db.Where("transaction_id = ?", event.Transaction.ID))
	case events.BillCreated:
		err = p.projectBill(event.Bill)
	case events.BillPaid:
		err = p.recolorBill(event.Bill)
	case events.BillCancelled:
		err = p.dropBy(p.db.Where("bill_id = ?", event.Bill.ID))
	case events.GoalCreated:
		err = p.projectGoal(event.Goal)
	case events.GoalCancelled:
		// A cancelled goal takes its contribution events with it; the
		// contribution rows stay as history but are no longer projected.
		err = p.dropBy(p.db.Where("goal_id = ?", event.Goal.ID))
	case events.ContributionAdded:
		err = p.projectContribution(event.Goal, event.Contribution)
	case events.ContributionDeleted:
		err = p.dropBy(p.db.Where("contribution_id = ?", event.Contribution.ID))
	}

	if err != nil {
		log.Err(err).Str("kind", string(event.Kind)).Msg("calendar projection failed")
	}
}

// projectTransaction inserts the event for a completed transaction.
// Existing projections are left alone so replays stay idempotent.
func (p *Projector) projectTransaction(transaction *models.Transaction) error {
	if transaction == nil || transaction.Status != models.TransactionStatusCompleted {
		return nil
	}

	exists, err := p.exists("transaction_id", transaction.ID)
	if err != nil || exists {
		return err
	}

	color := colorExpense
	if transaction.Type == models.TransactionTypeIncome {
		color = colorIncome
	}

	event := models.CalendarEvent{
		Type:          models.EventTypeTransaction,
		Title:         transaction.Description,
		StartDate:     transaction.Date,
		AllDay:        true,
		UserID:        transaction.UserID,
		CreatedByID:   transaction.UserID,
		WorkspaceID:   transaction.WorkspaceID,
		TransactionID: &transaction.ID,
		Color:         color,
	}
	return p.db.Create(&event).Error
}

// reprojectTransaction syncs the event with an updated transaction:
// cancelled transactions lose their event, completed ones get their
// title and date refreshed or their event created.
func (p *Projector) reprojectTransaction(transaction *models.Transaction) error {
	if transaction == nil {
		return nil
	}

	if transaction.Status == models.TransactionStatusCancelled {
		return p.dropBy(p.db.Where("transaction_id = ?", transaction.ID))
	}

	var event models.CalendarEvent
	err := p.db.First(&event, "transaction_id = ?", transaction.ID).Error
	if errors.Is(err, models.ErrResourceNotFound) {
		return p.projectTransaction(transaction)
	}
	if err != nil {
		return err
	}

	event.Title = transaction.Description
	event.StartDate = transaction.Date
	return p.db.Save(&event).Error
}

// projectBill inserts the event for a bill on its due date.
func (p *Projector) projectBill(bill *models.Bill) error {
	if bill == nil || bill.Status == models.BillStatusCancelled {
		return nil
	}

	exists, err := p.exists("bill_id", bill.ID)
	if err != nil || exists {
		return err
	}

	color := colorBillPending
	if bill.SettledStatus() == bill.Status {
		color = colorBillSettled
	}

	event := models.CalendarEvent{
		Type:        models.EventTypeBill,
		Title:       bill.Name,
		StartDate:   bill.DueDate,
		AllDay:      true,
		UserID:      bill.UserID,
		CreatedByID: bill.UserID,
		WorkspaceID: bill.WorkspaceID,
		BillID:      &bill.ID,
		Color:       color,
	}
	return p.db.Create(&event).Error
}

// recolorBill keeps the title and date of a settled bill's event and
// only flips the color.
func (p *Projector) recolorBill(bill *models.Bill) error {
	if bill == nil {
		return nil
	}

	var event models.CalendarEvent
	err := p.db.First(&event, "bill_id = ?", bill.ID).Error
	if errors.Is(err, models.ErrResourceNotFound) {
		return p.projectBill(bill)
	}
	if err != nil {
		return err
	}

	event.Color = colorBillSettled
	return p.db.Save(&event).Error
}

// projectGoal inserts the event for a goal with a target date.
func (p *Projector) projectGoal(goal *models.Goal) error {
	if goal == nil || goal.TargetDate == nil {
		return nil
	}

	exists, err := p.exists("goal_id", goal.ID)
	if err != nil || exists {
		return err
	}

	event := models.CalendarEvent{
		Type:        models.EventTypeGoal,
		Title:       goal.Name,
		StartDate:   *goal.TargetDate,
		AllDay:      true,
		UserID:      goal.UserID,
		CreatedByID: goal.UserID,
		GoalID:      &goal.ID,
		Color:       colorGoal,
	}
	return p.db.Create(&event).Error
}

// projectContribution inserts the event for a goal contribution.
func (p *Projector) projectContribution(goal *models.Goal, contribution *models.GoalContribution) error {
	if goal == nil || contribution == nil {
		return nil
	}

	exists, err := p.exists("contribution_id", contribution.ID)
	if err != nil || exists {
		return err
	}

	event := models.CalendarEvent{
		Type:           models.EventTypeGoalContribution,
		Title:          goal.Name,
		StartDate:      contribution.Date,
		AllDay:         true,
		UserID:         goal.UserID,
		CreatedByID:    goal.UserID,
		GoalID:         &goal.ID,
		ContributionID: &contribution.ID,
		Color:          colorContribution,
	}
	return p.db.Create(&event).Error
}

func (p *Projector) exists(column string, id uuid.UUID) (bool, error) {
	var count int64
	err := p.db.Model(&models.CalendarEvent{}).
		Where(column+" = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (p *Projector) dropBy(q *gorm.DB) error {
	return q.Delete(&models.CalendarEvent{}).Error
}

// Sync walks the user's current transactions, bills, goals and
// contributions and creates any missing events. It is idempotent:
// running it twice with no other writes changes nothing.
func (p *Projector) Sync(userID uuid.UUID) error {
	var transactions []models.Transaction
	err := p.db.
		Where("user_id = ? AND status = ?", userID, models.TransactionStatusCompleted).
		Find(&transactions).Error
	if err != nil {
		return err
	}
	for i := range transactions {
		if err := p.projectTransaction(&transactions[i]); err != nil {
			return err
		}
	}

	var bills []models.Bill
	err = p.db.
		Where("user_id = ? AND status <> ?", userID, models.BillStatusCancelled).
		Find(&bills).Error
	if err != nil {
		return err
	}
	for i := range bills {
		if err := p.projectBill(&bills[i]); err != nil {
			return err
		}
	}

	var goals []models.Goal
	err = p.db.
		Where("user_id = ?", userID).
		Where("target_date IS NOT NULL").
		Find(&goals).Error
	if err != nil {
		return err
	}
	for i := range goals {
		if err := p.projectGoal(&goals[i]); err != nil {
			return err
		}

		var contributions []models.GoalContribution
		err = p.db.Where("goal_id = ?", goals[i].ID).Find(&contributions).Error
		if err != nil {
			return err
		}
		for j := range contributions {
			if err := p.projectContribution(&goals[i], &contributions[j]); err != nil {
				return err
			}
		}
	}

	return nil
}

package services

import (
	"fmt"
	"time"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/events"
	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalService owns savings goals and their contributions. The goal's
// current amount is maintained alongside the contribution rows in the
// same store transaction so the two can never diverge.
type GoalService struct {
	db     *gorm.DB
	access *access.Evaluator
	bus    *events.Bus
}

// GoalCreate holds the caller-supplied fields for a new goal.
type GoalCreate struct {
	Name                       string
	Type                       models.GoalType
	TargetAmount               decimal.Decimal
	TargetDate                 *time.Time
	SavingsCategoryID          *uuid.UUID
	AutoContributionPercentage *decimal.Decimal
}

// Create validates and persists a new goal.
func (s *GoalService) Create(actor models.User, create GoalCreate) (models.Goal, error) {
	goal := models.Goal{
		Name:                       create.Name,
		Type:                       create.Type,
		TargetAmount:               create.TargetAmount,
		TargetDate:                 create.TargetDate,
		Status:                     models.GoalStatusActive,
		UserID:                     actor.ID,
		SavingsCategoryID:          create.SavingsCategoryID,
		AutoContributionPercentage: create.AutoContributionPercentage,
	}

	err := s.db.Create(&goal).Error
	if err != nil {
		return models.Goal{}, err
	}

	publishAll(s.bus, []events.Event{{
		Kind:   events.GoalCreated,
		UserID: actor.ID,
		Goal:   &goal,
	}})

	return goal, nil
}

// Get returns a single goal the actor may view.
func (s *GoalService) Get(actor models.User, id uuid.UUID) (models.Goal, error) {
	var goal models.Goal
	err := s.db.First(&goal, "id = ?", id).Error
	if err != nil {
		return models.Goal{}, err
	}

	err = s.access.CanAccess(actor, goal.AccessRef(), access.ActionView)
	if err != nil {
		return models.Goal{}, err
	}

	return goal, nil
}

// List returns all goals visible to the actor, optionally filtered by status.
func (s *GoalService) List(actor models.User, status models.GoalStatus) ([]models.Goal, error) {
	scope, err := s.access.Scope(actor, models.ModuleGoals)
	if err != nil {
		return nil, err
	}

	q := scope.ApplyOwned(s.db.Model(&models.Goal{}), "goals")
	if status != "" {
		q = q.Where("goals.status = ?", status)
	}

	var goals []models.Goal
	err = q.Order("goals.created_at ASC").Find(&goals).Error
	return goals, err
}

// GoalUpdate holds a partial update; nil fields stay unchanged.
type GoalUpdate struct {
	Name                       *string
	Type                       *models.GoalType
	TargetAmount               *decimal.Decimal
	TargetDate                 *time.Time
	Status                     *models.GoalStatus
	SavingsCategoryID          *uuid.UUID
	AutoContributionPercentage *decimal.Decimal
}

// Update modifies a goal. Raising the target of a completed goal
// reopens it; lowering the target below the current amount completes it.
func (s *GoalService) Update(actor models.User, id uuid.UUID, update GoalUpdate) (models.Goal, error) {
	var goal models.Goal
	err := s.db.First(&goal, "id = ?", id).Error
	if err != nil {
		return models.Goal{}, err
	}

	err = s.access.CanAccess(actor, goal.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.Goal{}, err
	}

	if update.Name != nil {
		goal.Name = *update.Name
	}
	if update.Type != nil {
		goal.Type = *update.Type
	}
	if update.TargetAmount != nil {
		goal.TargetAmount = *update.TargetAmount
	}
	if update.TargetDate != nil {
		goal.TargetDate = update.TargetDate
	}
	if update.Status != nil {
		goal.Status = *update.Status
	}
	if update.SavingsCategoryID != nil {
		goal.SavingsCategoryID = update.SavingsCategoryID
	}
	if update.AutoContributionPercentage != nil {
		goal.AutoContributionPercentage = update.AutoContributionPercentage
	}

	if update.TargetAmount != nil && update.Status == nil {
		switch {
		case goal.Status == models.GoalStatusCompleted && !goal.Reached():
			goal.Status = models.GoalStatusActive
		case goal.Status == models.GoalStatusActive && goal.Reached():
			goal.Status = models.GoalStatusCompleted
		}
	}

	err = s.db.Save(&goal).Error
	if err != nil {
		return models.Goal{}, err
	}

	return goal, nil
}

// Delete cancels a goal and soft-deletes it. Contributions stay as
// history; the transactions behind them are untouched.
func (s *GoalService) Delete(actor models.User, id uuid.UUID) error {
	var goal models.Goal
	err := s.db.First(&goal, "id = ?", id).Error
	if err != nil {
		return err
	}

	err = s.access.CanAccess(actor, goal.AccessRef(), access.ActionDelete)
	if err != nil {
		return err
	}

	err = inTransaction(s.db, func(tx *gorm.DB) error {
		goal.Status = models.GoalStatusCancelled
		err := tx.Save(&goal).Error
		if err != nil {
			return err
		}

		return tx.Delete(&goal).Error
	})
	if err != nil {
		return err
	}

	publishAll(s.bus, []events.Event{{
		Kind:   events.GoalCancelled,
		UserID: actor.ID,
		Goal:   &goal,
	}})

	return nil
}

// ContributionCreate holds the caller-supplied fields for a contribution.
type ContributionCreate struct {
	Amount        decimal.Decimal
	Date          time.Time
	Notes         string
	TransactionID *uuid.UUID
}

// Contribute adds a contribution to an active goal and advances its
// current amount. Reaching the target completes the goal.
func (s *GoalService) Contribute(actor models.User, goalID uuid.UUID, create ContributionCreate) (models.GoalContribution, error) {
	var loaded models.Goal
	err := s.db.First(&loaded, "id = ?", goalID).Error
	if err != nil {
		return models.GoalContribution{}, err
	}

	err = s.access.CanAccess(actor, loaded.AccessRef(), access.ActionEdit)
	if err != nil {
		return models.GoalContribution{}, err
	}

	var goal models.Goal
	var contribution models.GoalContribution
	var pending []events.Event
	err = inTransaction(s.db, func(tx *gorm.DB) error {
		pending = pending[:0]

		err := tx.First(&goal, "id = ?", goalID).Error
		if err != nil {
			return err
		}

		if goal.Status != models.GoalStatusActive {
			return fmt.Errorf("%w: %s", models.ErrConflict, models.ErrGoalNotActive)
		}

		contribution = models.GoalContribution{
			GoalID:        goal.ID,
			Amount:        create.Amount,
			Date:          create.Date,
			Notes:         create.Notes,
			TransactionID: create.TransactionID,
		}
		err = tx.Create(&contribution).Error
		if err != nil {
			return err
		}

		goal.CurrentAmount = goal.CurrentAmount.Add(create.Amount)
		if goal.Reached() {
			goal.Status = models.GoalStatusCompleted
			pending = append(pending, events.Event{
				Kind:   events.GoalCompleted,
				UserID: goal.UserID,
				Goal:   &goal,
			})
		}

		return tx.Save(&goal).Error
	})
	if err != nil {
		return models.GoalContribution{}, err
	}

	pending = append([]events.Event{{
		Kind:         events.ContributionAdded,
		UserID:       actor.ID,
		Goal:         &goal,
		Contribution: &contribution,
	}}, pending...)
	publishAll(s.bus, pending)

	return contribution, nil
}

// Contributions lists a goal's contributions, newest first.
func (s *GoalService) Contributions(actor models.User, goalID uuid.UUID) ([]models.GoalContribution, error) {
	_, err := s.Get(actor, goalID)
	if err != nil {
		return nil, err
	}

	var contributions []models.GoalContribution
	err = s.db.Where("goal_id = ?", goalID).
		Order("date DESC").Order("created_at DESC").
		Find(&contributions).Error
	return contributions, err
}

// DeleteContribution removes a contribution and subtracts its amount
// from the goal. A completed goal that falls below its target becomes
// active again.
func (s *GoalService) DeleteContribution(actor models.User, id uuid.UUID) error {
	var contribution models.GoalContribution
	err := s.db.Preload("Goal").First(&contribution, "id = ?", id).Error
	if err != nil {
		return err
	}

	err = s.access.CanAccess(actor, contribution.Goal.AccessRef(), access.ActionDelete)
	if err != nil {
		return err
	}

	var goal models.Goal
	err = inTransaction(s.db, func(tx *gorm.DB) error {
		err := tx.First(&goal, "id = ?", contribution.GoalID).Error
		if err != nil {
			return err
		}

		goal.CurrentAmount = goal.CurrentAmount.Sub(contribution.Amount)
		if goal.Status == models.GoalStatusCompleted && !goal.Reached() {
			goal.Status = models.GoalStatusActive
		}

		err = tx.Save(&goal).Error
		if err != nil {
			return err
		}

		return tx.Delete(&contribution).Error
	})
	if err != nil {
		return err
	}

	publishAll(s.bus, []events.Event{{
		Kind:         events.ContributionDeleted,
		UserID:       actor.ID,
		Goal:         &goal,
		Contribution: &contribution,
	}})

	return nil
}

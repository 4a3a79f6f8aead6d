// Package notifications turns committed domain events into persisted
// notifications and keeps monthly planning actuals current.
package notifications

import (
	"fmt"

	"github.com/cofrinho/backend/internal/events"
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Hooks consumes committed events. Like all post-commit handlers it is
// best-effort: failures are logged, never propagated.
type Hooks struct {
	db *gorm.DB

	// tolerance is the fraction a planning may exceed its target
	// before the exceeded notification fires, e.g. 0.1 for 10%.
	tolerance decimal.Decimal
}

// NewHooks returns the notification handler.
func NewHooks(db *gorm.DB, overBudgetTolerance float64) *Hooks {
	return &Hooks{
		db:        db,
		tolerance: decimal.NewFromFloat(overBudgetTolerance),
	}
}

// Name implements events.Handler.
func (h *Hooks) Name() string {
	return "notifications"
}

// Handle implements events.Handler.
func (h *Hooks) Handle(event events.Event) {
	var err error

	switch event.Kind {
	case events.TransactionCreated, events.ScheduleExecuted:
		err = h.onTransactionChange(event.Transaction)
	case events.TransactionUpdated:
		err = h.onTransactionChange(event.Previous)
		if err == nil {
			err = h.onTransactionChange(event.Transaction)
		}
	case events.TransactionDeleted:
		err = h.onTransactionChange(event.Transaction)
	case events.GoalCompleted:
		err = h.onGoalCompleted(event.Goal)
	}

	if err != nil {
		log.Err(err).Str("kind", string(event.Kind)).Msg("notification hook failed")
	}
}

// onTransactionChange recomputes the planning actuals touched by the
// transaction and checks the thresholds.
func (h *Hooks) onTransactionChange(transaction *models.Transaction) error {
	if transaction == nil || transaction.CategoryID == nil || transaction.Type != models.TransactionTypeExpense {
		return nil
	}

	month := types.MonthOf(transaction.Date)

	var plannings []models.Planning
	err := h.db.
		Where("user_id = ? AND type = ? AND active = ?", transaction.UserID, models.PlanningTypeMonthly, true).
		Where("category_id = ?", *transaction.CategoryID).
		Find(&plannings).Error
	if err != nil {
		return err
	}

	for _, planning := range plannings {
		err = h.refreshMonthly(planning, month)
		if err != nil {
			return err
		}
	}

	return nil
}

// refreshMonthly recomputes one MonthlyPlanning row from the completed
// transactions of its month and raises threshold notifications.
func (h *Hooks) refreshMonthly(planning models.Planning, month types.Month) error {
	actual, err := models.TransactionsSum(h.db, models.SumFilter{
		UserID:     planning.UserID,
		Type:       models.TransactionTypeExpense,
		Status:     models.TransactionStatusCompleted,
		CategoryID: planning.CategoryID,
		From:       month.First(),
		Until:      month.Next(),
	})
	if err != nil {
		return err
	}

	var row models.MonthlyPlanning
	err = h.db.First(&row, "planning_id = ? AND month = ?", planning.ID, month).Error
	if err != nil {
		// No plan for this month means nothing to compare against.
		return nil
	}

	row.ActualAmount = actual
	err = h.db.Save(&row).Error
	if err != nil {
		return err
	}

	if !row.TargetAmount.IsPositive() {
		return nil
	}

	limit := row.TargetAmount.Mul(decimal.NewFromInt(1).Add(h.tolerance))
	switch {
	case actual.GreaterThan(limit):
		return h.notifyOnce(planning.UserID, models.NotificationKindPlanningExceeded,
			fmt.Sprintf("Orçamento estourado: %s", planning.Name),
			fmt.Sprintf("%s ultrapassou o orçamento de %s em %s", planning.Name, month, row.TargetAmount.StringFixed(2)))
	case actual.GreaterThan(row.TargetAmount.Mul(decimal.NewFromFloat(0.8))):
		return h.notifyOnce(planning.UserID, models.NotificationKindPlanningWarning,
			fmt.Sprintf("Orçamento em 80%%: %s", planning.Name),
			fmt.Sprintf("%s atingiu 80%% do orçamento de %s", planning.Name, month))
	}

	return nil
}

func (h *Hooks) onGoalCompleted(goal *models.Goal) error {
	if goal == nil {
		return nil
	}

	return h.notifyOnce(goal.UserID, models.NotificationKindGoalCompleted,
		fmt.Sprintf("Meta alcançada: %s", goal.Name),
		fmt.Sprintf("Você alcançou a meta %s de %s", goal.Name, goal.TargetAmount.StringFixed(2)))
}

// notifyOnce skips the write when an identical unread notification
// already exists, so repeated threshold crossings do not spam.
func (h *Hooks) notifyOnce(userID uuid.UUID, kind models.NotificationKind, title, message string) error {
	var count int64
	err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND kind = ? AND title = ? AND read_at IS NULL", userID, kind, title).
		Count(&count).Error
	if err != nil || count > 0 {
		return err
	}

	notification := models.Notification{
		UserID:  userID,
		Kind:    kind,
		Title:   title,
		Message: message,
	}
	return h.db.Create(&notification).Error
}

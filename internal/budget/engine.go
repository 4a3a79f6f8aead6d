// Package budget computes the monthly planned-versus-actual view and
// the optional 50-30-20 overlay.
package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Engine derives monthly budgets from plannings, categories and
// completed transactions. It only reads; all numbers are recomputed on
// every call.
type Engine struct {
	db     *gorm.DB
	access *access.Evaluator
}

// New returns a budget engine over the database.
func New(db *gorm.DB, evaluator *access.Evaluator) *Engine {
	return &Engine{db: db, access: evaluator}
}

// CategoryLine is the planned and actual spend of one expense category.
type CategoryLine struct {
	CategoryID  uuid.UUID           `json:"categoryId"`
	Name        string              `json:"name"`
	BudgetGroup *models.BudgetGroup `json:"budgetGroup"`
	Planned     decimal.Decimal     `json:"planned"`
	Actual      decimal.Decimal     `json:"actual"`
}

// GroupLine is one band of the 50-30-20 overlay.
type GroupLine struct {
	Group    models.BudgetGroup `json:"group"`
	Planned  decimal.Decimal    `json:"planned"`
	Actual   decimal.Decimal    `json:"actual"`
	Limit    decimal.Decimal    `json:"limit"`
	Breached bool               `json:"breached"`
}

// GoalLine tracks a goal's contributions against its suggested pace.
type GoalLine struct {
	GoalID        uuid.UUID       `json:"goalId"`
	Name          string          `json:"name"`
	Suggested     decimal.Decimal `json:"suggested"`
	Contributed   decimal.Decimal `json:"contributed"`
	IsBelowTarget bool            `json:"isBelowTarget"`
}

// MonthlyBudget is the full budget view for one actor and month.
type MonthlyBudget struct {
	Month         types.Month     `json:"month"`
	PlannedIncome decimal.Decimal `json:"plannedIncome"`
	ActualIncome  decimal.Decimal `json:"actualIncome"`
	Categories    []CategoryLine  `json:"categories"`
	Groups        []GroupLine     `json:"groups,omitempty"`
	Goals         []GoalLine      `json:"goals"`
	Alerts        []string        `json:"alerts"`
}

var (
	pct20 = decimal.NewFromFloat(0.2)
	pct30 = decimal.NewFromFloat(0.3)
	pct50 = decimal.NewFromFloat(0.5)
	pct80 = decimal.NewFromFloat(0.8)
)

// Monthly computes the budget for the actor and month. With the
// rule503020 flag set and a positive planned income, the category lines
// are additionally folded into the necessities, wants and savings bands.
func (e *Engine) Monthly(actor models.User, month types.Month, rule503020 bool) (MonthlyBudget, error) {
	from, until := month.First(), month.Next()

	budget := MonthlyBudget{
		Month:  month,
		Alerts: []string{},
	}

	// The transaction visibility drives the whole view: family and
	// workspace spending the actor may see counts into the actuals.
	scope, err := e.access.Scope(actor, models.ModuleTransactions)
	if err != nil {
		return MonthlyBudget{}, err
	}

	categories, err := e.expenseCategories(actor, scope)
	if err != nil {
		return MonthlyBudget{}, err
	}

	planned, err := e.plannedByCategory(actor, month)
	if err != nil {
		return MonthlyBudget{}, err
	}

	actuals, err := models.ActualsByCategory(
		scope.ApplyTransactions(e.db.Table("transactions")),
		models.TransactionTypeExpense, from, until)
	if err != nil {
		return MonthlyBudget{}, err
	}

	for _, category := range categories {
		line := CategoryLine{
			CategoryID:  category.ID,
			Name:        category.Name,
			BudgetGroup: category.BudgetGroup,
			Planned:     planned[category.ID],
			Actual:      actuals[category.ID],
		}
		budget.Categories = append(budget.Categories, line)

		if !line.Planned.IsPositive() {
			continue
		}
		switch {
		case line.Actual.GreaterThan(line.Planned):
			budget.Alerts = append(budget.Alerts, fmt.Sprintf("%s ultrapassou o orçamento", line.Name))
		case line.Actual.GreaterThan(line.Planned.Mul(pct80)):
			budget.Alerts = append(budget.Alerts, fmt.Sprintf("%s atingiu 80%% do orçamento", line.Name))
		}
	}

	budget.PlannedIncome, err = e.plannedIncome(actor, month)
	if err != nil {
		return MonthlyBudget{}, err
	}

	budget.ActualIncome, err = models.TransactionsSum(e.db, models.SumFilter{
		UserID: actor.ID,
		Type:   models.TransactionTypeIncome,
		Status: models.TransactionStatusCompleted,
		From:   from,
		Until:  until,
	})
	if err != nil {
		return MonthlyBudget{}, err
	}

	if rule503020 && budget.PlannedIncome.IsPositive() {
		e.overlay503020(&budget)
	}

	err = e.goalOverlay(actor, from, until, &budget)
	if err != nil {
		return MonthlyBudget{}, err
	}

	return budget, nil
}

// expenseCategories is the category universe: the actor's own expense
// categories, the platform defaults and the categories of families in
// the actor's scope.
func (e *Engine) expenseCategories(actor models.User, scope access.Scope) ([]models.Category, error) {
	cond := e.db.Session(&gorm.Session{NewDB: true}).
		Where("user_id = ? OR (user_id IS NULL AND family_id IS NULL)", actor.ID)
	if len(scope.FamilyIDs) > 0 {
		cond = cond.Or("family_id IN ?", scope.FamilyIDs)
	}

	var categories []models.Category
	err := e.db.
		Where("type = ?", models.CategoryTypeExpense).
		Where(cond).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// plannedByCategory maps category IDs to the month's planned amount,
// taken from the actor's active monthly plannings. Missing plans mean
// zero, not an error.
func (e *Engine) plannedByCategory(actor models.User, month types.Month) (map[uuid.UUID]decimal.Decimal, error) {
	var plannings []models.Planning
	err := e.db.
		Where("user_id = ? AND type = ? AND active = ?", actor.ID, models.PlanningTypeMonthly, true).
		Where("category_id IS NOT NULL").
		Find(&plannings).Error
	if err != nil {
		return nil, err
	}

	if len(plannings) == 0 {
		return map[uuid.UUID]decimal.Decimal{}, nil
	}

	byPlanning := make(map[uuid.UUID]uuid.UUID, len(plannings))
	ids := make([]uuid.UUID, 0, len(plannings))
	for _, planning := range plannings {
		byPlanning[planning.ID] = *planning.CategoryID
		ids = append(ids, planning.ID)
	}

	var rows []models.MonthlyPlanning
	err = e.db.
		Where("planning_id IN ? AND month = ?", ids, month).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	planned := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		planned[byPlanning[row.PlanningID]] = row.TargetAmount
	}

	return planned, nil
}

// plannedIncome is the month's target of the actor's general planning,
// the active monthly planning without a category.
func (e *Engine) plannedIncome(actor models.User, month types.Month) (decimal.Decimal, error) {
	var planning models.Planning
	err := e.db.
		Where("user_id = ? AND type = ? AND active = ?", actor.ID, models.PlanningTypeMonthly, true).
		Where("category_id IS NULL").
		First(&planning).Error
	if err != nil {
		if errors.Is(err, models.ErrResourceNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	var row models.MonthlyPlanning
	err = e.db.
		Where("planning_id = ? AND month = ?", planning.ID, month).
		First(&row).Error
	if err != nil {
		if errors.Is(err, models.ErrResourceNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	return row.TargetAmount, nil
}

// overlay503020 folds the category lines into the three bands.
// Necessities may use up to 50% of planned income, wants up to 30%,
// and savings should reach at least 20%.
func (e *Engine) overlay503020(budget *MonthlyBudget) {
	sums := map[models.BudgetGroup]*GroupLine{
		models.BudgetGroupNecessities: {Group: models.BudgetGroupNecessities, Limit: budget.PlannedIncome.Mul(pct50)},
		models.BudgetGroupWants:       {Group: models.BudgetGroupWants, Limit: budget.PlannedIncome.Mul(pct30)},
		models.BudgetGroupSavings:     {Group: models.BudgetGroupSavings, Limit: budget.PlannedIncome.Mul(pct20)},
	}

	for _, line := range budget.Categories {
		if line.BudgetGroup == nil {
			continue
		}
		if group, ok := sums[*line.BudgetGroup]; ok {
			group.Planned = group.Planned.Add(line.Planned)
			group.Actual = group.Actual.Add(line.Actual)
		}
	}

	necessities := sums[models.BudgetGroupNecessities]
	if necessities.Actual.GreaterThan(necessities.Limit) {
		necessities.Breached = true
		budget.Alerts = append(budget.Alerts, "necessidades acima do limite de 50%")
	}

	wants := sums[models.BudgetGroupWants]
	if wants.Actual.GreaterThan(wants.Limit) {
		wants.Breached = true
		budget.Alerts = append(budget.Alerts, "desejos acima do limite de 30%")
	}

	// Savings is a floor, not a ceiling.
	savings := sums[models.BudgetGroupSavings]
	if savings.Actual.LessThan(savings.Limit) {
		savings.Breached = true
		budget.Alerts = append(budget.Alerts, "poupança abaixo da meta")
	}

	budget.Groups = []GroupLine{*necessities, *wants, *savings}
}

// goalOverlay compares each active goal's contributions in the period
// against 80% of its suggested monthly contribution.
func (e *Engine) goalOverlay(actor models.User, from, until time.Time, budget *MonthlyBudget) error {
	var goals []models.Goal
	err := e.db.
		Where("user_id = ? AND status = ?", actor.ID, models.GoalStatusActive).
		Where("target_date IS NOT NULL").
		Find(&goals).Error
	if err != nil {
		return err
	}

	for _, goal := range goals {
		suggested := goal.SuggestedMonthlyContribution(from)
		if !suggested.IsPositive() {
			continue
		}

		var contributed decimal.NullDecimal
		err = e.db.Table("goal_contributions").
			Select("SUM(amount)").
			Where("deleted_at IS NULL").
			Where("goal_id = ?", goal.ID).
			Where("date >= ? AND date < ?", from, until).
			Row().Scan(&contributed)
		if err != nil {
			return err
		}

		line := GoalLine{
			GoalID:      goal.ID,
			Name:        goal.Name,
			Suggested:   suggested,
			Contributed: contributed.Decimal,
		}
		if line.Contributed.LessThan(suggested.Mul(pct80)) {
			line.IsBelowTarget = true
			budget.Alerts = append(budget.Alerts, fmt.Sprintf("meta %s abaixo da contribuição mensal sugerida", goal.Name))
		}

		budget.Goals = append(budget.Goals, line)
	}

	return nil
}

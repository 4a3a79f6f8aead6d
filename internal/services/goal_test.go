package services_test

import (
	"github.com/cofrinho/backend/internal/calendar"
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestGoalContributeAccumulates() {
	user := suite.createTestUser()

	goal, err := suite.services.Goals.Create(user, services.GoalCreate{
		Name:         "Viagem",
		Type:         models.GoalTypeTrip,
		TargetAmount: decimal.NewFromFloat(1000),
	})
	suite.Require().Nil(err)

	_, err = suite.services.Goals.Contribute(user, goal.ID, services.ContributionCreate{
		Amount: decimal.NewFromFloat(400),
		Date:   date(2024, 5, 1),
	})
	suite.Require().Nil(err)

	reloaded, err := suite.services.Goals.Get(user, goal.ID)
	suite.Require().Nil(err)
	assert.True(suite.T(), reloaded.CurrentAmount.Equal(decimal.NewFromFloat(400)))
	assert.Equal(suite.T(), models.GoalStatusActive, reloaded.Status)
}

func (suite *TestSuiteStandard) TestGoalCompletesOnTarget() {
	user := suite.createTestUser()

	goal, err := suite.services.Goals.Create(user, services.GoalCreate{
		Name:         "Reserva",
		Type:         models.GoalTypeEmergency,
		TargetAmount: decimal.NewFromFloat(1000),
	})
	suite.Require().Nil(err)

	_, err = suite.services.Goals.Contribute(user, goal.ID, services.ContributionCreate{
		Amount: decimal.NewFromFloat(1000),
		Date:   date(2024, 5, 1),
	})
	suite.Require().Nil(err)

	reloaded, err := suite.services.Goals.Get(user, goal.ID)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.GoalStatusCompleted, reloaded.Status)

	// Completed goals reject further contributions
	_, err = suite.services.Goals.Contribute(user, goal.ID, services.ContributionCreate{
		Amount: decimal.NewFromFloat(10),
		Date:   date(2024, 5, 2),
	})
	assert.ErrorIs(suite.T(), err, models.ErrConflict)
}

func (suite *TestSuiteStandard) TestGoalDeleteContributionReopens() {
	user := suite.createTestUser()

	goal, err := suite.services.Goals.Create(user, services.GoalCreate{
		Name:         "Reserva",
		TargetAmount: decimal.NewFromFloat(1000),
	})
	suite.Require().Nil(err)

	contribution, err := suite.services.Goals.Contribute(user, goal.ID, services.ContributionCreate{
		Amount: decimal.NewFromFloat(1000),
		Date:   date(2024, 5, 1),
	})
	suite.Require().Nil(err)

	err = suite.services.Goals.DeleteContribution(user, contribution.ID)
	suite.Require().Nil(err)

	reloaded, err := suite.services.Goals.Get(user, goal.ID)
	suite.Require().Nil(err)
	assert.True(suite.T(), reloaded.CurrentAmount.IsZero())
	assert.Equal(suite.T(), models.GoalStatusActive, reloaded.Status,
		"dropping below the target reopens a completed goal")
}

func (suite *TestSuiteStandard) TestGoalAutoContribution() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 0)
	savings := suite.createTestCategory(user, models.CategoryTypeIncome)

	percentage := decimal.NewFromFloat(10)
	categoryID := savings.ID
	goal, err := suite.services.Goals.Create(user, services.GoalCreate{
		Name:                       "Casa própria",
		Type:                       models.GoalTypeHouse,
		TargetAmount:               decimal.NewFromFloat(50000),
		SavingsCategoryID:          &categoryID,
		AutoContributionPercentage: &percentage,
	})
	suite.Require().Nil(err)

	_, err = suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Salário",
		Amount:      decimal.NewFromFloat(3000),
		Type:        models.TransactionTypeIncome,
		Status:      models.TransactionStatusCompleted,
		Date:        date(2024, 5, 5),
		AccountID:   account.ID,
		CategoryID:  &categoryID,
	})
	suite.Require().Nil(err)

	reloaded, err := suite.services.Goals.Get(user, goal.ID)
	suite.Require().Nil(err)
	assert.True(suite.T(), reloaded.CurrentAmount.Equal(decimal.NewFromFloat(300)),
		"10%% of 3000 flows into the goal automatically")

	contributions, err := suite.services.Goals.Contributions(user, goal.ID)
	suite.Require().Nil(err)
	suite.Require().Len(contributions, 1)
	assert.NotNil(suite.T(), contributions[0].TransactionID)
}

func (suite *TestSuiteStandard) TestGoalDeleteClearsCalendarEvents() {
	suite.bus.Subscribe(calendar.NewProjector(suite.db))
	user := suite.createTestUser()

	target := date(2024, 12, 1)
	goal, err := suite.services.Goals.Create(user, services.GoalCreate{
		Name:         "Viagem",
		TargetAmount: decimal.NewFromFloat(5000),
		TargetDate:   &target,
	})
	suite.Require().Nil(err)

	_, err = suite.services.Goals.Contribute(user, goal.ID, services.ContributionCreate{
		Amount: decimal.NewFromFloat(500),
		Date:   date(2024, 5, 20),
	})
	suite.Require().Nil(err)

	suite.Require().Nil(suite.services.Goals.Delete(user, goal.ID))

	// Drain the bus so all projections have run
	suite.bus.Close()

	var count int64
	suite.db.Model(&models.CalendarEvent{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count,
		"a deleted goal leaves no calendar events behind")
}

func (suite *TestSuiteStandard) TestGoalUpdateTargetReopens() {
	user := suite.createTestUser()

	goal, err := suite.services.Goals.Create(user, services.GoalCreate{
		Name:         "Reserva",
		TargetAmount: decimal.NewFromFloat(500),
	})
	suite.Require().Nil(err)

	_, err = suite.services.Goals.Contribute(user, goal.ID, services.ContributionCreate{
		Amount: decimal.NewFromFloat(500),
		Date:   date(2024, 5, 1),
	})
	suite.Require().Nil(err)

	reloaded, err := suite.services.Goals.Get(user, goal.ID)
	suite.Require().Nil(err)
	suite.Require().Equal(models.GoalStatusCompleted, reloaded.Status)

	// Raising the target reactivates the goal
	target := decimal.NewFromFloat(2000)
	updated, err := suite.services.Goals.Update(user, goal.ID, services.GoalUpdate{TargetAmount: &target})
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.GoalStatusActive, updated.Status)
}

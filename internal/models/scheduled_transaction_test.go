package models_test

import (
	"github.com/cofrinho/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestScheduledTransactionDefaults() {
	user := suite.createTestUser(models.User{})
	account := suite.createTestAccount(models.Account{OwnerID: &user.ID})

	scheduled := models.ScheduledTransaction{
		Description: "Salário",
		Amount:      decimal.NewFromFloat(3000),
		Type:        models.TransactionTypeIncome,
		StartDate:   date(2024, 5, 5),
		UserID:      user.ID,
		AccountID:   account.ID,
	}

	err := suite.db.Create(&scheduled).Error
	assert.Nil(suite.T(), err)

	assert.Equal(suite.T(), models.ScheduleStatusActive, scheduled.Status)
	assert.True(suite.T(), scheduled.StartDate.Equal(scheduled.NextExecutionDate),
		"the cursor must start at the start date")
}

func (suite *TestSuiteStandard) TestScheduledTransactionValidation() {
	scheduled := models.ScheduledTransaction{
		Amount:    decimal.NewFromFloat(10),
		Type:      models.TransactionTypeIncome,
		StartDate: date(2024, 5, 5),
	}
	assert.ErrorIs(suite.T(), suite.db.Create(&scheduled).Error, models.ErrScheduleDescriptionRequired)

	scheduled = models.ScheduledTransaction{
		Description: "Salário",
		Amount:      decimal.NewFromFloat(10),
		Type:        models.TransactionTypeIncome,
	}
	assert.ErrorIs(suite.T(), suite.db.Create(&scheduled).Error, models.ErrScheduleStartDateRequired)
}

func (suite *TestSuiteStandard) TestScheduledTransactionAdvanceOneShot() {
	scheduled := models.ScheduledTransaction{
		Recurrence:        models.RecurrenceNone,
		Status:            models.ScheduleStatusActive,
		NextExecutionDate: date(2024, 5, 5),
	}

	terminated := scheduled.Advance(date(2024, 5, 5))
	assert.True(suite.T(), terminated)
	assert.Equal(suite.T(), models.ScheduleStatusCompleted, scheduled.Status)
	assert.Equal(suite.T(), 1, scheduled.ExecutionCount)
	assert.True(suite.T(), date(2024, 5, 5).Equal(*scheduled.LastExecutionDate))
}

func (suite *TestSuiteStandard) TestScheduledTransactionAdvanceMaxExecutions() {
	day := 5
	max := 3

	scheduled := models.ScheduledTransaction{
		Recurrence:        models.RecurrenceMonthly,
		RecurrenceDay:     &day,
		MaxExecutions:     &max,
		Status:            models.ScheduleStatusActive,
		NextExecutionDate: date(2024, 1, 5),
	}

	assert.False(suite.T(), scheduled.Advance(date(2024, 1, 5)))
	assert.True(suite.T(), date(2024, 2, 5).Equal(scheduled.NextExecutionDate))

	assert.False(suite.T(), scheduled.Advance(date(2024, 2, 5)))
	assert.True(suite.T(), date(2024, 3, 5).Equal(scheduled.NextExecutionDate))

	assert.True(suite.T(), scheduled.Advance(date(2024, 3, 5)))
	assert.Equal(suite.T(), models.ScheduleStatusCompleted, scheduled.Status)
	assert.Equal(suite.T(), 3, scheduled.ExecutionCount)
}

func (suite *TestSuiteStandard) TestScheduledTransactionAdvanceEndDate() {
	day := 20
	end := date(2024, 6, 1)

	scheduled := models.ScheduledTransaction{
		Recurrence:        models.RecurrenceMonthly,
		RecurrenceDay:     &day,
		EndDate:           &end,
		Status:            models.ScheduleStatusActive,
		NextExecutionDate: date(2024, 5, 20),
	}

	terminated := scheduled.Advance(date(2024, 5, 20))
	assert.True(suite.T(), terminated, "the next date passed the end date")
	assert.Equal(suite.T(), models.ScheduleStatusCompleted, scheduled.Status)
}

func (suite *TestSuiteStandard) TestScheduledTransactionAdvanceClampsMonthEnd() {
	day := 31

	scheduled := models.ScheduledTransaction{
		Recurrence:        models.RecurrenceMonthly,
		RecurrenceDay:     &day,
		Status:            models.ScheduleStatusActive,
		NextExecutionDate: date(2025, 1, 31),
	}

	scheduled.Advance(date(2025, 1, 31))
	assert.True(suite.T(), date(2025, 2, 28).Equal(scheduled.NextExecutionDate))

	scheduled.Advance(date(2025, 2, 28))
	assert.True(suite.T(), date(2025, 3, 31).Equal(scheduled.NextExecutionDate))
}

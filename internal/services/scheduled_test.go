package services_test

import (
	"time"

	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestScheduledRecurringIncomeRunsToCompletion() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 0)
	day := 5
	max := 3

	scheduled, err := suite.services.Scheduled.Create(user, services.ScheduledCreate{
		Description:   "Salário",
		Amount:        decimal.NewFromFloat(3000),
		Type:          models.TransactionTypeIncome,
		StartDate:     date(2024, 1, 5),
		Recurrence:    models.RecurrenceMonthly,
		RecurrenceDay: &day,
		MaxExecutions: &max,
		AutoExecute:   true,
		AccountID:     account.ID,
	})
	suite.Require().Nil(err)

	// January, February and March each materialize one execution
	for _, month := range []time.Month{time.January, time.February, time.March} {
		ids, err := suite.services.Scheduled.DueIDs(date(2024, month, 10), 100)
		suite.Require().Nil(err)
		suite.Require().Len(ids, 1)

		executed, err := suite.services.Scheduled.ExecuteDue(ids[0], date(2024, month, 10))
		suite.Require().Nil(err)
		assert.True(suite.T(), executed)
	}

	reloaded, err := suite.services.Scheduled.Get(user, scheduled.ID)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.ScheduleStatusCompleted, reloaded.Status)
	assert.Equal(suite.T(), 3, reloaded.ExecutionCount)

	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(9000)))

	// April finds nothing due
	ids, err := suite.services.Scheduled.DueIDs(date(2024, 4, 10), 100)
	suite.Require().Nil(err)
	assert.Empty(suite.T(), ids)

	executions, err := suite.services.Scheduled.Executions(user, scheduled.ID)
	suite.Require().Nil(err)
	suite.Require().Len(executions, 3)
	for _, execution := range executions {
		assert.Equal(suite.T(), models.ExecutionStatusSuccess, execution.Status)
		assert.NotNil(suite.T(), execution.TransactionID)
	}
}

func (suite *TestSuiteStandard) TestScheduledExecuteDueSkipsNotYetDue() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 0)

	scheduled, err := suite.services.Scheduled.Create(user, services.ScheduledCreate{
		Description: "Aluguel",
		Amount:      decimal.NewFromFloat(1200),
		Type:        models.TransactionTypeExpense,
		StartDate:   date(2099, 1, 1),
		Recurrence:  models.RecurrenceNone,
		AutoExecute: true,
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	executed, err := suite.services.Scheduled.ExecuteDue(scheduled.ID, date(2024, 1, 1))
	suite.Require().Nil(err)
	assert.False(suite.T(), executed, "a schedule that is not due is skipped silently")
	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.IsZero())
}

func (suite *TestSuiteStandard) TestScheduledPauseResumeCancel() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 0)
	day := 5

	scheduled, err := suite.services.Scheduled.Create(user, services.ScheduledCreate{
		Description:   "Salário",
		Amount:        decimal.NewFromFloat(3000),
		Type:          models.TransactionTypeIncome,
		StartDate:     date(2024, 1, 5),
		Recurrence:    models.RecurrenceMonthly,
		RecurrenceDay: &day,
		AutoExecute:   true,
		AccountID:     account.ID,
	})
	suite.Require().Nil(err)

	paused, err := suite.services.Scheduled.Pause(user, scheduled.ID)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.ScheduleStatusPaused, paused.Status)

	// Paused schedules never show up as due
	ids, err := suite.services.Scheduled.DueIDs(date(2024, 2, 1), 100)
	suite.Require().Nil(err)
	assert.Empty(suite.T(), ids)

	resumed, err := suite.services.Scheduled.Resume(user, scheduled.ID)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.ScheduleStatusActive, resumed.Status)

	cancelled, err := suite.services.Scheduled.Cancel(user, scheduled.ID)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.ScheduleStatusCancelled, cancelled.Status)

	_, err = suite.services.Scheduled.Resume(user, scheduled.ID)
	assert.ErrorIs(suite.T(), err, models.ErrPrecondition, "cancelled is terminal")
}

func (suite *TestSuiteStandard) TestScheduledExecuteNow() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 0)

	scheduled, err := suite.services.Scheduled.Create(user, services.ScheduledCreate{
		Description: "Freelance",
		Amount:      decimal.NewFromFloat(500),
		Type:        models.TransactionTypeIncome,
		StartDate:   date(2099, 1, 1),
		Recurrence:  models.RecurrenceNone,
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	transaction, err := suite.services.Scheduled.ExecuteNow(user, scheduled.ID)
	suite.Require().Nil(err)

	assert.Equal(suite.T(), models.TransactionStatusCompleted, transaction.Status)
	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(500)))

	reloaded, err := suite.services.Scheduled.Get(user, scheduled.ID)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.ScheduleStatusCompleted, reloaded.Status,
		"a one-shot schedule completes after its execution")
}

func (suite *TestSuiteStandard) TestScheduledManualOnlyIsNotClaimed() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 0)

	_, err := suite.services.Scheduled.Create(user, services.ScheduledCreate{
		Description: "Lembrete",
		Amount:      decimal.NewFromFloat(100),
		Type:        models.TransactionTypeExpense,
		StartDate:   date(2024, 1, 1),
		Recurrence:  models.RecurrenceNone,
		AutoExecute: false,
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	ids, err := suite.services.Scheduled.DueIDs(date(2024, 2, 1), 100)
	suite.Require().Nil(err)
	assert.Empty(suite.T(), ids, "manual schedules are never claimed by the scheduler")
}

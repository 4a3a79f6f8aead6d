package models_test

import (
	"testing"
	"time"

	"github.com/cofrinho/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestBillValidation() {
	user := suite.createTestUser(models.User{})

	tests := []struct {
		name string
		bill models.Bill
		err  error
	}{
		{"name required", models.Bill{Amount: decimal.NewFromFloat(10), DueDate: date(2024, 5, 1), UserID: user.ID}, models.ErrBillNameRequired},
		{"amount positive", models.Bill{Name: "Internet", Amount: decimal.NewFromFloat(-10), DueDate: date(2024, 5, 1), UserID: user.ID}, models.ErrAmountNotPositive},
		{"due date required", models.Bill{Name: "Internet", Amount: decimal.NewFromFloat(10), UserID: user.ID}, models.ErrBillDueDateRequired},
		{"transfer type rejected", models.Bill{Name: "Internet", Amount: decimal.NewFromFloat(10), DueDate: date(2024, 5, 1), Type: models.TransactionTypeTransfer, UserID: user.ID}, models.ErrBillTypeInvalid},
		{"recurring needs recurrence", models.Bill{Name: "Internet", Amount: decimal.NewFromFloat(10), DueDate: date(2024, 5, 1), IsRecurring: true, UserID: user.ID}, models.ErrBillRecurrence},
		{"monthly needs day", models.Bill{Name: "Internet", Amount: decimal.NewFromFloat(10), DueDate: date(2024, 5, 1), IsRecurring: true, Recurrence: models.RecurrenceMonthly, UserID: user.ID}, models.ErrBillRecurrenceDay},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			err := suite.db.Create(&tt.bill).Error
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func (suite *TestSuiteStandard) TestBillDefaults() {
	user := suite.createTestUser(models.User{})
	bill := suite.createTestBill(models.Bill{UserID: user.ID})

	assert.Equal(suite.T(), models.TransactionTypeExpense, bill.Type)
	assert.Equal(suite.T(), models.BillStatusPending, bill.Status)
	assert.Equal(suite.T(), models.RecurrenceNone, bill.Recurrence)
}

func (suite *TestSuiteStandard) TestBillOverdue() {
	now := date(2024, 5, 10)

	bill := models.Bill{Status: models.BillStatusPending, DueDate: date(2024, 5, 5)}
	assert.True(suite.T(), bill.Overdue(now))

	bill.DueDate = date(2024, 5, 15)
	assert.False(suite.T(), bill.Overdue(now))

	bill.DueDate = date(2024, 5, 5)
	bill.Status = models.BillStatusPaid
	assert.False(suite.T(), bill.Overdue(now))
}

func (suite *TestSuiteStandard) TestBillSettledStatus() {
	assert.Equal(suite.T(), models.BillStatusPaid, models.Bill{Type: models.TransactionTypeExpense}.SettledStatus())
	assert.Equal(suite.T(), models.BillStatusReceived, models.Bill{Type: models.TransactionTypeIncome}.SettledStatus())
}

func (suite *TestSuiteStandard) TestBillNextOccurrence() {
	day := 31

	bill := models.Bill{
		IsRecurring:   true,
		Recurrence:    models.RecurrenceMonthly,
		RecurrenceDay: &day,
		DueDate:       date(2025, 1, 31),
	}

	next, ok := bill.NextOccurrence()
	assert.True(suite.T(), ok)
	assert.True(suite.T(), date(2025, 2, 28).Equal(next))
}

func (suite *TestSuiteStandard) TestBillNextOccurrenceEndsSeries() {
	day := 15
	end := date(2024, 6, 1)

	bill := models.Bill{
		IsRecurring:       true,
		Recurrence:        models.RecurrenceMonthly,
		RecurrenceDay:     &day,
		RecurrenceEndDate: &end,
		DueDate:           date(2024, 5, 15),
	}

	_, ok := bill.NextOccurrence()
	assert.False(suite.T(), ok)
}

func (suite *TestSuiteStandard) TestBillNextOccurrenceNotRecurring() {
	bill := models.Bill{DueDate: date(2024, 5, 15)}

	_, ok := bill.NextOccurrence()
	assert.False(suite.T(), ok)

	var zero time.Time
	next, _ := bill.NextOccurrence()
	assert.Equal(suite.T(), zero, next)
}

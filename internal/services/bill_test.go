package services_test

import (
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestBillPayLifecycle() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)
	accountID := account.ID

	bill, err := suite.services.Bills.Create(user, services.BillCreate{
		Name:      "Internet",
		Amount:    decimal.NewFromFloat(100),
		Type:      models.TransactionTypeExpense,
		DueDate:   date(2024, 6, 5),
		AccountID: &accountID,
	})
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.BillStatusPending, bill.Status)

	paymentDate := date(2024, 6, 3)
	paid, err := suite.services.Bills.Pay(user, bill.ID, services.PayParams{
		PaymentDate:       &paymentDate,
		CreateTransaction: true,
	})
	suite.Require().Nil(err)

	assert.Equal(suite.T(), models.BillStatusPaid, paid.Status)
	suite.Require().NotNil(paid.PaymentDate)
	assert.True(suite.T(), paymentDate.Equal(*paid.PaymentDate))
	suite.Require().NotNil(paid.TransactionID)

	var transaction models.Transaction
	suite.Require().Nil(suite.db.First(&transaction, "id = ?", *paid.TransactionID).Error)
	assert.Equal(suite.T(), models.TransactionStatusCompleted, transaction.Status)
	assert.Equal(suite.T(), "Internet", transaction.Description)

	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(900)),
		"paying a 100 bill from a 1000 account leaves 900")
}

func (suite *TestSuiteStandard) TestBillPayTwiceConflicts() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)
	accountID := account.ID

	bill, err := suite.services.Bills.Create(user, services.BillCreate{
		Name:      "Internet",
		Amount:    decimal.NewFromFloat(100),
		DueDate:   date(2024, 6, 5),
		AccountID: &accountID,
	})
	suite.Require().Nil(err)

	_, err = suite.services.Bills.Pay(user, bill.ID, services.DefaultPayParams())
	suite.Require().Nil(err)

	_, err = suite.services.Bills.Pay(user, bill.ID, services.DefaultPayParams())
	assert.ErrorIs(suite.T(), err, services.ErrBillNotPending)
	assert.ErrorIs(suite.T(), err, models.ErrConflict)

	// The second attempt must not touch the balance again
	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(900)))
}

func (suite *TestSuiteStandard) TestBillPayWithoutTransaction() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)
	accountID := account.ID

	bill, err := suite.services.Bills.Create(user, services.BillCreate{
		Name:      "Condomínio",
		Amount:    decimal.NewFromFloat(450),
		DueDate:   date(2024, 6, 10),
		AccountID: &accountID,
	})
	suite.Require().Nil(err)

	paid, err := suite.services.Bills.Pay(user, bill.ID, services.PayParams{CreateTransaction: false})
	suite.Require().Nil(err)

	assert.Equal(suite.T(), models.BillStatusPaid, paid.Status)
	assert.Nil(suite.T(), paid.TransactionID)
	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(1000)),
		"settling without a transaction leaves the balance untouched")
}

func (suite *TestSuiteStandard) TestBillReceivableSettlesAsReceived() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 100)
	accountID := account.ID

	bill, err := suite.services.Bills.Create(user, services.BillCreate{
		Name:      "Aluguel recebido",
		Amount:    decimal.NewFromFloat(1500),
		Type:      models.TransactionTypeIncome,
		DueDate:   date(2024, 6, 5),
		AccountID: &accountID,
	})
	suite.Require().Nil(err)

	paid, err := suite.services.Bills.Pay(user, bill.ID, services.DefaultPayParams())
	suite.Require().Nil(err)

	assert.Equal(suite.T(), models.BillStatusReceived, paid.Status)
	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(1600)))
}

func (suite *TestSuiteStandard) TestBillPayRollsRecurrence() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)
	accountID := account.ID
	day := 31

	bill, err := suite.services.Bills.Create(user, services.BillCreate{
		Name:          "Academia",
		Amount:        decimal.NewFromFloat(90),
		DueDate:       date(2025, 1, 31),
		IsRecurring:   true,
		Recurrence:    models.RecurrenceMonthly,
		RecurrenceDay: &day,
		AccountID:     &accountID,
	})
	suite.Require().Nil(err)

	_, err = suite.services.Bills.Pay(user, bill.ID, services.DefaultPayParams())
	suite.Require().Nil(err)

	var next models.Bill
	err = suite.db.Where("name = ? AND status = ?", "Academia", models.BillStatusPending).First(&next).Error
	suite.Require().Nil(err)

	assert.True(suite.T(), date(2025, 2, 28).Equal(next.DueDate), "the next due date clamps to the end of february")
	assert.True(suite.T(), next.IsRecurring)
	assert.Nil(suite.T(), next.TransactionID)
}

func (suite *TestSuiteStandard) TestBillPayEndedSeriesDoesNotRoll() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)
	accountID := account.ID
	day := 15
	end := date(2024, 6, 1)

	bill, err := suite.services.Bills.Create(user, services.BillCreate{
		Name:              "Assinatura",
		Amount:            decimal.NewFromFloat(30),
		DueDate:           date(2024, 5, 15),
		IsRecurring:       true,
		Recurrence:        models.RecurrenceMonthly,
		RecurrenceDay:     &day,
		RecurrenceEndDate: &end,
		AccountID:         &accountID,
	})
	suite.Require().Nil(err)

	_, err = suite.services.Bills.Pay(user, bill.ID, services.DefaultPayParams())
	suite.Require().Nil(err)

	var count int64
	suite.db.Model(&models.Bill{}).Where("name = ? AND status = ?", "Assinatura", models.BillStatusPending).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *TestSuiteStandard) TestBillUpdateOnlyPending() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)
	accountID := account.ID

	bill, err := suite.services.Bills.Create(user, services.BillCreate{
		Name:      "Internet",
		Amount:    decimal.NewFromFloat(100),
		DueDate:   date(2024, 6, 5),
		AccountID: &accountID,
	})
	suite.Require().Nil(err)

	_, err = suite.services.Bills.Pay(user, bill.ID, services.DefaultPayParams())
	suite.Require().Nil(err)

	name := "Internet fibra"
	_, err = suite.services.Bills.Update(user, bill.ID, services.BillUpdate{Name: &name})
	assert.ErrorIs(suite.T(), err, models.ErrPrecondition)
}

func (suite *TestSuiteStandard) TestBillListOverdue() {
	user := suite.createTestUser()

	_, err := suite.services.Bills.Create(user, services.BillCreate{
		Name:    "Atrasada",
		Amount:  decimal.NewFromFloat(50),
		DueDate: date(2020, 1, 1),
	})
	suite.Require().Nil(err)

	_, err = suite.services.Bills.Create(user, services.BillCreate{
		Name:    "Futura",
		Amount:  decimal.NewFromFloat(50),
		DueDate: date(2099, 1, 1),
	})
	suite.Require().Nil(err)

	overdue, err := suite.services.Bills.ListOverdue(user)
	suite.Require().Nil(err)
	suite.Require().Len(overdue, 1)
	assert.Equal(suite.T(), "Atrasada", overdue[0].Name)
}

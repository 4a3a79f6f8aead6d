package services_test

import (
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestTransactionCreateAppliesBalance() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)

	_, err := suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Mercado",
		Amount:      decimal.NewFromFloat(100),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusCompleted,
		Date:        date(2024, 5, 10),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(900)))
}

func (suite *TestSuiteStandard) TestTransactionPendingDoesNotTouchBalance() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)

	_, err := suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Boleto",
		Amount:      decimal.NewFromFloat(100),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusPending,
		Date:        date(2024, 5, 10),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(1000)))
}

func (suite *TestSuiteStandard) TestTransactionDeleteRestoresBalance() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)

	transaction, err := suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Mercado",
		Amount:      decimal.NewFromFloat(250.50),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusCompleted,
		Date:        date(2024, 5, 10),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)
	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(749.50)))

	err = suite.services.Transactions.Delete(user, transaction.ID)
	suite.Require().Nil(err)

	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(1000)),
		"deleting the transaction must restore the balance exactly")
}

func (suite *TestSuiteStandard) TestTransactionUpdateReconcilesBalance() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)

	transaction, err := suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Mercado",
		Amount:      decimal.NewFromFloat(100),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusCompleted,
		Date:        date(2024, 5, 10),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	amount := decimal.NewFromFloat(300)
	_, err = suite.services.Transactions.Update(user, transaction.ID, services.TransactionUpdate{
		Amount: &amount,
	})
	suite.Require().Nil(err)

	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(700)))
}

func (suite *TestSuiteStandard) TestTransactionCancelledIsTerminal() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)

	transaction, err := suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Mercado",
		Amount:      decimal.NewFromFloat(100),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusCompleted,
		Date:        date(2024, 5, 10),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	cancelled := models.TransactionStatusCancelled
	_, err = suite.services.Transactions.Update(user, transaction.ID, services.TransactionUpdate{Status: &cancelled})
	suite.Require().Nil(err)

	// Cancelling reverses the balance effect
	assert.True(suite.T(), suite.reloadAccount(account.ID).Balance.Equal(decimal.NewFromFloat(1000)))

	completed := models.TransactionStatusCompleted
	_, err = suite.services.Transactions.Update(user, transaction.ID, services.TransactionUpdate{Status: &completed})
	assert.ErrorIs(suite.T(), err, models.ErrPrecondition)
}

func (suite *TestSuiteStandard) TestTransactionPendingExpenseMirrorsBill() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)

	transaction, err := suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Conta de luz",
		Amount:      decimal.NewFromFloat(180),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusPending,
		Date:        date(2024, 6, 10),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	var bill models.Bill
	err = suite.db.First(&bill, "transaction_id = ?", transaction.ID).Error
	suite.Require().Nil(err)

	assert.Equal(suite.T(), "Conta de luz", bill.Name)
	assert.Equal(suite.T(), models.BillStatusPending, bill.Status)
	assert.True(suite.T(), bill.DueDate.Equal(transaction.Date))

	// Completing the transaction settles the mirrored bill
	completed := models.TransactionStatusCompleted
	_, err = suite.services.Transactions.Update(user, transaction.ID, services.TransactionUpdate{Status: &completed})
	suite.Require().Nil(err)

	err = suite.db.First(&bill, "transaction_id = ?", transaction.ID).Error
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.BillStatusPaid, bill.Status)
	suite.Require().NotNil(bill.PaymentDate)
}

func (suite *TestSuiteStandard) TestTransactionDeleteCancelsPairedBill() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)

	transaction, err := suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Conta de luz",
		Amount:      decimal.NewFromFloat(180),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusPending,
		Date:        date(2024, 6, 10),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	err = suite.services.Transactions.Delete(user, transaction.ID)
	suite.Require().Nil(err)

	var bill models.Bill
	err = suite.db.First(&bill, "transaction_id = ?", transaction.ID).Error
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.BillStatusCancelled, bill.Status, "the paired bill is cancelled, not deleted")
}

func (suite *TestSuiteStandard) TestTransactionSearchExcludesCancelledBillSettlements() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)

	visible, err := suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Mercado",
		Amount:      decimal.NewFromFloat(80),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusCompleted,
		Date:        date(2024, 6, 1),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	accountID := account.ID
	bill, err := suite.services.Bills.Create(user, services.BillCreate{
		Name:      "Internet",
		Amount:    decimal.NewFromFloat(120),
		Type:      models.TransactionTypeExpense,
		DueDate:   date(2024, 6, 5),
		AccountID: &accountID,
	})
	suite.Require().Nil(err)

	paid, err := suite.services.Bills.Pay(user, bill.ID, services.DefaultPayParams())
	suite.Require().Nil(err)
	suite.Require().NotNil(paid.TransactionID)

	page, err := suite.services.Transactions.Search(user, services.TransactionSearch{})
	suite.Require().Nil(err)
	assert.Equal(suite.T(), int64(2), page.Total)

	// Cancelling the bill tombstones its settlement transaction
	err = suite.services.Bills.Delete(user, paid.ID)
	suite.Require().Nil(err)

	page, err = suite.services.Transactions.Search(user, services.TransactionSearch{})
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), page.Total)
	assert.Equal(suite.T(), visible.ID, page.Transactions[0].ID)
}

func (suite *TestSuiteStandard) TestTransactionSearchFilters() {
	user := suite.createTestUser()
	account := suite.createTestAccount(user, 1000)

	_, err := suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Mercado do bairro",
		Amount:      decimal.NewFromFloat(80),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusCompleted,
		Date:        date(2024, 6, 1),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	_, err = suite.services.Transactions.Create(user, services.TransactionCreate{
		Description: "Salário",
		Amount:      decimal.NewFromFloat(3000),
		Type:        models.TransactionTypeIncome,
		Status:      models.TransactionStatusCompleted,
		Date:        date(2024, 6, 5),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	page, err := suite.services.Transactions.Search(user, services.TransactionSearch{Text: "MERCADO"})
	suite.Require().Nil(err)
	assert.Equal(suite.T(), int64(1), page.Total, "text search is case-insensitive")

	page, err = suite.services.Transactions.Search(user, services.TransactionSearch{Type: models.TransactionTypeIncome})
	suite.Require().Nil(err)
	assert.Equal(suite.T(), int64(1), page.Total)

	min := decimal.NewFromFloat(1000)
	page, err = suite.services.Transactions.Search(user, services.TransactionSearch{AmountMin: &min})
	suite.Require().Nil(err)
	assert.Equal(suite.T(), int64(1), page.Total)
}

func (suite *TestSuiteStandard) TestTransactionOtherUserCannotSee() {
	owner := suite.createTestUser()
	stranger := suite.createTestUser()
	account := suite.createTestAccount(owner, 1000)

	transaction, err := suite.services.Transactions.Create(owner, services.TransactionCreate{
		Description: "Mercado",
		Amount:      decimal.NewFromFloat(80),
		Type:        models.TransactionTypeExpense,
		Status:      models.TransactionStatusCompleted,
		Date:        date(2024, 6, 1),
		AccountID:   account.ID,
	})
	suite.Require().Nil(err)

	_, err = suite.services.Transactions.Get(stranger, transaction.ID)
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound,
		"ownership-scoped resources pretend not to exist")

	page, err := suite.services.Transactions.Search(stranger, services.TransactionSearch{})
	suite.Require().Nil(err)
	assert.Equal(suite.T(), int64(0), page.Total)
}

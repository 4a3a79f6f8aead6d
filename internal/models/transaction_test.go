package models_test

import (
	"github.com/cofrinho/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestTransactionSignedDelta() {
	amount := decimal.NewFromFloat(123.45)

	assert.True(suite.T(), amount.Equal(models.Transaction{Type: models.TransactionTypeIncome, Amount: amount}.SignedDelta()))
	assert.True(suite.T(), amount.Neg().Equal(models.Transaction{Type: models.TransactionTypeExpense, Amount: amount}.SignedDelta()))
	assert.True(suite.T(), models.Transaction{Type: models.TransactionTypeTransfer, Amount: amount}.SignedDelta().IsZero())
}

func (suite *TestSuiteStandard) TestTransactionTransitionAllowed() {
	completed := models.Transaction{Status: models.TransactionStatusCompleted}
	assert.True(suite.T(), completed.TransitionAllowed(models.TransactionStatusPending))
	assert.True(suite.T(), completed.TransitionAllowed(models.TransactionStatusCancelled))

	cancelled := models.Transaction{Status: models.TransactionStatusCancelled}
	assert.False(suite.T(), cancelled.TransitionAllowed(models.TransactionStatusPending))
	assert.False(suite.T(), cancelled.TransitionAllowed(models.TransactionStatusCompleted))
	assert.True(suite.T(), cancelled.TransitionAllowed(models.TransactionStatusCancelled))
}

func (suite *TestSuiteStandard) TestTransactionValidation() {
	user := suite.createTestUser(models.User{})
	account := suite.createTestAccount(models.Account{OwnerID: &user.ID})

	transaction := models.Transaction{
		Description: "Mercado",
		Amount:      decimal.Zero,
		Type:        models.TransactionTypeExpense,
		UserID:      user.ID,
		AccountID:   account.ID,
	}
	assert.ErrorIs(suite.T(), suite.db.Create(&transaction).Error, models.ErrAmountNotPositive)
}

func (suite *TestSuiteStandard) TestTransactionDefaultsPending() {
	user := suite.createTestUser(models.User{})
	account := suite.createTestAccount(models.Account{OwnerID: &user.ID})

	transaction := suite.createTestTransaction(models.Transaction{
		UserID:    user.ID,
		AccountID: account.ID,
	})

	assert.Equal(suite.T(), models.TransactionStatusPending, transaction.Status)
	assert.False(suite.T(), transaction.Date.IsZero())
}

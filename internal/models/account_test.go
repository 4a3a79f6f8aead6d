package models_test

import (
	"github.com/cofrinho/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestAccountStartsAtInitialBalance() {
	user := suite.createTestUser(models.User{})
	account := suite.createTestAccount(models.Account{
		OwnerID:        &user.ID,
		InitialBalance: decimal.NewFromFloat(1000),
	})

	assert.True(suite.T(), account.Balance.Equal(decimal.NewFromFloat(1000)))
}

func (suite *TestSuiteStandard) TestAccountScopeInvalid() {
	user := suite.createTestUser(models.User{})
	family := models.Family{Name: "Silva", CreatedByID: user.ID}
	suite.Require().Nil(suite.db.Create(&family).Error)

	// Neither owner nor family
	account := models.Account{Name: "Orphan"}
	assert.ErrorIs(suite.T(), suite.db.Create(&account).Error, models.ErrAccountScopeInvalid)

	// Both owner and family
	account = models.Account{Name: "Both", OwnerID: &user.ID, FamilyID: &family.ID}
	assert.ErrorIs(suite.T(), suite.db.Create(&account).Error, models.ErrAccountScopeInvalid)
}

func (suite *TestSuiteStandard) TestAccountCurrencyNormalized() {
	user := suite.createTestUser(models.User{})
	account := suite.createTestAccount(models.Account{OwnerID: &user.ID, Currency: " brl "})

	assert.Equal(suite.T(), "BRL", account.Currency)

	account = models.Account{Name: "Bad", OwnerID: &user.ID, Currency: "REAIS"}
	assert.ErrorIs(suite.T(), suite.db.Create(&account).Error, models.ErrAccountCurrency)
}

func (suite *TestSuiteStandard) TestAccountRecalculatedBalance() {
	user := suite.createTestUser(models.User{})
	account := suite.createTestAccount(models.Account{
		OwnerID:        &user.ID,
		InitialBalance: decimal.NewFromFloat(500),
	})

	suite.createTestTransaction(models.Transaction{
		Amount:    decimal.NewFromFloat(200),
		Type:      models.TransactionTypeIncome,
		Status:    models.TransactionStatusCompleted,
		UserID:    user.ID,
		AccountID: account.ID,
	})
	suite.createTestTransaction(models.Transaction{
		Amount:    decimal.NewFromFloat(50),
		Type:      models.TransactionTypeExpense,
		Status:    models.TransactionStatusCompleted,
		UserID:    user.ID,
		AccountID: account.ID,
	})

	// Pending transactions never count
	suite.createTestTransaction(models.Transaction{
		Amount:    decimal.NewFromFloat(999),
		Type:      models.TransactionTypeExpense,
		Status:    models.TransactionStatusPending,
		UserID:    user.ID,
		AccountID: account.ID,
	})

	balance, err := account.RecalculatedBalance(suite.db)
	assert.Nil(suite.T(), err)
	assert.True(suite.T(), balance.Equal(decimal.NewFromFloat(650)), "expected 650, got %s", balance)
}

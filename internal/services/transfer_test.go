package services_test

import (
	"time"

	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestTransferCreateMovesBalance() {
	user := suite.createTestUser()
	from := suite.createTestAccount(user, 1000)
	to := suite.createTestAccount(user, 200)

	transfer, err := suite.services.Transfers.Create(user, services.TransferCreate{
		Amount:        decimal.NewFromFloat(300),
		Description:   "Reserva",
		Date:          date(2024, 6, 1),
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	})
	suite.Require().Nil(err)

	assert.Equal(suite.T(), models.TransferStatusCompleted, transfer.Status)
	assert.True(suite.T(), suite.reloadAccount(from.ID).Balance.Equal(decimal.NewFromFloat(700)))
	assert.True(suite.T(), suite.reloadAccount(to.ID).Balance.Equal(decimal.NewFromFloat(500)))

	// Both legs exist as completed transactions
	suite.Require().NotNil(transfer.FromTransactionID)
	suite.Require().NotNil(transfer.ToTransactionID)

	var leg models.Transaction
	suite.Require().Nil(suite.db.First(&leg, "id = ?", *transfer.FromTransactionID).Error)
	assert.Equal(suite.T(), models.TransactionTypeExpense, leg.Type)

	leg = models.Transaction{}
	suite.Require().Nil(suite.db.First(&leg, "id = ?", *transfer.ToTransactionID).Error)
	assert.Equal(suite.T(), models.TransactionTypeIncome, leg.Type)
}

func (suite *TestSuiteStandard) TestTransferInsufficientBalance() {
	user := suite.createTestUser()
	from := suite.createTestAccount(user, 100)
	to := suite.createTestAccount(user, 0)

	_, err := suite.services.Transfers.Create(user, services.TransferCreate{
		Amount:        decimal.NewFromFloat(300),
		Description:   "Reserva",
		Date:          date(2024, 6, 1),
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	})
	assert.ErrorIs(suite.T(), err, services.ErrInsufficientBalance)
	assert.ErrorIs(suite.T(), err, models.ErrConflict)

	assert.True(suite.T(), suite.reloadAccount(from.ID).Balance.Equal(decimal.NewFromFloat(100)))
	assert.True(suite.T(), suite.reloadAccount(to.ID).Balance.IsZero())
}

func (suite *TestSuiteStandard) TestTransferCancelRestoresBalances() {
	user := suite.createTestUser()
	from := suite.createTestAccount(user, 1000)
	to := suite.createTestAccount(user, 200)

	transfer, err := suite.services.Transfers.Create(user, services.TransferCreate{
		Amount:        decimal.NewFromFloat(300),
		Description:   "Reserva",
		Date:          date(2024, 6, 1),
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	})
	suite.Require().Nil(err)

	cancelled, err := suite.services.Transfers.Cancel(user, transfer.ID)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.TransferStatusCancelled, cancelled.Status)

	assert.True(suite.T(), suite.reloadAccount(from.ID).Balance.Equal(decimal.NewFromFloat(1000)),
		"cancelling must restore the source balance exactly")
	assert.True(suite.T(), suite.reloadAccount(to.ID).Balance.Equal(decimal.NewFromFloat(200)),
		"cancelling must restore the destination balance exactly")

	// The legs are removed
	var count int64
	suite.db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *TestSuiteStandard) TestTransferScheduledStaysPending() {
	user := suite.createTestUser()
	from := suite.createTestAccount(user, 1000)
	to := suite.createTestAccount(user, 0)

	future := time.Now().In(time.UTC).AddDate(0, 0, 7)
	transfer, err := suite.services.Transfers.Create(user, services.TransferCreate{
		Amount:        decimal.NewFromFloat(300),
		Description:   "Agendada",
		Date:          future,
		ScheduledDate: &future,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	})
	suite.Require().Nil(err)

	assert.Equal(suite.T(), models.TransferStatusPending, transfer.Status)
	assert.Nil(suite.T(), transfer.FromTransactionID)
	assert.True(suite.T(), suite.reloadAccount(from.ID).Balance.Equal(decimal.NewFromFloat(1000)))
}

func (suite *TestSuiteStandard) TestTransferExecuteDue() {
	user := suite.createTestUser()
	from := suite.createTestAccount(user, 1000)
	to := suite.createTestAccount(user, 0)

	past := time.Now().In(time.UTC).Add(time.Minute)
	transfer, err := suite.services.Transfers.Create(user, services.TransferCreate{
		Amount:        decimal.NewFromFloat(300),
		Description:   "Agendada",
		Date:          past,
		ScheduledDate: &past,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	})
	suite.Require().Nil(err)
	suite.Require().Equal(models.TransferStatusPending, transfer.Status)

	ids, err := suite.services.Transfers.DuePendingIDs(time.Now().In(time.UTC).Add(time.Hour), 10)
	suite.Require().Nil(err)
	suite.Require().Len(ids, 1)

	executed, err := suite.services.Transfers.ExecuteDue(ids[0])
	suite.Require().Nil(err)

	assert.Equal(suite.T(), models.TransferStatusCompleted, executed.Status)
	assert.True(suite.T(), suite.reloadAccount(from.ID).Balance.Equal(decimal.NewFromFloat(700)))
	assert.True(suite.T(), suite.reloadAccount(to.ID).Balance.Equal(decimal.NewFromFloat(300)))
}

func (suite *TestSuiteStandard) TestTransferCancelPending() {
	user := suite.createTestUser()
	from := suite.createTestAccount(user, 1000)
	to := suite.createTestAccount(user, 0)

	future := time.Now().In(time.UTC).AddDate(0, 0, 7)
	transfer, err := suite.services.Transfers.Create(user, services.TransferCreate{
		Amount:        decimal.NewFromFloat(300),
		Description:   "Agendada",
		Date:          future,
		ScheduledDate: &future,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
	})
	suite.Require().Nil(err)

	cancelled, err := suite.services.Transfers.Cancel(user, transfer.ID)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), models.TransferStatusCancelled, cancelled.Status)
	assert.True(suite.T(), suite.reloadAccount(from.ID).Balance.Equal(decimal.NewFromFloat(1000)))
}

package models_test

import (
	"github.com/cofrinho/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestCategoryValidation() {
	category := models.Category{Type: models.CategoryTypeExpense}
	assert.ErrorIs(suite.T(), suite.db.Create(&category).Error, models.ErrCategoryNameRequired)

	category = models.Category{Name: "Mercado", Type: "groceries"}
	assert.ErrorIs(suite.T(), suite.db.Create(&category).Error, models.ErrInvalidEnumValue)
}

func (suite *TestSuiteStandard) TestCategoryParentTypeMustMatch() {
	user := suite.createTestUser(models.User{})
	parent := suite.createTestCategory(models.Category{Name: "Casa", Type: models.CategoryTypeExpense, UserID: &user.ID})

	child := models.Category{
		Name:     "Salário",
		Type:     models.CategoryTypeIncome,
		UserID:   &user.ID,
		ParentID: &parent.ID,
	}
	assert.ErrorIs(suite.T(), suite.db.Create(&child).Error, models.ErrCategoryParentType)
}

func (suite *TestSuiteStandard) TestCategoryParentCycle() {
	user := suite.createTestUser(models.User{})
	a := suite.createTestCategory(models.Category{Name: "A", UserID: &user.ID})
	b := suite.createTestCategory(models.Category{Name: "B", UserID: &user.ID, ParentID: &a.ID})

	a.ParentID = &b.ID
	assert.ErrorIs(suite.T(), suite.db.Save(&a).Error, models.ErrCategoryParentCycle)

	a.ParentID = &a.ID
	assert.ErrorIs(suite.T(), suite.db.Save(&a).Error, models.ErrCategorySelfReference)
}

func (suite *TestSuiteStandard) TestCategoryTypeMustMatchTransaction() {
	user := suite.createTestUser(models.User{})
	account := suite.createTestAccount(models.Account{OwnerID: &user.ID})
	category := suite.createTestCategory(models.Category{Name: "Salário", Type: models.CategoryTypeIncome, UserID: &user.ID})

	transaction := models.Transaction{
		Description: "Mercado",
		Amount:      decimal.NewFromFloat(80),
		Type:        models.TransactionTypeExpense,
		UserID:      user.ID,
		AccountID:   account.ID,
		CategoryID:  &category.ID,
	}
	assert.ErrorIs(suite.T(), suite.db.Create(&transaction).Error, models.ErrCategoryTypeMismatch)
}

func (suite *TestSuiteStandard) TestSeedDefaultCategories() {
	err := models.SeedDefaultCategories(suite.db)
	suite.Require().Nil(err)

	var count int64
	suite.db.Model(&models.Category{}).Where("user_id IS NULL AND family_id IS NULL").Count(&count)
	assert.Greater(suite.T(), count, int64(0))

	// Seeding again must not duplicate
	err = models.SeedDefaultCategories(suite.db)
	suite.Require().Nil(err)

	var again int64
	suite.db.Model(&models.Category{}).Where("user_id IS NULL AND family_id IS NULL").Count(&again)
	assert.Equal(suite.T(), count, again)
}

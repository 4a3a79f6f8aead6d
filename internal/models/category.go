package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryType classifies categories and the transactions they apply to.
type CategoryType string

const (
	CategoryTypeIncome   CategoryType = "income"
	CategoryTypeExpense  CategoryType = "expense"
	CategoryTypeTransfer CategoryType = "transfer"
)

// ParseCategoryType parses a canonical lower-case category type.
func ParseCategoryType(s string) (CategoryType, error) {
	switch CategoryType(s) {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeTransfer:
		return CategoryType(s), nil
	}
	return "", ErrInvalidEnumValue
}

// BudgetGroup tags an expense category for the 50-30-20 overlay.
type BudgetGroup string

const (
	BudgetGroupNecessities BudgetGroup = "necessities"
	BudgetGroupWants       BudgetGroup = "wants"
	BudgetGroupSavings     BudgetGroup = "savings"
)

// ParseBudgetGroup parses a canonical lower-case budget group.
func ParseBudgetGroup(s string) (BudgetGroup, error) {
	switch BudgetGroup(s) {
	case BudgetGroupNecessities, BudgetGroupWants, BudgetGroupSavings:
		return BudgetGroup(s), nil
	}
	return "", ErrInvalidEnumValue
}

// Category classifies transactions. Categories with a nil UserID and
// FamilyID are platform defaults visible to everyone.
type Category struct {
	DefaultModel
	Name        string
	Type        CategoryType
	UserID      *uuid.UUID `gorm:"index"`
	User        *User      `json:"-"`
	FamilyID    *uuid.UUID
	Family      *Family `json:"-"`
	ParentID    *uuid.UUID
	Parent      *Category    `json:"-"`
	BudgetGroup *BudgetGroup `gorm:"type:text"`
}

var (
	ErrCategoryNameRequired  = errors.New("the category name must be set")
	ErrCategoryParentType    = errors.New("a category must have the same type as its parent")
	ErrCategoryParentCycle   = errors.New("the category parent chain must not contain cycles")
	ErrCategoryTypeMismatch  = errors.New("the category type does not match the transaction type")
	ErrCategorySelfReference = errors.New("a category can not be its own parent")
)

func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrCategoryNameRequired
	}

	if _, err := ParseCategoryType(string(c.Type)); err != nil {
		return err
	}

	if c.BudgetGroup != nil {
		if _, err := ParseBudgetGroup(string(*c.BudgetGroup)); err != nil {
			return err
		}
	}

	return c.checkParent(tx)
}

// checkParent verifies the parent has the same type and that following
// the parent chain never returns to this category.
func (c *Category) checkParent(tx *gorm.DB) error {
	if c.ParentID == nil {
		return nil
	}

	if *c.ParentID == c.ID {
		return ErrCategorySelfReference
	}

	seen := map[uuid.UUID]bool{c.ID: true}
	nextID := c.ParentID

	for depth := 0; nextID != nil; depth++ {
		if seen[*nextID] {
			return ErrCategoryParentCycle
		}
		seen[*nextID] = true

		var parent Category
		err := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).First(&parent, "id = ?", *nextID).Error
		if err != nil {
			return err
		}

		if depth == 0 && parent.Type != c.Type {
			return ErrCategoryParentType
		}

		nextID = parent.ParentID
	}

	return nil
}

// SeedDefaultCategories creates the platform default categories on an
// empty database. Defaults have no owner and are visible to everyone.
func SeedDefaultCategories(db *gorm.DB) error {
	var count int64
	err := db.Model(&Category{}).
		Where("user_id IS NULL AND family_id IS NULL").
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	group := func(g BudgetGroup) *BudgetGroup { return &g }

	defaults := []Category{
		{Name: "Salário", Type: CategoryTypeIncome},
		{Name: "Renda extra", Type: CategoryTypeIncome},
		{Name: "Investimentos", Type: CategoryTypeIncome},
		{Name: "Moradia", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupNecessities)},
		{Name: "Alimentação", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupNecessities)},
		{Name: "Transporte", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupNecessities)},
		{Name: "Saúde", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupNecessities)},
		{Name: "Educação", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupNecessities)},
		{Name: "Lazer", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupWants)},
		{Name: "Compras", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupWants)},
		{Name: "Assinaturas", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupWants)},
		{Name: "Poupança", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupSavings)},
		{Name: "Reserva de emergência", Type: CategoryTypeExpense, BudgetGroup: group(BudgetGroupSavings)},
		{Name: "Transferência", Type: CategoryTypeTransfer},
	}

	return db.Create(&defaults).Error
}

// AccessRef returns the authorization reference for the category.
func (c Category) AccessRef() AccessRef {
	return AccessRef{
		OwnerID:  c.UserID,
		FamilyID: c.FamilyID,
		Module:   ModuleCategories,
	}
}

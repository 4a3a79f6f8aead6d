package v1

import (
	"net/http"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/httputil"
	"github.com/cofrinho/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (co *Controller) registerCategoryRoutes(r *gin.RouterGroup) {
	r.GET("", co.ListCategories)
	r.POST("", co.CreateCategory)
	r.GET("/:id", co.GetCategory)
	r.PATCH("/:id", co.UpdateCategory)
	r.DELETE("/:id", co.DeleteCategory)
}

// CategoryEditable are the category fields settable through the API.
type CategoryEditable struct {
	Name        string              `json:"name" example:"Mercado"`
	Type        models.CategoryType `json:"type" example:"expense"`
	ParentID    *uuid.UUID          `json:"parentId"`
	FamilyID    *uuid.UUID          `json:"familyId"`
	BudgetGroup *string             `json:"budgetGroup" example:"necessities"`
}

func (editable CategoryEditable) model(owner uuid.UUID) models.Category {
	category := models.Category{
		Name:     editable.Name,
		Type:     editable.Type,
		ParentID: editable.ParentID,
		FamilyID: editable.FamilyID,
	}

	if editable.FamilyID == nil {
		category.UserID = &owner
	}
	if editable.BudgetGroup != nil {
		group := models.BudgetGroup(*editable.BudgetGroup)
		category.BudgetGroup = &group
	}

	return category
}

func (co *Controller) CreateCategory(c *gin.Context) {
	var editable CategoryEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	category := editable.model(actor(c).ID)
	err := co.DB.Create(&category).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Category]{Data: category})
}

// ListCategories returns the actor's own categories, family categories
// and the platform defaults.
func (co *Controller) ListCategories(c *gin.Context) {
	user := actor(c)
	scope, err := co.Access.Scope(user, models.ModuleCategories)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	q := co.DB.Model(&models.Category{})
	cond := co.DB.Where("user_id IN ?", scope.UserIDs).
		Or("user_id IS NULL AND family_id IS NULL")
	if len(scope.FamilyIDs) > 0 {
		cond = cond.Or("family_id IN ?", scope.FamilyIDs)
	}

	var categories []models.Category
	err = q.Where(cond).Order("name ASC").Find(&categories).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Category]{Data: categories})
}

func (co *Controller) GetCategory(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	category, err := co.visibleCategory(c, id, access.ActionView)
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Category]{Data: category})
}

// visibleCategory loads a category and checks access. Platform
// defaults are readable by everyone and editable by nobody.
func (co *Controller) visibleCategory(c *gin.Context, id uuid.UUID, action access.Action) (models.Category, error) {
	var category models.Category
	err := co.DB.First(&category, "id = ?", id).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return models.Category{}, err
	}

	if category.UserID == nil && category.FamilyID == nil {
		if action == access.ActionView {
			return category, nil
		}
		err = models.ErrForbidden
		c.JSON(status(err), httpError{Error: err.Error()})
		return models.Category{}, err
	}

	err = co.Access.CanAccess(actor(c), category.AccessRef(), action)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return models.Category{}, err
	}

	return category, nil
}

func (co *Controller) UpdateCategory(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	category, err := co.visibleCategory(c, id, access.ActionEdit)
	if err != nil {
		return
	}

	var editable CategoryEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	if editable.Name != "" {
		category.Name = editable.Name
	}
	if editable.ParentID != nil {
		category.ParentID = editable.ParentID
	}
	if editable.BudgetGroup != nil {
		group := models.BudgetGroup(*editable.BudgetGroup)
		category.BudgetGroup = &group
	}

	err = co.DB.Save(&category).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Category]{Data: category})
}

func (co *Controller) DeleteCategory(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	category, err := co.visibleCategory(c, id, access.ActionDelete)
	if err != nil {
		return
	}

	err = co.DB.Delete(&category).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

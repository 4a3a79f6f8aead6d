package v1

import (
	"net/http"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/httputil"
	"github.com/cofrinho/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (co *Controller) registerAccountRoutes(r *gin.RouterGroup) {
	r.GET("", co.ListAccounts)
	r.POST("", co.CreateAccount)
	r.GET("/:id", co.GetAccount)
	r.PATCH("/:id", co.UpdateAccount)
	r.DELETE("/:id", co.DeleteAccount)
}

// AccountEditable are the account fields settable through the API.
type AccountEditable struct {
	Name           string             `json:"name" example:"Nubank"`
	Type           models.AccountType `json:"type" example:"checking"`
	InitialBalance decimal.Decimal    `json:"initialBalance" example:"1000.00"`
	Currency       string             `json:"currency" example:"BRL"`
	FamilyID       *uuid.UUID         `json:"familyId"`
	WorkspaceID    *uuid.UUID         `json:"workspaceId"`
	Active         *bool              `json:"active"`
}

func (co *Controller) CreateAccount(c *gin.Context) {
	var editable AccountEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	user := actor(c)
	account := models.Account{
		Name:           editable.Name,
		Type:           editable.Type,
		InitialBalance: editable.InitialBalance,
		Currency:       editable.Currency,
		FamilyID:       editable.FamilyID,
		WorkspaceID:    editable.WorkspaceID,
		Active:         true,
	}

	// Personal unless a family is given; never both.
	if editable.FamilyID == nil {
		owner := user.ID
		account.OwnerID = &owner
	} else {
		err := co.Access.CanAccess(user, models.AccessRef{FamilyID: editable.FamilyID, Module: models.ModuleAccounts}, access.ActionEdit)
		if err != nil {
			c.JSON(status(err), httpError{Error: err.Error()})
			return
		}
	}

	err := co.DB.Create(&account).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Account]{Data: account})
}

func (co *Controller) ListAccounts(c *gin.Context) {
	user := actor(c)
	scope, err := co.Access.Scope(user, models.ModuleAccounts)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var accounts []models.Account
	err = scope.ApplyAccounts(co.DB.Model(&models.Account{})).
		Order("accounts.name ASC").
		Find(&accounts).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Account]{Data: accounts})
}

func (co *Controller) GetAccount(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var account models.Account
	err := co.DB.First(&account, "id = ?", id).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	err = co.Access.CanAccess(actor(c), account.AccessRef(), access.ActionView)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Account]{Data: account})
}

func (co *Controller) UpdateAccount(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var account models.Account
	err := co.DB.First(&account, "id = ?", id).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	err = co.Access.CanAccess(actor(c), account.AccessRef(), access.ActionEdit)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var editable AccountEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	if editable.Name != "" {
		account.Name = editable.Name
	}
	if editable.Type != "" {
		account.Type = editable.Type
	}
	if editable.Currency != "" {
		account.Currency = editable.Currency
	}
	if editable.WorkspaceID != nil {
		account.WorkspaceID = editable.WorkspaceID
	}
	if editable.Active != nil {
		account.Active = *editable.Active
	}

	err = co.DB.Save(&account).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Account]{Data: account})
}

// DeleteAccount soft-deletes an account. Historical transactions stay.
func (co *Controller) DeleteAccount(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var account models.Account
	err := co.DB.First(&account, "id = ?", id).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	err = co.Access.CanAccess(actor(c), account.AccessRef(), access.ActionDelete)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	err = co.DB.Delete(&account).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

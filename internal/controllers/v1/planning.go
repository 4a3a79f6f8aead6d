package v1

import (
	"net/http"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/httputil"
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (co *Controller) registerPlanningRoutes(r *gin.RouterGroup) {
	r.GET("", co.ListPlannings)
	r.POST("", co.CreatePlanning)
	r.GET("/:id", co.GetPlanning)
	r.PATCH("/:id", co.UpdatePlanning)
	r.DELETE("/:id", co.DeletePlanning)
	r.GET("/:id/months", co.ListPlanningMonths)
	r.PUT("/:id/months/:month", co.SetPlanningMonth)
}

// PlanningEditable are the planning fields settable through the API.
// A planning without a category is the general planned-income planning.
type PlanningEditable struct {
	Name        string              `json:"name" example:"Mercado mensal"`
	Type        models.PlanningType `json:"type" example:"monthly"`
	CategoryID  *uuid.UUID          `json:"categoryId"`
	WorkspaceID *uuid.UUID          `json:"workspaceId"`
	Active      *bool               `json:"active"`
}

func (co *Controller) CreatePlanning(c *gin.Context) {
	var editable PlanningEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	planning := models.Planning{
		Name:        editable.Name,
		Type:        editable.Type,
		UserID:      actor(c).ID,
		CategoryID:  editable.CategoryID,
		WorkspaceID: editable.WorkspaceID,
		Active:      true,
	}
	if editable.Active != nil {
		planning.Active = *editable.Active
	}

	err := co.DB.Create(&planning).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Planning]{Data: planning})
}

func (co *Controller) ListPlannings(c *gin.Context) {
	user := actor(c)
	scope, err := co.Access.Scope(user, models.ModulePlanning)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var plannings []models.Planning
	err = scope.ApplyOwned(co.DB.Model(&models.Planning{}), "plannings").
		Order("plannings.name ASC").
		Find(&plannings).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Planning]{Data: plannings})
}

// loadPlanning loads a planning and checks access. On failure the
// response has already been written.
func (co *Controller) loadPlanning(c *gin.Context, action access.Action) (models.Planning, bool) {
	id, ok := bindID(c)
	if !ok {
		return models.Planning{}, false
	}

	var planning models.Planning
	err := co.DB.First(&planning, "id = ?", id).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return models.Planning{}, false
	}

	err = co.Access.CanAccess(actor(c), planning.AccessRef(), action)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return models.Planning{}, false
	}

	return planning, true
}

func (co *Controller) GetPlanning(c *gin.Context) {
	planning, ok := co.loadPlanning(c, access.ActionView)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Planning]{Data: planning})
}

func (co *Controller) UpdatePlanning(c *gin.Context) {
	planning, ok := co.loadPlanning(c, access.ActionEdit)
	if !ok {
		return
	}

	var editable PlanningEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	if editable.Name != "" {
		planning.Name = editable.Name
	}
	if editable.Active != nil {
		planning.Active = *editable.Active
	}

	err := co.DB.Save(&planning).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Planning]{Data: planning})
}

func (co *Controller) DeletePlanning(c *gin.Context) {
	planning, ok := co.loadPlanning(c, access.ActionDelete)
	if !ok {
		return
	}

	err := co.DB.Delete(&planning).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (co *Controller) ListPlanningMonths(c *gin.Context) {
	planning, ok := co.loadPlanning(c, access.ActionView)
	if !ok {
		return
	}

	var rows []models.MonthlyPlanning
	err := co.DB.Where("planning_id = ?", planning.ID).
		Order("month ASC").
		Find(&rows).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.MonthlyPlanning]{Data: rows})
}

// MonthTargetBody sets the planned amount for one month.
type MonthTargetBody struct {
	TargetAmount decimal.Decimal `json:"targetAmount" example:"2000.00"`
}

// SetPlanningMonth upserts the monthly row for the given YYYY-MM month.
func (co *Controller) SetPlanningMonth(c *gin.Context) {
	planning, ok := co.loadPlanning(c, access.ActionEdit)
	if !ok {
		return
	}

	month, err := types.ParseMonth(c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: "the month must be in YYYY-MM format"})
		return
	}

	var body MonthTargetBody
	if httputil.BindData(c, &body) != nil {
		return
	}

	var row models.MonthlyPlanning
	err = co.DB.Where("planning_id = ? AND month = ?", planning.ID, month).First(&row).Error
	if err != nil {
		row = models.MonthlyPlanning{
			PlanningID: planning.ID,
			Month:      month,
		}
	}

	row.TargetAmount = body.TargetAmount
	err = co.DB.Save(&row).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.MonthlyPlanning]{Data: row})
}

package v1

import (
	"net/http"
	"time"

	"github.com/cofrinho/backend/internal/httputil"
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (co *Controller) registerGoalRoutes(r *gin.RouterGroup) {
	r.GET("", co.ListGoals)
	r.POST("", co.CreateGoal)
	r.GET("/:id", co.GetGoal)
	r.PATCH("/:id", co.UpdateGoal)
	r.DELETE("/:id", co.DeleteGoal)
	r.GET("/:id/contributions", co.ListGoalContributions)
	r.POST("/:id/contributions", co.ContributeToGoal)
	r.DELETE("/contributions/:id", co.DeleteGoalContribution)
}

// GoalEditable are the goal fields settable through the API.
type GoalEditable struct {
	Name                       string           `json:"name" example:"Viagem"`
	Type                       models.GoalType  `json:"type" example:"trip"`
	TargetAmount               decimal.Decimal  `json:"targetAmount" example:"8000.00"`
	TargetDate                 *time.Time       `json:"targetDate"`
	SavingsCategoryID          *uuid.UUID       `json:"savingsCategoryId"`
	AutoContributionPercentage *decimal.Decimal `json:"autoContributionPercentage" example:"10"`
}

func (co *Controller) CreateGoal(c *gin.Context) {
	var editable GoalEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	goal, err := co.Services.Goals.Create(actor(c), services.GoalCreate{
		Name:                       editable.Name,
		Type:                       editable.Type,
		TargetAmount:               editable.TargetAmount,
		TargetDate:                 editable.TargetDate,
		SavingsCategoryID:          editable.SavingsCategoryID,
		AutoContributionPercentage: editable.AutoContributionPercentage,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Goal]{Data: goal})
}

func (co *Controller) ListGoals(c *gin.Context) {
	goals, err := co.Services.Goals.List(actor(c), models.GoalStatus(c.Query("status")))
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Goal]{Data: goals})
}

func (co *Controller) GetGoal(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	goal, err := co.Services.Goals.Get(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Goal]{Data: goal})
}

// GoalUpdateBody is the PATCH body; absent fields stay unchanged.
type GoalUpdateBody struct {
	Name                       *string            `json:"name"`
	Type                       *models.GoalType   `json:"type"`
	TargetAmount               *decimal.Decimal   `json:"targetAmount"`
	TargetDate                 *time.Time         `json:"targetDate"`
	Status                     *models.GoalStatus `json:"status"`
	SavingsCategoryID          *uuid.UUID         `json:"savingsCategoryId"`
	AutoContributionPercentage *decimal.Decimal   `json:"autoContributionPercentage"`
}

func (co *Controller) UpdateGoal(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body GoalUpdateBody
	if httputil.BindData(c, &body) != nil {
		return
	}

	goal, err := co.Services.Goals.Update(actor(c), id, services.GoalUpdate{
		Name:                       body.Name,
		Type:                       body.Type,
		TargetAmount:               body.TargetAmount,
		TargetDate:                 body.TargetDate,
		Status:                     body.Status,
		SavingsCategoryID:          body.SavingsCategoryID,
		AutoContributionPercentage: body.AutoContributionPercentage,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Goal]{Data: goal})
}

func (co *Controller) DeleteGoal(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	err := co.Services.Goals.Delete(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// ContributionEditable are the contribution fields settable through the API.
type ContributionEditable struct {
	Amount        decimal.Decimal `json:"amount" example:"500.00"`
	Date          time.Time       `json:"date"`
	Notes         string          `json:"notes"`
	TransactionID *uuid.UUID      `json:"transactionId"`
}

func (co *Controller) ContributeToGoal(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var editable ContributionEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	contribution, err := co.Services.Goals.Contribute(actor(c), id, services.ContributionCreate{
		Amount:        editable.Amount,
		Date:          editable.Date,
		Notes:         editable.Notes,
		TransactionID: editable.TransactionID,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.GoalContribution]{Data: contribution})
}

func (co *Controller) ListGoalContributions(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	contributions, err := co.Services.Goals.Contributions(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.GoalContribution]{Data: contributions})
}

func (co *Controller) DeleteGoalContribution(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	err := co.Services.Goals.DeleteContribution(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

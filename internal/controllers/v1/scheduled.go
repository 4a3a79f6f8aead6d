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

func (co *Controller) registerScheduledRoutes(r *gin.RouterGroup) {
	r.GET("", co.ListScheduled)
	r.POST("", co.CreateScheduled)
	r.GET("/:id", co.GetScheduled)
	r.GET("/:id/executions", co.ListScheduledExecutions)
	r.POST("/:id/execute", co.ExecuteScheduledNow)
	r.POST("/:id/pause", co.PauseScheduled)
	r.POST("/:id/resume", co.ResumeScheduled)
	r.POST("/:id/cancel", co.CancelScheduled)
}

// ScheduledEditable are the schedule fields settable through the API.
type ScheduledEditable struct {
	Description   string                 `json:"description" example:"Salário"`
	Amount        decimal.Decimal        `json:"amount" example:"3000.00"`
	Type          models.TransactionType `json:"type" example:"income"`
	StartDate     time.Time              `json:"startDate"`
	EndDate       *time.Time             `json:"endDate"`
	Recurrence    models.Recurrence      `json:"recurrence" example:"monthly"`
	RecurrenceDay *int                   `json:"recurrenceDay" example:"5"`
	MaxExecutions *int                   `json:"maxExecutions"`
	AutoExecute   bool                   `json:"autoExecute" example:"true"`
	AccountID     uuid.UUID              `json:"accountId"`
	CategoryID    *uuid.UUID             `json:"categoryId"`
	WorkspaceID   *uuid.UUID             `json:"workspaceId"`
}

func (co *Controller) CreateScheduled(c *gin.Context) {
	var editable ScheduledEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	scheduled, err := co.Services.Scheduled.Create(actor(c), services.ScheduledCreate{
		Description:   editable.Description,
		Amount:        editable.Amount,
		Type:          editable.Type,
		StartDate:     editable.StartDate,
		EndDate:       editable.EndDate,
		Recurrence:    editable.Recurrence,
		RecurrenceDay: editable.RecurrenceDay,
		MaxExecutions: editable.MaxExecutions,
		AutoExecute:   editable.AutoExecute,
		AccountID:     editable.AccountID,
		CategoryID:    editable.CategoryID,
		WorkspaceID:   editable.WorkspaceID,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.ScheduledTransaction]{Data: scheduled})
}

func (co *Controller) ListScheduled(c *gin.Context) {
	scheduled, err := co.Services.Scheduled.List(actor(c), models.ScheduleStatus(c.Query("status")))
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.ScheduledTransaction]{Data: scheduled})
}

func (co *Controller) GetScheduled(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	scheduled, err := co.Services.Scheduled.Get(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.ScheduledTransaction]{Data: scheduled})
}

func (co *Controller) ListScheduledExecutions(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	executions, err := co.Services.Scheduled.Executions(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.TransactionExecution]{Data: executions})
}

func (co *Controller) ExecuteScheduledNow(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	transaction, err := co.Services.Scheduled.ExecuteNow(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Transaction]{Data: transaction})
}

func (co *Controller) PauseScheduled(c *gin.Context) {
	co.transitionScheduled(c, co.Services.Scheduled.Pause)
}

func (co *Controller) ResumeScheduled(c *gin.Context) {
	co.transitionScheduled(c, co.Services.Scheduled.Resume)
}

func (co *Controller) CancelScheduled(c *gin.Context) {
	co.transitionScheduled(c, co.Services.Scheduled.Cancel)
}

func (co *Controller) transitionScheduled(c *gin.Context, op func(models.User, uuid.UUID) (models.ScheduledTransaction, error)) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	scheduled, err := op(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.ScheduledTransaction]{Data: scheduled})
}

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

func (co *Controller) registerTransferRoutes(r *gin.RouterGroup) {
	r.GET("", co.ListTransfers)
	r.POST("", co.CreateTransfer)
	r.GET("/:id", co.GetTransfer)
	r.POST("/:id/cancel", co.CancelTransfer)
}

// TransferEditable are the transfer fields settable through the API.
type TransferEditable struct {
	Amount        decimal.Decimal `json:"amount" example:"150.00"`
	Description   string          `json:"description" example:"Reserva de emergência"`
	Date          time.Time       `json:"date"`
	ScheduledDate *time.Time      `json:"scheduledDate"`
	FromAccountID uuid.UUID       `json:"fromAccountId"`
	ToAccountID   uuid.UUID       `json:"toAccountId"`
	WorkspaceID   *uuid.UUID      `json:"workspaceId"`
}

func (co *Controller) CreateTransfer(c *gin.Context) {
	var editable TransferEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	transfer, err := co.Services.Transfers.Create(actor(c), services.TransferCreate{
		Amount:        editable.Amount,
		Description:   editable.Description,
		Date:          editable.Date,
		ScheduledDate: editable.ScheduledDate,
		FromAccountID: editable.FromAccountID,
		ToAccountID:   editable.ToAccountID,
		WorkspaceID:   editable.WorkspaceID,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Transfer]{Data: transfer})
}

func (co *Controller) ListTransfers(c *gin.Context) {
	transfers, err := co.Services.Transfers.List(actor(c))
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Transfer]{Data: transfers})
}

func (co *Controller) GetTransfer(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	transfer, err := co.Services.Transfers.Get(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Transfer]{Data: transfer})
}

func (co *Controller) CancelTransfer(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	transfer, err := co.Services.Transfers.Cancel(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Transfer]{Data: transfer})
}

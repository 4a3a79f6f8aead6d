package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cofrinho/backend/internal/httputil"
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (co *Controller) registerBillRoutes(r *gin.RouterGroup) {
	r.GET("", co.ListBills)
	r.POST("", co.CreateBill)
	r.GET("/upcoming", co.ListUpcomingBills)
	r.GET("/overdue", co.ListOverdueBills)
	r.GET("/:id", co.GetBill)
	r.PATCH("/:id", co.UpdateBill)
	r.DELETE("/:id", co.DeleteBill)
	r.POST("/:id/pay", co.PayBill)
}

// BillEditable are the bill fields settable through the API.
type BillEditable struct {
	Name              string                 `json:"name" example:"Internet"`
	Amount            decimal.Decimal        `json:"amount" example:"100.00"`
	Type              models.TransactionType `json:"type" example:"expense"`
	DueDate           time.Time              `json:"dueDate"`
	IsRecurring       bool                   `json:"isRecurring"`
	Recurrence        models.Recurrence      `json:"recurrence" example:"monthly"`
	RecurrenceDay     *int                   `json:"recurrenceDay" example:"5"`
	RecurrenceEndDate *time.Time             `json:"recurrenceEndDate"`
	Notes             string                 `json:"notes"`
	AccountID         *uuid.UUID             `json:"accountId"`
	CategoryID        *uuid.UUID             `json:"categoryId"`
	WorkspaceID       *uuid.UUID             `json:"workspaceId"`
}

func (co *Controller) CreateBill(c *gin.Context) {
	var editable BillEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	bill, err := co.Services.Bills.Create(actor(c), services.BillCreate{
		Name:              editable.Name,
		Amount:            editable.Amount,
		Type:              editable.Type,
		DueDate:           editable.DueDate,
		IsRecurring:       editable.IsRecurring,
		Recurrence:        editable.Recurrence,
		RecurrenceDay:     editable.RecurrenceDay,
		RecurrenceEndDate: editable.RecurrenceEndDate,
		Notes:             editable.Notes,
		AccountID:         editable.AccountID,
		CategoryID:        editable.CategoryID,
		WorkspaceID:       editable.WorkspaceID,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Bill]{Data: bill})
}

func (co *Controller) ListBills(c *gin.Context) {
	bills, err := co.Services.Bills.List(actor(c), models.BillStatus(c.Query("status")))
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Bill]{Data: bills})
}

func (co *Controller) ListUpcomingBills(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, httpError{Error: "the days query parameter must be a positive integer"})
			return
		}
		days = parsed
	}

	bills, err := co.Services.Bills.ListUpcoming(actor(c), days)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Bill]{Data: bills})
}

func (co *Controller) ListOverdueBills(c *gin.Context) {
	bills, err := co.Services.Bills.ListOverdue(actor(c))
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Bill]{Data: bills})
}

func (co *Controller) GetBill(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	bill, err := co.Services.Bills.Get(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Bill]{Data: bill})
}

// BillUpdateBody is the PATCH body; absent fields stay unchanged.
type BillUpdateBody struct {
	Name              *string            `json:"name"`
	Amount            *decimal.Decimal   `json:"amount"`
	DueDate           *time.Time         `json:"dueDate"`
	Notes             *string            `json:"notes"`
	IsRecurring       *bool              `json:"isRecurring"`
	Recurrence        *models.Recurrence `json:"recurrence"`
	RecurrenceDay     *int               `json:"recurrenceDay"`
	RecurrenceEndDate *time.Time         `json:"recurrenceEndDate"`
	AccountID         *uuid.UUID         `json:"accountId"`
	CategoryID        *uuid.UUID         `json:"categoryId"`
}

func (co *Controller) UpdateBill(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body BillUpdateBody
	if httputil.BindData(c, &body) != nil {
		return
	}

	bill, err := co.Services.Bills.Update(actor(c), id, services.BillUpdate{
		Name:              body.Name,
		Amount:            body.Amount,
		DueDate:           body.DueDate,
		Notes:             body.Notes,
		IsRecurring:       body.IsRecurring,
		Recurrence:        body.Recurrence,
		RecurrenceDay:     body.RecurrenceDay,
		RecurrenceEndDate: body.RecurrenceEndDate,
		AccountID:         body.AccountID,
		CategoryID:        body.CategoryID,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Bill]{Data: bill})
}

func (co *Controller) DeleteBill(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	err := co.Services.Bills.Delete(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// PayBillBody controls how a bill is settled; the zero value settles
// now, on the bill's account, with a settlement transaction.
type PayBillBody struct {
	PaymentDate       *time.Time `json:"paymentDate"`
	AccountID         *uuid.UUID `json:"accountId"`
	CreateTransaction *bool      `json:"createTransaction"`
}

func (co *Controller) PayBill(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	params := services.DefaultPayParams()

	// An empty body uses the defaults.
	var body PayBillBody
	if c.Request.ContentLength > 0 {
		if httputil.BindData(c, &body) != nil {
			return
		}
		params.PaymentDate = body.PaymentDate
		params.AccountID = body.AccountID
		if body.CreateTransaction != nil {
			params.CreateTransaction = *body.CreateTransaction
		}
	}

	bill, err := co.Services.Bills.Pay(actor(c), id, params)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Bill]{Data: bill})
}

package v1

import (
	"net/http"
	"time"

	"github.com/cofrinho/backend/internal/httputil"
	"github.com/cofrinho/backend/internal/models"
	"github.com/cofrinho/backend/internal/services"
	ez_uuid "github.com/cofrinho/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

func (co *Controller) registerTransactionRoutes(r *gin.RouterGroup) {
	r.GET("", co.SearchTransactions)
	r.POST("", co.CreateTransaction)
	r.GET("/:id", co.GetTransaction)
	r.PATCH("/:id", co.UpdateTransaction)
	r.DELETE("/:id", co.DeleteTransaction)
}

// TransactionEditable are the transaction fields settable through the API.
type TransactionEditable struct {
	Description string                    `json:"description" example:"Aluguel"`
	Amount      decimal.Decimal           `json:"amount" example:"1500.00"`
	Type        models.TransactionType    `json:"type" example:"expense"`
	Status      *models.TransactionStatus `json:"status" example:"completed"`
	Date        time.Time                 `json:"date" example:"2024-03-05T00:00:00Z"`
	Notes       string                    `json:"notes"`
	AccountID   uuid.UUID                 `json:"accountId"`
	CategoryID  *uuid.UUID                `json:"categoryId"`
	WorkspaceID *uuid.UUID                `json:"workspaceId"`
}

func (co *Controller) CreateTransaction(c *gin.Context) {
	var editable TransactionEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	create := services.TransactionCreate{
		Description: editable.Description,
		Amount:      editable.Amount,
		Type:        editable.Type,
		Date:        editable.Date,
		Notes:       editable.Notes,
		AccountID:   editable.AccountID,
		CategoryID:  editable.CategoryID,
		WorkspaceID: editable.WorkspaceID,
	}
	if editable.Status != nil {
		create.Status = *editable.Status
	}

	transaction, err := co.Services.Transactions.Create(actor(c), create)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Transaction]{Data: transaction})
}

func (co *Controller) GetTransaction(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	transaction, err := co.Services.Transactions.Get(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Transaction]{Data: transaction})
}

// TransactionUpdateBody is the PATCH body; absent fields stay unchanged.
type TransactionUpdateBody struct {
	Description *string                   `json:"description"`
	Amount      *decimal.Decimal          `json:"amount"`
	Type        *models.TransactionType   `json:"type"`
	Status      *models.TransactionStatus `json:"status"`
	Date        *time.Time                `json:"date"`
	Notes       *string                   `json:"notes"`
	AccountID   *uuid.UUID                `json:"accountId"`
	CategoryID  *uuid.UUID                `json:"categoryId"`
	WorkspaceID *uuid.UUID                `json:"workspaceId"`
}

func (co *Controller) UpdateTransaction(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body TransactionUpdateBody
	if httputil.BindData(c, &body) != nil {
		return
	}

	transaction, err := co.Services.Transactions.Update(actor(c), id, services.TransactionUpdate{
		Description: body.Description,
		Amount:      body.Amount,
		Type:        body.Type,
		Status:      body.Status,
		Date:        body.Date,
		Notes:       body.Notes,
		AccountID:   body.AccountID,
		CategoryID:  body.CategoryID,
		WorkspaceID: body.WorkspaceID,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Transaction]{Data: transaction})
}

func (co *Controller) DeleteTransaction(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	err := co.Services.Transactions.Delete(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// TransactionQueryFilter narrows the transaction listing.
type TransactionQueryFilter struct {
	Search     string       `form:"search"`     // Text in description or notes
	Type       string       `form:"type"`       // By type
	Status     string       `form:"status"`     // By status
	AccountID  ez_uuid.UUID `form:"account"`    // By account ID
	CategoryID ez_uuid.UUID `form:"category"`   // By category ID
	From       string       `form:"fromDate"`   // Date >= this, RFC 3339
	Until      string       `form:"untilDate"`  // Date < this, RFC 3339
	AmountMin  string       `form:"amountMin"`  // Amount >= this
	AmountMax  string       `form:"amountMax"`  // Amount <= this
	Offset     int          `form:"offset"`     // Offset of the first result
	Limit      int          `form:"limit"`      // Maximum results, defaults to 50
}

// TransactionPageResponse is one page of search results.
type TransactionPageResponse struct {
	Data  []models.Transaction `json:"data"`
	Total int64                `json:"total"`
}

func (co *Controller) SearchTransactions(c *gin.Context) {
	var filter TransactionQueryFilter
	err := c.ShouldBindQuery(&filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
		return
	}

	search := services.TransactionSearch{
		Text:   filter.Search,
		Type:   models.TransactionType(filter.Type),
		Status: models.TransactionStatus(filter.Status),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}

	if filter.Type != "" {
		if !slices.Contains([]models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense, models.TransactionTypeTransfer}, search.Type) {
			c.JSON(http.StatusBadRequest, httpError{Error: "the transaction type filter must be income, expense or transfer"})
			return
		}
	}

	if filter.Status != "" {
		if !slices.Contains([]models.TransactionStatus{models.TransactionStatusPending, models.TransactionStatusCompleted, models.TransactionStatusCancelled}, search.Status) {
			c.JSON(http.StatusBadRequest, httpError{Error: "the transaction status filter must be pending, completed or cancelled"})
			return
		}
	}

	if filter.AccountID.UUID != uuid.Nil {
		search.AccountID = &filter.AccountID.UUID
	}
	if filter.CategoryID.UUID != uuid.Nil {
		search.CategoryID = &filter.CategoryID.UUID
	}
	if filter.From != "" {
		search.From, err = time.Parse(time.RFC3339, filter.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}
	}
	if filter.Until != "" {
		search.Until, err = time.Parse(time.RFC3339, filter.Until)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}
	}
	if filter.AmountMin != "" {
		amount, err := decimal.NewFromString(filter.AmountMin)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}
		search.AmountMin = &amount
	}
	if filter.AmountMax != "" {
		amount, err := decimal.NewFromString(filter.AmountMax)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}
		search.AmountMax = &amount
	}

	page, err := co.Services.Transactions.Search(actor(c), search)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, TransactionPageResponse{Data: page.Transactions, Total: page.Total})
}

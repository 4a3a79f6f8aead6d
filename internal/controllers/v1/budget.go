package v1

import (
	"net/http"

	"github.com/cofrinho/backend/internal/budget"
	"github.com/cofrinho/backend/internal/types"
	"github.com/gin-gonic/gin"
)

func (co *Controller) registerBudgetRoutes(r *gin.RouterGroup) {
	r.GET("/:month", co.GetMonthlyBudget)
}

// GetMonthlyBudget returns the planned-versus-actual view for a
// YYYY-MM month. Passing rule=true adds the 50-30-20 overlay.
func (co *Controller) GetMonthlyBudget(c *gin.Context) {
	month, err := types.ParseMonth(c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: "the month must be in YYYY-MM format"})
		return
	}

	rule := c.Query("rule") == "true"

	view, err := co.Budget.Monthly(actor(c), month, rule)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[budget.MonthlyBudget]{Data: view})
}

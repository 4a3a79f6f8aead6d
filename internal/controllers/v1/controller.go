// Package v1 implements the HTTP surface of the engine.
//
// Authentication happens upstream; requests arrive with the acting
// user's ID in the X-Actor header. Everything else is delegated to the
// services, which enforce authorization.
package v1

import (
	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/budget"
	"github.com/cofrinho/backend/internal/calendar"
	"github.com/cofrinho/backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Controller bundles the dependencies of the v1 handlers.
type Controller struct {
	DB       *gorm.DB
	Services *services.Services
	Access   *access.Evaluator
	Budget   *budget.Engine
	Calendar *calendar.Service
}

// Register mounts all v1 routes on the group.
func Register(r *gin.RouterGroup, co *Controller) {
	r.Use(co.RequireActor())

	co.registerAccountRoutes(r.Group("/accounts"))
	co.registerCategoryRoutes(r.Group("/categories"))
	co.registerTransactionRoutes(r.Group("/transactions"))
	co.registerBillRoutes(r.Group("/bills"))
	co.registerTransferRoutes(r.Group("/transfers"))
	co.registerGoalRoutes(r.Group("/goals"))
	co.registerPlanningRoutes(r.Group("/plannings"))
	co.registerBudgetRoutes(r.Group("/budget"))
	co.registerScheduledRoutes(r.Group("/scheduled-transactions"))
	co.registerCalendarRoutes(r.Group("/calendar"))
	co.registerFamilyRoutes(r.Group("/families"))
	co.registerWorkspaceRoutes(r.Group("/workspaces"))
	co.registerNotificationRoutes(r.Group("/notifications"))
}

package v1

import (
	"net/http"

	"github.com/cofrinho/backend/internal/httputil"
	"github.com/cofrinho/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (co *Controller) registerFamilyRoutes(r *gin.RouterGroup) {
	r.POST("", co.CreateFamily)
	r.GET("/:id", co.GetFamily)
	r.GET("/:id/members", co.ListFamilyMembers)
	r.DELETE("/:id/members/:userId", co.RemoveFamilyMember)
	r.PUT("/:id/members/:userId/permissions", co.SetMemberPermission)
	r.POST("/:id/invites", co.CreateFamilyInvite)
	r.POST("/invites/accept", co.AcceptFamilyInvite)
	r.POST("/invites/:id/cancel", co.CancelFamilyInvite)
}

// FamilyEditable are the family fields settable through the API.
type FamilyEditable struct {
	Name string `json:"name" example:"Família Silva"`
}

func (co *Controller) CreateFamily(c *gin.Context) {
	var editable FamilyEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	family, err := co.Services.Families.Create(actor(c), editable.Name)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Family]{Data: family})
}

func (co *Controller) GetFamily(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	family, err := co.Services.Families.Get(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Family]{Data: family})
}

func (co *Controller) ListFamilyMembers(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	members, err := co.Services.Families.Members(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.FamilyMember]{Data: members})
}

func (co *Controller) RemoveFamilyMember(c *gin.Context) {
	familyID, userID, ok := bindFamilyMember(c)
	if !ok {
		return
	}

	err := co.Services.Families.RemoveMember(actor(c), familyID, userID)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// PermissionBody sets a member's bits for one module.
type PermissionBody struct {
	Module    models.Module `json:"module" example:"transactions"`
	CanView   bool          `json:"canView"`
	CanEdit   bool          `json:"canEdit"`
	CanDelete bool          `json:"canDelete"`
}

func (co *Controller) SetMemberPermission(c *gin.Context) {
	familyID, userID, ok := bindFamilyMember(c)
	if !ok {
		return
	}

	var body PermissionBody
	if httputil.BindData(c, &body) != nil {
		return
	}

	if _, err := models.ParseModule(string(body.Module)); err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
		return
	}

	permission, err := co.Services.Families.SetPermission(actor(c), familyID, userID,
		body.Module, body.CanView, body.CanEdit, body.CanDelete)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.ModulePermission]{Data: permission})
}

// InviteBody creates a family invite.
type InviteBody struct {
	Email string            `json:"email" example:"maria@example.com"`
	Role  models.FamilyRole `json:"role" example:"member"`
}

func (co *Controller) CreateFamilyInvite(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body InviteBody
	if httputil.BindData(c, &body) != nil {
		return
	}

	invite, err := co.Services.Families.Invite(actor(c), id, body.Email, body.Role)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.FamilyInvite]{Data: invite})
}

// AcceptInviteBody redeems an invite token.
type AcceptInviteBody struct {
	Token string `json:"token"`
}

func (co *Controller) AcceptFamilyInvite(c *gin.Context) {
	var body AcceptInviteBody
	if httputil.BindData(c, &body) != nil {
		return
	}

	member, err := co.Services.Families.AcceptInvite(actor(c), body.Token)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.FamilyMember]{Data: member})
}

func (co *Controller) CancelFamilyInvite(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	err := co.Services.Families.CancelInvite(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// bindFamilyMember parses the :id and :userId path parameters.
func bindFamilyMember(c *gin.Context) (familyID, userID uuid.UUID, ok bool) {
	familyID, ok = bindID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: httputil.ErrInvalidUUID.Error()})
		return uuid.Nil, uuid.Nil, false
	}

	return familyID, userID, true
}

package v1

import (
	"net/http"

	"github.com/cofrinho/backend/internal/httputil"
	"github.com/cofrinho/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (co *Controller) registerWorkspaceRoutes(r *gin.RouterGroup) {
	r.GET("", co.ListWorkspaces)
	r.POST("", co.CreateWorkspace)
	r.GET("/:id", co.GetWorkspace)
	r.PATCH("/:id", co.UpdateWorkspace)
	r.DELETE("/:id", co.DeleteWorkspace)
	r.PUT("/:id/members/:userId", co.SetWorkspaceMember)
	r.DELETE("/:id/members/:userId", co.RemoveWorkspaceMember)
}

// WorkspaceEditable are the workspace fields settable through the API.
type WorkspaceEditable struct {
	Name     string               `json:"name" example:"Freelance"`
	Type     models.WorkspaceType `json:"type" example:"personal"`
	FamilyID *uuid.UUID           `json:"familyId"`
	Active   *bool                `json:"active"`
}

func (co *Controller) CreateWorkspace(c *gin.Context) {
	var editable WorkspaceEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	workspace := models.Workspace{
		Name:     editable.Name,
		OwnerID:  actor(c).ID,
		Type:     editable.Type,
		FamilyID: editable.FamilyID,
		Active:   true,
	}

	err := co.DB.Create(&workspace).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.Workspace]{Data: workspace})
}

// ListWorkspaces returns owned workspaces and memberships.
func (co *Controller) ListWorkspaces(c *gin.Context) {
	user := actor(c)

	var workspaces []models.Workspace
	err := co.DB.
		Where("owner_id = ?", user.ID).
		Or("id IN (?)", co.DB.Model(&models.WorkspaceMember{}).Select("workspace_id").Where("user_id = ?", user.ID)).
		Order("name ASC").
		Find(&workspaces).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Workspace]{Data: workspaces})
}

// loadOwnedWorkspace loads a workspace the actor owns. Non-owners get
// not found, never forbidden.
func (co *Controller) loadOwnedWorkspace(c *gin.Context) (models.Workspace, bool) {
	id, ok := bindID(c)
	if !ok {
		return models.Workspace{}, false
	}

	var workspace models.Workspace
	err := co.DB.First(&workspace, "id = ?", id).Error
	if err == nil && workspace.OwnerID != actor(c).ID {
		err = models.ErrResourceNotFound
	}
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return models.Workspace{}, false
	}

	return workspace, true
}

func (co *Controller) GetWorkspace(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	user := actor(c)
	var workspace models.Workspace
	err := co.DB.First(&workspace, "id = ?", id).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	if workspace.OwnerID != user.ID {
		var count int64
		err = co.DB.Model(&models.WorkspaceMember{}).
			Where("workspace_id = ? AND user_id = ?", workspace.ID, user.ID).
			Count(&count).Error
		if err != nil || count == 0 {
			err = models.ErrResourceNotFound
			c.JSON(status(err), httpError{Error: err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Workspace]{Data: workspace})
}

func (co *Controller) UpdateWorkspace(c *gin.Context) {
	workspace, ok := co.loadOwnedWorkspace(c)
	if !ok {
		return
	}

	var editable WorkspaceEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	if editable.Name != "" {
		workspace.Name = editable.Name
	}
	if editable.Active != nil {
		workspace.Active = *editable.Active
	}

	err := co.DB.Save(&workspace).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Workspace]{Data: workspace})
}

func (co *Controller) DeleteWorkspace(c *gin.Context) {
	workspace, ok := co.loadOwnedWorkspace(c)
	if !ok {
		return
	}

	err := co.DB.Delete(&workspace).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// WorkspaceMemberBody grants edit and delete bits to a member.
// View is implied by membership.
type WorkspaceMemberBody struct {
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

func (co *Controller) SetWorkspaceMember(c *gin.Context) {
	workspace, ok := co.loadOwnedWorkspace(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: httputil.ErrInvalidUUID.Error()})
		return
	}

	var body WorkspaceMemberBody
	if httputil.BindData(c, &body) != nil {
		return
	}

	var member models.WorkspaceMember
	err = co.DB.Where("workspace_id = ? AND user_id = ?", workspace.ID, userID).First(&member).Error
	if err != nil {
		member = models.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      userID,
		}
	}

	member.CanEdit = body.CanEdit
	member.CanDelete = body.CanDelete
	err = co.DB.Save(&member).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.WorkspaceMember]{Data: member})
}

func (co *Controller) RemoveWorkspaceMember(c *gin.Context) {
	workspace, ok := co.loadOwnedWorkspace(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: httputil.ErrInvalidUUID.Error()})
		return
	}

	err = co.DB.Where("workspace_id = ? AND user_id = ?", workspace.ID, userID).
		Delete(&models.WorkspaceMember{}).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// Package access decides whether an actor may read or write a resource.
//
// Every service gates its reads and writes through the Evaluator, and
// every listing query applies a visibility scope produced by it. The
// evaluator is authoritative: listings never return rows an actor
// cannot view.
package access

import (
	"errors"

	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Action is what the actor wants to do with a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Evaluator decides canAccess(actor, resource, action).
type Evaluator struct {
	db *gorm.DB
}

// New returns an Evaluator reading memberships from the database.
func New(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db}
}

// CanAccess returns nil when the actor may perform the action on the
// resource described by ref.
//
// Decision order, first match wins: direct ownership, platform admin
// (non-destructive actions only), family role and module permission,
// workspace ownership or membership. Denied ownership-scoped resources
// report not-found instead of forbidden so existence does not leak.
func (e *Evaluator) CanAccess(actor models.User, ref models.AccessRef, action Action) error {
	if ref.OwnedBy(actor.ID) {
		return nil
	}

	if actor.IsAdmin() && action != ActionDelete {
		return nil
	}

	if ref.FamilyID != nil {
		err := e.familyAllows(actor, *ref.FamilyID, ref.Module, action)
		if err == nil || !errors.Is(err, models.ErrForbidden) {
			return err
		}
	}

	if ref.WorkspaceID != nil {
		err := e.workspaceAllows(actor, *ref.WorkspaceID, action)
		if err == nil || !errors.Is(err, models.ErrForbidden) {
			return err
		}
	}

	// Purely ownership-scoped resources pretend not to exist.
	if ref.FamilyID == nil && ref.WorkspaceID == nil {
		return models.ErrResourceNotFound
	}

	return models.ErrForbidden
}

// familyAllows checks the actor's role and module permission in a family.
func (e *Evaluator) familyAllows(actor models.User, familyID uuid.UUID, module models.Module, action Action) error {
	var member models.FamilyMember
	err := e.db.Where(&models.FamilyMember{FamilyID: familyID, UserID: actor.ID}).First(&member).Error
	if errors.Is(err, models.ErrResourceNotFound) {
		return models.ErrForbidden
	}
	if err != nil {
		return err
	}

	// Owners implicitly have all bits set
	if member.Role == models.FamilyRoleOwner {
		return nil
	}

	var permission models.ModulePermission
	err = e.db.Where(&models.ModulePermission{FamilyMemberID: member.ID, Module: module}).First(&permission).Error
	if errors.Is(err, models.ErrResourceNotFound) {
		return models.ErrForbidden
	}
	if err != nil {
		return err
	}

	if !permissionAllows(permission, action) {
		return models.ErrForbidden
	}

	return nil
}

// workspaceAllows checks workspace ownership and membership bits.
func (e *Evaluator) workspaceAllows(actor models.User, workspaceID uuid.UUID, action Action) error {
	var workspace models.Workspace
	err := e.db.First(&workspace, "id = ?", workspaceID).Error
	if err != nil {
		return err
	}

	if workspace.OwnerID == actor.ID {
		return nil
	}

	var member models.WorkspaceMember
	err = e.db.Where(&models.WorkspaceMember{WorkspaceID: workspaceID, UserID: actor.ID}).First(&member).Error
	if errors.Is(err, models.ErrResourceNotFound) {
		return models.ErrForbidden
	}
	if err != nil {
		return err
	}

	switch action {
	case ActionView:
		return nil // membership implies visibility
	case ActionEdit:
		if member.CanEdit {
			return nil
		}
	case ActionDelete:
		if member.CanDelete {
			return nil
		}
	}

	return models.ErrForbidden
}

func permissionAllows(p models.ModulePermission, action Action) bool {
	switch action {
	case ActionView:
		return p.CanView
	case ActionEdit:
		return p.CanEdit
	case ActionDelete:
		return p.CanDelete
	}
	return false
}

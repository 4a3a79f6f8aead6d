package access

import (
	"errors"

	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope is the visibility filter for listing queries: the set of
// owner, family and workspace identifiers whose rows the actor may see
// for a given module.
type Scope struct {
	UserIDs      []uuid.UUID
	FamilyIDs    []uuid.UUID
	WorkspaceIDs []uuid.UUID
}

// Scope derives the visibility filter for the actor and module.
//
// Families contribute their rows only when the actor is the family
// owner or holds the module's view bit. Workspace membership always
// implies visibility of the workspace's rows.
func (e *Evaluator) Scope(actor models.User, module models.Module) (Scope, error) {
	scope := Scope{UserIDs: []uuid.UUID{actor.ID}}

	var memberships []models.FamilyMember
	err := e.db.Where(&models.FamilyMember{UserID: actor.ID}).Find(&memberships).Error
	if err != nil {
		return Scope{}, err
	}

	for _, membership := range memberships {
		if membership.Role == models.FamilyRoleOwner {
			scope.FamilyIDs = append(scope.FamilyIDs, membership.FamilyID)
			continue
		}

		var permission models.ModulePermission
		err = e.db.Where(&models.ModulePermission{FamilyMemberID: membership.ID, Module: module}).First(&permission).Error
		if errors.Is(err, models.ErrResourceNotFound) {
			continue
		}
		if err != nil {
			return Scope{}, err
		}

		if permission.CanView {
			scope.FamilyIDs = append(scope.FamilyIDs, membership.FamilyID)
		}
	}

	var owned []models.Workspace
	err = e.db.Where(&models.Workspace{OwnerID: actor.ID}).Find(&owned).Error
	if err != nil {
		return Scope{}, err
	}
	for _, workspace := range owned {
		scope.WorkspaceIDs = append(scope.WorkspaceIDs, workspace.ID)
	}

	var workspaceMemberships []models.WorkspaceMember
	err = e.db.Where(&models.WorkspaceMember{UserID: actor.ID}).Find(&workspaceMemberships).Error
	if err != nil {
		return Scope{}, err
	}
	for _, membership := range workspaceMemberships {
		scope.WorkspaceIDs = append(scope.WorkspaceIDs, membership.WorkspaceID)
	}

	return scope, nil
}

// ApplyTransactions narrows a transaction query to visible rows:
// own transactions, transactions in visible workspaces, and
// transactions on the accounts of visible families.
func (s Scope) ApplyTransactions(q *gorm.DB) *gorm.DB {
	session := q.Session(&gorm.Session{NewDB: true})
	cond := session.Where("transactions.user_id IN ?", s.UserIDs)

	if len(s.WorkspaceIDs) > 0 {
		cond = cond.Or("transactions.workspace_id IN ?", s.WorkspaceIDs)
	}

	if len(s.FamilyIDs) > 0 {
		cond = cond.Or("transactions.account_id IN (?)",
			session.Session(&gorm.Session{NewDB: true}).
				Table("accounts").
				Select("id").
				Where("family_id IN ?", s.FamilyIDs))
	}

	return q.Where(cond)
}

// ApplyAccounts narrows an account query to visible rows.
func (s Scope) ApplyAccounts(q *gorm.DB) *gorm.DB {
	session := q.Session(&gorm.Session{NewDB: true})
	cond := session.Where("accounts.owner_id IN ?", s.UserIDs)

	if len(s.FamilyIDs) > 0 {
		cond = cond.Or("accounts.family_id IN ?", s.FamilyIDs)
	}

	if len(s.WorkspaceIDs) > 0 {
		cond = cond.Or("accounts.workspace_id IN ?", s.WorkspaceIDs)
	}

	return q.Where(cond)
}

// ApplyOwned narrows a query on a user-owned table (bills, goals,
// plannings, scheduled transactions) to visible rows.
func (s Scope) ApplyOwned(q *gorm.DB, table string) *gorm.DB {
	session := q.Session(&gorm.Session{NewDB: true})
	cond := session.Where(table+".user_id IN ?", s.UserIDs)

	if len(s.WorkspaceIDs) > 0 {
		cond = cond.Or(table+".workspace_id IN ?", s.WorkspaceIDs)
	}

	return q.Where(cond)
}

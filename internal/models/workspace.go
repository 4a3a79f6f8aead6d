package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkspaceType describes the scoping of a workspace.
type WorkspaceType string

const (
	WorkspaceTypePersonal WorkspaceType = "personal"
	WorkspaceTypeFamily   WorkspaceType = "family"
	WorkspaceTypeShared   WorkspaceType = "shared"
)

// ParseWorkspaceType parses a canonical lower-case workspace type.
func ParseWorkspaceType(s string) (WorkspaceType, error) {
	switch WorkspaceType(s) {
	case WorkspaceTypePersonal, WorkspaceTypeFamily, WorkspaceTypeShared:
		return WorkspaceType(s), nil
	}
	return "", ErrInvalidEnumValue
}

// Workspace is a named scoping container for transactions, accounts
// and plannings, e.g. to separate personal finances from a side business.
type Workspace struct {
	DefaultModel
	Name     string
	OwnerID  uuid.UUID `gorm:"index"`
	Owner    User      `json:"-"`
	Type     WorkspaceType
	FamilyID *uuid.UUID
	Family   *Family `json:"-"`
	Active   bool    `gorm:"default:true"`
}

var (
	ErrWorkspaceNameRequired  = errors.New("the workspace name must be set")
	ErrWorkspaceFamilyMissing = errors.New("family workspaces must reference a family")
)

func (w *Workspace) BeforeSave(_ *gorm.DB) error {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return ErrWorkspaceNameRequired
	}

	if w.Type == "" {
		w.Type = WorkspaceTypePersonal
	}

	if _, err := ParseWorkspaceType(string(w.Type)); err != nil {
		return err
	}

	if w.Type == WorkspaceTypeFamily && w.FamilyID == nil {
		return ErrWorkspaceFamilyMissing
	}

	return nil
}

// WorkspaceMember grants a non-owner access to a workspace.
type WorkspaceMember struct {
	DefaultModel
	WorkspaceID uuid.UUID `gorm:"uniqueIndex:workspace_member_workspace_user"`
	Workspace   Workspace `json:"-"`
	UserID      uuid.UUID `gorm:"uniqueIndex:workspace_member_workspace_user"`
	User        User      `json:"-"`
	CanEdit     bool
	CanDelete   bool
}

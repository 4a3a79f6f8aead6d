package models

import "github.com/google/uuid"

// AccessRef is the authorization reference of a resource: who owns it,
// which family and workspace it is scoped to, and which permission
// module it falls under. The access evaluator works exclusively on
// these references so it never needs to know concrete model types.
type AccessRef struct {
	OwnerID     *uuid.UUID
	FamilyID    *uuid.UUID
	WorkspaceID *uuid.UUID
	Module      Module
}

// OwnedBy reports whether the resource is directly owned by the user.
func (r AccessRef) OwnedBy(userID uuid.UUID) bool {
	return r.OwnerID != nil && *r.OwnerID == userID
}

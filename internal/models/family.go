package models

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FamilyRole is the role of a member within a family.
type FamilyRole string

const (
	FamilyRoleOwner  FamilyRole = "owner"
	FamilyRoleAdmin  FamilyRole = "admin"
	FamilyRoleMember FamilyRole = "member"
	FamilyRoleViewer FamilyRole = "viewer"
)

// ParseFamilyRole parses a canonical lower-case role identifier.
func ParseFamilyRole(s string) (FamilyRole, error) {
	switch FamilyRole(s) {
	case FamilyRoleOwner, FamilyRoleAdmin, FamilyRoleMember, FamilyRoleViewer:
		return FamilyRole(s), nil
	}
	return "", ErrInvalidEnumValue
}

// Family is a collaboration group of users.
//
// Every family has exactly one member with the owner role at all times;
// the services that add and remove members maintain this.
type Family struct {
	DefaultModel
	Name        string
	CreatedByID uuid.UUID
	CreatedBy   User `json:"-"`
}

var ErrFamilyNameRequired = errors.New("the family name must be set")

func (f *Family) BeforeSave(_ *gorm.DB) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return ErrFamilyNameRequired
	}
	return nil
}

// FamilyMember links a user to a family with a role.
type FamilyMember struct {
	DefaultModel
	FamilyID uuid.UUID `gorm:"uniqueIndex:family_member_family_user"`
	Family   Family    `json:"-"`
	UserID   uuid.UUID `gorm:"uniqueIndex:family_member_family_user"`
	User     User      `json:"-"`
	Role     FamilyRole
	JoinedAt time.Time
}

func (m *FamilyMember) BeforeSave(_ *gorm.DB) error {
	if _, err := ParseFamilyRole(string(m.Role)); err != nil {
		return err
	}

	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().In(time.UTC)
	}

	return nil
}

// InviteStatus is the lifecycle state of a family invite.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusExpired   InviteStatus = "expired"
	InviteStatusCancelled InviteStatus = "cancelled"
)

// FamilyInvite is a pending offer for a user to join a family.
type FamilyInvite struct {
	DefaultModel
	FamilyID       uuid.UUID `gorm:"index"`
	Family         Family    `json:"-"`
	InvitedByID    uuid.UUID
	InvitedBy      User   `json:"-"`
	Email          string `gorm:"index"`
	Token          string `gorm:"uniqueIndex"`
	Role           FamilyRole
	Status         InviteStatus `gorm:"default:pending"`
	ExpiresAt      time.Time
	AcceptedByID   *uuid.UUID
}

var (
	ErrInviteEmailRequired = errors.New("the invite email must be set")
	ErrInviteExpired       = errors.New("the invite has expired")
	ErrInviteNotPending    = errors.New("the invite is not pending")
)

func (i *FamilyInvite) BeforeSave(_ *gorm.DB) error {
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
	if i.Email == "" {
		return ErrInviteEmailRequired
	}

	if i.Role == "" {
		i.Role = FamilyRoleMember
	}
	// Invites never grant ownership
	if i.Role == FamilyRoleOwner {
		return ErrInvalidEnumValue
	}

	if i.Status == "" {
		i.Status = InviteStatusPending
	}

	return nil
}

// Expired reports whether the invite expiry has passed at the given time.
func (i FamilyInvite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// NewInviteToken returns a fresh random invite token.
//
// Tokens are 256 bits; callers still retry on a unique-index violation
// instead of reusing a colliding token.
func NewInviteToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cofrinho/backend/internal/access"
	"github.com/cofrinho/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FamilyService manages families, their members, per-module permissions
// and the invite flow.
type FamilyService struct {
	db     *gorm.DB
	access *access.Evaluator

	// InviteLifetime is how long a fresh invite stays acceptable.
	InviteLifetime time.Duration
}

const defaultInviteLifetime = 7 * 24 * time.Hour

// Create persists a new family with the actor as its owner member.
func (s *FamilyService) Create(actor models.User, name string) (models.Family, error) {
	family := models.Family{
		Name:        name,
		CreatedByID: actor.ID,
	}

	err := inTransaction(s.db, func(tx *gorm.DB) error {
		err := tx.Create(&family).Error
		if err != nil {
			return err
		}

		owner := models.FamilyMember{
			FamilyID: family.ID,
			UserID:   actor.ID,
			Role:     models.FamilyRoleOwner,
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		return models.Family{}, err
	}

	return family, nil
}

// Get returns a family the actor is a member of.
func (s *FamilyService) Get(actor models.User, id uuid.UUID) (models.Family, error) {
	_, err := s.membership(actor.ID, id)
	if err != nil {
		return models.Family{}, err
	}

	var family models.Family
	err = s.db.First(&family, "id = ?", id).Error
	return family, err
}

// Members lists the members of a family the actor belongs to.
func (s *FamilyService) Members(actor models.User, familyID uuid.UUID) ([]models.FamilyMember, error) {
	_, err := s.membership(actor.ID, familyID)
	if err != nil {
		return nil, err
	}

	var members []models.FamilyMember
	err = s.db.Preload("User").
		Where("family_id = ?", familyID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// membership loads the actor's member row, mapping absence to not found
// so non-members cannot probe for family existence.
func (s *FamilyService) membership(userID, familyID uuid.UUID) (models.FamilyMember, error) {
	var member models.FamilyMember
	err := s.db.First(&member, "family_id = ? AND user_id = ?", familyID, userID).Error
	return member, err
}

// manages reports whether the actor may administer the family.
func (s *FamilyService) manages(actor models.User, familyID uuid.UUID) error {
	member, err := s.membership(actor.ID, familyID)
	if err != nil {
		return err
	}

	if member.Role != models.FamilyRoleOwner && member.Role != models.FamilyRoleAdmin {
		return models.ErrForbidden
	}

	return nil
}

// Invite creates a pending invite for an email address. A family has at
// most one pending invite per email at a time.
func (s *FamilyService) Invite(actor models.User, familyID uuid.UUID, email string, role models.FamilyRole) (models.FamilyInvite, error) {
	err := s.manages(actor, familyID)
	if err != nil {
		return models.FamilyInvite{}, err
	}

	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	err = s.db.Model(&models.FamilyInvite{}).
		Where("family_id = ? AND email = ? AND status = ?", familyID, email, models.InviteStatusPending).
		Count(&count).Error
	if err != nil {
		return models.FamilyInvite{}, err
	}
	if count > 0 {
		return models.FamilyInvite{}, fmt.Errorf("%w: a pending invite for this email already exists", models.ErrConflict)
	}

	lifetime := s.InviteLifetime
	if lifetime == 0 {
		lifetime = defaultInviteLifetime
	}

	invite := models.FamilyInvite{
		FamilyID:    familyID,
		InvitedByID: actor.ID,
		Email:       email,
		Role:        role,
		Status:      models.InviteStatusPending,
		ExpiresAt:   time.Now().In(time.UTC).Add(lifetime),
	}

	// Token collisions are vanishingly rare but the column is unique,
	// so regenerate instead of surfacing the conflict.
	for attempt := 0; attempt < transientRetries; attempt++ {
		invite.Token = models.NewInviteToken()
		err = s.db.Create(&invite).Error
		if err == nil || !errors.Is(err, models.ErrConflict) {
			break
		}
	}
	if err != nil {
		return models.FamilyInvite{}, err
	}

	return invite, nil
}

// AcceptInvite redeems a pending invite token for the actor, creating
// their member row with the invited role.
func (s *FamilyService) AcceptInvite(actor models.User, token string) (models.FamilyMember, error) {
	var invite models.FamilyInvite
	err := s.db.First(&invite, "token = ?", token).Error
	if err != nil {
		return models.FamilyMember{}, err
	}

	if invite.Status != models.InviteStatusPending {
		return models.FamilyMember{}, fmt.Errorf("%w: %s", models.ErrConflict, models.ErrInviteNotPending)
	}

	now := time.Now().In(time.UTC)
	if invite.Expired(now) {
		// The expiry transition must survive the failed acceptance, so
		// it is written outside the transaction below.
		invite.Status = models.InviteStatusExpired
		err = s.db.Save(&invite).Error
		if err != nil {
			return models.FamilyMember{}, err
		}
		return models.FamilyMember{}, fmt.Errorf("%w: %s", models.ErrPrecondition, models.ErrInviteExpired)
	}

	var member models.FamilyMember
	err = inTransaction(s.db, func(tx *gorm.DB) error {
		// Re-read so of two concurrent acceptances only one wins
		var current models.FamilyInvite
		err := tx.First(&current, "id = ?", invite.ID).Error
		if err != nil {
			return err
		}

		if current.Status != models.InviteStatusPending {
			return fmt.Errorf("%w: %s", models.ErrConflict, models.ErrInviteNotPending)
		}

		member = models.FamilyMember{
			FamilyID: current.FamilyID,
			UserID:   actor.ID,
			Role:     current.Role,
			JoinedAt: now,
		}
		err = tx.Create(&member).Error
		if err != nil {
			return err
		}

		current.Status = models.InviteStatusAccepted
		current.AcceptedByID = &actor.ID
		return tx.Save(&current).Error
	})
	if err != nil {
		return models.FamilyMember{}, err
	}

	return member, nil
}

// CancelInvite withdraws a pending invite.
func (s *FamilyService) CancelInvite(actor models.User, id uuid.UUID) error {
	var invite models.FamilyInvite
	err := s.db.First(&invite, "id = ?", id).Error
	if err != nil {
		return err
	}

	err = s.manages(actor, invite.FamilyID)
	if err != nil {
		return err
	}

	if invite.Status != models.InviteStatusPending {
		return fmt.Errorf("%w: %s", models.ErrConflict, models.ErrInviteNotPending)
	}

	invite.Status = models.InviteStatusCancelled
	return s.db.Save(&invite).Error
}

// RemoveMember removes a non-owner member from the family together with
// their per-module permissions.
func (s *FamilyService) RemoveMember(actor models.User, familyID, userID uuid.UUID) error {
	err := s.manages(actor, familyID)
	if err != nil {
		return err
	}

	member, err := s.membership(userID, familyID)
	if err != nil {
		return err
	}

	if member.Role == models.FamilyRoleOwner {
		return fmt.Errorf("%w: the family owner cannot be removed", models.ErrPrecondition)
	}

	return inTransaction(s.db, func(tx *gorm.DB) error {
		err := tx.Where("family_member_id = ?", member.ID).
			Delete(&models.ModulePermission{}).Error
		if err != nil {
			return err
		}

		return tx.Delete(&member).Error
	})
}

// SetPermission grants or adjusts a member's access to one module.
// Only the family owner and admins may change permissions, and the
// owner's implicit full access is never stored as rows.
func (s *FamilyService) SetPermission(actor models.User, familyID, userID uuid.UUID, module models.Module, canView, canEdit, canDelete bool) (models.ModulePermission, error) {
	err := s.manages(actor, familyID)
	if err != nil {
		return models.ModulePermission{}, err
	}

	member, err := s.membership(userID, familyID)
	if err != nil {
		return models.ModulePermission{}, err
	}

	if member.Role == models.FamilyRoleOwner {
		return models.ModulePermission{}, fmt.Errorf("%w: the owner role always has full access", models.ErrPrecondition)
	}

	var permission models.ModulePermission
	err = inTransaction(s.db, func(tx *gorm.DB) error {
		err := tx.Where("family_member_id = ? AND module = ?", member.ID, module).
			First(&permission).Error
		switch {
		case err == nil:
			// update below
		case errors.Is(err, models.ErrResourceNotFound):
			permission = models.ModulePermission{
				FamilyMemberID: member.ID,
				Module:         module,
			}
		default:
			return err
		}

		permission.CanView = canView
		permission.CanEdit = canEdit
		permission.CanDelete = canDelete
		return tx.Save(&permission).Error
	})
	if err != nil {
		return models.ModulePermission{}, err
	}

	return permission, nil
}

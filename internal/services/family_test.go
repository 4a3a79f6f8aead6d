package services_test

import (
	"time"

	"github.com/cofrinho/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestFamilyCreateMakesActorOwner() {
	user := suite.createTestUser()

	family, err := suite.services.Families.Create(user, "Silva")
	suite.Require().Nil(err)

	members, err := suite.services.Families.Members(user, family.ID)
	suite.Require().Nil(err)
	suite.Require().Len(members, 1)
	assert.Equal(suite.T(), user.ID, members[0].UserID)
	assert.Equal(suite.T(), models.FamilyRoleOwner, members[0].Role)
}

func (suite *TestSuiteStandard) TestFamilyNonMemberCannotSee() {
	owner := suite.createTestUser()
	stranger := suite.createTestUser()

	family, err := suite.services.Families.Create(owner, "Silva")
	suite.Require().Nil(err)

	_, err = suite.services.Families.Get(stranger, family.ID)
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestFamilyInviteAndAccept() {
	owner := suite.createTestUser()
	invited := suite.createTestUser()

	family, err := suite.services.Families.Create(owner, "Silva")
	suite.Require().Nil(err)

	invite, err := suite.services.Families.Invite(owner, family.ID, invited.Email, models.FamilyRoleMember)
	suite.Require().Nil(err)
	suite.Require().NotEmpty(invite.Token)
	assert.Equal(suite.T(), models.InviteStatusPending, invite.Status)

	// A second pending invite for the same email is rejected
	_, err = suite.services.Families.Invite(owner, family.ID, invited.Email, models.FamilyRoleMember)
	assert.ErrorIs(suite.T(), err, models.ErrConflict)

	member, err := suite.services.Families.AcceptInvite(invited, invite.Token)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), family.ID, member.FamilyID)
	assert.Equal(suite.T(), models.FamilyRoleMember, member.Role)

	// A redeemed token cannot be accepted again
	_, err = suite.services.Families.AcceptInvite(invited, invite.Token)
	assert.ErrorIs(suite.T(), err, models.ErrConflict)
}

func (suite *TestSuiteStandard) TestFamilyInviteExpires() {
	owner := suite.createTestUser()
	invited := suite.createTestUser()

	family, err := suite.services.Families.Create(owner, "Silva")
	suite.Require().Nil(err)

	suite.services.Families.InviteLifetime = -time.Hour
	invite, err := suite.services.Families.Invite(owner, family.ID, invited.Email, models.FamilyRoleMember)
	suite.Require().Nil(err)

	_, err = suite.services.Families.AcceptInvite(invited, invite.Token)
	assert.ErrorIs(suite.T(), err, models.ErrPrecondition)

	var reloaded models.FamilyInvite
	suite.Require().Nil(suite.db.First(&reloaded, "id = ?", invite.ID).Error)
	assert.Equal(suite.T(), models.InviteStatusExpired, reloaded.Status)
}

func (suite *TestSuiteStandard) TestFamilyCancelInvite() {
	owner := suite.createTestUser()
	invited := suite.createTestUser()

	family, err := suite.services.Families.Create(owner, "Silva")
	suite.Require().Nil(err)

	invite, err := suite.services.Families.Invite(owner, family.ID, invited.Email, models.FamilyRoleMember)
	suite.Require().Nil(err)

	suite.Require().Nil(suite.services.Families.CancelInvite(owner, invite.ID))

	_, err = suite.services.Families.AcceptInvite(invited, invite.Token)
	assert.ErrorIs(suite.T(), err, models.ErrConflict)
}

func (suite *TestSuiteStandard) TestFamilyMemberCannotInvite() {
	owner := suite.createTestUser()
	member := suite.createTestUser()
	other := suite.createTestUser()

	family, err := suite.services.Families.Create(owner, "Silva")
	suite.Require().Nil(err)

	invite, err := suite.services.Families.Invite(owner, family.ID, member.Email, models.FamilyRoleMember)
	suite.Require().Nil(err)
	_, err = suite.services.Families.AcceptInvite(member, invite.Token)
	suite.Require().Nil(err)

	_, err = suite.services.Families.Invite(member, family.ID, other.Email, models.FamilyRoleMember)
	assert.ErrorIs(suite.T(), err, models.ErrForbidden)
}

func (suite *TestSuiteStandard) TestFamilyRemoveMemberDropsPermissions() {
	owner := suite.createTestUser()
	member := suite.createTestUser()

	family, err := suite.services.Families.Create(owner, "Silva")
	suite.Require().Nil(err)

	invite, err := suite.services.Families.Invite(owner, family.ID, member.Email, models.FamilyRoleMember)
	suite.Require().Nil(err)
	memberRow, err := suite.services.Families.AcceptInvite(member, invite.Token)
	suite.Require().Nil(err)

	_, err = suite.services.Families.SetPermission(owner, family.ID, member.ID, models.ModuleAccounts, true, true, false)
	suite.Require().Nil(err)

	suite.Require().Nil(suite.services.Families.RemoveMember(owner, family.ID, member.ID))

	var permissions int64
	suite.db.Model(&models.ModulePermission{}).Where("family_member_id = ?", memberRow.ID).Count(&permissions)
	assert.Equal(suite.T(), int64(0), permissions)

	members, err := suite.services.Families.Members(owner, family.ID)
	suite.Require().Nil(err)
	assert.Len(suite.T(), members, 1)
}

func (suite *TestSuiteStandard) TestFamilyOwnerCannotBeRemoved() {
	owner := suite.createTestUser()

	family, err := suite.services.Families.Create(owner, "Silva")
	suite.Require().Nil(err)

	err = suite.services.Families.RemoveMember(owner, family.ID, owner.ID)
	assert.ErrorIs(suite.T(), err, models.ErrPrecondition)
}

func (suite *TestSuiteStandard) TestFamilySetPermissionUpserts() {
	owner := suite.createTestUser()
	member := suite.createTestUser()

	family, err := suite.services.Families.Create(owner, "Silva")
	suite.Require().Nil(err)

	invite, err := suite.services.Families.Invite(owner, family.ID, member.Email, models.FamilyRoleMember)
	suite.Require().Nil(err)
	_, err = suite.services.Families.AcceptInvite(member, invite.Token)
	suite.Require().Nil(err)

	first, err := suite.services.Families.SetPermission(owner, family.ID, member.ID, models.ModuleAccounts, true, false, false)
	suite.Require().Nil(err)

	second, err := suite.services.Families.SetPermission(owner, family.ID, member.ID, models.ModuleAccounts, true, true, true)
	suite.Require().Nil(err)

	assert.Equal(suite.T(), first.ID, second.ID, "one row per member and module")
	assert.True(suite.T(), second.CanDelete)

	// The owner's implicit access is never stored as rows
	_, err = suite.services.Families.SetPermission(owner, family.ID, owner.ID, models.ModuleAccounts, true, true, true)
	assert.ErrorIs(suite.T(), err, models.ErrPrecondition)
}

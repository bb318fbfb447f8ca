package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllRolesOrderedBySeniority(t *testing.T) {
	roles := AllRoles()
	require.Len(t, roles, 6)

	for i := 1; i < len(roles); i++ {
		assert.Greater(t, RoleLevel(roles[i]), RoleLevel(roles[i-1]),
			"role %s should outrank %s", roles[i], roles[i-1])
	}
	assert.Equal(t, RoleParalegal, roles[0])
	assert.Equal(t, RoleManagingPartner, roles[len(roles)-1])
}

func TestRoleHireLimits(t *testing.T) {
	assert.Equal(t, 1, RoleHireLimit(RoleManagingPartner))
	assert.Equal(t, 3, RoleHireLimit(RoleSeniorPartner))
	assert.Equal(t, 5, RoleHireLimit(RoleJuniorPartner))
	assert.Equal(t, 10, RoleHireLimit(RoleSeniorAssociate))
	assert.Equal(t, 10, RoleHireLimit(RoleJuniorAssociate))
	assert.Equal(t, 10, RoleHireLimit(RoleParalegal))
}

func TestLawyerAndLeadEligibility(t *testing.T) {
	assert.False(t, IsLawyerRole(RoleParalegal))
	assert.True(t, IsLawyerRole(RoleJuniorAssociate))
	assert.True(t, IsLawyerRole(RoleManagingPartner))

	assert.False(t, IsLeadAttorneyRole(RoleParalegal))
	assert.False(t, IsLeadAttorneyRole(RoleJuniorAssociate))
	assert.False(t, IsLeadAttorneyRole(RoleSeniorAssociate))
	assert.True(t, IsLeadAttorneyRole(RoleJuniorPartner))
	assert.True(t, IsLeadAttorneyRole(RoleSeniorPartner))
	assert.True(t, IsLeadAttorneyRole(RoleManagingPartner))
}

func TestParseStaffRole(t *testing.T) {
	role, ok := ParseStaffRole("SENIOR_PARTNER")
	require.True(t, ok)
	assert.Equal(t, RoleSeniorPartner, role)

	_, ok = ParseStaffRole("INTERN")
	assert.False(t, ok)

	_, ok = ParseStaffRole("")
	assert.False(t, ok)
}

func TestNextAndPreviousRole(t *testing.T) {
	next, ok := NextRole(RoleParalegal)
	require.True(t, ok)
	assert.Equal(t, RoleJuniorAssociate, next)

	_, ok = NextRole(RoleManagingPartner)
	assert.False(t, ok)

	prev, ok := PreviousRole(RoleManagingPartner)
	require.True(t, ok)
	assert.Equal(t, RoleSeniorPartner, prev)

	_, ok = PreviousRole(RoleParalegal)
	assert.False(t, ok)
}

func TestStaffIsActive(t *testing.T) {
	var nilStaff *Staff
	assert.False(t, nilStaff.IsActive())

	assert.True(t, (&Staff{Status: StaffStatusActive}).IsActive())
	assert.False(t, (&Staff{Status: StaffStatusTerminated}).IsActive())
	assert.False(t, (&Staff{Status: StaffStatusInactive}).IsActive())
}

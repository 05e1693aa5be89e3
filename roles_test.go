package auth_test

import (
	"testing"

	"github.com/coolkeep/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestIsValidRole(t *testing.T) {
	assert.True(t, auth.IsValidRole(auth.RoleGuest))
	assert.True(t, auth.IsValidRole(auth.RoleMember))
	assert.True(t, auth.IsValidRole(auth.RoleAdmin))
	assert.True(t, auth.IsValidRole(auth.RoleOwner))

	assert.False(t, auth.IsValidRole("superhero"))
	assert.False(t, auth.IsValidRole(""))
}

func TestRoleIsAtLeast(t *testing.T) {
	tests := []struct {
		role     auth.UserRole
		minRole  auth.UserRole
		expected bool
	}{
		{auth.RoleOwner, auth.RoleAdmin, true},
		{auth.RoleAdmin, auth.RoleAdmin, true},
		{auth.RoleMember, auth.RoleAdmin, false},
		{auth.RoleGuest, auth.RoleMember, false},
		{auth.RoleMember, auth.RoleGuest, true},
		{"unknown", auth.RoleGuest, false},
		{auth.RoleOwner, "unknown", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, auth.RoleIsAtLeast(tt.role, tt.minRole),
			"role=%s min=%s", tt.role, tt.minRole)
	}
}

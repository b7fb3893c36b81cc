package constants

import (
	"testing"

	"coopshares-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(ManageProjects, domain.RoleBoard))
	assert.True(t, AllowedRole(ManageProjects, domain.RoleBoth))
	assert.False(t, AllowedRole(ManageProjects, domain.RoleShareholder))
	assert.False(t, AllowedRole(ManageProjects, domain.RoleNone))
	assert.False(t, AllowedRole("unknown", domain.RoleBoard))
}

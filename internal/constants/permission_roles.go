package constants

import "coopshares-backend/internal/domain"

var boardRoles = []domain.Role{domain.RoleBoard, domain.RoleBoth}

// PermissionRoles maps each permission to roles allowed to perform it.
// Core operations still check the actor's own cooperative.
var PermissionRoles = map[string][]domain.Role{
	ViewReports:       boardRoles,
	ManageCooperative: boardRoles,
	ManageProjects:    boardRoles,
	ManageBoard:       boardRoles,
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission string, role domain.Role) bool {
	for _, r := range PermissionRoles[permission] {
		if r == role {
			return true
		}
	}
	return false
}

package accounts

import (
	"fmt"

	"coopshares-backend/internal/domain"
)

// Dashboard modes. ModeChoose asks the client to offer both.
const (
	ModeBoard       = "board"
	ModeShareholder = "shareholder"
	ModeChoose      = "choose"
)

// ResolveDashboard picks the dashboard for role. Only an individual with
// both profiles uses the session preference.
func ResolveDashboard(role domain.Role, preferred string) string {
	switch {
	case role == domain.RoleBoard:
		return ModeBoard
	case role != domain.RoleBoth:
		return ModeShareholder
	case preferred == ModeBoard || preferred == ModeShareholder:
		return preferred
	}
	return ModeChoose
}

// CheckMode validates a requested dashboard mode against role.
func CheckMode(role domain.Role, mode string) error {
	switch mode {
	case ModeBoard:
		if role.IsBoard() {
			return nil
		}
	case ModeShareholder:
		if role.IsShareholder() {
			return nil
		}
	default:
		return fmt.Errorf("unknown dashboard mode %q: %w", mode, domain.ErrInvalidArgument)
	}
	return fmt.Errorf("no %s profile: %w", mode, domain.ErrPermission)
}

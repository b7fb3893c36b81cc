package domain

import "github.com/google/uuid"

// Actor is the caller of a core operation with its precomputed role flags.
// The HTTP layer builds it from the session; the core never looks at requests.
type Actor struct {
	UserID             uuid.UUID
	Role               Role
	BoardCooperativeID *uuid.UUID
}

// ManagesCooperative reports whether the actor is an accepted board member of coopID.
func (a Actor) ManagesCooperative(coopID uuid.UUID) bool {
	return a.Role.IsBoard() && a.BoardCooperativeID != nil && *a.BoardCooperativeID == coopID
}

// Valid reports whether the actor identifies a user.
func (a Actor) Valid() bool {
	return a.UserID != uuid.Nil
}

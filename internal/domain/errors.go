package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity       = errors.New("quantity must be greater than zero")
	ErrInsufficientHolding   = errors.New("not enough shares in holding")
	ErrInsufficientInventory = errors.New("not enough shares available for sale")
	ErrInsufficientQuantity  = errors.New("not enough quantity in listing")
	ErrInvalidState          = errors.New("operation not allowed in current state")
	ErrSelfTrade             = errors.New("cannot buy your own listing")
	ErrPermission            = errors.New("permission denied")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrConsistency           = errors.New("ledger changed during operation")
	ErrNotFound              = errors.New("not found")
	ErrAlreadyExists         = errors.New("already exists")
	ErrUnauthenticated       = errors.New("Unauthorized")
)

// Shortfall reports how far an inventory check fell short. It matches
// ErrInsufficientInventory under errors.Is.
type Shortfall struct {
	Source    string
	Requested int64
	Available int64
}

func (s *Shortfall) Error() string {
	return fmt.Sprintf("%s: %s source has %d of %d requested shares (short by %d)",
		ErrInsufficientInventory.Error(), s.Source, s.Available, s.Requested, s.Missing())
}

// Missing is the number of shares that could not be covered.
func (s *Shortfall) Missing() int64 {
	return s.Requested - s.Available
}

func (s *Shortfall) Is(target error) bool {
	return target == ErrInsufficientInventory
}

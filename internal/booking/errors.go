// internal/booking/errors.go
package booking

import (
	"errors"
	"fmt"
)

var (
	ErrCourtNotFound       = errors.New("court not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// ValidationError reports a request that can be fixed by the caller. It is
// always raised before any write is staged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// SlotConflictError reports that an active reservation already occupies part
// of the requested time range.
type SlotConflictError struct {
	CourtID int64
	Date    string
}

func (e SlotConflictError) Error() string {
	return fmt.Sprintf("court %d is already booked on %s for the requested time", e.CourtID, e.Date)
}

// internal/booking/allocation.go
package booking

// Allocation describes how a batch's total charge is drawn from a wallet.
type Allocation struct {
	TotalCents               int64
	OverdraftCents           int64
	PerSessionOverdraftCents []int64
	NewBalanceCents          int64
}

// Allocate splits a total charge between the wallet balance and overdraft.
// Overdraft is distributed evenly across the batch's sessions, with the
// integer-division remainder assigned to the last session so the per-session
// amounts always sum to the overdraft total. The insufficient-balance check
// is a precondition: it fires before any write is staged.
func Allocate(totalCents, balanceCents int64, overdraftAllowed bool, sessions int) (Allocation, error) {
	if sessions <= 0 {
		return Allocation{}, ValidationError{Field: "sessions", Reason: "must be at least 1"}
	}
	if totalCents < 0 {
		return Allocation{}, ValidationError{Field: "total", Reason: "must not be negative"}
	}

	alloc := Allocation{
		TotalCents:               totalCents,
		PerSessionOverdraftCents: make([]int64, sessions),
		NewBalanceCents:          balanceCents - totalCents,
	}

	if balanceCents >= totalCents {
		return alloc, nil
	}
	if !overdraftAllowed {
		return Allocation{}, ValidationError{Field: "wallet", Reason: "balance is insufficient and overdraft is not allowed"}
	}

	alloc.OverdraftCents = totalCents - balanceCents
	perSession := alloc.OverdraftCents / int64(sessions)
	for i := range alloc.PerSessionOverdraftCents {
		alloc.PerSessionOverdraftCents[i] = perSession
	}
	alloc.PerSessionOverdraftCents[sessions-1] += alloc.OverdraftCents % int64(sessions)
	return alloc, nil
}

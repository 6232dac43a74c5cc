// internal/booking/request.go
package booking

import "time"

// Recurrence describes a weekly repeating booking over a date range.
type Recurrence struct {
	StartDate time.Time
	EndDate   time.Time
	Weekdays  []time.Weekday
}

// BookingRequest is the validated, immutable input to a batch booking. It is
// built once at the boundary and consumed in a single CreateBatch call,
// never persisted.
type BookingRequest struct {
	CourtID        int64
	MemberID       *int64
	RoleID         *int64
	GuestName      string
	Date           time.Time
	Slots          []Clock
	Recurrence     *Recurrence
	Heater         bool
	Light          bool
	AllowOverdraft bool
	BulkGroupName  string
	Actor          string
}

// Validate checks form completeness and the slot selection against the
// court's calendar. It does not touch storage.
func (r BookingRequest) Validate(court Court) error {
	if r.CourtID <= 0 {
		return ValidationError{Field: "court_id", Reason: "must be a positive integer"}
	}
	if r.MemberID != nil && *r.MemberID <= 0 {
		return ValidationError{Field: "member_id", Reason: "must be a positive integer"}
	}
	if r.MemberID == nil && r.GuestName == "" {
		return ValidationError{Field: "payer", Reason: "requires a member_id or a guest_name"}
	}
	if len(r.Slots) == 0 {
		return ValidationError{Field: "slots", Reason: "must include at least one slot"}
	}
	if r.Recurrence == nil && r.Date.IsZero() {
		return ValidationError{Field: "date", Reason: "is required for a single booking"}
	}
	if r.Recurrence != nil {
		if len(r.Recurrence.Weekdays) == 0 {
			return ValidationError{Field: "weekdays", Reason: "must include at least one weekday"}
		}
		if r.Recurrence.EndDate.Before(r.Recurrence.StartDate) {
			return ValidationError{Field: "end_date", Reason: "must not be before start_date"}
		}
	}

	sorted := sortedClocks(r.Slots)
	if !Contiguous(sorted, court.SlotInterval) {
		return ValidationError{Field: "slots", Reason: "must form one contiguous block"}
	}

	bookable := make(map[Clock]struct{})
	for _, slot := range GenerateSlots(court) {
		bookable[slot] = struct{}{}
	}
	for _, slot := range sorted {
		if _, ok := bookable[slot]; !ok {
			return ValidationError{Field: "slots", Reason: "slot " + slot.String() + " is outside the court's bookable hours"}
		}
	}
	return nil
}

// SessionDates resolves the concrete dates the batch occupies: the single
// requested date, or the recurrence expansion. An empty expansion is a
// validation failure by contract.
func (r BookingRequest) SessionDates() ([]time.Time, error) {
	if r.Recurrence == nil {
		return []time.Time{truncateDate(r.Date)}, nil
	}
	dates := ExpandDates(r.Recurrence.StartDate, r.Recurrence.EndDate, r.Recurrence.Weekdays)
	if len(dates) == 0 {
		return nil, ValidationError{Field: "recurrence", Reason: "matches no days in the requested range"}
	}
	return dates, nil
}

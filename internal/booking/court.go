// internal/booking/court.go
package booking

// Court is the read-only input this engine receives from court management.
// All prices are integer minor currency units; hourly rates are pro-rated
// per minute when a slot is shorter than an hour.
type Court struct {
	ID                int64
	Name              string
	AvailableFrom     Clock
	AvailableUntil    Clock
	SlotInterval      int // minutes, one of 15/30/60
	HeatingCostCents  *int64 // per hour, nil when the court has no heater
	LightingCostCents *int64 // per hour, nil when the court has no lights
}

// RateBand prices the half-open interval [From, Until) at an hourly base
// rate, with optional per-role override prices.
type RateBand struct {
	From           Clock
	Until          Clock
	BasePriceCents int64
	RolePrices     map[int64]int64
}

// Contains reports whether the band covers the given slot start.
func (b RateBand) Contains(slot Clock) bool {
	return slot >= b.From && slot < b.Until
}

var slotIntervals = map[int]struct{}{15: {}, 30: {}, 60: {}}

// ValidSlotInterval reports whether the interval is one of the supported
// court granularities.
func ValidSlotInterval(minutes int) bool {
	_, ok := slotIntervals[minutes]
	return ok
}

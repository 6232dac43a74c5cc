// internal/booking/slots.go
package booking

// GenerateSlots produces the ordered bookable start times for one day on the
// given court. A slot is emitted when its full interval fits inside the
// operating window: the last slot may end exactly at AvailableUntil, never
// past it. An inverted or empty window yields no slots.
func GenerateSlots(court Court) []Clock {
	if court.SlotInterval <= 0 || court.AvailableFrom >= court.AvailableUntil {
		return nil
	}

	var slots []Clock
	for start := court.AvailableFrom; start.Add(court.SlotInterval) <= court.AvailableUntil; start = start.Add(court.SlotInterval) {
		slots = append(slots, start)
	}
	return slots
}

// internal/booking/pricing.go
package booking

// Quote prices a contiguous slot set on the court. Each slot is charged at
// the hourly rate of the band containing its start time, pro-rated to the
// court's interval; per-role override prices take precedence over the band's
// base price. Heater and light addons charge their hourly cost pro-rated per
// slot. The result is deterministic and is frozen into the reservation at
// booking time.
//
// A slot falling outside every rate band is rejected rather than priced at
// zero.
func Quote(court Court, bands []RateBand, roleID *int64, slots []Clock, heater, light bool) (int64, error) {
	if len(slots) == 0 {
		return 0, ValidationError{Field: "slots", Reason: "must include at least one slot"}
	}

	interval := int64(court.SlotInterval)
	var total int64
	for _, slot := range slots {
		band, ok := bandFor(bands, slot)
		if !ok {
			return 0, ValidationError{Field: "slots", Reason: "slot " + slot.String() + " falls outside every rate band"}
		}

		price := band.BasePriceCents
		if roleID != nil {
			if override, ok := band.RolePrices[*roleID]; ok {
				price = override
			}
		}
		total += price * interval / 60
	}

	slotCount := int64(len(slots))
	if heater && court.HeatingCostCents != nil {
		total += *court.HeatingCostCents * interval / 60 * slotCount
	}
	if light && court.LightingCostCents != nil {
		total += *court.LightingCostCents * interval / 60 * slotCount
	}
	return total, nil
}

func bandFor(bands []RateBand, slot Clock) (RateBand, bool) {
	for _, band := range bands {
		if band.Contains(slot) {
			return band, true
		}
	}
	return RateBand{}, false
}

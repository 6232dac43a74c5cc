// internal/booking/selection.go
package booking

import "sort"

// ToggleSlot applies one slot click to the current selection and returns the
// new selection, sorted by time.
//
// Removing a slot that sits at either end of the block shrinks the block;
// removing an interior slot would fracture it, so the selection is cleared
// instead. Adding a slot keeps the grown selection when it stays contiguous
// at the court's interval; otherwise the click starts a new block containing
// only the clicked slot.
func ToggleSlot(selection []Clock, clicked Clock, interval int) []Clock {
	current := sortedClocks(selection)

	if idx := indexOf(current, clicked); idx >= 0 {
		if idx == 0 || idx == len(current)-1 {
			return append(current[:idx:idx], current[idx+1:]...)
		}
		return nil
	}

	grown := sortedClocks(append(current, clicked))
	if Contiguous(grown, interval) {
		return grown
	}
	return []Clock{clicked}
}

// Contiguous reports whether the sorted slot set forms one unbroken block at
// the given interval granularity.
func Contiguous(sorted []Clock, interval int) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] != Clock(interval) {
			return false
		}
	}
	return true
}

func sortedClocks(clocks []Clock) []Clock {
	out := make([]Clock, len(clocks))
	copy(out, clocks)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func indexOf(clocks []Clock, target Clock) int {
	for i, clock := range clocks {
		if clock == target {
			return i
		}
	}
	return -1
}

// internal/booking/recurrence.go
package booking

import "time"

// ExpandDates enumerates the concrete calendar dates a recurring batch will
// occupy: every date in [startDate, endDate] whose weekday is in the set,
// in ascending order. An empty result is not an error here; callers must
// reject a batch that expands to no days before staging any write.
func ExpandDates(startDate, endDate time.Time, weekdays []time.Weekday) []time.Time {
	wanted := make(map[time.Weekday]struct{}, len(weekdays))
	for _, weekday := range weekdays {
		wanted[weekday] = struct{}{}
	}

	start := truncateDate(startDate)
	end := truncateDate(endDate)

	var dates []time.Time
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if _, ok := wanted[date.Weekday()]; ok {
			dates = append(dates, date)
		}
	}
	return dates
}

func truncateDate(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

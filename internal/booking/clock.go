// internal/booking/clock.go
package booking

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day expressed as minutes since midnight.
type Clock int

const clockLayout = "15:04"

// ParseClock parses an HH:MM time-of-day value.
func ParseClock(value string) (Clock, error) {
	parsed, err := time.Parse(clockLayout, strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: must be in HH:MM format", value)
	}
	return Clock(parsed.Hour()*60 + parsed.Minute()), nil
}

// ParseClocks parses a list of HH:MM values, preserving order.
func ParseClocks(values []string) ([]Clock, error) {
	if len(values) == 0 {
		return nil, nil
	}
	clocks := make([]Clock, 0, len(values))
	for _, value := range values {
		clock, err := ParseClock(value)
		if err != nil {
			return nil, err
		}
		clocks = append(clocks, clock)
	}
	return clocks, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c/60, c%60)
}

// Add returns the clock shifted forward by the given number of minutes.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// FormatClocks renders a slot list back to HH:MM strings.
func FormatClocks(clocks []Clock) []string {
	values := make([]string, len(clocks))
	for i, clock := range clocks {
		values[i] = clock.String()
	}
	return values
}

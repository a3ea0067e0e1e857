package utils

import (
	"fmt"
	"strconv"
	"time"
)

// ValidatePeriod checks the strict "YYYY-MM" billing-period format:
// exactly 7 characters with a hyphen at index 4 and numeric parts.
func ValidatePeriod(period string) error {
	if len(period) != 7 || period[4] != '-' {
		return fmt.Errorf("period must be in YYYY-MM format, got %q", period)
	}
	year, err := strconv.Atoi(period[:4])
	if err != nil {
		return fmt.Errorf("period year is not numeric in %q", period)
	}
	month, err := strconv.Atoi(period[5:])
	if err != nil {
		return fmt.Errorf("period month is not numeric in %q", period)
	}
	if year < 1 || month < 1 || month > 12 {
		return fmt.Errorf("period %q is out of range", period)
	}
	return nil
}

// LastDayOfPeriod returns the last calendar day of the period's month,
// handling the December year rollover.
func LastDayOfPeriod(period string) (time.Time, error) {
	if err := ValidatePeriod(period); err != nil {
		return time.Time{}, err
	}
	year, _ := strconv.Atoi(period[:4])
	month, _ := strconv.Atoi(period[5:])
	if month == 12 {
		return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), nil
	}
	firstOfNext := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1), nil
}

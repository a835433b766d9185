package util

import (
	"time"
)

// ScanDateFormat is the calendar-day format used for check keys, job
// departure dates and derived date ranges.
const ScanDateFormat = "02-01-2006"

func AddTimeToDate(date time.Time, sourceTime time.Time) time.Time {
	newDateTime := time.Date(date.Year(), date.Month(), date.Day(), sourceTime.Hour(), sourceTime.Minute(), sourceTime.Second(), sourceTime.Nanosecond(), date.Location())

	return newDateTime
}

func AddDaysToDate(date string, days int) (string, error) {
	parsed, err := time.Parse(ScanDateFormat, date)
	if err != nil {
		return "", err
	}

	return parsed.AddDate(0, 0, days).Format(ScanDateFormat), nil
}

// DateRange returns the start date followed by the next days-1 calendar
// days, all in ScanDateFormat.
func DateRange(start string, days int) ([]string, error) {
	parsed, err := time.Parse(ScanDateFormat, start)
	if err != nil {
		return nil, err
	}

	var dates []string
	for i := 0; i < days; i++ {
		dates = append(dates, parsed.AddDate(0, 0, i).Format(ScanDateFormat))
	}

	return dates, nil
}

// IsDateInRange reports whether date falls on or between rangeStart and
// rangeEnd (inclusive on both sides).
func IsDateInRange(date string, rangeStart string, rangeEnd string) (bool, error) {
	parsed, err := time.Parse(ScanDateFormat, date)
	if err != nil {
		return false, err
	}
	start, err := time.Parse(ScanDateFormat, rangeStart)
	if err != nil {
		return false, err
	}
	end, err := time.Parse(ScanDateFormat, rangeEnd)
	if err != nil {
		return false, err
	}

	return !parsed.Before(start) && !parsed.After(end), nil
}

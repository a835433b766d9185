package routegraph

import (
	"sync"
	"time"
)

// The source publishes a fresh route network every morning at 07:00
// Central European time. Anything fetched before that hour still belongs
// to the previous day's network.
const refreshHour = 7

var (
	refreshLocationOnce sync.Once
	refreshLocation     *time.Location
)

func RefreshLocation() *time.Location {
	refreshLocationOnce.Do(func() {
		location, err := time.LoadLocation("CET")
		if err != nil {
			location = time.UTC
		}

		refreshLocation = location
	})

	return refreshLocation
}

// NextRefresh returns the instant the route network is next expected to
// change after now.
func NextRefresh(now time.Time) time.Time {
	local := now.In(RefreshLocation())

	refresh := time.Date(local.Year(), local.Month(), local.Day(), refreshHour, 0, 0, 0, RefreshLocation())
	if !refresh.After(local) {
		refresh = refresh.AddDate(0, 0, 1)
	}

	return refresh
}

// EffectiveDay returns the calendar day the current route network belongs
// to, rolling back a day for fetches before the morning refresh.
func EffectiveDay(now time.Time) time.Time {
	local := now.In(RefreshLocation())

	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, RefreshLocation())
	if local.Hour() < refreshHour {
		day = day.AddDate(0, 0, -1)
	}

	return day
}

func TTLUntilRefresh(now time.Time) time.Duration {
	return NextRefresh(now).Sub(now)
}

package embed

import "time"

func mustYear(year int) time.Time {
	return time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
}

// Package timeutil holds the DD.MM.YYYY HH:MM admin-facing time format shared
// by the scheduling flow and report rendering.
package timeutil

import "time"

const layout = "02.01.2006 15:04"

// Format renders an epoch timestamp in the admin display format.
func Format(ts int64) string {
	return time.Unix(ts, 0).Format(layout)
}

// Now returns the current time as epoch seconds.
func Now() int64 {
	return time.Now().Unix()
}

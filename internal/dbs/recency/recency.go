// Package recency decides whether a certificate was issued recently enough to
// be accepted without further checks.
package recency

import "time"

// Window is three months measured as 3 * 365/12 days (91 days 6 hours),
// not calendar-month arithmetic.
const Window = 3 * 365 * 24 * time.Hour / 12

// IsRecent reports whether issued falls within Window of now. The boundary is inclusive.
func IsRecent(issued, now time.Time) bool {
	return now.Sub(issued) <= Window
}

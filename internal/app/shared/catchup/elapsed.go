package catchup

import "time"

// ElapsedSeconds is the offline time between the last save and now, clamped at zero so a
// clock step backwards never produces a negative delta. A positive limit caps the result.
func ElapsedSeconds(updatedAt, now time.Time, limit time.Duration) float64 {
	if updatedAt.IsZero() || !now.After(updatedAt) {
		return 0
	}
	elapsed := now.Sub(updatedAt)
	if limit > 0 && elapsed > limit {
		elapsed = limit
	}
	return elapsed.Seconds()
}

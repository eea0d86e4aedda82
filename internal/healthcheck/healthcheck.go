package healthcheck

import "time"

const (
	// FreshnessWindow is how long a recorded check is trusted
	FreshnessWindow = 2 * time.Hour

	// StatusOK is the only status value treated as healthy
	StatusOK = "OK"

	VerdictPass = "PASS"
	VerdictFail = "FAIL"
)

// freshnessWindowSeconds is FreshnessWindow in whole seconds
const freshnessWindowSeconds = int64(FreshnessWindow / time.Second)

// Record is the most recent health-check result as read from the store.
// It is a read-only snapshot owned by a single page render.
type Record struct {
	TimestampSeconds int64  `json:"ts" yaml:"ts" db:"ts"`
	Status           string `json:"status" yaml:"status" db:"status"`
}

// CheckedAt returns the record timestamp as a time.Time
func (r Record) CheckedAt() time.Time {
	return time.Unix(r.TimestampSeconds, 0)
}

// Age returns how long ago the check was performed relative to now.
// The result is negative for timestamps in the future.
func (r Record) Age(now time.Time) time.Duration {
	return time.Duration(now.Unix()-r.TimestampSeconds) * time.Second
}

// IsRecent reports whether the record was written less than FreshnessWindow
// before now. Timestamps in the future count as recent.
func IsRecent(record Record, now time.Time) bool {
	elapsed := now.Unix() - record.TimestampSeconds
	return elapsed < freshnessWindowSeconds
}

// IsHealthy reports whether the record is recent and its status is exactly "OK"
func IsHealthy(record Record, now time.Time) bool {
	return IsRecent(record, now) && record.Status == StatusOK
}

// Verdict returns the text shown on the page for the record
func Verdict(record Record, now time.Time) string {
	if IsHealthy(record, now) {
		return VerdictPass
	}
	return VerdictFail
}

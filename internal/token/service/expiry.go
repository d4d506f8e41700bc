package service

import (
	"time"

	tokenDomain "github.com/allisson/authkit/internal/token/domain"
)

const minutesPerDay = 24 * 60

// TokenExpiry computes now + ttl minutes using calendar-correct arithmetic in
// now's location. A minute-level delta can cross a day boundary into a
// DST-ambiguous or nonexistent local time: ambiguous results resolve to the
// candidate picked by time.Date normalization (the earlier instant on real
// zone databases), while a result landing in a nonexistent local time returns
// ErrDateTime so the mint fails closed.
func TokenExpiry(now time.Time, ttlMinutes int) (time.Time, error) {
	if ttlMinutes <= 0 {
		return time.Time{}, tokenDomain.ErrDateTime
	}

	minutes := now.Hour()*60 + now.Minute() + ttlMinutes
	dayCarry := minutes / minutesPerDay
	clock := minutes % minutesPerDay
	if clock < 0 {
		clock += minutesPerDay
		dayCarry--
	}
	wantHour := clock / 60
	wantMinute := clock % 60

	expires := time.Date(
		now.Year(), now.Month(), now.Day()+dayCarry,
		wantHour, wantMinute, now.Second(), now.Nanosecond(),
		now.Location(),
	)

	// time.Date normalizes a nonexistent local time (a DST gap) to a
	// different wall clock; detect that and refuse to issue.
	if expires.Hour() != wantHour || expires.Minute() != wantMinute {
		return time.Time{}, tokenDomain.ErrDateTime
	}

	return expires, nil
}

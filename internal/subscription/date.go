package subscription

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	DateLayout = "2006-01-02"

	MinDurationDays = 1
	MaxDurationDays = 36500
)

// Today is the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}

// AddDays moves a YYYY-MM-DD date by whole calendar days.
func AddDays(date string, days int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", ErrInvalidDate
	}
	next := t.AddDate(0, 0, days)
	if next.Year() > 9999 {
		return "", ErrInvalidDate
	}
	return next.Format(DateLayout), nil
}

// IsExpired reports whether a license ending on expiresOn is over on today.
// A license is still valid on its expiry day.
func IsExpired(expiresOn, today string) bool {
	return expiresOn < today
}

// Derive classifies an existing record against today.
func Derive(expiresOn, today string) Status {
	if IsExpired(expiresOn, today) {
		return StatusExpired
	}
	return StatusActive
}

// ValidDuration reports whether days is an accepted subscription length.
func ValidDuration(days int) bool {
	return days >= MinDurationDays && days <= MaxDurationDays
}

// NormalizeSubject trims, lower-cases and NFC-normalizes a subject id so the
// same user always maps to the same key.
func NormalizeSubject(subject string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(subject)))
}

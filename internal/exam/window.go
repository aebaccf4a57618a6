package exam

import (
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04:05"
)

// Window is an exam's sitting: one calendar date with inclusive start and end
// times. Fields hold the canonical stored text so comparisons stay lexical.
type Window struct {
	Date  string
	Start string
	End   string
}

// Contains reports whether now falls on Date between Start and End, both inclusive.
// now must already be in the deployment's location.
func (w Window) Contains(now time.Time) bool {
	if now.Format(dateLayout) != w.Date {
		return false
	}
	clock := now.Format(clockLayout)
	return w.Start <= clock && clock <= w.End
}

// Before reports whether the window has not opened yet at now.
func (w Window) Before(now time.Time) bool {
	date := now.Format(dateLayout)
	if date != w.Date {
		return date < w.Date
	}
	return now.Format(clockLayout) < w.Start
}

// Closes returns the instant the window closes in loc.
func (w Window) Closes(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout+" "+clockLayout, w.Date+" "+w.End, loc)
}

// StatusAt materializes the attempt status; it is never stored.
func StatusAt(w Window, now time.Time, submitted bool) Status {
	switch {
	case submitted:
		return StatusSubmitted
	case w.Contains(now):
		return StatusInProgress
	case w.Before(now):
		return StatusNotStarted
	default:
		return StatusExpired
	}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// parseClock accepts HH:MM or HH:MM:SS and returns the canonical HH:MM:SS form.
func parseClock(s string) (string, time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{clockLayout, "15:04"} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		offset := time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second
		return t.Format(clockLayout), offset, nil
	}
	return "", 0, ErrInvalidTime
}

// Package week computes the weekly release window. New albums come out on Fridays, so every
// window starts on a Friday (the anchor) and ends seven days later, on the next anchor.
package week

import "time"

// Target is the weekday every release window is anchored to.
const Target = time.Friday

// Length is the size of one release window.
const Length = 7 * 24 * time.Hour

// LabelLayout renders a date the way release pages do: "June 6", never "June 06".
const LabelLayout = "January 2"

// Window is one release week: [Start, End).
type Window struct {
	Start time.Time // anchor Friday
	End   time.Time // next anchor Friday
}

// NextAnchor returns the closest Friday on or after now, at midnight in now's location.
// A Friday maps to itself.
func NextAnchor(now time.Time) time.Time {
	d := date(now)
	for d.Weekday() != Target {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// WindowEnd returns the boundary of the window that starts at anchor, seven days later.
func WindowEnd(anchor time.Time) time.Time {
	return anchor.AddDate(0, 0, 7)
}

// StaleBefore is the oldest publication date an article may have and still describe the window
// that starts at anchor: one full window before the previous anchor's boundary.
func StaleBefore(anchor time.Time) time.Time {
	return WindowEnd(anchor).AddDate(0, 0, -14)
}

// Current returns the release window for now.
func Current(now time.Time) Window {
	a := NextAnchor(now)
	return Window{Start: a, End: WindowEnd(a)}
}

// Label renders t in the label format used by release calendars.
func Label(t time.Time) string {
	return t.Format(LabelLayout)
}

// Contains reports whether t falls into the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// date truncates t to its calendar date. AddDate keeps working across DST shifts,
// unlike a fixed 24h step.
func date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

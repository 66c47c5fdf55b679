// Package daterange expands an inclusive pair of calendar dates into the
// sequence of 24-hour query windows, one per day.
package daterange

import (
	"iter"
	"strings"
	"time"

	apperrors "windorbit/internal/errors"
)

// DateLayout is how dates are shown to the user, dd/mm/YYYY.
const DateLayout = "02/01/2006"

// inputLayout parses user-supplied dates. Day and month may have one or two
// digits, so 5/3/2024 and 05/03/2024 are the same day.
const inputLayout = "2/1/2006"

// formTimeLayout is how a window bound is typed into the Locator form.
const formTimeLayout = "2006-01-02 15:04:05"

// Window is one day's request span. End is always Start plus 24 hours.
type Window struct {
	Start time.Time
	End   time.Time
}

// String renders the window bounds the way the Locator form expects them
func (w Window) String() string {
	return w.Start.Format(formTimeLayout) + " - " + w.End.Format(formTimeLayout)
}

// FormStart returns Start formatted for the form's start time box
func (w Window) FormStart() string {
	return w.Start.Format(formTimeLayout)
}

// FormEnd returns End formatted for the form's stop time box
func (w Window) FormEnd() string {
	return w.End.Format(formTimeLayout)
}

// Expand yields one Window per calendar day from start through end inclusive.
// Both dates are truncated to midnight in their own location. Each window
// starts where the previous one ended. When start is after end the sequence
// is empty.
func Expand(start, end time.Time) iter.Seq[Window] {
	first := midnight(start)
	last := midnight(end)
	return func(yield func(Window) bool) {
		for day := first; !day.After(last); day = day.Add(24 * time.Hour) {
			if !yield(Window{Start: day, End: day.Add(24 * time.Hour)}) {
				return
			}
		}
	}
}

// Count returns how many windows Expand(start, end) yields.
func Count(start, end time.Time) int {
	n := 0
	for range Expand(start, end) {
		n++
	}
	return n
}

// ParseDate parses a dd/mm/YYYY string to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(inputLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperrors.NewParsingError("date must be dd/mm/YYYY", err).
			WithContext("input", s)
	}
	return t, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

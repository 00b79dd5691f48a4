package domain

import (
	"fmt"
	"time"
)

// FiftyTwoWeekDays is the calendar span of the 52-week range.
const FiftyTwoWeekDays = 365

// Window holds the date boundaries of one analysis run. AsOf is the single
// "now" of the run; nothing downstream reads the wall clock.
type Window struct {
	LookbackStart time.Time // first date requested from the provider
	WindowStart   time.Time // first date of the analysis window
	AsOf          time.Time // end of the analysis window
}

// DefaultWindow returns a year-to-date window ending at asOf, with twelve
// months of lookback so the 200-session average is warm at the window start.
func DefaultWindow(asOf time.Time) Window {
	windowStart := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return Window{
		LookbackStart: windowStart.AddDate(-1, 0, 0),
		WindowStart:   windowStart,
		AsOf:          Day(asOf),
	}
}

// Validate checks LookbackStart <= WindowStart <= AsOf.
func (w Window) Validate() error {
	if w.AsOf.IsZero() {
		return fmt.Errorf("as-of date is required")
	}
	if w.WindowStart.After(w.AsOf) {
		return fmt.Errorf("window start %s is after as-of %s",
			w.WindowStart.Format(DateLayout), w.AsOf.Format(DateLayout))
	}
	if w.LookbackStart.After(w.WindowStart) {
		return fmt.Errorf("lookback start %s is after window start %s",
			w.LookbackStart.Format(DateLayout), w.WindowStart.Format(DateLayout))
	}
	return nil
}

// FiftyTwoWeekStart is the first date counted in the 52-week high/low.
// It is anchored to AsOf, independently of WindowStart.
func (w Window) FiftyTwoWeekStart() time.Time {
	return Day(w.AsOf).AddDate(0, 0, -FiftyTwoWeekDays)
}

// AnalysisDate is AsOf formatted as YYYY-MM-DD.
func (w Window) AnalysisDate() string {
	return w.AsOf.Format(DateLayout)
}

package slot

import (
	"fmt"
	"time"
)

// Window is a daily time-of-day range in minutes, half-open: [Start, End).
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Validate requires 0 <= Start < End <= MinutesPerDay.
func (w Window) Validate() error {
	if w.Start < 0 || w.End > MinutesPerDay || w.Start >= w.End {
		return fmt.Errorf("%w: daily window [%d, %d) must satisfy 0 <= start < end <= %d", ErrInvalidInput, w.Start, w.End, MinutesPerDay)
	}
	return nil
}

// InWindow reports whether the slot's minute-of-day falls in w. A nil window
// admits every slot.
func InWindow(k Key, w *Window) bool {
	if w == nil {
		return true
	}
	m := MinuteOfDay(k)
	return m >= w.Start && m < w.End
}

// Filter narrows the slots eligible for scheduling: the daily window plus
// optional absolute bounds, NotBefore inclusive and NotAfter exclusive.
type Filter struct {
	Window    *Window
	NotBefore *time.Time
	NotAfter  *time.Time
}

// DateBounds builds the absolute bounds for an inclusive [start, end] range of
// calendar days. Nil dates leave that side open.
func DateBounds(start, end *time.Time) (notBefore, notAfter *time.Time) {
	if start != nil {
		t := DateOf(*start).Midnight()
		notBefore = &t
	}
	if end != nil {
		t := DateOf(*end).Midnight().Add(24 * time.Hour)
		notAfter = &t
	}
	return notBefore, notAfter
}

// Allows reports whether k passes every configured bound.
func (f Filter) Allows(k Key) bool {
	if !InWindow(k, f.Window) {
		return false
	}
	t := k.Time()
	if f.NotBefore != nil && t.Before(*f.NotBefore) {
		return false
	}
	if f.NotAfter != nil && !t.Before(*f.NotAfter) {
		return false
	}
	return true
}

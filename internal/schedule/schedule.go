// Package schedule decides whether a store is open at a given moment from its
// weekly operating hours and dated special days.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Hours is an open window for one day. Times are "HH:MM".
type Hours struct {
	IsOpen    bool
	OpenTime  string
	CloseTime string
}

// Calendar holds regular hours by weekday and overrides by date ("2006-01-02").
type Calendar struct {
	Weekly  map[time.Weekday]Hours
	Special map[string]Hours
}

const DateLayout = "2006-01-02"

var ErrBadClock = errors.New("horário inválido")

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// HoursOn returns the hours that apply on date; special days win.
func (c Calendar) HoursOn(date time.Time) (Hours, bool) {
	if h, ok := c.Special[date.Format(DateLayout)]; ok {
		return h, true
	}
	h, ok := c.Weekly[date.Weekday()]
	return h, ok
}

// IsOpen reports whether the store takes an order for date. With a pickup time
// the time must fall in [open, close]. Without one the order is immediate:
// date must be today and now strictly inside (open, close).
func (c Calendar) IsOpen(date time.Time, pickup string, now time.Time) bool {
	h, ok := c.HoursOn(date)
	if !ok || !h.IsOpen || h.OpenTime == "" || h.CloseTime == "" {
		return false
	}
	open, err := ParseClock(h.OpenTime)
	if err != nil {
		return false
	}
	closing, err := ParseClock(h.CloseTime)
	if err != nil {
		return false
	}
	if pickup == "" {
		if !SameDay(date, now) {
			return false
		}
		m := now.Hour()*60 + now.Minute()
		return m > open && m < closing
	}
	p, err := ParseClock(pickup)
	if err != nil {
		return false
	}
	return p >= open && p <= closing
}

// NextOpenDate is the first date from today, within limit days, on which the
// store has open hours.
func (c Calendar) NextOpenDate(now time.Time, limit int) (time.Time, bool) {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < limit; i++ {
		if h, ok := c.HoursOn(d); ok && h.IsOpen {
			return d, true
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// After reports whether date is a day later than now's day.
func After(date, now time.Time) bool {
	if SameDay(date, now) {
		return false
	}
	return date.After(now)
}

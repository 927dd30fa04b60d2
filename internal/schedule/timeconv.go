// Package schedule converts between the portal's 12-hour AM/PM slot pickers
// and the canonical minute-of-day representation, and models the weekly
// schedule editor as plain state so it can be gathered and populated without
// a rendering environment.
package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"mistportal/internal/types"
)

// NoneLabel is the time picker sentinel for an unset slot.
const NoneLabel = "None"

// Period is the AM/PM half of a slot selection.
type Period string

const (
	AM Period = "AM"
	PM Period = "PM"
)

// Periods returns the period picker options in display order.
func Periods() []Period {
	return []Period{AM, PM}
}

// TimeSlotSelection is the UI pair of a quarter-hour label ("8:00", "12:45"
// or "None") and a period.
type TimeSlotSelection struct {
	Time   string
	Period Period
}

// Unset is the default row selection.
var Unset = TimeSlotSelection{Time: NoneLabel, Period: AM}

// IsNone reports whether the selection is the unset sentinel.
func (s TimeSlotSelection) IsNone() bool {
	return s.Time == NoneLabel || s.Time == ""
}

// String renders "8:00 AM", or "None" for the sentinel.
func (s TimeSlotSelection) String() string {
	if s.IsNone() {
		return NoneLabel
	}
	return s.Time + " " + string(s.Period)
}

// TimeGrid returns the time picker options: "None" followed by every
// quarter-hour from 1:00 through 12:45.
func TimeGrid() []string {
	grid := make([]string, 0, 1+12*4)
	grid = append(grid, NoneLabel)
	for h := 1; h <= 12; h++ {
		for m := 0; m < 60; m += 15 {
			grid = append(grid, fmt.Sprintf("%d:%02d", h, m))
		}
	}
	return grid
}

// ParseSelection accepts "8:00 AM", "8:00PM", "8:00 pm" or "None".
func ParseSelection(s string) (TimeSlotSelection, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" || raw == strings.ToUpper(NoneLabel) {
		return Unset, nil
	}

	period := AM
	switch {
	case strings.HasSuffix(raw, string(PM)):
		period = PM
		raw = strings.TrimSuffix(raw, string(PM))
	case strings.HasSuffix(raw, string(AM)):
		raw = strings.TrimSuffix(raw, string(AM))
	default:
		return TimeSlotSelection{}, types.NewAppError(types.ErrCodeValidationInvalidTimeSlot,
			fmt.Sprintf("time %q needs an AM or PM suffix", s), nil)
	}

	sel := TimeSlotSelection{Time: strings.TrimSpace(raw), Period: period}
	if err := checkGrid(sel.Time); err != nil {
		return TimeSlotSelection{}, err
	}
	return sel, nil
}

// OnGrid reports whether label is one of the quarter-hour TimeGrid entries
// other than "None".
func OnGrid(label string) bool {
	_, m, err := splitLabel(label)
	return err == nil && m%15 == 0
}

func checkGrid(label string) error {
	if _, _, err := splitLabel(label); err != nil {
		return err
	}
	if !OnGrid(label) {
		return types.NewAppError(types.ErrCodeValidationInvalidTimeSlot,
			fmt.Sprintf("time %q is not on the quarter-hour grid", label), nil)
	}
	return nil
}

// ToMinutes converts a selection to minutes since midnight. The boolean is
// false for the "None" sentinel, which is treated as unset rather than as an
// error. 12 AM maps to hour 0 and 12 PM to hour 12.
func ToMinutes(sel TimeSlotSelection) (types.MinuteOfDay, bool, error) {
	if sel.IsNone() {
		return 0, false, nil
	}
	h, m, err := splitLabel(sel.Time)
	if err != nil {
		return 0, false, err
	}
	switch sel.Period {
	case PM:
		if h != 12 {
			h += 12
		}
	case AM:
		if h == 12 {
			h = 0
		}
	default:
		return 0, false, types.NewAppError(types.ErrCodeValidationInvalidTimeSlot,
			fmt.Sprintf("unknown period %q", sel.Period), nil)
	}
	return types.MinuteOfDay(h*60 + m), true, nil
}

// FromMinutes is the inverse of ToMinutes. Hours 0 and 12 both display as
// "12"; hours from 12 onward are PM.
func FromMinutes(m types.MinuteOfDay) TimeSlotSelection {
	h24 := m.Hour24()
	period := AM
	if h24 >= 12 {
		period = PM
	}
	h12 := h24 % 12
	if h12 == 0 {
		h12 = 12
	}
	return TimeSlotSelection{
		Time:   fmt.Sprintf("%d:%02d", h12, m.Minute()),
		Period: period,
	}
}

// splitLabel parses a 12-hour "H:MM" label.
func splitLabel(label string) (int, int, error) {
	hs, ms, ok := strings.Cut(label, ":")
	if !ok {
		return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidTimeSlot,
			fmt.Sprintf("time %q is not in H:MM form", label), nil)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 1 || h > 12 {
		return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidTimeSlot,
			fmt.Sprintf("time %q has an hour outside 1-12", label), err)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 || len(ms) != 2 {
		return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidTimeSlot,
			fmt.Sprintf("time %q has an invalid minute", label), err)
	}
	return h, m, nil
}

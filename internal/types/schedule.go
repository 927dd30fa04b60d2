package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Weekday identifies one of the seven schedule days. The zero value is Sunday,
// matching the portal's sun..sat ordering.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayLabels = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// AllWeekdays returns every day in portal order.
func AllWeekdays() []Weekday {
	return []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// ParseWeekday converts a three-letter day label (case-insensitive) into a
// Weekday.
func ParseWeekday(s string) (Weekday, error) {
	label := strings.ToLower(strings.TrimSpace(s))
	for i, l := range weekdayLabels {
		if l == label {
			return Weekday(i), nil
		}
	}
	return 0, NewAppError(ErrCodeValidationInvalidWeekday,
		fmt.Sprintf("unknown day %q; expected one of %s", s, strings.Join(weekdayLabels[:], ", ")), nil)
}

// Valid reports whether d is one of the seven defined days.
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// String returns the wire label ("sun".."sat").
func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayLabels[d]
}

// MarshalText lets Weekday serve as a JSON object key.
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, NewAppError(ErrCodeValidationInvalidWeekday, fmt.Sprintf("invalid weekday %d", int(d)), nil)
	}
	return []byte(weekdayLabels[d]), nil
}

// UnmarshalText parses a day label.
func (d *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MinutesPerDay is the number of distinct minute-of-day values.
const MinutesPerDay = 24 * 60

// MinuteOfDay is the canonical time-of-day representation: minutes since
// midnight in [0, 1439].
type MinuteOfDay int

// Valid reports whether m lies in [0, 1439].
func (m MinuteOfDay) Valid() bool {
	return m >= 0 && m < MinutesPerDay
}

// IsSet reports whether m is a usable persisted slot. Values <= 0 are the
// device's "unset" sentinel.
func (m MinuteOfDay) IsSet() bool {
	return m > 0 && m < MinutesPerDay
}

// Hour24 returns the 24-hour clock hour.
func (m MinuteOfDay) Hour24() int { return int(m) / 60 }

// Minute returns the minute within the hour.
func (m MinuteOfDay) Minute() int { return int(m) % 60 }

// String renders the "H:MM" 24-hour form the device accepts on save.
func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%d:%02d", m.Hour24(), m.Minute())
}

// ParseClock parses an "H:MM" 24-hour string.
func ParseClock(s string) (MinuteOfDay, error) {
	h, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, NewAppError(ErrCodeValidationInvalidTimeSlot, fmt.Sprintf("time %q is not in H:MM form", s), nil)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, NewAppError(ErrCodeValidationInvalidTimeSlot, fmt.Sprintf("time %q has an invalid hour", s), err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, NewAppError(ErrCodeValidationInvalidTimeSlot, fmt.Sprintf("time %q has an invalid minute", s), err)
	}
	return MinuteOfDay(hour*60 + minute), nil
}

// MarshalJSON always emits the "H:MM" string form. Out-of-range values are
// refused so a corrupt slot is never persisted.
func (m MinuteOfDay) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, NewAppError(ErrCodeValidationMinutesRange,
			fmt.Sprintf("minute-of-day %d outside [0,%d]", int(m), MinutesPerDay-1), nil)
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either integer minutes (as returned by
// GET /api/config) or an "H:MM" string. Integers are taken as-is, including
// the <= 0 sentinel; callers filter with IsSet.
func (m *MinuteOfDay) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return NewAppError(ErrCodeValidationInvalidTimeSlot, fmt.Sprintf("bad minute value %s", b), err)
			}
			i = int64(f)
		}
		*m = MinuteOfDay(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return NewAppError(ErrCodeValidationInvalidTimeSlot, fmt.Sprintf("bad minute value %s", b), err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// WeeklySchedule maps a day to its ordered misting times. A missing key means
// no misting that day.
type WeeklySchedule map[Weekday][]MinuteOfDay

// UnmarshalJSON decodes a stored schedule leniently, the way the portal page
// reads it: keys other than the seven day labels are skipped, a day whose
// value is not a list has no times, and a slot that is neither a number nor
// an "H:MM" string becomes the unset sentinel so ValidTimes drops it.
func (s *WeeklySchedule) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		if *s == nil {
			*s = WeeklySchedule{}
		}
		return nil
	}

	out := make(WeeklySchedule, len(raw))
	for key, value := range raw {
		day, err := ParseWeekday(key)
		if err != nil {
			continue
		}
		var slots []json.RawMessage
		if err := json.Unmarshal(value, &slots); err != nil {
			continue
		}
		times := make([]MinuteOfDay, 0, len(slots))
		for _, slot := range slots {
			var m MinuteOfDay
			if err := m.UnmarshalJSON(slot); err != nil {
				m = 0
			}
			times = append(times, m)
		}
		out[day] = times
	}
	*s = out
	return nil
}

// Normalize returns a copy with unset (<= 0) and out-of-range values removed
// and any day left empty dropped.
func (s WeeklySchedule) Normalize() WeeklySchedule {
	out := make(WeeklySchedule, len(s))
	for day, times := range s {
		valid := ValidTimes(times)
		if len(valid) > 0 {
			out[day] = valid
		}
	}
	return out
}

// Days returns the scheduled days in portal order.
func (s WeeklySchedule) Days() []Weekday {
	days := make([]Weekday, 0, len(s))
	for d := range s {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Validate checks the persisted-schedule invariants: every day is a known
// weekday, no day maps to an empty list, and every value is in [0,1439].
func (s WeeklySchedule) Validate() error {
	for day, times := range s {
		if !day.Valid() {
			return NewAppError(ErrCodeValidationInvalidWeekday, fmt.Sprintf("invalid weekday %d", int(day)), nil)
		}
		if len(times) == 0 {
			return NewAppErrorWithDetails(ErrCodeValidationInvalidTimeSlot,
				"schedule day has no times", nil, map[string]any{"day": day.String()})
		}
		for _, m := range times {
			if !m.Valid() {
				return NewAppErrorWithDetails(ErrCodeValidationMinutesRange,
					fmt.Sprintf("minute-of-day %d outside [0,%d]", int(m), MinutesPerDay-1), nil,
					map[string]any{"day": day.String()})
			}
		}
	}
	return nil
}

// ValidTimes filters out sentinel and out-of-range values, keeping order.
func ValidTimes(times []MinuteOfDay) []MinuteOfDay {
	valid := make([]MinuteOfDay, 0, len(times))
	for _, m := range times {
		if m.IsSet() {
			valid = append(valid, m)
		}
	}
	return valid
}

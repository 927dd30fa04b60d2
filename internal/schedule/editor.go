package schedule

import (
	"fmt"

	"mistportal/internal/types"
)

// DefaultRowsPerDay is the number of slot rows each day section offers.
const DefaultRowsPerDay = 4

// Row is one slot picker row in a day section.
type Row struct {
	Selection TimeSlotSelection
	// Inert is true while the owning day is disabled. Inert rows keep their
	// selection but are not editable.
	Inert bool
}

// DaySection is the checkbox plus slot rows for one weekday.
type DaySection struct {
	Day     types.Weekday
	Enabled bool
	Rows    []Row
}

// Editor is the weekly schedule form: one section per weekday, each with a
// fixed number of rows.
type Editor struct {
	rowsPerDay int
	sections   [7]DaySection
}

// NewEditor builds an editor with every day disabled and every row unset.
// A non-positive rowsPerDay falls back to DefaultRowsPerDay.
func NewEditor(rowsPerDay int) *Editor {
	if rowsPerDay <= 0 {
		rowsPerDay = DefaultRowsPerDay
	}
	e := &Editor{rowsPerDay: rowsPerDay}
	for _, day := range types.AllWeekdays() {
		rows := make([]Row, rowsPerDay)
		for i := range rows {
			rows[i] = Row{Selection: Unset}
		}
		e.sections[day] = DaySection{Day: day, Rows: rows}
		e.syncInert(day)
	}
	return e
}

// RowsPerDay returns the fixed row count of every section.
func (e *Editor) RowsPerDay() int { return e.rowsPerDay }

// Section returns a copy of the day's section.
func (e *Editor) Section(day types.Weekday) DaySection {
	s := e.sections[day]
	s.Rows = append([]Row(nil), s.Rows...)
	return s
}

// Sections returns copies of all seven sections in portal order.
func (e *Editor) Sections() []DaySection {
	out := make([]DaySection, 0, len(e.sections))
	for _, day := range types.AllWeekdays() {
		out = append(out, e.Section(day))
	}
	return out
}

// SetDay checks or unchecks a day. Rows of an unchecked day become inert but
// keep their selections so re-enabling restores them.
func (e *Editor) SetDay(day types.Weekday, enabled bool) error {
	if !day.Valid() {
		return types.NewAppError(types.ErrCodeValidationInvalidWeekday, fmt.Sprintf("invalid weekday %d", int(day)), nil)
	}
	e.sections[day].Enabled = enabled
	e.syncInert(day)
	return nil
}

// SetRow changes one row. Editing a disabled day is refused, as are times
// off the quarter-hour grid and 12:00 AM.
func (e *Editor) SetRow(day types.Weekday, idx int, sel TimeSlotSelection) error {
	if !day.Valid() {
		return types.NewAppError(types.ErrCodeValidationInvalidWeekday, fmt.Sprintf("invalid weekday %d", int(day)), nil)
	}
	if idx < 0 || idx >= e.rowsPerDay {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationRowIndex,
			fmt.Sprintf("row %d outside 0-%d", idx, e.rowsPerDay-1), nil, map[string]any{"day": day.String()})
	}
	if !e.sections[day].Enabled {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationDayDisabled,
			"enable the day before editing its times", nil, map[string]any{"day": day.String()})
	}
	if sel.IsNone() {
		sel = Unset
	} else {
		if err := checkGrid(sel.Time); err != nil {
			return err
		}
		m, _, err := ToMinutes(sel)
		if err != nil {
			return err
		}
		if !m.IsSet() {
			return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidTimeSlot,
				"12:00 AM cannot be stored; the device treats midnight as an empty slot", nil,
				map[string]any{"day": day.String()})
		}
	}
	e.sections[day].Rows[idx].Selection = sel
	return nil
}

// SetTimes enables the day and fills its rows in order, resetting the rest.
// Selections beyond the row count are rejected.
func (e *Editor) SetTimes(day types.Weekday, sels []TimeSlotSelection) error {
	if len(sels) > e.rowsPerDay {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationRowIndex,
			fmt.Sprintf("%d times given but each day has %d rows", len(sels), e.rowsPerDay), nil,
			map[string]any{"day": day.String()})
	}
	if err := e.SetDay(day, true); err != nil {
		return err
	}
	for i := 0; i < e.rowsPerDay; i++ {
		sel := Unset
		if i < len(sels) {
			sel = sels[i]
		}
		if err := e.SetRow(day, i, sel); err != nil {
			return err
		}
	}
	return nil
}

// Gather reads the form into a WeeklySchedule. Unchecked days are omitted,
// "None" rows are skipped, row order is kept, and a checked day with no
// usable rows is omitted too, so no empty list is ever produced.
func (e *Editor) Gather() (types.WeeklySchedule, error) {
	out := make(types.WeeklySchedule)
	for _, day := range types.AllWeekdays() {
		section := e.sections[day]
		if !section.Enabled {
			continue
		}
		var times []types.MinuteOfDay
		for _, row := range section.Rows {
			m, ok, err := ToMinutes(row.Selection)
			if err != nil {
				return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidTimeSlot,
					"schedule row is not a valid time", err, map[string]any{"day": day.String()})
			}
			if ok {
				times = append(times, m)
			}
		}
		if len(times) > 0 {
			out[day] = times
		}
	}
	return out, nil
}

// Populate loads a schedule into the form. Values <= 0 are dropped first; a
// day is checked only when something remains. Rows fill in order, extra
// values beyond the row count are ignored, and leftover rows reset to
// None/AM.
func (e *Editor) Populate(s types.WeeklySchedule) {
	for _, day := range types.AllWeekdays() {
		valid := types.ValidTimes(s[day])
		section := &e.sections[day]
		section.Enabled = len(valid) > 0
		for i := range section.Rows {
			if i < len(valid) {
				section.Rows[i].Selection = FromMinutes(valid[i])
			} else {
				section.Rows[i].Selection = Unset
			}
		}
		e.syncInert(day)
	}
}

func (e *Editor) syncInert(day types.Weekday) {
	section := &e.sections[day]
	for i := range section.Rows {
		section.Rows[i].Inert = !section.Enabled
	}
}

package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mistportal/internal/types"
)

func TestNewEditor_Defaults(t *testing.T) {
	e := NewEditor(0)

	assert.Equal(t, DefaultRowsPerDay, e.RowsPerDay())
	sections := e.Sections()
	require.Len(t, sections, 7)
	for i, s := range sections {
		assert.Equal(t, types.Weekday(i), s.Day)
		assert.False(t, s.Enabled)
		for _, row := range s.Rows {
			assert.Equal(t, Unset, row.Selection)
			assert.True(t, row.Inert)
		}
	}
}

func TestGather_UncheckedDayOmitted(t *testing.T) {
	e := NewEditor(3)
	require.NoError(t, e.SetTimes(types.Monday, []TimeSlotSelection{{"8:00", AM}, {"8:00", PM}}))
	require.NoError(t, e.SetDay(types.Monday, false))

	got, err := e.Gather()
	require.NoError(t, err)
	assert.NotContains(t, got, types.Monday)
	assert.Empty(t, got)
}

func TestGather_AllNoneOmitted(t *testing.T) {
	e := NewEditor(3)
	require.NoError(t, e.SetDay(types.Wednesday, true))

	got, err := e.Gather()
	require.NoError(t, err)
	assert.NotContains(t, got, types.Wednesday)
}

func TestGather_PreservesRowOrderAndSkipsNone(t *testing.T) {
	e := NewEditor(4)
	require.NoError(t, e.SetDay(types.Friday, true))
	require.NoError(t, e.SetRow(types.Friday, 0, TimeSlotSelection{"6:30", PM}))
	require.NoError(t, e.SetRow(types.Friday, 2, TimeSlotSelection{"7:15", AM}))

	got, err := e.Gather()
	require.NoError(t, err)
	assert.Equal(t, types.WeeklySchedule{types.Friday: {1110, 435}}, got)
	assert.NoError(t, got.Validate())
}

func TestPopulate_FillsRowsAndResetsRest(t *testing.T) {
	e := NewEditor(4)
	e.Populate(types.WeeklySchedule{types.Monday: {480, 1200}})

	mon := e.Section(types.Monday)
	assert.True(t, mon.Enabled)
	assert.Equal(t, TimeSlotSelection{"8:00", AM}, mon.Rows[0].Selection)
	assert.Equal(t, TimeSlotSelection{"8:00", PM}, mon.Rows[1].Selection)
	assert.Equal(t, Unset, mon.Rows[2].Selection)
	assert.Equal(t, Unset, mon.Rows[3].Selection)
	assert.False(t, mon.Rows[0].Inert)

	assert.False(t, e.Section(types.Tuesday).Enabled)
}

func TestPopulate_FiltersSentinelValues(t *testing.T) {
	e := NewEditor(4)
	e.Populate(types.WeeklySchedule{types.Tuesday: {-1, 600}})

	tue := e.Section(types.Tuesday)
	assert.True(t, tue.Enabled)
	assert.Equal(t, TimeSlotSelection{"10:00", AM}, tue.Rows[0].Selection)
	for _, row := range tue.Rows[1:] {
		assert.Equal(t, Unset, row.Selection)
	}
}

func TestPopulate_OnlySentinelsLeavesDayUnchecked(t *testing.T) {
	e := NewEditor(2)
	require.NoError(t, e.SetTimes(types.Sunday, []TimeSlotSelection{{"9:00", AM}}))

	e.Populate(types.WeeklySchedule{types.Sunday: {0, -3}})

	sun := e.Section(types.Sunday)
	assert.False(t, sun.Enabled)
	assert.Equal(t, Unset, sun.Rows[0].Selection)
	assert.True(t, sun.Rows[0].Inert)
}

func TestPopulate_ExtraValuesDropped(t *testing.T) {
	e := NewEditor(2)
	e.Populate(types.WeeklySchedule{types.Saturday: {60, 120, 180}})

	got, err := e.Gather()
	require.NoError(t, err)
	assert.Equal(t, types.WeeklySchedule{types.Saturday: {60, 120}}, got)
}

func TestPopulateThenGather_RoundTrip(t *testing.T) {
	in := types.WeeklySchedule{
		types.Sunday:   {360},
		types.Monday:   {480, 1200},
		types.Thursday: {15, 720, 1439},
	}
	e := NewEditor(4)
	e.Populate(in)

	got, err := e.Gather()
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestSetRow_DisabledDayRefused(t *testing.T) {
	e := NewEditor(2)

	err := e.SetRow(types.Monday, 0, TimeSlotSelection{"8:00", AM})
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeValidationDayDisabled, appErr.Code)
}

func TestSetRow_IndexOutOfRange(t *testing.T) {
	e := NewEditor(2)
	require.NoError(t, e.SetDay(types.Monday, true))

	err := e.SetRow(types.Monday, 2, TimeSlotSelection{"8:00", AM})
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeValidationRowIndex, appErr.Code)
}

func TestSetRow_RejectsUnstorableTimes(t *testing.T) {
	tests := []struct {
		name string
		sel  TimeSlotSelection
	}{
		{"off grid", TimeSlotSelection{"8:07", AM}},
		{"midnight", TimeSlotSelection{"12:00", AM}},
		{"bad period", TimeSlotSelection{"8:00", "XM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEditor(2)
			require.NoError(t, e.SetDay(types.Monday, true))

			err := e.SetRow(types.Monday, 0, tt.sel)
			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, types.ErrCodeValidationInvalidTimeSlot, appErr.Code)
			assert.Equal(t, Unset, e.Section(types.Monday).Rows[0].Selection)
		})
	}

	e := NewEditor(2)
	assert.Error(t, e.SetTimes(types.Monday, []TimeSlotSelection{{"8:07", AM}}))
	require.NoError(t, e.SetTimes(types.Tuesday, []TimeSlotSelection{{"12:15", AM}}))
	got, err := e.Gather()
	require.NoError(t, err)
	assert.Equal(t, types.WeeklySchedule{types.Tuesday: {15}}, got)
}

func TestSetRow_PopulatedOffGridValueStillGathers(t *testing.T) {
	e := NewEditor(2)
	e.Populate(types.WeeklySchedule{types.Monday: {487}})
	require.NoError(t, e.SetTimes(types.Friday, []TimeSlotSelection{{"6:00", PM}}))

	got, err := e.Gather()
	require.NoError(t, err)
	assert.Equal(t, types.WeeklySchedule{types.Monday: {487}, types.Friday: {1080}}, got)
}

func TestSetDay_ReEnableRestoresRows(t *testing.T) {
	e := NewEditor(2)
	require.NoError(t, e.SetTimes(types.Monday, []TimeSlotSelection{{"5:45", PM}}))
	require.NoError(t, e.SetDay(types.Monday, false))
	assert.True(t, e.Section(types.Monday).Rows[0].Inert)

	require.NoError(t, e.SetDay(types.Monday, true))
	mon := e.Section(types.Monday)
	assert.False(t, mon.Rows[0].Inert)
	assert.Equal(t, TimeSlotSelection{"5:45", PM}, mon.Rows[0].Selection)
}

func TestSetTimes_TooMany(t *testing.T) {
	e := NewEditor(1)
	err := e.SetTimes(types.Monday, []TimeSlotSelection{{"1:00", AM}, {"2:00", AM}})
	assert.Error(t, err)
}

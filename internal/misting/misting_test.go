package misting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mistportal/internal/types"
)

type mockUpdater struct {
	mock.Mock
}

func (m *mockUpdater) SetMisting(ctx context.Context, state types.MistingState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func TestAdvise(t *testing.T) {
	tests := []struct {
		name  string
		state types.MistingState
		want  AdvisoryKind
		text  string
	}{
		{"manual running", types.MistingState{Active: true}, ManualOnly, "Mist is currently running manually"},
		{"automation enabled", types.MistingState{Enabled: true}, AutomationOnly, "Automated misting is enabled"},
		{"both on", types.MistingState{Active: true, Enabled: true}, BothOn, "automation is also enabled"},
		{"both off", types.MistingState{}, BothOff, "Both misting options are currently disabled"},
	}

	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advise(tt.state)
			assert.Equal(t, tt.want, got.Kind)
			assert.Contains(t, got.Text, tt.text)
			assert.False(t, seen[got.Text], "advisory text must be distinct")
			seen[got.Text] = true
		})
	}
}

func TestController_SetPushesCombinedState(t *testing.T) {
	updater := new(mockUpdater)
	want := types.MistingState{Enabled: true, Active: false}
	updater.On("SetMisting", mock.Anything, want).Return(nil).Once()

	c := NewController(updater, nil)
	advisory, err := c.Set(context.Background(), want)

	require.NoError(t, err)
	assert.Equal(t, AutomationOnly, advisory.Kind)
	assert.Equal(t, want, c.State())
	updater.AssertExpectations(t)
}

func TestController_SetFailureKeepsOptimisticState(t *testing.T) {
	updater := new(mockUpdater)
	pushErr := types.NewAppError(types.ErrCodeUpstreamPortal, "portal unreachable", errors.New("dial tcp: refused"))
	updater.On("SetMisting", mock.Anything, mock.Anything).Return(pushErr).Once()

	c := NewController(updater, nil)
	state := types.MistingState{Active: true}
	advisory, err := c.Set(context.Background(), state)

	require.ErrorIs(t, err, pushErr)
	assert.Equal(t, ManualOnly, advisory.Kind)
	assert.Equal(t, state, c.State(), "toggle stays where the user set it")
	updater.AssertNumberOfCalls(t, "SetMisting", 1)
}

func TestController_LoadMirrorsPresentFields(t *testing.T) {
	c := NewController(new(mockUpdater), nil)
	on := true
	c.Load(types.PortalConfig{AutomationEnabled: &on})
	assert.Equal(t, types.MistingState{Enabled: true}, c.State())

	off := false
	c.Load(types.PortalConfig{Active: &on})
	c.Load(types.PortalConfig{AutomationEnabled: &off})
	assert.Equal(t, types.MistingState{Enabled: false, Active: true}, c.State())
}

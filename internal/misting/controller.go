package misting

import (
	"context"
	"log/slog"
	"sync"

	"mistportal/internal/types"
)

// StateUpdater pushes the combined toggle state to the device.
type StateUpdater interface {
	SetMisting(ctx context.Context, state types.MistingState) error
}

// Controller mirrors the two toggles. Updates are optimistic: the local state
// follows the user even when the push fails, and nothing is retried.
type Controller struct {
	mu      sync.Mutex
	state   types.MistingState
	updater StateUpdater
	logger  *slog.Logger
}

// NewController creates a Controller with both toggles off.
func NewController(updater StateUpdater, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{updater: updater, logger: logger}
}

// State returns the current toggle state.
func (c *Controller) State() types.MistingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load mirrors whichever toggles the device config reported.
func (c *Controller) Load(cfg types.PortalConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg.AutomationEnabled != nil {
		c.state.Enabled = *cfg.AutomationEnabled
	}
	if cfg.Active != nil {
		c.state.Active = *cfg.Active
	}
}

// Set applies the new state locally, then pushes it. The advisory is always
// returned; the error reports only the push outcome.
func (c *Controller) Set(ctx context.Context, state types.MistingState) (Advisory, error) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	advisory := Advise(state)
	if err := c.updater.SetMisting(ctx, state); err != nil {
		c.logger.ErrorContext(ctx, "failed to update misting",
			"enabled", state.Enabled,
			"active", state.Active,
			"error", err,
		)
		return advisory, err
	}
	c.logger.InfoContext(ctx, "misting state pushed",
		"enabled", state.Enabled,
		"active", state.Active,
		"advisory", string(advisory.Kind),
	)
	return advisory, nil
}

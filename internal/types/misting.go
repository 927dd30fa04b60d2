package types

// MistingState mirrors the two misting toggles persisted by the device.
// Active is the manual override; Enabled arms scheduled automation.
type MistingState struct {
	Enabled bool `json:"enabled"`
	Active  bool `json:"active"`
}

// Package misting holds the manual/automatic misting switches and the
// advisory shown for each combination of them.
package misting

import "mistportal/internal/types"

// AdvisoryKind identifies one of the four toggle combinations.
type AdvisoryKind string

const (
	BothOff        AdvisoryKind = "both_off"
	ManualOnly     AdvisoryKind = "manual_only"
	AutomationOnly AdvisoryKind = "automation_only"
	BothOn         AdvisoryKind = "both_on"
)

// Advisory is the message shown after the toggles change.
type Advisory struct {
	Kind AdvisoryKind
	Text string
}

var advisoryText = map[AdvisoryKind]string{
	ManualOnly:     "Mist is currently running manually. Turn this switch off to stop it. Do not leave it active for long periods.",
	AutomationOnly: "Automated misting is enabled. It will activate on the schedule you've set.",
	BothOn:         "Manual misting is currently active, and automation is also enabled. Be sure to turn off manual misting when no longer needed.",
	BothOff:        "Both misting options are currently disabled. No misting will occur unless enabled.",
}

// Advise returns the advisory for a toggle state.
func Advise(s types.MistingState) Advisory {
	var kind AdvisoryKind
	switch {
	case s.Active && !s.Enabled:
		kind = ManualOnly
	case !s.Active && s.Enabled:
		kind = AutomationOnly
	case s.Active && s.Enabled:
		kind = BothOn
	default:
		kind = BothOff
	}
	return Advisory{Kind: kind, Text: advisoryText[kind]}
}

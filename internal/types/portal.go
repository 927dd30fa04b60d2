package types

// Location is the device's configured forecast coordinate.
type Location struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// Known reports whether both coordinates are present.
func (l *Location) Known() bool {
	return l != nil && l.Lat != nil && l.Lon != nil
}

// PortalConfig is the GET /api/config response. Pointer fields distinguish
// "absent" from false so callers only mirror what the device reported.
type PortalConfig struct {
	AutomationEnabled *bool          `json:"automation_enabled,omitempty"`
	Active            *bool          `json:"active,omitempty"`
	Schedule          WeeklySchedule `json:"schedule,omitempty"`
	Location          *Location      `json:"location,omitempty"`
}

// ScheduleRequest is the POST /api/schedule body.
type ScheduleRequest struct {
	Schedule WeeklySchedule `json:"schedule"`
}

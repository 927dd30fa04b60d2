package external

import (
	"context"

	"mistportal/internal/types"
)

// Portal is the misting device's HTTP API.
type Portal interface {
	// GetConfig returns the toggles, schedule and location stored on the device.
	GetConfig(ctx context.Context) (*types.PortalConfig, error)

	// SaveSchedule replaces the weekly schedule. Times travel as "H:MM"
	// 24-hour strings.
	SaveSchedule(ctx context.Context, schedule types.WeeklySchedule) error

	// SetMisting pushes both toggles at once.
	SetMisting(ctx context.Context, state types.MistingState) error

	// GetWeatherLog returns the recorded lookups in server order.
	GetWeatherLog(ctx context.Context) ([]types.WeatherLogEntry, error)

	// AppendWeatherLog records one lookup.
	AppendWeatherLog(ctx context.Context, entry types.WeatherLogEntry) error
}

// ForecastProvider is the two-step weather.gov lookup.
type ForecastProvider interface {
	// ResolveForecastURL maps a coordinate to the provider's forecast resource.
	ResolveForecastURL(ctx context.Context, lat, lon string) (string, error)

	// GetForecast fetches every period from a forecast resource.
	GetForecast(ctx context.Context, forecastURL string) ([]types.ForecastPeriod, error)
}

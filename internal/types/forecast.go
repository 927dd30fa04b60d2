package types

import "time"

// MaxForecastPeriods is the number of provider periods retained per lookup.
const MaxForecastPeriods = 7

// QuantitativeValue is the weather.gov {unitCode, value} pair. Value is nil
// when the provider has no estimate.
type QuantitativeValue struct {
	UnitCode string `json:"unitCode,omitempty"`
	Value    *int   `json:"value"`
}

// ForecastPeriod is one provider forecast interval. Field names follow the
// weather.gov JSON so periods can be forwarded to the portal log unchanged.
type ForecastPeriod struct {
	Number                     int               `json:"number,omitempty"`
	Name                       string            `json:"name"`
	StartTime                  string            `json:"startTime,omitempty"`
	IsDaytime                  bool              `json:"isDaytime"`
	Temperature                int               `json:"temperature"`
	TemperatureUnit            string            `json:"temperatureUnit"`
	ShortForecast              string            `json:"shortForecast"`
	ProbabilityOfPrecipitation QuantitativeValue `json:"probabilityOfPrecipitation"`
}

// PrecipPercent returns the precipitation probability, treating a missing
// value as 0.
func (p ForecastPeriod) PrecipPercent() int {
	if p.ProbabilityOfPrecipitation.Value == nil {
		return 0
	}
	return *p.ProbabilityOfPrecipitation.Value
}

// WeatherLogEntry is one recorded lookup. Timestamp is milliseconds since the
// Unix epoch.
type WeatherLogEntry struct {
	Timestamp int64            `json:"timestamp"`
	Periods   []ForecastPeriod `json:"periods"`
}

// Time converts the entry timestamp to a time.Time.
func (e WeatherLogEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// WeatherLog is the GET /api/weather_log response body.
type WeatherLog struct {
	Log []WeatherLogEntry `json:"log"`
}

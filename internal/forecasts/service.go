// Package forecasts implements the forecast lookup and the weather log kept
// on the portal.
//
// A lookup is two provider calls (resolve the coordinate to a forecast
// resource, then fetch it). The result is trimmed to the first
// types.MaxForecastPeriods periods and checked against SkipThreshold. The
// skip advisory is display only: nothing here touches the misting toggles.
package forecasts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"mistportal/internal/types"
)

// SkipThreshold is the precipitation probability, in percent, at or above
// which the device's automation skips misting.
const SkipThreshold = 60

// SkipAdvisoryText is shown when the forecast crosses SkipThreshold.
const SkipAdvisoryText = "Automation will skip misting due to high precipitation chance."

// logDateLayout matches the portal's date-only log lines (M/D/YYYY).
const logDateLayout = "1/2/2006"

// Provider is the two-step forecast lookup.
type Provider interface {
	ResolveForecastURL(ctx context.Context, lat, lon string) (string, error)
	GetForecast(ctx context.Context, forecastURL string) ([]types.ForecastPeriod, error)
}

// LogStore is the portal's weather log.
type LogStore interface {
	GetWeatherLog(ctx context.Context) ([]types.WeatherLogEntry, error)
	AppendWeatherLog(ctx context.Context, entry types.WeatherLogEntry) error
}

// Coordinates is a lookup location as typed by the user. Values are kept as
// strings so they reach the provider exactly as entered.
type Coordinates struct {
	Lat string
	Lon string
}

// Report is the outcome of one lookup.
type Report struct {
	Periods      []types.ForecastPeriod
	MaxPrecip    int
	SkipAdvisory string
}

// Skips reports whether automation will skip misting for this forecast.
func (r Report) Skips() bool {
	return r.SkipAdvisory != ""
}

// Service performs lookups and maintains the weather log.
type Service struct {
	provider Provider
	store    LogStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService creates a Service. A nil logger falls back to slog.Default().
func NewService(provider Provider, store LogStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// Normalize trims the coordinate and validates its ranges.
func (s *Service) Normalize(c Coordinates) (Coordinates, error) {
	c = Coordinates{Lat: strings.TrimSpace(c.Lat), Lon: strings.TrimSpace(c.Lon)}
	if err := s.validate.Var(c.Lat, "required,latitude"); err != nil {
		return c, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %q is not a number between -90 and 90", c.Lat), err,
			map[string]any{"lat": c.Lat})
	}
	if err := s.validate.Var(c.Lon, "required,longitude"); err != nil {
		return c, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude %q is not a number between -180 and 180", c.Lon), err,
			map[string]any{"lon": c.Lon})
	}
	return c, nil
}

// Lookup resolves and fetches the forecast for c. An empty period list is an
// error: there is nothing to show and nothing is logged.
func (s *Service) Lookup(ctx context.Context, c Coordinates) (Report, error) {
	c, err := s.Normalize(c)
	if err != nil {
		return Report{}, err
	}

	forecastURL, err := s.provider.ResolveForecastURL(ctx, c.Lat, c.Lon)
	if err != nil {
		return Report{}, err
	}
	periods, err := s.provider.GetForecast(ctx, forecastURL)
	if err != nil {
		return Report{}, err
	}
	if len(periods) == 0 {
		return Report{}, types.NewAppErrorWithDetails(types.ErrCodeNotFoundForecast,
			"the forecast has no periods", nil,
			map[string]any{"lat": c.Lat, "lon": c.Lon})
	}

	report := Evaluate(periods)
	s.logger.InfoContext(ctx, "forecast retrieved",
		"lat", c.Lat,
		"lon", c.Lon,
		"periods", len(report.Periods),
		"max_precip", report.MaxPrecip,
		"skip", report.Skips(),
	)
	return report, nil
}

// Evaluate trims periods to types.MaxForecastPeriods and computes the
// precipitation maximum over the retained periods. Missing probabilities
// count as 0.
func Evaluate(periods []types.ForecastPeriod) Report {
	if len(periods) > types.MaxForecastPeriods {
		periods = periods[:types.MaxForecastPeriods]
	}
	report := Report{Periods: append([]types.ForecastPeriod(nil), periods...)}
	for _, p := range report.Periods {
		report.MaxPrecip = max(report.MaxPrecip, p.PrecipPercent())
	}
	if report.MaxPrecip >= SkipThreshold {
		report.SkipAdvisory = SkipAdvisoryText
	}
	return report
}

// Record appends the report to the portal log and returns the log re-fetched
// in full. A failed append is logged and does not fail the call; only the
// re-fetch can return an error.
func (s *Service) Record(ctx context.Context, report Report, now time.Time) ([]types.WeatherLogEntry, error) {
	entry := types.WeatherLogEntry{
		Timestamp: now.UnixMilli(),
		Periods:   report.Periods,
	}
	if err := s.store.AppendWeatherLog(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to append weather log entry",
			"timestamp", entry.Timestamp,
			"error", err,
		)
	}
	return s.History(ctx)
}

// History fetches the weather log in server order.
func (s *Service) History(ctx context.Context) ([]types.WeatherLogEntry, error) {
	entries, err := s.store.GetWeatherLog(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load weather log", "error", err)
		return nil, err
	}
	return entries, nil
}

// Summarize renders one log line: the entry's local date, then the short
// forecast of its first period, or "n/a" when it has none.
func Summarize(entry types.WeatherLogEntry, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	desc := "n/a"
	if len(entry.Periods) > 0 {
		desc = entry.Periods[0].ShortForecast
	}
	return entry.Time().In(loc).Format(logDateLayout) + " - " + desc
}

package external

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"mistportal/internal/types"
)

// weatherGovAPIBase is the default National Weather Service API base URL.
const weatherGovAPIBase = "https://api.weather.gov"

// WeatherGovConfig holds the configuration for creating a WeatherGovClient.
type WeatherGovConfig struct {
	BaseURL   string // Override for testing; defaults to weatherGovAPIBase
	UserAgent string // weather.gov asks callers to identify themselves
	// RequestsPerSecond caps outbound calls; zero disables the limiter.
	RequestsPerSecond float64
	Retry             RetryPolicy
	Logger            *slog.Logger
	// CheckURL, when set, vets the provider-supplied forecast URL before it
	// is followed.
	CheckURL func(ctx context.Context, rawURL string) error
}

// pointsResponse is the subset of GET /points/{lat},{lon} we need.
type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

// forecastResponse is the subset of a forecast resource we need.
type forecastResponse struct {
	Properties struct {
		Periods []types.ForecastPeriod `json:"periods"`
	} `json:"properties"`
}

// WeatherGovClient implements ForecastProvider against api.weather.gov.
type WeatherGovClient struct {
	base     *BaseClient
	baseURL  string
	limiter  *rate.Limiter
	validate *validator.Validate
	checkURL func(ctx context.Context, rawURL string) error
	logger   *slog.Logger
}

// NewWeatherGovClient creates a WeatherGovClient. The httpClient should carry
// a timeout and, outside tests, the SSRF-safe transport, because the forecast
// URL it follows comes from the provider.
func NewWeatherGovClient(httpClient *http.Client, cfg WeatherGovConfig, opts ...BaseClientOption) *WeatherGovClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = weatherGovAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	opts = append([]BaseClientOption{WithAccept("application/geo+json")}, opts...)

	return &WeatherGovClient{
		base:     NewBaseClient(httpClient, "weather.gov", cfg.Retry, cfg.UserAgent, opts...),
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		limiter:  limiter,
		validate: validator.New(),
		checkURL: cfg.CheckURL,
		logger:   logger,
	}
}

// ResolveForecastURL calls GET /points/{lat},{lon} and returns
// properties.forecast.
func (c *WeatherGovClient) ResolveForecastURL(ctx context.Context, lat, lon string) (string, error) {
	endpoint := fmt.Sprintf("%s/points/%s,%s", c.baseURL, url.PathEscape(lat), url.PathEscape(lon))

	var pt pointsResponse
	if err := c.get(ctx, "ResolveForecastURL", endpoint, &pt); err != nil {
		return "", err
	}

	forecastURL := pt.Properties.Forecast
	if err := c.validate.Var(forecastURL, "required,http_url"); err != nil {
		return "", types.NewAppErrorWithDetails(
			types.ErrCodeValidationForecastURL,
			"weather.gov returned no usable forecast URL",
			err,
			map[string]any{"lat": lat, "lon": lon, "forecast_url": forecastURL},
		)
	}

	if c.checkURL != nil {
		if err := c.checkURL(ctx, forecastURL); err != nil {
			return "", types.NewAppErrorWithDetails(
				types.ErrCodeValidationForecastURL,
				"weather.gov returned a forecast URL that may not be followed",
				err,
				map[string]any{"forecast_url": forecastURL},
			)
		}
	}

	c.logger.DebugContext(ctx, "resolved forecast resource",
		"lat", lat,
		"lon", lon,
		"forecast_url", forecastURL,
	)
	return forecastURL, nil
}

// GetForecast fetches properties.periods from a forecast resource.
func (c *WeatherGovClient) GetForecast(ctx context.Context, forecastURL string) ([]types.ForecastPeriod, error) {
	var fc forecastResponse
	if err := c.get(ctx, "GetForecast", forecastURL, &fc); err != nil {
		return nil, err
	}
	return fc.Properties.Periods, nil
}

func (c *WeatherGovClient) get(ctx context.Context, operation, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return types.NewAppError(types.ErrCodeUpstreamRateLimited, "weather.gov request limiter", err)
		}
	}

	err := c.base.DoJSON(ctx, http.MethodGet, endpoint, nil, out, func(resp *http.Response) error {
		return c.handleErrorResponse(resp, operation)
	})
	if err == nil {
		return nil
	}

	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamUnavailable {
		return &types.AppError{
			Code:    types.ErrCodeUpstreamForecast,
			Message: fmt.Sprintf("weather.gov %s: %s", operation, appErr.Message),
			Err:     appErr.Err,
			Details: appErr.Details,
		}
	}
	return err
}

// handleErrorResponse maps weather.gov problem responses. A 404 from /points
// means the coordinate is outside NWS coverage.
func (c *WeatherGovClient) handleErrorResponse(resp *http.Response, operation string) *types.AppError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	bodyStr := string(bodyBytes)

	c.logger.Warn("weather.gov API error",
		"operation", operation,
		"status_code", resp.StatusCode,
		"response_body", bodyStr,
	)

	if resp.StatusCode == http.StatusNotFound {
		return types.NewAppError(
			types.ErrCodeNotFoundForecast,
			"no forecast available for this location",
			fmt.Errorf("weather.gov %s returned 404: %s", operation, bodyStr),
		)
	}
	return types.NewAppErrorWithDetails(
		types.ErrCodeUpstreamForecast,
		fmt.Sprintf("weather.gov %s failed (%d)", operation, resp.StatusCode),
		fmt.Errorf("weather.gov %s returned %d: %s", operation, resp.StatusCode, bodyStr),
		map[string]any{"status_code": resp.StatusCode},
	)
}

var _ ForecastProvider = (*WeatherGovClient)(nil)

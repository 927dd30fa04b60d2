package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mistportal/internal/types"
)

// newFakeWeatherGov serves /points and /gridpoints the way api.weather.gov
// shapes them.
func newFakeWeatherGov(t *testing.T, forecastURL func(base string) string, periods []map[string]any) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	var srv *httptest.Server
	r.Get("/points/{coords}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "coords") == "0,0" {
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"title":"Data Unavailable For Requested Point"}`))
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"properties": map[string]any{"forecast": forecastURL(srv.URL)},
		})
	})
	r.Get("/gridpoints/PSR/158,57/forecast", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/geo+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/geo+json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"properties": map[string]any{"periods": periods},
		})
	})
	srv = httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func gridForecast(base string) string { return base + "/gridpoints/PSR/158,57/forecast" }

func TestWeatherGovClient_ResolveAndFetch(t *testing.T) {
	srv := newFakeWeatherGov(t, gridForecast, []map[string]any{
		{
			"number": 1, "name": "Tonight", "startTime": "2024-06-01T18:00:00-07:00",
			"isDaytime": false, "temperature": 84, "temperatureUnit": "F",
			"shortForecast": "Mostly Clear",
			"probabilityOfPrecipitation": map[string]any{"unitCode": "wmoUnit:percent", "value": 20},
		},
		{
			"number": 2, "name": "Sunday", "isDaytime": true, "temperature": 109,
			"temperatureUnit": "F", "shortForecast": "Sunny",
			"probabilityOfPrecipitation": map[string]any{"unitCode": "wmoUnit:percent", "value": nil},
		},
	})

	client := NewWeatherGovClient(srv.Client(), WeatherGovConfig{BaseURL: srv.URL, UserAgent: "mistportal-test"})
	ctx := context.Background()

	url, err := client.ResolveForecastURL(ctx, "33.45", "-112.07")
	require.NoError(t, err)
	assert.Equal(t, gridForecast(srv.URL), url)

	periods, err := client.GetForecast(ctx, url)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "Tonight", periods[0].Name)
	assert.Equal(t, 84, periods[0].Temperature)
	assert.Equal(t, 20, periods[0].PrecipPercent())
	assert.Equal(t, 0, periods[1].PrecipPercent())
}

func TestWeatherGovClient_UnknownPointIsNotFound(t *testing.T) {
	srv := newFakeWeatherGov(t, gridForecast, nil)
	client := NewWeatherGovClient(srv.Client(), WeatherGovConfig{BaseURL: srv.URL})

	_, err := client.ResolveForecastURL(context.Background(), "0", "0")
	appErr := requireCode(t, err, types.ErrCodeNotFoundForecast)
	assert.Equal(t, types.ExitUpstream, appErr.ExitCode())
}

func TestWeatherGovClient_MissingForecastURL(t *testing.T) {
	srv := newFakeWeatherGov(t, func(string) string { return "" }, nil)
	client := NewWeatherGovClient(srv.Client(), WeatherGovConfig{BaseURL: srv.URL})

	_, err := client.ResolveForecastURL(context.Background(), "33.45", "-112.07")
	requireCode(t, err, types.ErrCodeValidationForecastURL)
}

func TestWeatherGovClient_ServerErrorIsForecastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client := NewWeatherGovClient(srv.Client(), WeatherGovConfig{BaseURL: srv.URL}, WithSleepFunc(noopSleep))

	_, err := client.GetForecast(context.Background(), srv.URL+"/gridpoints/X/1,1/forecast")
	requireCode(t, err, types.ErrCodeUpstreamForecast)
}

func TestWeatherGovClient_LimiterHonoursContext(t *testing.T) {
	srv := newFakeWeatherGov(t, gridForecast, nil)
	client := NewWeatherGovClient(srv.Client(), WeatherGovConfig{BaseURL: srv.URL, RequestsPerSecond: 0.001})

	_, err := client.ResolveForecastURL(context.Background(), "33.45", "-112.07")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.ResolveForecastURL(ctx, "33.45", "-112.07")
	requireCode(t, err, types.ErrCodeUpstreamRateLimited)
}

func TestWeatherGovClient_CheckURLRefusesForecastURL(t *testing.T) {
	srv := newFakeWeatherGov(t, gridForecast, nil)
	refused := errors.New("blocked")
	client := NewWeatherGovClient(srv.Client(), WeatherGovConfig{
		BaseURL:  srv.URL,
		CheckURL: func(context.Context, string) error { return refused },
	})

	_, err := client.ResolveForecastURL(context.Background(), "33.45", "-112.07")
	appErr := requireCode(t, err, types.ErrCodeValidationForecastURL)
	assert.ErrorIs(t, appErr, refused)
}

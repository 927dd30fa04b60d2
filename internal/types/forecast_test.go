package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastPeriod_PrecipPercent(t *testing.T) {
	var p ForecastPeriod
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Tonight",
		"temperature": 61,
		"temperatureUnit": "F",
		"shortForecast": "Chance Showers",
		"probabilityOfPrecipitation": {"unitCode": "wmoUnit:percent", "value": 40}
	}`), &p))
	assert.Equal(t, 40, p.PrecipPercent())
	assert.Equal(t, "Chance Showers", p.ShortForecast)

	require.NoError(t, json.Unmarshal([]byte(`{"name": "Friday", "probabilityOfPrecipitation": {"value": null}}`), &p))
	assert.Equal(t, 0, p.PrecipPercent())
}

func TestWeatherLogEntry_Time(t *testing.T) {
	e := WeatherLogEntry{Timestamp: 1760000000000}
	assert.Equal(t, int64(1760000000), e.Time().Unix())
}

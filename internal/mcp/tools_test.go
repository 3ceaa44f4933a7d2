package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/miyamo2/qilin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-climatology/internal/weather"
)

// fakeToolContext records the JSON content a handler sends.
type fakeToolContext struct {
	qilin.ToolContext
	args []byte
	sent any
}

func (c *fakeToolContext) Bind(i any) error {
	if len(c.args) == 0 {
		return nil
	}
	return json.Unmarshal(c.args, i)
}

func (c *fakeToolContext) JSON(i any) error {
	c.sent = i
	return nil
}

func (c *fakeToolContext) Context() context.Context {
	return context.Background()
}

type fakeForecaster struct {
	result weather.ForecastResult
	err    error
	got    weather.Query
	calls  int
}

func (f *fakeForecaster) Forecast(_ context.Context, q weather.Query) (weather.ForecastResult, error) {
	f.calls++
	f.got = q
	return f.result, f.err
}

func (f *fakeForecaster) ProviderName() string { return "nasapower" }

func analyzed(t *testing.T) weather.ForecastResult {
	t.Helper()
	var records []weather.DailyRecord
	for i, temp := range []float64{10, 20, 30, 40, 50} {
		records = append(records, weather.DailyRecord{
			Date:          weather.Date{Year: 2010 + i, Month: time.August, Day: 1},
			Temperature:   temp,
			Precipitation: 0,
			WindSpeed:     float64(i + 1),
		})
	}
	return weather.Analyze(weather.NewDailySeries(records), weather.Date{Year: 2026, Month: time.August, Day: 1})
}

func TestWeatherProbability_Success(t *testing.T) {
	svc := &fakeForecaster{result: analyzed(t)}
	c := &fakeToolContext{args: []byte(`{"latitude":40.71,"longitude":-74.0,"date":"2026-08-01"}`)}

	require.NoError(t, WeatherProbability(svc)(c))
	require.Equal(t, 1, svc.calls)
	assert.Equal(t, 40.71, svc.got.Latitude)
	assert.Equal(t, -74.0, svc.got.Longitude)
	assert.Equal(t, weather.Date{Year: 2026, Month: time.August, Day: 1}, svc.got.TargetDate)

	resp, ok := c.sent.(WeatherProbabilityResponse)
	require.True(t, ok, "unexpected content %T", c.sent)

	assert.Equal(t, "°C", resp.Temperature.Unit)
	assert.Equal(t, "mm", resp.Precipitation.Unit)
	assert.Equal(t, "m/s", resp.WindSpeed.Unit)
	assert.Equal(t, 5, resp.Temperature.HistoricalDataPoints)
	require.NotNil(t, resp.Temperature.Avg)
	assert.Equal(t, 30.0, *resp.Temperature.Avg)
	assert.True(t, resp.Precipitation.Distribution.IsSentinel())
	assert.Equal(t, "NASA POWER daily point data", resp.DataSource)
	assert.NotEmpty(t, resp.Note)

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"wind_speed":{`)
	assert.Contains(t, string(b), `"historical_data_points":5`)
	assert.Contains(t, string(b), `"date":"2026-08-01"`)
}

func TestWeatherProbability_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"malformed json", `{"latitude":`},
		{"bad date", `{"latitude":1,"longitude":2,"date":"tomorrow"}`},
		{"missing date", `{"latitude":1,"longitude":2}`},
		{"missing latitude", `{"longitude":-74,"date":"2026-08-01"}`},
		{"missing longitude", `{"latitude":40.71,"date":"2026-08-01"}`},
		{"null coordinates", `{"latitude":null,"longitude":null,"date":"2026-08-01"}`},
		{"no arguments", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeForecaster{}
			c := &fakeToolContext{args: []byte(tt.args)}

			require.NoError(t, WeatherProbability(svc)(c))
			resp, ok := c.sent.(ToolErrorResponse)
			require.True(t, ok, "unexpected content %T", c.sent)
			assert.Equal(t, weather.KindInvalidInput, resp.Error)
			assert.Zero(t, svc.calls)
		})
	}
}

func TestWeatherProbability_ServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    weather.ErrorKind
		message string
	}{
		{"invalid input", weather.InvalidInputf("latitude must be <= 90"), weather.KindInvalidInput, "latitude must be <= 90"},
		{"no data", weather.DataUnavailablef("no temperature observations"), weather.KindDataUnavailable, "no temperature observations"},
		{"upstream", weather.FetchFailed(502, nil, "nasapower returned status 502"), weather.KindFetchFailed, "nasapower returned status 502"},
		{"untyped", errors.New("boom"), weather.KindFetchFailed, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeForecaster{err: tt.err}
			c := &fakeToolContext{args: []byte(`{"latitude":1,"longitude":2,"date":"2026-01-01"}`)}

			require.NoError(t, WeatherProbability(svc)(c))
			resp, ok := c.sent.(ToolErrorResponse)
			require.True(t, ok, "unexpected content %T", c.sent)
			assert.Equal(t, tt.kind, resp.Error)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestDataSource(t *testing.T) {
	assert.Equal(t, "Open-Meteo historical weather archive", dataSource("openmeteo"))
	assert.Equal(t, "custom", dataSource("custom"))
}

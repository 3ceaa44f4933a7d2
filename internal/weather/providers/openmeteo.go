package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-climatology/internal/weather"
)

const DefaultOpenMeteoBaseURL = "https://archive-api.open-meteo.com/v1/archive"

// OpenMeteoProvider implements weather.HistoryProvider for the Open-Meteo
// historical archive. Wind is the 10m daily mean, converted to m/s upstream.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker("openmeteo"),
		now:     time.Now,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoResponse struct {
	Daily struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m_mean"`
		Precipitation []*float64 `json:"precipitation_sum"`
		WindSpeed     []*float64 `json:"wind_speed_10m_mean"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, coord weather.Coordinate, startYear, endYear int) (weather.DailySeries, error) {
	start := weather.Date{Year: startYear, Month: time.January, Day: 1}
	end := weather.Date{Year: endYear, Month: time.December, Day: 31}

	// The archive only serves days that have already ended.
	yesterday := weather.DateOf(p.now().UTC().AddDate(0, 0, -1))
	if yesterday.Before(end) {
		end = yesterday
	}
	if end.Before(start) {
		return nil, weather.DataUnavailablef("%s has no archive data for %d-%d", p.name, startYear, endYear)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
		values.Set("start_date", start.String())
		values.Set("end_date", end.String())
		values.Set("daily", "temperature_2m_mean,precipitation_sum,wind_speed_10m_mean")
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.name, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, weather.FetchFailed(resp.StatusCode, err, "%s: decode response", p.name)
	}

	daily := payload.Daily
	records := make([]weather.DailyRecord, 0, len(daily.Time))
	for i, ts := range daily.Time {
		temp := valueAt(daily.Temperature, i)
		if temp == nil {
			continue
		}
		date, err := weather.ParseDate(ts)
		if err != nil {
			return nil, weather.FetchFailed(resp.StatusCode, err, "%s: malformed response", p.name)
		}
		records = append(records, weather.DailyRecord{
			Date:          date,
			Temperature:   *temp,
			Precipitation: derefOrZero(valueAt(daily.Precipitation, i)),
			WindSpeed:     derefOrZero(valueAt(daily.WindSpeed, i)),
		})
	}

	if len(records) == 0 {
		return nil, weather.DataUnavailablef("%s has no temperature observations for %s (%d-%d)",
			p.name, coord, startYear, endYear)
	}
	return weather.NewDailySeries(records), nil
}

func valueAt(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

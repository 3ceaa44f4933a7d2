package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/i474232898/weather-climatology/internal/weather"
)

const (
	DefaultNASAPowerBaseURL   = "https://power.larc.nasa.gov/api/temporal/daily/point"
	DefaultNASAPowerCommunity = "RE"
)

// NASAPowerParameters names the POWER variable codes requested per fetch.
type NASAPowerParameters struct {
	Temperature   string
	Precipitation string
	WindSpeed     string
}

// DefaultNASAPowerParameters: 2m air temperature, total precipitation, 2m wind speed.
var DefaultNASAPowerParameters = NASAPowerParameters{
	Temperature:   "T2M",
	Precipitation: "PRECTOT",
	WindSpeed:     "WS2M",
}

// NASAPowerOptions configures a NASAPowerProvider. Empty fields take defaults.
type NASAPowerOptions struct {
	BaseURL    string
	Community  string
	Parameters NASAPowerParameters
}

// NASAPowerProvider implements weather.HistoryProvider for the NASA POWER
// daily point API.
type NASAPowerProvider struct {
	name      string
	baseURL   string
	community string
	params    NASAPowerParameters
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
}

func NewNASAPowerProvider(client *http.Client, opts NASAPowerOptions) *NASAPowerProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNASAPowerBaseURL
	}
	if opts.Community == "" {
		opts.Community = DefaultNASAPowerCommunity
	}
	if opts.Parameters.Temperature == "" {
		opts.Parameters.Temperature = DefaultNASAPowerParameters.Temperature
	}
	if opts.Parameters.Precipitation == "" {
		opts.Parameters.Precipitation = DefaultNASAPowerParameters.Precipitation
	}
	if opts.Parameters.WindSpeed == "" {
		opts.Parameters.WindSpeed = DefaultNASAPowerParameters.WindSpeed
	}

	return &NASAPowerProvider{
		name:      "nasapower",
		baseURL:   opts.BaseURL,
		community: opts.Community,
		params:    opts.Parameters,
		client:    client,
		circuit:   newCircuitBreaker("nasapower"),
	}
}

func (p *NASAPowerProvider) Name() string {
	return p.name
}

// powerSeries is one variable as returned by POWER: date code -> value, in
// the order the provider emitted the keys.
type powerSeries = orderedmap.OrderedMap[string, float64]

type powerResponse struct {
	Properties struct {
		Parameter map[string]*powerSeries `json:"parameter"`
	} `json:"properties"`
	Messages []string `json:"messages"`
}

func (p *NASAPowerProvider) FetchDaily(ctx context.Context, coord weather.Coordinate, startYear, endYear int) (weather.DailySeries, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("parameters", p.params.Temperature+","+p.params.Precipitation+","+p.params.WindSpeed)
		values.Set("community", p.community)
		values.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
		values.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
		values.Set("start", fmt.Sprintf("%04d0101", startYear))
		values.Set("end", fmt.Sprintf("%04d1231", endYear))
		values.Set("format", "JSON")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.name, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload powerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, weather.FetchFailed(resp.StatusCode, err, "%s: decode response", p.name)
	}

	params := payload.Properties.Parameter
	series, err := alignPowerSeries(
		params[p.params.Temperature],
		params[p.params.Precipitation],
		params[p.params.WindSpeed],
	)
	if err != nil {
		if weather.KindOf(err) == weather.KindDataUnavailable {
			return nil, weather.DataUnavailablef("%s has no %s observations for %s (%d-%d)",
				p.name, p.params.Temperature, coord, startYear, endYear)
		}
		return nil, weather.FetchFailed(resp.StatusCode, err, "%s: malformed response", p.name)
	}
	return series, nil
}

// alignPowerSeries joins the three POWER mappings on the temperature date
// codes. Temperature is mandatory; a missing precipitation or wind mapping,
// or a single missing date within one, reads as 0.
func alignPowerSeries(temp, precip, wind *powerSeries) (weather.DailySeries, error) {
	if temp == nil || temp.Len() == 0 {
		return nil, weather.DataUnavailablef("no temperature observations")
	}

	records := make([]weather.DailyRecord, 0, temp.Len())
	for pair := temp.Oldest(); pair != nil; pair = pair.Next() {
		date, err := weather.ParseDateCode(pair.Key)
		if err != nil {
			return nil, err
		}
		records = append(records, weather.DailyRecord{
			Date:          date,
			Temperature:   pair.Value,
			Precipitation: lookupOrZero(precip, pair.Key),
			WindSpeed:     lookupOrZero(wind, pair.Key),
		})
	}
	return weather.NewDailySeries(records), nil
}

func lookupOrZero(m *powerSeries, key string) float64 {
	if m == nil {
		return 0
	}
	v, _ := m.Get(key)
	return v
}

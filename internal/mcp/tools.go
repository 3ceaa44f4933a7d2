// Package mcp exposes the climatology service as Model Context Protocol tools
// for chat assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miyamo2/qilin"

	"github.com/i474232898/weather-climatology/internal/weather"
)

const (
	ToolName = "get_weather_probability"

	toolDescription = "Get historical weather probability data for a specific location and date. " +
		"Analyzes the daily record of every year in the configured window (default 1995-2025) for the " +
		"same calendar day at the given coordinates. Returns temperature, precipitation and wind speed " +
		"statistics: averages, min/max values, probability distributions and the historical data points."

	dataSourceNote = "This analysis is based on historical weather patterns for this exact calendar day, not a forecast."
)

// Forecaster is the part of weather.Service the tool needs.
type Forecaster interface {
	Forecast(ctx context.Context, q weather.Query) (weather.ForecastResult, error)
	ProviderName() string
}

// ToolWeatherProbabilityRequest contains input parameters for the get_weather_probability tool.
type ToolWeatherProbabilityRequest struct {
	Latitude  *float64 `json:"latitude" jsonschema:"required,minimum=-90,maximum=90,description=The latitude of the location (-90 to 90)"`
	Longitude *float64 `json:"longitude" jsonschema:"required,minimum=-180,maximum=180,description=The longitude of the location (-180 to 180)"`
	Date      string   `json:"date" jsonschema:"required,description=The target date in ISO format (YYYY-MM-DD) e.g. 2026-06-15"`
}

// VariableReport is one variable's statistics plus the sample count.
type VariableReport struct {
	weather.VariableStats
	Unit                 string `json:"unit"`
	HistoricalDataPoints int    `json:"historical_data_points"`
}

// WeatherProbabilityResponse is the tool's successful result.
type WeatherProbabilityResponse struct {
	Location      weather.Coordinate `json:"location"`
	Date          weather.Date       `json:"date"`
	Temperature   VariableReport     `json:"temperature"`
	Precipitation VariableReport     `json:"precipitation"`
	WindSpeed     VariableReport     `json:"wind_speed"`
	DataSource    string             `json:"data_source"`
	Note          string             `json:"note"`
}

// ToolErrorResponse is returned as tool content when the service fails, so
// the assistant can explain the failure instead of receiving a protocol error.
type ToolErrorResponse struct {
	Error   weather.ErrorKind `json:"error"`
	Message string            `json:"message"`
}

// Register adds the climatology tool to q.
func Register(q *qilin.Qilin, svc Forecaster) {
	q.Tool(ToolName,
		(*ToolWeatherProbabilityRequest)(nil),
		WeatherProbability(svc),
		qilin.ToolWithDescription(toolDescription))
}

// WeatherProbability returns the handler for the get_weather_probability tool.
func WeatherProbability(svc Forecaster) qilin.ToolHandlerFunc {
	return func(c qilin.ToolContext) error {
		var req ToolWeatherProbabilityRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(ToolErrorResponse{Error: weather.KindInvalidInput, Message: fmt.Sprintf("invalid arguments: %v", err)})
		}

		// Bind does not enforce the schema; a missing coordinate must not read as 0.
		if req.Latitude == nil || req.Longitude == nil {
			return c.JSON(ToolErrorResponse{Error: weather.KindInvalidInput, Message: "latitude, longitude, and date are required"})
		}

		date, err := weather.ParseDate(req.Date)
		if err != nil {
			return c.JSON(ToolErrorResponse{Error: weather.KindInvalidInput, Message: err.Error()})
		}

		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		coord := weather.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
		result, err := svc.Forecast(ctx, weather.Query{
			Latitude:   coord.Latitude,
			Longitude:  coord.Longitude,
			TargetDate: date,
		})
		if err != nil {
			resp := ToolErrorResponse{Error: weather.KindFetchFailed, Message: err.Error()}
			var werr *weather.Error
			if errors.As(err, &werr) {
				resp = ToolErrorResponse{Error: werr.Kind, Message: werr.Message}
			}
			return c.JSON(resp)
		}

		return c.JSON(WeatherProbabilityResponse{
			Location:      coord,
			Date:          date,
			Temperature:   report(result.Temperature, weather.TemperatureVariable),
			Precipitation: report(result.Precipitation, weather.PrecipitationVariable),
			WindSpeed:     report(result.Wind, weather.WindVariable),
			DataSource:    dataSource(svc.ProviderName()),
			Note:          dataSourceNote,
		})
	}
}

func report(stats weather.VariableStats, v weather.Variable) VariableReport {
	return VariableReport{
		VariableStats:        stats,
		Unit:                 strings.TrimSpace(v.Unit),
		HistoricalDataPoints: len(stats.Samples),
	}
}

func dataSource(provider string) string {
	switch provider {
	case "nasapower":
		return "NASA POWER daily point data"
	case "openmeteo":
		return "Open-Meteo historical weather archive"
	default:
		return provider
	}
}

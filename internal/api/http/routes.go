package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-climatology/internal/store"
	"github.com/i474232898/weather-climatology/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. probes may be nil
// when upstream probing is disabled.
func RegisterRoutes(app *fiber.App, service *weather.Service, probes *store.MemoryStore) {
	forecast := forecastHandler(service)

	v1 := app.Group("/api/v1")
	v1.Get("/forecast", forecast)

	// Unversioned path kept for existing web clients.
	app.Get("/api/forecast", forecast)

	v1.Get("/upstream/probes", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if probes == nil {
			return fiber.NewError(fiber.StatusNotFound, "upstream probing is disabled")
		}

		results, err := probes.Range(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no probe results for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read probe history")
		}

		return c.JSON(fiber.Map{
			"from":   req.From,
			"to":     req.To,
			"probes": results,
		})
	})
}

func forecastHandler(service *weather.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c); err != nil {
			return err
		}

		result, err := service.Forecast(c.UserContext(), req.toQuery())
		if err != nil {
			return err
		}
		return c.JSON(result)
	}
}

// forecastParams are the raw query parameters of the forecast endpoint.
type forecastParams struct {
	Lat  string `query:"lat" validate:"required"`
	Lon  string `query:"lon" validate:"required"`
	Date string `query:"date" validate:"required"`
}

// forecastQuery holds the parsed forecast request.
type forecastQuery struct {
	Latitude  float64
	Longitude float64
	Date      weather.Date
	StartYear int
	EndYear   int
}

func (q *forecastQuery) bind(c *fiber.Ctx) error {
	raw := forecastParams{Lat: c.Query("lat"), Lon: c.Query("lon"), Date: c.Query("date")}
	if err := validate.Struct(raw); err != nil {
		return weather.InvalidInputf("lat, lon, and date are required")
	}

	var err error
	if q.Latitude, err = parseFloatParam("lat", raw.Lat); err != nil {
		return err
	}
	if q.Longitude, err = parseFloatParam("lon", raw.Lon); err != nil {
		return err
	}
	if q.Date, err = weather.ParseDate(raw.Date); err != nil {
		return weather.InvalidInputf("%v", err)
	}
	if q.StartYear, err = parseIntParam(c, "startYear"); err != nil {
		return err
	}
	if q.EndYear, err = parseIntParam(c, "endYear"); err != nil {
		return err
	}
	return nil
}

func (q forecastQuery) toQuery() weather.Query {
	return weather.Query{
		Latitude:   q.Latitude,
		Longitude:  q.Longitude,
		TargetDate: q.Date,
		StartYear:  q.StartYear,
		EndYear:    q.EndYear,
	}
}

func parseFloatParam(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, weather.InvalidInputf("%s must be a number", name)
	}
	return f, nil
}

func parseIntParam(c *fiber.Ctx, name string) (int, error) {
	s := c.Query(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, weather.InvalidInputf("%s must be an integer year", name)
	}
	return n, nil
}

// historyQuery holds query parameters for the probe history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// ErrorHandler renders every error as {"kind", "message"}. Service errors map
// to 400/404/502 (504 on upstream timeout); other errors keep their Fiber code.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var werr *weather.Error
	if errors.As(err, &werr) {
		body := fiber.Map{
			"kind":    werr.Kind,
			"message": werr.Message,
		}
		if werr.UpstreamStatus != 0 {
			body["upstreamStatus"] = werr.UpstreamStatus
		}
		return c.Status(statusFor(werr)).JSON(body)
	}

	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"kind":    "Error",
		"message": err.Error(),
	})
}

func statusFor(err *weather.Error) int {
	switch err.Kind {
	case weather.KindInvalidInput:
		return fiber.StatusBadRequest
	case weather.KindDataUnavailable:
		return fiber.StatusNotFound
	case weather.KindFetchFailed:
		if errors.Is(err, context.DeadlineExceeded) {
			return fiber.StatusGatewayTimeout
		}
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/miyamo2/qilin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-climatology/internal/api/http"
	"github.com/i474232898/weather-climatology/internal/config"
	"github.com/i474232898/weather-climatology/internal/mcp"
	"github.com/i474232898/weather-climatology/internal/metrics"
	"github.com/i474232898/weather-climatology/internal/scheduler"
	"github.com/i474232898/weather-climatology/internal/store"
	"github.com/i474232898/weather-climatology/internal/weather"
	"github.com/i474232898/weather-climatology/internal/weather/providers"
)

const serviceName = "weather-climatology"

type CLI struct {
	Config string `help:"Path to a YAML config file." type:"path" env:"CONFIG_FILE"`

	Serve ServeCmd `cmd:"" default:"1" help:"Run the HTTP API (default)."`
	MCP   MCPCmd   `cmd:"" name:"mcp" help:"Serve the climatology tool to chat assistants over MCP stdio."`
	Query QueryCmd `cmd:"" help:"Print the climatology for one location and calendar day."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name(serviceName),
		kong.Description("Historical weather probabilities for a coordinate and calendar day."),
		kong.UsageOnError(),
	)

	// Load configuration.
	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	kctx.FatalIfErrorf(kctx.Run(cfg))
}

// newService builds the history provider and the service around it.
func newService(cfg *config.AppConfig) (*weather.Service, weather.HistoryProvider, error) {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider, err := providers.New(httpClient, cfg.ProviderOptions())
	if err != nil {
		return nil, nil, err
	}

	service := weather.NewService(provider, weather.Options{
		StartYear:    cfg.DefaultStartYear,
		EndYear:      cfg.DefaultEndYear,
		FetchTimeout: cfg.FetchTimeout,
		Observe: func(kind weather.ErrorKind, matched int, elapsed time.Duration) {
			metrics.ObserveForecast(string(kind), matched, elapsed)
		},
	})
	return service, provider, nil
}

type ServeCmd struct{}

func (ServeCmd) Run(cfg *config.AppConfig) error {
	service, provider, err := newService(cfg)
	if err != nil {
		return err
	}

	// Probe history, kept in memory with configured retention.
	probes := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Scheduler that periodically checks the provider is reachable.
	sched := scheduler.New(provider, probes, cfg.ProbeTarget(), cfg.ProbeInterval)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// The handler may wait for a full 30-year upstream fetch.
		WriteTimeout: cfg.FetchTimeout + 10*time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":   "ok",
			"service":  serviceName,
			"provider": provider.Name(),
		}
		if latest, err := probes.Latest(); err == nil {
			body["probe"] = latest
			if !latest.OK {
				body["status"] = "degraded"
			}
		}
		return c.JSON(body)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service, probes)

	go func() {
		log.Printf("INFO: listening on :%s (provider %s)", cfg.Port, provider.Name())
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}

type MCPCmd struct{}

func (MCPCmd) Run(cfg *config.AppConfig) error {
	service, _, err := newService(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stdout carries the protocol; logs stay on stderr.
	log.SetOutput(os.Stderr)

	q := qilin.New(serviceName)
	mcp.Register(q, service)
	return q.Start(qilin.StartWithContext(ctx))
}

type QueryCmd struct {
	Lat       float64 `required:"" help:"Latitude (-90 to 90)."`
	Lon       float64 `required:"" help:"Longitude (-180 to 180)."`
	Date      string  `required:"" help:"Target calendar date, YYYY-MM-DD."`
	StartYear int     `help:"First year of the history window."`
	EndYear   int     `help:"Last year of the history window."`
}

func (c *QueryCmd) Run(cfg *config.AppConfig) error {
	service, _, err := newService(cfg)
	if err != nil {
		return err
	}

	date, err := weather.ParseDate(c.Date)
	if err != nil {
		return weather.InvalidInputf("%v", err)
	}

	result, err := service.Forecast(context.Background(), weather.Query{
		Latitude:   c.Lat,
		Longitude:  c.Lon,
		TargetDate: date,
		StartYear:  c.StartYear,
		EndYear:    c.EndYear,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}

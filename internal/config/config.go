package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-climatology/internal/weather"
	"github.com/i474232898/weather-climatology/internal/weather/providers"
)

type AppConfig struct {
	Port string `yaml:"port"`

	// Provider selects the history source: "nasapower" or "openmeteo".
	Provider string `yaml:"provider"`

	NASAPower struct {
		BaseURL       string `yaml:"base_url"`
		Community     string `yaml:"community"`
		Temperature   string `yaml:"temperature_param"`
		Precipitation string `yaml:"precipitation_param"`
		WindSpeed     string `yaml:"wind_speed_param"`
	} `yaml:"nasa_power"`

	OpenMeteoBaseURL string `yaml:"open_meteo_base_url"`

	// Default year window when a request omits it.
	DefaultStartYear int `yaml:"default_start_year"`
	DefaultEndYear   int `yaml:"default_end_year"`

	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// Upstream probing (0 interval = disabled).
	ProbeInterval  time.Duration `yaml:"probe_interval"`
	ProbeLatitude  float64       `yaml:"probe_latitude"`
	ProbeLongitude float64       `yaml:"probe_longitude"`

	// Probe history retention.
	StoreMaxHistory int           `yaml:"store_max_history"` // max number of probe results (0 = unlimited)
	StoreMaxAge     time.Duration `yaml:"store_max_age"`     // max age of probe results (0 = unlimited)
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides, then fills defaults.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Provider, "CLIMATE_PROVIDER")
	setString(&c.NASAPower.BaseURL, "NASA_POWER_BASE_URL")
	setString(&c.NASAPower.Community, "NASA_POWER_COMMUNITY")
	setString(&c.OpenMeteoBaseURL, "OPEN_METEO_BASE_URL")

	// NASA_POWER_PARAMETERS=T2M,PRECTOTCORR,WS2M
	if v := os.Getenv("NASA_POWER_PARAMETERS"); v != "" {
		parts := strings.Split(v, ",")
		if len(parts) != 3 {
			return fmt.Errorf("invalid NASA_POWER_PARAMETERS: want temperature,precipitation,wind codes")
		}
		c.NASAPower.Temperature = strings.TrimSpace(parts[0])
		c.NASAPower.Precipitation = strings.TrimSpace(parts[1])
		c.NASAPower.WindSpeed = strings.TrimSpace(parts[2])
	}

	for key, dst := range map[string]*int{
		"DEFAULT_START_YEAR": &c.DefaultStartYear,
		"DEFAULT_END_YEAR":   &c.DefaultEndYear,
		"STORE_MAX_HISTORY":  &c.StoreMaxHistory,
	} {
		if err := getenvInt(key, dst); err != nil {
			return err
		}
	}

	for key, dst := range map[string]*time.Duration{
		"HTTP_TIMEOUT":   &c.HTTPTimeout,
		"FETCH_TIMEOUT":  &c.FetchTimeout,
		"PROBE_INTERVAL": &c.ProbeInterval,
		"STORE_MAX_AGE":  &c.StoreMaxAge,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	for key, dst := range map[string]*float64{
		"PROBE_LATITUDE":  &c.ProbeLatitude,
		"PROBE_LONGITUDE": &c.ProbeLongitude,
	} {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = f
		}
	}
	return nil
}

func (c *AppConfig) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Provider == "" {
		c.Provider = "nasapower"
	}
	if c.DefaultStartYear == 0 {
		c.DefaultStartYear = weather.DefaultStartYear
	}
	if c.DefaultEndYear == 0 {
		c.DefaultEndYear = weather.DefaultEndYear
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 60 * time.Second
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 45 * time.Second
	}
	if c.StoreMaxHistory == 0 {
		c.StoreMaxHistory = 96 // roughly 4 days at hourly probes
	}
	if c.StoreMaxAge == 0 {
		c.StoreMaxAge = 7 * 24 * time.Hour
	}
}

// Validate checks that the loaded values are usable.
func (c *AppConfig) Validate() error {
	switch c.Provider {
	case "nasapower", "openmeteo":
	default:
		return fmt.Errorf("provider must be nasapower or openmeteo, got %q", c.Provider)
	}
	if c.DefaultEndYear < c.DefaultStartYear {
		return fmt.Errorf("default_end_year (%d) is before default_start_year (%d)", c.DefaultEndYear, c.DefaultStartYear)
	}
	if c.ProbeLatitude < -90 || c.ProbeLatitude > 90 {
		return fmt.Errorf("probe_latitude must be within [-90, 90]")
	}
	if c.ProbeLongitude < -180 || c.ProbeLongitude > 180 {
		return fmt.Errorf("probe_longitude must be within [-180, 180]")
	}
	if c.HTTPTimeout < 0 || c.FetchTimeout < 0 || c.ProbeInterval < 0 {
		return fmt.Errorf("timeouts and intervals must not be negative")
	}
	return nil
}

// ProviderOptions maps the configuration onto provider construction options.
func (c *AppConfig) ProviderOptions() providers.Options {
	return providers.Options{
		Name: c.Provider,
		NASAPower: providers.NASAPowerOptions{
			BaseURL:   c.NASAPower.BaseURL,
			Community: c.NASAPower.Community,
			Parameters: providers.NASAPowerParameters{
				Temperature:   c.NASAPower.Temperature,
				Precipitation: c.NASAPower.Precipitation,
				WindSpeed:     c.NASAPower.WindSpeed,
			},
		},
		OpenMeteoBaseURL: c.OpenMeteoBaseURL,
	}
}

// ProbeTarget is the coordinate used for upstream probes.
func (c *AppConfig) ProbeTarget() weather.Coordinate {
	return weather.Coordinate{Latitude: c.ProbeLatitude, Longitude: c.ProbeLongitude}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func getenvInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Provider != "nasapower" {
		t.Errorf("unexpected defaults: port=%q provider=%q", cfg.Port, cfg.Provider)
	}
	if cfg.DefaultStartYear != 1995 || cfg.DefaultEndYear != 2025 {
		t.Errorf("unexpected year window %d-%d", cfg.DefaultStartYear, cfg.DefaultEndYear)
	}
	if cfg.FetchTimeout != 45*time.Second || cfg.HTTPTimeout != 60*time.Second {
		t.Errorf("unexpected timeouts fetch=%s http=%s", cfg.FetchTimeout, cfg.HTTPTimeout)
	}
	if cfg.ProbeInterval != 0 {
		t.Errorf("probing should be disabled by default, got %s", cfg.ProbeInterval)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
port: "9000"
provider: openmeteo
nasa_power:
  community: AG
  precipitation_param: PRECTOTCORR
default_start_year: 2000
default_end_year: 2010
fetch_timeout: 20s
probe_interval: 30m
probe_latitude: 52.5
probe_longitude: 13.4
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORT", "9100")
	t.Setenv("DEFAULT_END_YEAR", "2015")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("env should override file port, got %q", cfg.Port)
	}
	if cfg.Provider != "openmeteo" || cfg.DefaultStartYear != 2000 || cfg.DefaultEndYear != 2015 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.FetchTimeout != 20*time.Second || cfg.ProbeInterval != 30*time.Minute {
		t.Errorf("durations not parsed: fetch=%s probe=%s", cfg.FetchTimeout, cfg.ProbeInterval)
	}

	opts := cfg.ProviderOptions()
	if opts.Name != "openmeteo" || opts.NASAPower.Community != "AG" || opts.NASAPower.Parameters.Precipitation != "PRECTOTCORR" {
		t.Errorf("unexpected provider options %+v", opts)
	}
	if target := cfg.ProbeTarget(); target.Latitude != 52.5 || target.Longitude != 13.4 {
		t.Errorf("unexpected probe target %+v", target)
	}
}

func TestLoad_NASAPowerParameters(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NASA_POWER_PARAMETERS", "T2M, PRECTOTCORR ,WS10M")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := cfg.ProviderOptions().NASAPower.Parameters
	if p.Temperature != "T2M" || p.Precipitation != "PRECTOTCORR" || p.WindSpeed != "WS10M" {
		t.Errorf("unexpected parameters %+v", p)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown provider", map[string]string{"CLIMATE_PROVIDER": "openweather"}},
		{"inverted years", map[string]string{"DEFAULT_START_YEAR": "2020", "DEFAULT_END_YEAR": "2000"}},
		{"bad duration", map[string]string{"FETCH_TIMEOUT": "soon"}},
		{"negative duration", map[string]string{"PROBE_INTERVAL": "-1m"}},
		{"probe latitude", map[string]string{"PROBE_LATITUDE": "95"}},
		{"probe longitude", map[string]string{"PROBE_LONGITUDE": "not-a-number"}},
		{"parameter count", map[string]string{"NASA_POWER_PARAMETERS": "T2M,PRECTOT"}},
		{"malformed start year", map[string]string{"DEFAULT_START_YEAR": "199O"}},
		{"malformed end year", map[string]string{"DEFAULT_END_YEAR": "2O25"}},
		{"malformed history size", map[string]string{"STORE_MAX_HISTORY": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/weather-climatology/internal/weather"
)

func TestOpenMeteo_FetchDaily(t *testing.T) {
	body := `{
	  "latitude": 52.52, "longitude": 13.41,
	  "daily": {
	    "time": ["2023-07-01", "2023-07-02", "2023-07-03", "2023-07-04"],
	    "temperature_2m_mean": [18.2, null, 21.0, 19.5],
	    "precipitation_sum": [0.4, 1.0, null, 2.5],
	    "wind_speed_10m_mean": [3.0, 2.0, 4.5, null]
	  }
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("start_date"); got != "2023-01-01" {
			t.Errorf("start_date = %q", got)
		}
		if got := q.Get("end_date"); got != "2023-12-31" {
			t.Errorf("end_date = %q", got)
		}
		if got := q.Get("wind_speed_unit"); got != "ms" {
			t.Errorf("wind_speed_unit = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	p.now = func() time.Time { return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC) }

	series, err := p.FetchDaily(context.Background(), weather.Coordinate{Latitude: 52.52, Longitude: 13.41}, 2023, 2023)
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}

	// The day with a null temperature is skipped; other nulls read as 0.
	if len(series) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(series), series)
	}
	if series[0].Temperature != 18.2 || series[0].Precipitation != 0.4 || series[0].WindSpeed != 3.0 {
		t.Errorf("record 0 = %+v", series[0])
	}
	if series[1].Date.Day != 3 || series[1].Precipitation != 0 {
		t.Errorf("record 1 = %+v", series[1])
	}
	if series[2].WindSpeed != 0 {
		t.Errorf("record 2 = %+v", series[2])
	}
}

func TestOpenMeteo_ClampsEndToYesterday(t *testing.T) {
	var gotEnd string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEnd = r.URL.Query().Get("end_date")
		w.Write([]byte(`{"daily":{"time":["2025-03-09"],"temperature_2m_mean":[7.5],"precipitation_sum":[0],"wind_speed_10m_mean":[1.2]}}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	p.now = func() time.Time { return time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC) }

	if _, err := p.FetchDaily(context.Background(), weather.Coordinate{}, 1995, 2025); err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if gotEnd != "2025-03-09" {
		t.Errorf("end_date = %q, want 2025-03-09", gotEnd)
	}
}

func TestOpenMeteo_FutureWindowIsDataUnavailable(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	p.now = func() time.Time { return time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC) }

	_, err := p.FetchDaily(context.Background(), weather.Coordinate{}, 2030, 2031)
	if weather.KindOf(err) != weather.KindDataUnavailable {
		t.Errorf("expected DataUnavailable, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no upstream call, got %d", calls)
	}
}

func TestOpenMeteo_AllTemperaturesMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily":{"time":["2020-01-01"],"temperature_2m_mean":[null]}}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	p.now = func() time.Time { return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC) }

	_, err := p.FetchDaily(context.Background(), weather.Coordinate{}, 2020, 2020)
	if weather.KindOf(err) != weather.KindDataUnavailable {
		t.Errorf("expected DataUnavailable, got %v", err)
	}
}

func TestRegistry_New(t *testing.T) {
	client := &http.Client{}

	for name, want := range map[string]string{"": "nasapower", "nasapower": "nasapower", "openmeteo": "openmeteo"} {
		p, err := New(client, Options{Name: name})
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if p.Name() != want {
			t.Errorf("New(%q).Name() = %q, want %q", name, p.Name(), want)
		}
	}

	if _, err := New(client, Options{Name: "openweather"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

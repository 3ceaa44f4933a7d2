package providers

import (
	"fmt"
	"net/http"

	"github.com/i474232898/weather-climatology/internal/weather"
)

// Options selects and configures a history provider.
type Options struct {
	Name             string
	NASAPower        NASAPowerOptions
	OpenMeteoBaseURL string
}

// New returns the history provider named in opts ("nasapower" when empty).
func New(client *http.Client, opts Options) (weather.HistoryProvider, error) {
	switch opts.Name {
	case "", "nasapower":
		return NewNASAPowerProvider(client, opts.NASAPower), nil
	case "openmeteo":
		return NewOpenMeteoProvider(client, opts.OpenMeteoBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown climate provider %q", opts.Name)
	}
}

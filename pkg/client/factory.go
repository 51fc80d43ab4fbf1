package client

import (
	"fmt"

	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/models"

	"github.com/grafana/grafana-plugin-sdk-go/backend/httpclient"
)

// Factory builds the set of service clients for a datasource instance. The
// interface exists for dependency injection: tests substitute fake backends
// without touching the network.
type Factory interface {
	Build(settings *models.Settings) (fanout.Backends, error)
}

// DefaultFactory constructs real HTTP clients from the datasource settings.
type DefaultFactory struct{}

// Build creates one client per configured service block. Unconfigured
// services stay nil in the returned set.
func (DefaultFactory) Build(settings *models.Settings) (fanout.Backends, error) {
	var backends fanout.Backends
	if settings == nil {
		return backends, &models.SettingsError{Msg: "settings cannot be nil"}
	}

	httpClient, err := httpclient.New(httpclient.Options{
		Timeouts: &httpclient.DefaultTimeoutOptions,
	})
	if err != nil {
		return backends, fmt.Errorf("could not create HTTP client: %w", err)
	}

	if settings.Metrics != nil {
		backends.Metrics = NewMetricsClient(httpClient, settings.Metrics, settings.Secrets)
	}
	if settings.LogService != nil {
		backends.LogService = NewLogClient(httpClient, settings.LogService, settings.Secrets)
	}
	if settings.RUM != nil {
		backends.RUM = NewRUMClient(httpClient, settings.RUM, settings.Secrets)
	}
	return backends, nil
}

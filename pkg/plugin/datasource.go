// Package plugin implements the multi-service cloud monitoring Grafana
// datasource. Each query batch is partitioned by service type, fanned out to
// the configured service clients, and merged into a single response.
package plugin

import (
	"context"
	"fmt"
	"net/http"

	"cloudmonitor-grafana-plugin/pkg/client"
	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/health"
	"cloudmonitor-grafana-plugin/pkg/models"
	"cloudmonitor-grafana-plugin/pkg/router"
	"cloudmonitor-grafana-plugin/pkg/validator"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/instancemgmt"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/grafana/grafana-plugin-sdk-go/backend/resource/httpadapter"
)

var (
	_ backend.QueryDataHandler      = (*Datasource)(nil)
	_ backend.CheckHealthHandler    = (*Datasource)(nil)
	_ backend.CallResourceHandler   = (*Datasource)(nil)
	_ instancemgmt.InstanceDisposer = (*Datasource)(nil)
)

// Datasource is one configured instance of the plugin.
type Datasource struct {
	settings  *models.Settings
	backends  fanout.Backends
	resources backend.CallResourceHandler
}

// NewDatasource creates a new datasource instance. It is called by the
// Grafana plugin SDK whenever the datasource settings change.
func NewDatasource(_ context.Context, settings backend.DataSourceInstanceSettings) (instancemgmt.Instance, error) {
	return newDatasource(settings, client.DefaultFactory{})
}

func newDatasource(source backend.DataSourceInstanceSettings, factory client.Factory) (*Datasource, error) {
	settings, err := models.LoadSettings(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasource settings: %w", err)
	}

	backends, err := factory.Build(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to build service clients: %w", err)
	}

	ds := &Datasource{
		settings: settings,
		backends: backends,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/variable-values", ds.handleVariableValues)
	mux.HandleFunc("/log-context", ds.handleLogContext)
	mux.HandleFunc("/context-toggle", ds.handleContextToggle)
	ds.resources = httpadapter.New(mux)

	return ds, nil
}

// Dispose cleans up when the instance is replaced after a settings change.
func (d *Datasource) Dispose() {
	log.DefaultLogger.Debug("Datasource instance disposed")
}

// QueryData partitions the batch by service type, fans the groups out to the
// configured services, and merges the streams. The terminal aggregate either
// carries the concatenated frames, distributed back onto the batch by RefID,
// or the dominating error, reported on every target of the batch.
func (d *Datasource) QueryData(ctx context.Context, req *backend.QueryDataRequest) (*backend.QueryDataResponse, error) {
	logger := log.DefaultLogger.FromContext(ctx)
	response := backend.NewQueryDataResponse()

	if len(req.Queries) == 0 {
		return response, nil
	}

	if err := validator.ValidateSettings(d.settings); err != nil {
		logger.Error("Invalid datasource configuration", "error", err)
		return nil, fmt.Errorf("invalid datasource configuration: %w", err)
	}

	groups := router.Partition(req.Queries)

	final := fanout.Result{State: fanout.StateLoading}
	for res := range fanout.Aggregate(ctx, d.backends, groups) {
		final = res
	}

	switch final.State {
	case fanout.StateError:
		logger.Error("Query fan-out failed", "error", final.Err)
		for _, q := range req.Queries {
			response.Responses[q.RefID] = backend.DataResponse{Error: final.Err}
		}
	case fanout.StateDone:
		for _, q := range req.Queries {
			response.Responses[q.RefID] = backend.DataResponse{}
		}
		for _, frame := range final.Frames {
			res := response.Responses[frame.RefID]
			res.Frames = append(res.Frames, frame)
			response.Responses[frame.RefID] = res
		}
	default:
		// The stream closed before a terminal emission, which only happens
		// when ctx is done.
		return nil, ctx.Err()
	}

	return response, nil
}

// CheckHealth probes every configured service and reports the reduced status.
func (d *Datasource) CheckHealth(ctx context.Context, _ *backend.CheckHealthRequest) (*backend.CheckHealthResult, error) {
	return health.Probe(ctx, d.backends), nil
}

// CallResource serves the variable lookup, log context, and context toggle
// endpoints.
func (d *Datasource) CallResource(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender) error {
	return d.resources.CallResource(ctx, req, sender)
}

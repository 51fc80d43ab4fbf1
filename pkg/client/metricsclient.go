package client

import (
	"context"
	"net/http"

	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/formatter"
	"cloudmonitor-grafana-plugin/pkg/models"
)

// MetricsClient talks to the time-series metrics service.
type MetricsClient struct {
	serviceClient
	region string
}

// NewMetricsClient creates a metrics service client.
func NewMetricsClient(httpClient *http.Client, cfg *models.MetricsSettings, secrets *models.SecretSettings) *MetricsClient {
	return &MetricsClient{
		serviceClient: newServiceClient(models.ServiceMetrics, httpClient, cfg.Endpoint, secrets),
		region:        cfg.Region,
	}
}

type metricsQueryRequest struct {
	Region  string         `json:"region,omitempty"`
	From    int64          `json:"from"`
	To      int64          `json:"to"`
	Queries []metricsQuery `json:"queries"`
}

type metricsQuery struct {
	RefID      string `json:"refId"`
	Expression string `json:"expression"`
	Period     int    `json:"period,omitempty"`
}

type metricsQueryResponse struct {
	Series []formatter.MetricSeries `json:"series"`
}

// Query issues the group's targets in a single call and emits one terminal
// result on the returned stream.
func (c *MetricsClient) Query(ctx context.Context, req fanout.Request) <-chan fanout.Result {
	out := make(chan fanout.Result, 1)
	go func() {
		defer close(out)

		wire := metricsQueryRequest{
			Region: c.region,
			From:   req.TimeRange.From.UnixMilli(),
			To:     req.TimeRange.To.UnixMilli(),
		}
		for _, target := range req.Targets {
			var qm models.QueryModel
			// Decode errors are left to the service: the payload is
			// forwarded even when it is empty.
			_ = json.Unmarshal(target.JSON, &qm)
			wire.Queries = append(wire.Queries, metricsQuery{
				RefID:      target.RefID,
				Expression: qm.Expression,
				Period:     qm.Period,
			})
		}

		var resp metricsQueryResponse
		if err := c.postJSON(ctx, "/api/v1/metrics/query", wire, &resp); err != nil {
			out <- fanout.Result{State: fanout.StateError, Err: err}
			return
		}
		out <- fanout.Result{Frames: formatter.MetricFrames(resp.Series), State: fanout.StateDone}
	}()
	return out
}

// TestConnection pings the metrics service.
func (c *MetricsClient) TestConnection(ctx context.Context) (*fanout.ConnectionStatus, error) {
	if err := c.ping(ctx); err != nil {
		return &fanout.ConnectionStatus{OK: false, Message: err.Error()}, nil
	}
	return &fanout.ConnectionStatus{OK: true, Message: "Metrics service connection is working"}, nil
}

// ResolveVariable lists the label values matching a metrics expression.
func (c *MetricsClient) ResolveVariable(ctx context.Context, q models.VariableQuery) ([]models.VariableOption, error) {
	var resp variableOptions
	body := map[string]string{"query": q.Query, "region": c.region}
	if err := c.postJSON(ctx, "/api/v1/metrics/labels", body, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}

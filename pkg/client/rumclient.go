package client

import (
	"context"
	"net/http"

	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/formatter"
	"cloudmonitor-grafana-plugin/pkg/models"
)

// RUMClient talks to the real-user-monitoring service.
type RUMClient struct {
	serviceClient
	appID string
}

// NewRUMClient creates a RUM service client.
func NewRUMClient(httpClient *http.Client, cfg *models.RUMSettings, secrets *models.SecretSettings) *RUMClient {
	return &RUMClient{
		serviceClient: newServiceClient(models.ServiceRUM, httpClient, cfg.Endpoint, secrets),
		appID:         cfg.AppID,
	}
}

type rumQueryRequest struct {
	AppID   string     `json:"appId,omitempty"`
	From    int64      `json:"from"`
	To      int64      `json:"to"`
	Queries []rumQuery `json:"queries"`
}

type rumQuery struct {
	RefID string `json:"refId"`
	Query string `json:"query"`
}

type rumQueryResponse struct {
	Events []formatter.RUMEvent `json:"events"`
}

// Query issues the group's targets in a single call and emits one terminal
// result on the returned stream.
func (c *RUMClient) Query(ctx context.Context, req fanout.Request) <-chan fanout.Result {
	out := make(chan fanout.Result, 1)
	go func() {
		defer close(out)

		wire := rumQueryRequest{
			AppID: c.appID,
			From:  req.TimeRange.From.UnixMilli(),
			To:    req.TimeRange.To.UnixMilli(),
		}
		for _, target := range req.Targets {
			var qm models.QueryModel
			_ = json.Unmarshal(target.JSON, &qm)
			wire.Queries = append(wire.Queries, rumQuery{
				RefID: target.RefID,
				Query: qm.RUMQuery,
			})
		}

		var resp rumQueryResponse
		if err := c.postJSON(ctx, "/api/v1/rum/events", wire, &resp); err != nil {
			out <- fanout.Result{State: fanout.StateError, Err: err}
			return
		}
		out <- fanout.Result{Frames: formatter.RUMFrames(resp.Events), State: fanout.StateDone}
	}()
	return out
}

// TestConnection pings the RUM service.
func (c *RUMClient) TestConnection(ctx context.Context) (*fanout.ConnectionStatus, error) {
	if err := c.ping(ctx); err != nil {
		return &fanout.ConnectionStatus{OK: false, Message: err.Error()}, nil
	}
	return &fanout.ConnectionStatus{OK: true, Message: "RUM service connection is working"}, nil
}

// ResolveVariable lists distinct values for a RUM query string.
func (c *RUMClient) ResolveVariable(ctx context.Context, q models.VariableQuery) ([]models.VariableOption, error) {
	var resp variableOptions
	body := map[string]string{"appId": c.appID, "query": q.Query}
	if err := c.postJSON(ctx, "/api/v1/rum/values", body, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}

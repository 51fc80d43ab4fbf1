package client

import (
	"context"
	"net/http"

	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/formatter"
	"cloudmonitor-grafana-plugin/pkg/models"
)

// LogClient talks to the log search service. Besides the common SubBackend
// surface it serves log row context lookups.
type LogClient struct {
	serviceClient
	project      string
	defaultStore string
}

// NewLogClient creates a log service client.
func NewLogClient(httpClient *http.Client, cfg *models.LogServiceSettings, secrets *models.SecretSettings) *LogClient {
	return &LogClient{
		serviceClient: newServiceClient(models.ServiceLog, httpClient, cfg.Endpoint, secrets),
		project:       cfg.Project,
		defaultStore:  cfg.Store,
	}
}

type logSearchRequest struct {
	Project string     `json:"project,omitempty"`
	From    int64      `json:"from"`
	To      int64      `json:"to"`
	Queries []logQuery `json:"queries"`
}

type logQuery struct {
	RefID string `json:"refId"`
	Store string `json:"store"`
	Query string `json:"query"`
}

type logSearchResponse struct {
	Rows []formatter.LogRow `json:"rows"`
}

// Query issues the group's targets in a single call and emits one terminal
// result on the returned stream.
func (c *LogClient) Query(ctx context.Context, req fanout.Request) <-chan fanout.Result {
	out := make(chan fanout.Result, 1)
	go func() {
		defer close(out)

		wire := logSearchRequest{
			Project: c.project,
			From:    req.TimeRange.From.UnixMilli(),
			To:      req.TimeRange.To.UnixMilli(),
		}
		for _, target := range req.Targets {
			var qm models.QueryModel
			_ = json.Unmarshal(target.JSON, &qm)
			store := qm.Store
			if store == "" {
				store = c.defaultStore
			}
			wire.Queries = append(wire.Queries, logQuery{
				RefID: target.RefID,
				Store: store,
				Query: qm.LogQuery,
			})
		}

		var resp logSearchResponse
		if err := c.postJSON(ctx, "/api/v1/logs/search", wire, &resp); err != nil {
			out <- fanout.Result{State: fanout.StateError, Err: err}
			return
		}
		out <- fanout.Result{Frames: formatter.LogFrames(resp.Rows), State: fanout.StateDone}
	}()
	return out
}

// TestConnection pings the log service.
func (c *LogClient) TestConnection(ctx context.Context) (*fanout.ConnectionStatus, error) {
	if err := c.ping(ctx); err != nil {
		return &fanout.ConnectionStatus{OK: false, Message: err.Error()}, nil
	}
	return &fanout.ConnectionStatus{OK: true, Message: "Log service connection is working"}, nil
}

// ResolveVariable lists distinct field values for the structured log lookup
// payload.
func (c *LogClient) ResolveVariable(ctx context.Context, q models.VariableQuery) ([]models.VariableOption, error) {
	params := q.LogParams
	if params == nil {
		params = &models.LogVariableParams{Query: q.Query}
	}
	store := params.Store
	if store == "" {
		store = c.defaultStore
	}

	var resp variableOptions
	body := map[string]string{"project": c.project, "store": store, "query": params.Query}
	if err := c.postJSON(ctx, "/api/v1/logs/fields", body, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}

// LogRowContext returns the log lines surrounding one row, passed through
// from the service unmodified.
func (c *LogClient) LogRowContext(ctx context.Context, req fanout.LogContextRequest) (*fanout.LogContextResult, error) {
	if req.Store == "" {
		req.Store = c.defaultStore
	}
	var resp fanout.LogContextResult
	if err := c.postJSON(ctx, "/api/v1/logs/context", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/models"
	"cloudmonitor-grafana-plugin/pkg/testutil"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecrets = &models.SecretSettings{
	AccessKeyID:     "test-key-id",
	AccessKeySecret: "test-key-secret",
}

func drain(t *testing.T, ch <-chan fanout.Result) fanout.Result {
	t.Helper()
	var final fanout.Result
	for r := range ch {
		final = r
	}
	return final
}

func TestMetricsClientQuery(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"series": [
				{"refId": "A", "name": "cpu.util", "labels": {"host": "web-1"},
				 "points": [{"timestamp": 1700000000000, "value": 0.5}]}
			]
		}`))
	}))
	defer server.Close()

	c := NewMetricsClient(server.Client(), &models.MetricsSettings{Endpoint: server.URL, Region: "eu-1"}, testSecrets)

	req := fanout.Request{
		TimeRange: testutil.TimeRange(),
		Targets: []backend.DataQuery{
			testutil.Query(t, "A", map[string]interface{}{"serviceType": "metrics", "expression": "cpu.util", "period": 60}),
		},
	}
	final := drain(t, c.Query(context.Background(), req))

	require.Equal(t, fanout.StateDone, final.State)
	require.Len(t, final.Frames, 1)
	assert.Equal(t, "A", final.Frames[0].RefID)
	assert.Equal(t, "cpu.util", final.Frames[0].Name)

	assert.Equal(t, "/api/v1/metrics/query", gotPath)
	assert.Equal(t, "eu-1", gotBody["region"])
	queries := gotBody["queries"].([]interface{})
	require.Len(t, queries, 1)
	assert.Equal(t, "cpu.util", queries[0].(map[string]interface{})["expression"])

	// Signed request headers.
	assert.Equal(t, "test-key-id", gotHeaders.Get("X-CM-Access-Key-Id"))
	assert.NotEmpty(t, gotHeaders.Get("X-CM-Signature"))
	assert.NotEmpty(t, gotHeaders.Get("X-CM-Date"))
}

func TestMetricsClientQueryServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expression parse error", http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewMetricsClient(server.Client(), &models.MetricsSettings{Endpoint: server.URL}, testSecrets)

	final := drain(t, c.Query(context.Background(), fanout.Request{TimeRange: testutil.TimeRange()}))

	require.Equal(t, fanout.StateError, final.State)
	var clientErr *Error
	require.ErrorAs(t, final.Err, &clientErr)
	assert.Equal(t, models.ServiceMetrics, clientErr.Service)
	assert.Contains(t, clientErr.Error(), "expression parse error")
}

func TestTestConnection(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		expectOK bool
	}{
		{
			name:     "healthy service",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
			expectOK: true,
		},
		{
			name:     "unhealthy service",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			expectOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := NewRUMClient(server.Client(), &models.RUMSettings{Endpoint: server.URL}, testSecrets)
			status, err := c.TestConnection(context.Background())
			require.NoError(t, err)
			require.NotNil(t, status)
			assert.Equal(t, tt.expectOK, status.OK)
		})
	}
}

func TestLogClientResolveVariableUsesDefaultStore(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/logs/fields", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"options": [{"text": "500", "value": "500"}]}`))
	}))
	defer server.Close()

	cfg := &models.LogServiceSettings{Endpoint: server.URL, Project: "prod", Store: "access"}
	c := NewLogClient(server.Client(), cfg, testSecrets)

	options, err := c.ResolveVariable(context.Background(), models.VariableQuery{
		ServiceType: models.ServiceLog,
		LogParams:   &models.LogVariableParams{Query: "status:*"},
	})
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "500", options[0].Value)

	assert.Equal(t, "prod", gotBody["project"])
	assert.Equal(t, "access", gotBody["store"], "store falls back to the configured default")
}

func TestLogClientLogRowContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/logs/context", r.URL.Path)
		var req fanout.LogContextRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "access", req.Store)
		assert.Equal(t, "backward", req.Direction)

		_, _ = w.Write([]byte(`{"rows": [{"line": "before"}, {"line": "after"}], "cursor": "next"}`))
	}))
	defer server.Close()

	cfg := &models.LogServiceSettings{Endpoint: server.URL, Store: "access"}
	c := NewLogClient(server.Client(), cfg, testSecrets)

	result, err := c.LogRowContext(context.Background(), fanout.LogContextRequest{
		Direction: "backward",
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "next", result.Cursor)
}

func TestLogClientQueryGroupsRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/logs/search", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"rows": [
				{"refId": "A", "timestamp": 1700000000000, "line": "one"},
				{"refId": "A", "timestamp": 1700000001000, "line": "two"}
			]
		}`))
	}))
	defer server.Close()

	cfg := &models.LogServiceSettings{Endpoint: server.URL, Store: "access"}
	c := NewLogClient(server.Client(), cfg, testSecrets)

	req := fanout.Request{
		TimeRange: testutil.TimeRange(),
		Targets: []backend.DataQuery{
			testutil.Query(t, "A", map[string]interface{}{"serviceType": "logservice", "logQuery": "*"}),
		},
	}
	final := drain(t, c.Query(context.Background(), req))

	require.Equal(t, fanout.StateDone, final.State)
	require.Len(t, final.Frames, 1)
	assert.Equal(t, "A", final.Frames[0].RefID)
	assert.Equal(t, 2, final.Frames[0].Fields[0].Len())
}

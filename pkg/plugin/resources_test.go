package plugin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contextProvider wraps fakeBackend with a scripted log context answer.
type contextProvider struct {
	fakeBackend
	result *fanout.LogContextResult
	got    *fanout.LogContextRequest
}

func (c *contextProvider) LogRowContext(_ context.Context, req fanout.LogContextRequest) (*fanout.LogContextResult, error) {
	c.got = &req
	return c.result, nil
}

func TestHandleVariableValues(t *testing.T) {
	options := []models.VariableOption{{Text: "host-1", Value: "host-1"}}
	ds := newTestDatasource(t, metricsOnlyJSON, fanout.Backends{
		Metrics: &fakeBackend{options: options},
	})

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "plain string resolves against metrics",
			method:     http.MethodPost,
			body:       `"host.cpu"`,
			wantStatus: http.StatusOK,
			wantBody:   `[{"text":"host-1","value":"host-1"}]`,
		},
		{
			name:       "unrecognized type resolves to empty list",
			method:     http.MethodPost,
			body:       `{"serviceType":"tracing"}`,
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name:       "unconfigured service is an error",
			method:     http.MethodPost,
			body:       `{"serviceType":"rum","query":"page"}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "invalid body",
			method:     http.MethodPost,
			body:       `[1,2]`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			body:       ``,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/variable-values", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			ds.handleVariableValues(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestHandleLogContextDelegates(t *testing.T) {
	provider := &contextProvider{
		result: &fanout.LogContextResult{
			Rows:   []map[string]interface{}{{"line": "before"}},
			Cursor: "next",
		},
	}
	ds := newTestDatasource(t, metricsOnlyJSON, fanout.Backends{LogService: provider})

	body := `{"store":"access","cursor":"cur","direction":"backward","limit":5}`
	req := httptest.NewRequest(http.MethodPost, "/log-context", strings.NewReader(body))
	rec := httptest.NewRecorder()
	ds.handleLogContext(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, provider.got)
	assert.Equal(t, "access", provider.got.Store)
	assert.Equal(t, "backward", provider.got.Direction)

	var result fanout.LogContextResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "next", result.Cursor)
	require.Len(t, result.Rows, 1)
}

func TestHandleLogContextWithoutLogService(t *testing.T) {
	ds := newTestDatasource(t, metricsOnlyJSON, fanout.Backends{Metrics: &fakeBackend{}})

	req := httptest.NewRequest(http.MethodPost, "/log-context", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	ds.handleLogContext(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "log service is not configured")
}

func TestHandleContextToggleAlwaysDisabled(t *testing.T) {
	// Even with a log service configured the toggle stays off.
	ds := newTestDatasource(t, metricsOnlyJSON, fanout.Backends{LogService: &fakeBackend{}})

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		req := httptest.NewRequest(method, "/context-toggle", strings.NewReader(`{"row": {"line": "x"}}`))
		rec := httptest.NewRecorder()
		ds.handleContextToggle(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"enabled": false}`, rec.Body.String())
	}
}

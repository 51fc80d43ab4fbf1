package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/data"
	"github.com/stretchr/testify/require"
)

// TimeRange returns a fixed one-hour range ending 2024-01-01T00:00:00Z.
func TimeRange() backend.TimeRange {
	to := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return backend.TimeRange{From: to.Add(-time.Hour), To: to}
}

// Query builds a test query target with the given refID and JSON model
// fields.
func Query(t *testing.T, refID string, model map[string]interface{}) backend.DataQuery {
	t.Helper()

	jsonBytes, err := json.Marshal(model)
	require.NoError(t, err)

	return backend.DataQuery{
		RefID:     refID,
		JSON:      jsonBytes,
		TimeRange: TimeRange(),
	}
}

// Settings builds datasource instance settings from a JSON config and the
// standard test access-key pair.
func Settings(jsonData string) backend.DataSourceInstanceSettings {
	return backend.DataSourceInstanceSettings{
		ID:       1,
		Name:     "test-datasource",
		JSONData: []byte(jsonData),
		DecryptedSecureJSONData: map[string]string{
			"accessKeyId":     "test-key-id",
			"accessKeySecret": "test-key-secret",
		},
	}
}

// Frame builds a single-field frame tagged with refID, for asserting frame
// concatenation order.
func Frame(refID, name string) *data.Frame {
	frame := data.NewFrame(name, data.NewField("value", nil, []float64{1}))
	frame.RefID = refID
	return frame
}

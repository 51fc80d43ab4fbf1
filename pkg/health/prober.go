// Package health reduces the connectivity tests of the configured monitoring
// services into the single status Grafana's "Save & test" button reports.
package health

import (
	"context"

	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/models"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

// NothingConfiguredMessage is reported when no service is configured at all.
// It is a user-facing string, not a machine-readable code.
const NothingConfiguredMessage = "No monitoring service is configured. Enable at least one of metrics, log service, or RUM in the datasource settings."

// Probe tests every configured service concurrently and reduces the present
// outcomes into one result:
//
//   - services that are not configured are excluded, not counted as failures;
//   - if nothing is configured the distinguished nothing-configured error is
//     reported;
//   - otherwise the first failure in service priority order wins, else the
//     first success.
func Probe(ctx context.Context, backends fanout.Backends) *backend.CheckHealthResult {
	order := [3]struct {
		svc models.ServiceType
		sb  fanout.SubBackend
	}{
		{models.ServiceMetrics, backends.Metrics},
		{models.ServiceLog, backends.LogService},
		{models.ServiceRUM, backends.RUM},
	}

	var outcomes [3]*fanout.ConnectionStatus
	done := make(chan int, len(order))
	for i, entry := range order {
		if entry.sb == nil {
			done <- i
			continue
		}
		go func(i int, svc models.ServiceType, sb fanout.SubBackend) {
			status, err := sb.TestConnection(ctx)
			if err != nil {
				log.DefaultLogger.Error("Connectivity test failed", "service", svc.String(), "error", err)
				status = &fanout.ConnectionStatus{OK: false, Message: err.Error()}
			}
			outcomes[i] = status
			done <- i
		}(i, entry.svc, entry.sb)
	}
	for range order {
		<-done
	}

	present := 0
	var firstSuccess *fanout.ConnectionStatus
	for _, status := range outcomes {
		if status == nil {
			continue
		}
		present++
		if !status.OK {
			return &backend.CheckHealthResult{
				Status:  backend.HealthStatusError,
				Message: status.Message,
			}
		}
		if firstSuccess == nil {
			firstSuccess = status
		}
	}

	if present == 0 {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: NothingConfiguredMessage,
		}
	}
	return &backend.CheckHealthResult{
		Status:  backend.HealthStatusOk,
		Message: firstSuccess.Message,
	}
}

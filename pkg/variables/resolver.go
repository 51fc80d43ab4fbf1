// Package variables dispatches dashboard templating lookups to exactly one
// monitoring service.
package variables

import (
	"context"

	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/models"

	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

// Resolve routes a variable query to the service its type names and returns
// that service's options verbatim. An unrecognized service type resolves to
// an empty list rather than an error; that permissive fallback matches how
// dashboards with stale variable definitions are expected to keep rendering.
func Resolve(ctx context.Context, backends fanout.Backends, q models.VariableQuery) ([]models.VariableOption, error) {
	switch q.ServiceType {
	case models.ServiceMetrics, models.ServiceLog, models.ServiceRUM:
	default:
		log.DefaultLogger.Debug("Unrecognized variable query service type, resolving to no options", "serviceType", q.ServiceType.String())
		return []models.VariableOption{}, nil
	}

	sb := backends.ByType(q.ServiceType)
	if sb == nil {
		return nil, &fanout.NotConfiguredError{Service: q.ServiceType}
	}
	return sb.ResolveVariable(ctx, q)
}

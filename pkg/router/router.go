// Package router classifies incoming query targets by their declared service
// type and groups them for dispatch to the matching service client.
package router

import (
	"encoding/json"

	"cloudmonitor-grafana-plugin/pkg/models"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

// Groups holds the partition of a query batch, one sub-sequence per service.
// Relative order within each group matches the incoming batch; cross-group
// order is not meaningful.
type Groups struct {
	Metrics    []backend.DataQuery
	LogService []backend.DataQuery
	RUM        []backend.DataQuery
}

// ByType returns the group for the given service type. Unknown types map to
// the metrics group, mirroring Partition's default absorption.
func (g Groups) ByType(t models.ServiceType) []backend.DataQuery {
	switch t {
	case models.ServiceLog:
		return g.LogService
	case models.ServiceRUM:
		return g.RUM
	default:
		return g.Metrics
	}
}

// Partition splits a batch of query targets into per-service groups by the
// serviceType discriminant in each target's JSON model. Targets with no
// discriminant, an unrecognized discriminant, or JSON that does not decode
// fall into the metrics group; payloads are never validated here and are
// forwarded as-is to the addressed service.
func Partition(queries []backend.DataQuery) Groups {
	var groups Groups
	for _, q := range queries {
		switch discriminant(q) {
		case models.ServiceLog:
			groups.LogService = append(groups.LogService, q)
		case models.ServiceRUM:
			groups.RUM = append(groups.RUM, q)
		default:
			groups.Metrics = append(groups.Metrics, q)
		}
	}
	return groups
}

func discriminant(q backend.DataQuery) models.ServiceType {
	var tag struct {
		ServiceType models.ServiceType `json:"serviceType"`
	}
	if err := json.Unmarshal(q.JSON, &tag); err != nil {
		return models.ServiceMetrics
	}
	return tag.ServiceType
}

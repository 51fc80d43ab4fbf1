package models

import (
	"encoding/json"
	"fmt"
)

// LogVariableParams is the structured payload of a log-service variable query.
type LogVariableParams struct {
	Store string `json:"store"`
	Query string `json:"query"`
}

// VariableQuery is a templating lookup resolved against exactly one service.
// On the wire it is either a bare JSON string, which implies the metrics
// service with the string as payload, or an object carrying an explicit
// serviceType plus a type-specific payload.
type VariableQuery struct {
	ServiceType ServiceType
	Query       string             // metrics expression or RUM query string
	LogParams   *LogVariableParams // set only for log-service lookups
}

// VariableOption is one entry of a variable lookup result.
type VariableOption struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

type structuredVariableQuery struct {
	ServiceType ServiceType        `json:"serviceType"`
	Query       string             `json:"query"`
	LogParams   *LogVariableParams `json:"logParams"`
}

// UnmarshalJSON accepts both the legacy bare-string form and the structured
// object form.
func (q *VariableQuery) UnmarshalJSON(b []byte) error {
	var plain string
	if err := json.Unmarshal(b, &plain); err == nil {
		*q = VariableQuery{ServiceType: ServiceMetrics, Query: plain}
		return nil
	}

	var structured structuredVariableQuery
	if err := json.Unmarshal(b, &structured); err != nil {
		return fmt.Errorf("variable query is neither a string nor an object: %w", err)
	}
	*q = VariableQuery{
		ServiceType: structured.ServiceType,
		Query:       structured.Query,
		LogParams:   structured.LogParams,
	}
	return nil
}

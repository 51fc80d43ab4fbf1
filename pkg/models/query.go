package models

// QueryModel represents the structure of a single query target sent from
// Grafana. It is unmarshaled from the JSON data in backend.DataQuery. Only the
// serviceType discriminant is interpreted by the router; the payload fields
// are forwarded as-is to the addressed service and fail there if malformed.
type QueryModel struct {
	ServiceType ServiceType `json:"serviceType"`

	// Metrics payload.
	Expression string `json:"expression,omitempty"`
	Period     int    `json:"period,omitempty"` // seconds per datapoint, 0 lets the service pick

	// Log service payload.
	Store    string `json:"store,omitempty"`
	LogQuery string `json:"logQuery,omitempty"`

	// RUM payload.
	RUMQuery string `json:"rumQuery,omitempty"`
}

package models

import "encoding/json"

// ServiceType identifies which monitoring service a query target is addressed
// to. The zero value is ServiceMetrics, which keeps targets written before the
// serviceType field existed routed to the metrics service.
type ServiceType int

const (
	// ServiceMetrics is the time-series metrics service. It is the default
	// for targets that carry no explicit service type.
	ServiceMetrics ServiceType = iota
	// ServiceLog is the log search service.
	ServiceLog
	// ServiceRUM is the real-user-monitoring service.
	ServiceRUM
	// ServiceUnknown marks a service type string this plugin does not
	// recognize. Dispatch sites decide per contract whether that falls back
	// to metrics (query routing) or resolves to nothing (variable lookup).
	ServiceUnknown
)

const (
	serviceTypeMetrics = "metrics"
	serviceTypeLog     = "logservice"
	serviceTypeRUM     = "rum"
)

// ParseServiceType maps the wire discriminant to a ServiceType. The empty
// string means metrics.
func ParseServiceType(s string) ServiceType {
	switch s {
	case "", serviceTypeMetrics:
		return ServiceMetrics
	case serviceTypeLog:
		return ServiceLog
	case serviceTypeRUM:
		return ServiceRUM
	default:
		return ServiceUnknown
	}
}

func (t ServiceType) String() string {
	switch t {
	case ServiceMetrics:
		return serviceTypeMetrics
	case ServiceLog:
		return serviceTypeLog
	case ServiceRUM:
		return serviceTypeRUM
	default:
		return "unknown"
	}
}

// UnmarshalJSON accepts the wire discriminant string.
func (t *ServiceType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseServiceType(s)
	return nil
}

// MarshalJSON writes the wire discriminant string.
func (t ServiceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

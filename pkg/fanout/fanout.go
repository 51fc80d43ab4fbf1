// Package fanout defines the contract between the datasource and the three
// monitoring service clients, and merges their concurrent query streams into
// a single aggregate response.
package fanout

import (
	"context"

	"cloudmonitor-grafana-plugin/pkg/models"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/data"
)

// State describes how far a query stream has progressed.
type State int

const (
	// StateLoading means at least one service has not finished yet.
	StateLoading State = iota
	// StateDone means the result is complete.
	StateDone
	// StateError means the query failed.
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "invalid"
	}
}

// Result is one emission of a query stream. Frames are only populated when
// State is StateDone; Err is only set when State is StateError.
type Result struct {
	Frames data.Frames
	State  State
	Err    error
}

// Request carries one partitioned group of targets plus the batch metadata
// shared by the whole query.
type Request struct {
	TimeRange backend.TimeRange
	Targets   []backend.DataQuery
}

// ConnectionStatus is the outcome of one service's connectivity test.
type ConnectionStatus struct {
	OK      bool
	Message string
}

// SubBackend is one of the three monitoring service clients.
type SubBackend interface {
	// Query issues the group's targets against the service and streams
	// results. The channel must deliver at least one emission and is closed
	// by the implementation once the stream is terminal or ctx is done.
	Query(ctx context.Context, req Request) <-chan Result

	// TestConnection probes connectivity. A (nil, nil) return means the
	// service is not configured and must be excluded from health reporting
	// rather than counted as a failure.
	TestConnection(ctx context.Context) (*ConnectionStatus, error)

	// ResolveVariable answers a templating lookup against this service.
	ResolveVariable(ctx context.Context, q models.VariableQuery) ([]models.VariableOption, error)
}

// LogContextRequest asks for the log lines surrounding one log row.
type LogContextRequest struct {
	Store     string `json:"store"`
	Cursor    string `json:"cursor"`
	RowTime   int64  `json:"rowTime"`
	Direction string `json:"direction"` // "backward" or "forward"
	Limit     int    `json:"limit"`
}

// LogContextResult is the log service's context answer, passed through to the
// host unmodified.
type LogContextResult struct {
	Rows   []map[string]interface{} `json:"rows"`
	Cursor string                   `json:"cursor"`
}

// LogContextProvider is implemented by the log service client only.
type LogContextProvider interface {
	LogRowContext(ctx context.Context, req LogContextRequest) (*LogContextResult, error)
}

// Backends holds the configured service clients. A nil entry means that
// service is not configured on this datasource.
type Backends struct {
	Metrics    SubBackend
	LogService SubBackend
	RUM        SubBackend
}

// ByType returns the client for the given service type, or nil.
func (b Backends) ByType(t models.ServiceType) SubBackend {
	switch t {
	case models.ServiceLog:
		return b.LogService
	case models.ServiceRUM:
		return b.RUM
	default:
		return b.Metrics
	}
}

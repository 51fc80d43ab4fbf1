// Package metrics tracks in-process query counters per monitoring service.
package metrics

import (
	"sync/atomic"
	"time"

	"cloudmonitor-grafana-plugin/pkg/models"
)

// ServiceStats holds the counters for one service.
type ServiceStats struct {
	Queries   uint64
	Errors    uint64
	TotalTime int64 // nanoseconds
}

var stats [4]ServiceStats // indexed by models.ServiceType

// RecordQuery records one completed service call.
func RecordQuery(svc models.ServiceType, duration time.Duration, err error) {
	s := &stats[slot(svc)]
	atomic.AddUint64(&s.Queries, 1)
	if err != nil {
		atomic.AddUint64(&s.Errors, 1)
	}
	atomic.AddInt64(&s.TotalTime, int64(duration))
}

// Snapshot returns the current counters for one service.
func Snapshot(svc models.ServiceType) ServiceStats {
	s := &stats[slot(svc)]
	return ServiceStats{
		Queries:   atomic.LoadUint64(&s.Queries),
		Errors:    atomic.LoadUint64(&s.Errors),
		TotalTime: atomic.LoadInt64(&s.TotalTime),
	}
}

func slot(svc models.ServiceType) int {
	if svc < 0 || int(svc) >= len(stats) {
		return len(stats) - 1
	}
	return int(svc)
}

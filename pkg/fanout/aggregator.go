package fanout

import (
	"context"
	"fmt"

	"cloudmonitor-grafana-plugin/pkg/models"
	"cloudmonitor-grafana-plugin/pkg/router"

	"github.com/grafana/grafana-plugin-sdk-go/data"
)

// serviceOrder fixes the priority used for both error selection and data
// concatenation.
var serviceOrder = [3]models.ServiceType{
	models.ServiceMetrics,
	models.ServiceLog,
	models.ServiceRUM,
}

// NotConfiguredError reports a query group addressed to a service this
// datasource has no configuration for.
type NotConfiguredError struct {
	Service models.ServiceType
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s service is not configured on this datasource", e.Service)
}

// Aggregate fans the partitioned groups out to their service clients and
// merges the streams into one aggregate stream:
//
//   - an empty group contributes an immediate synthetic done/empty result and
//     its service is never invoked;
//   - on every combined emission the first error in service priority order
//     wins verbatim, terminates the stream, and cancels the other calls;
//   - until every service is done the aggregate is loading with no data;
//   - once all are done the aggregate concatenates each service's frames in
//     priority order.
//
// The returned channel is closed after the terminal emission or when ctx is
// done. There is no retry or timeout at this layer.
func Aggregate(ctx context.Context, backends Backends, groups router.Groups) <-chan Result {
	out := make(chan Result, 1)
	go aggregate(ctx, backends, groups, out)
	return out
}

type emission struct {
	slot int
	res  Result
}

func aggregate(ctx context.Context, backends Backends, groups router.Groups, out chan<- Result) {
	defer close(out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var latest [len(serviceOrder)]Result
	updates := make(chan emission)
	live := 0

	for i, svc := range serviceOrder {
		targets := groups.ByType(svc)
		if len(targets) == 0 {
			// Unused services must not be probed.
			latest[i] = Result{State: StateDone}
			continue
		}
		sb := backends.ByType(svc)
		if sb == nil {
			latest[i] = Result{State: StateError, Err: &NotConfiguredError{Service: svc}}
			continue
		}
		latest[i] = Result{State: StateLoading}
		live++

		stream := sb.Query(ctx, Request{TimeRange: targets[0].TimeRange, Targets: targets})
		go func(slot int, stream <-chan Result) {
			for r := range stream {
				select {
				case updates <- emission{slot: slot, res: r}:
				case <-ctx.Done():
					return
				}
			}
		}(i, stream)
	}

	if res, terminal := combine(latest); terminal || live == 0 {
		out <- res
		return
	}

	for {
		select {
		case e := <-updates:
			latest[e.slot] = e.res
			res, terminal := combine(latest)
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
			if terminal {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// combine reduces the per-service snapshot into one aggregate emission and
// reports whether that emission is terminal.
func combine(latest [len(serviceOrder)]Result) (Result, bool) {
	for _, r := range latest {
		if r.State == StateError {
			// First error in priority order, returned verbatim.
			return r, true
		}
	}
	for _, r := range latest {
		if r.State != StateDone {
			return Result{State: StateLoading}, false
		}
	}

	var frames data.Frames
	for _, r := range latest {
		frames = append(frames, r.Frames...)
	}
	return Result{Frames: frames, State: StateDone}, true
}

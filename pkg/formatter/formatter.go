// Package formatter converts the monitoring services' JSON payloads into
// Grafana data frames. Each frame is tagged with the RefID of the target it
// answers so the datasource can distribute frames back onto the batch.
package formatter

import (
	"fmt"
	"sort"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/data"
)

// MetricSeries is one time series returned by the metrics service.
type MetricSeries struct {
	RefID  string            `json:"refId"`
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
	Points []MetricPoint     `json:"points"`
}

// MetricPoint is one datapoint. Value is nil for gaps.
type MetricPoint struct {
	Timestamp int64    `json:"timestamp"` // unix milliseconds
	Value     *float64 `json:"value"`
}

// LogRow is one log line returned by the log search service.
type LogRow struct {
	RefID     string            `json:"refId"`
	Timestamp int64             `json:"timestamp"` // unix milliseconds
	Line      string            `json:"line"`
	Fields    map[string]string `json:"fields"`
}

// RUMEvent is one real-user-monitoring event. Attribute values are decoded
// as-is; numeric attributes arrive as float64.
type RUMEvent struct {
	RefID     string                 `json:"refId"`
	Timestamp int64                  `json:"timestamp"` // unix milliseconds
	Attrs     map[string]interface{} `json:"attrs"`
}

// MetricFrames builds one frame per series: a time field plus a nullable
// value field carrying the series labels.
func MetricFrames(series []MetricSeries) data.Frames {
	frames := make(data.Frames, 0, len(series))
	for _, s := range series {
		times := make([]time.Time, len(s.Points))
		values := make([]*float64, len(s.Points))
		for i, p := range s.Points {
			times[i] = time.UnixMilli(p.Timestamp)
			values[i] = p.Value
		}

		frame := data.NewFrame(s.Name,
			data.NewField("time", nil, times),
			data.NewField("value", s.Labels, values),
		)
		frame.RefID = s.RefID
		frame.Meta = &data.FrameMeta{
			PreferredVisualization: data.VisTypeGraph,
		}
		frames = append(frames, frame)
	}
	return frames
}

// LogFrames groups rows by RefID and builds one logs-shaped frame per group:
// time, line, and one string column per attached field key.
func LogFrames(rows []LogRow) data.Frames {
	grouped := make(map[string][]LogRow)
	var refIDs []string
	for _, row := range rows {
		if _, seen := grouped[row.RefID]; !seen {
			refIDs = append(refIDs, row.RefID)
		}
		grouped[row.RefID] = append(grouped[row.RefID], row)
	}

	frames := make(data.Frames, 0, len(refIDs))
	for _, refID := range refIDs {
		frames = append(frames, logFrame(refID, grouped[refID]))
	}
	return frames
}

func logFrame(refID string, rows []LogRow) *data.Frame {
	times := make([]time.Time, len(rows))
	lines := make([]string, len(rows))
	for i, row := range rows {
		times[i] = time.UnixMilli(row.Timestamp)
		lines[i] = row.Line
	}

	frame := data.NewFrame("logs",
		data.NewField("time", nil, times),
		data.NewField("line", nil, lines),
	)

	for _, key := range fieldKeys(rows) {
		values := make([]string, len(rows))
		for i, row := range rows {
			values[i] = row.Fields[key]
		}
		frame.Fields = append(frame.Fields, data.NewField(key, nil, values))
	}

	frame.RefID = refID
	frame.Meta = &data.FrameMeta{
		PreferredVisualization: data.VisTypeLogs,
	}
	return frame
}

// fieldKeys collects the union of field keys across rows, sorted for a
// stable column order.
func fieldKeys(rows []LogRow) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for key := range row.Fields {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// RUMFrames groups events by RefID and builds one table frame per group with
// a time column plus one column per attribute. Numeric attributes become
// float64 columns, everything else is rendered as strings.
func RUMFrames(events []RUMEvent) data.Frames {
	grouped := make(map[string][]RUMEvent)
	var refIDs []string
	for _, ev := range events {
		if _, seen := grouped[ev.RefID]; !seen {
			refIDs = append(refIDs, ev.RefID)
		}
		grouped[ev.RefID] = append(grouped[ev.RefID], ev)
	}

	frames := make(data.Frames, 0, len(refIDs))
	for _, refID := range refIDs {
		frames = append(frames, rumFrame(refID, grouped[refID]))
	}
	return frames
}

func rumFrame(refID string, events []RUMEvent) *data.Frame {
	times := make([]time.Time, len(events))
	for i, ev := range events {
		times[i] = time.UnixMilli(ev.Timestamp)
	}

	frame := data.NewFrame("events",
		data.NewField("time", nil, times),
	)

	for _, key := range attrKeys(events) {
		frame.Fields = append(frame.Fields, attrField(key, events))
	}

	frame.RefID = refID
	frame.Meta = &data.FrameMeta{
		PreferredVisualization: data.VisTypeTable,
	}
	return frame
}

func attrKeys(events []RUMEvent) []string {
	seen := make(map[string]struct{})
	for _, ev := range events {
		for key := range ev.Attrs {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// attrField picks the column type from the first event carrying the key.
func attrField(key string, events []RUMEvent) *data.Field {
	numeric := false
	for _, ev := range events {
		if v, ok := ev.Attrs[key]; ok {
			_, numeric = v.(float64)
			break
		}
	}

	if numeric {
		values := make([]float64, len(events))
		for i, ev := range events {
			if v, ok := ev.Attrs[key].(float64); ok {
				values[i] = v
			}
		}
		return data.NewField(key, nil, values)
	}

	values := make([]string, len(events))
	for i, ev := range events {
		if v, ok := ev.Attrs[key]; ok && v != nil {
			values[i] = fmt.Sprintf("%v", v)
		}
	}
	return data.NewField(key, nil, values)
}

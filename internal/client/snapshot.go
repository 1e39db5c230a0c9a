package client

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Metrics holds the four scalar counters. A sub-field missing from the
// payload decodes as 0.
type Metrics struct {
	TotalPrescriptions int `json:"total_prescriptions"`
	TodayPrescriptions int `json:"today_prescriptions"`
	PendingTasks       int `json:"pending_tasks"`
	CompletedToday     int `json:"completed_today"`
	TotalTasks         int `json:"total_tasks,omitempty"`
}

// StageDistribution counts unfinished tasks per pipeline stage.
type StageDistribution struct {
	Receive   int `json:"receive"`
	Formulate int `json:"formulate"`
	Decoction int `json:"decoction"`
}

// WorkerStat is one row of the worker efficiency ranking.
type WorkerStat struct {
	WorkerID       int    `json:"worker_id,omitempty"`
	Name           string `json:"name"`
	CompletedCount int    `json:"completed_count"`
}

// HourlyStats is the completed-task trend, one entry per hour label.
type HourlyStats struct {
	Hours     []string `json:"hours"`
	Completed []int    `json:"completed"`
}

// DashboardSnapshot is a partial dashboard state. A nil field means "no
// change". WorkerEfficiency is nil when absent and a non-nil (possibly
// empty) slice when present.
type DashboardSnapshot struct {
	Metrics           *Metrics           `json:"metrics,omitempty"`
	StageDistribution *StageDistribution `json:"stage_distribution,omitempty"`
	WorkerEfficiency  []WorkerStat       `json:"worker_efficiency"`
	HourlyStats       *HourlyStats       `json:"hourly_stats,omitempty"`
	Timestamp         *Timestamp         `json:"timestamp,omitempty"`
}

// Empty reports whether the snapshot carries no field at all.
func (s DashboardSnapshot) Empty() bool {
	return s.Metrics == nil && s.StageDistribution == nil && s.WorkerEfficiency == nil &&
		s.HourlyStats == nil && s.Timestamp == nil
}

// UnmarshalJSON decodes each section independently. A section that is
// missing, null or of the wrong shape is left nil; it never fails the whole
// snapshot. Only a payload that is not a JSON object is an error.
func (s *DashboardSnapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = DashboardSnapshot{}

	if obj, ok := object(raw["metrics"]); ok {
		s.Metrics = &Metrics{
			TotalPrescriptions: number(obj["total_prescriptions"]),
			TodayPrescriptions: number(obj["today_prescriptions"]),
			PendingTasks:       number(obj["pending_tasks"]),
			CompletedToday:     number(obj["completed_today"]),
			TotalTasks:         number(obj["total_tasks"]),
		}
	}

	if obj, ok := object(raw["stage_distribution"]); ok {
		s.StageDistribution = &StageDistribution{
			Receive:   number(obj["receive"]),
			Formulate: number(obj["formulate"]),
			Decoction: number(obj["decoction"]),
		}
	}

	if items, ok := array(raw["worker_efficiency"]); ok {
		s.WorkerEfficiency = make([]WorkerStat, 0, len(items))
		for _, item := range items {
			// name and count come from the same record or not at all.
			rec, ok := object(item)
			if !ok {
				continue
			}
			s.WorkerEfficiency = append(s.WorkerEfficiency, WorkerStat{
				WorkerID:       number(rec["worker_id"]),
				Name:           text(rec["name"]),
				CompletedCount: number(rec["completed_count"]),
			})
		}
	}

	if obj, ok := object(raw["hourly_stats"]); ok {
		hs := &HourlyStats{Hours: []string{}, Completed: []int{}}
		if hours, ok := array(obj["hours"]); ok {
			for _, h := range hours {
				hs.Hours = append(hs.Hours, text(h))
			}
		}
		if counts, ok := array(obj["completed"]); ok {
			for _, c := range counts {
				hs.Completed = append(hs.Completed, number(c))
			}
		}
		s.HourlyStats = hs
	}

	if v, ok := raw["timestamp"]; ok {
		var ts Timestamp
		_ = ts.UnmarshalJSON(v)
		if !ts.IsZero() {
			s.Timestamp = &ts
		}
	}

	return nil
}

func object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func array(raw json.RawMessage) ([]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	return items, true
}

// number decodes an integer leniently: floats truncate, numeric strings
// parse, anything else is 0.
func number(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return count(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return count(f)
		}
	}
	return 0
}

// count truncates f into [0, math.MaxInt32]. Every numeric field the server
// sends is a count or an id.
func count(f float64) int {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// text decodes a label leniently: numbers are formatted, null is "".
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

package client

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func decodeSnapshot(t *testing.T, raw string) DashboardSnapshot {
	t.Helper()
	var s DashboardSnapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return s
}

func TestSnapshotFull(t *testing.T) {
	s := decodeSnapshot(t, `{
		"metrics": {"total_prescriptions": 120, "today_prescriptions": 8, "pending_tasks": 5, "completed_today": 3, "total_tasks": 140},
		"stage_distribution": {"receive": 2, "formulate": 1, "decoction": 2},
		"worker_efficiency": [{"worker_id": 7, "name": "张三", "completed_count": 4}, {"name": "李四", "completed_count": 2}],
		"hourly_stats": {"hours": ["08:00", "09:00"], "completed": [1, 2]},
		"timestamp": "2024-01-05T14:03:07.123456"
	}`)

	if s.Metrics == nil || *s.Metrics != (Metrics{120, 8, 5, 3, 140}) {
		t.Errorf("metrics = %+v", s.Metrics)
	}
	if s.StageDistribution == nil || *s.StageDistribution != (StageDistribution{2, 1, 2}) {
		t.Errorf("stage_distribution = %+v", s.StageDistribution)
	}
	if len(s.WorkerEfficiency) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(s.WorkerEfficiency))
	}
	if w := s.WorkerEfficiency[0]; w.WorkerID != 7 || w.Name != "张三" || w.CompletedCount != 4 {
		t.Errorf("worker[0] = %+v", w)
	}
	if s.HourlyStats == nil || len(s.HourlyStats.Hours) != 2 || s.HourlyStats.Completed[1] != 2 {
		t.Errorf("hourly_stats = %+v", s.HourlyStats)
	}
	if s.Timestamp == nil {
		t.Fatal("timestamp should be present")
	}
	want := time.Date(2024, 1, 5, 14, 3, 7, 123456000, time.Local)
	if !s.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", s.Timestamp.Time, want)
	}
}

func TestSnapshotAbsentSections(t *testing.T) {
	s := decodeSnapshot(t, `{"metrics": {"pending_tasks": 5}}`)
	if s.Metrics == nil {
		t.Fatal("metrics should be present")
	}
	if *s.Metrics != (Metrics{PendingTasks: 5}) {
		t.Errorf("missing sub-fields should be 0, got %+v", *s.Metrics)
	}
	if s.StageDistribution != nil || s.WorkerEfficiency != nil || s.HourlyStats != nil || s.Timestamp != nil {
		t.Errorf("absent sections should stay nil: %+v", s)
	}
}

func TestSnapshotEmpty(t *testing.T) {
	for _, raw := range []string{`{}`, `null`} {
		if s := decodeSnapshot(t, raw); !s.Empty() {
			t.Errorf("%s: expected empty snapshot, got %+v", raw, s)
		}
	}
}

func TestSnapshotMalformedSections(t *testing.T) {
	s := decodeSnapshot(t, `{
		"metrics": "broken",
		"stage_distribution": {"receive": "4", "formulate": null, "decoction": 1.9},
		"hourly_stats": [1, 2],
		"timestamp": "yesterday"
	}`)
	if s.Metrics != nil {
		t.Errorf("non-object metrics should be absent, got %+v", s.Metrics)
	}
	if s.StageDistribution == nil || *s.StageDistribution != (StageDistribution{4, 0, 1}) {
		t.Errorf("stage_distribution = %+v", s.StageDistribution)
	}
	if s.HourlyStats != nil {
		t.Errorf("non-object hourly_stats should be absent")
	}
	if s.Timestamp != nil {
		t.Errorf("unparseable timestamp should be absent, got %v", s.Timestamp)
	}
}

func TestSnapshotClampsCounts(t *testing.T) {
	s := decodeSnapshot(t, `{
		"metrics": {"total_prescriptions": -5, "today_prescriptions": 1e300, "pending_tasks": "-2", "completed_today": -1e300},
		"stage_distribution": {"receive": -1, "formulate": 5, "decoction": 0},
		"worker_efficiency": [{"name": "a", "completed_count": 5}, {"name": "b", "completed_count": -1}]
	}`)
	want := Metrics{TodayPrescriptions: math.MaxInt32}
	if s.Metrics == nil || *s.Metrics != want {
		t.Errorf("metrics = %+v, want %+v", s.Metrics, want)
	}
	if s.StageDistribution == nil || *s.StageDistribution != (StageDistribution{0, 5, 0}) {
		t.Errorf("stage_distribution = %+v", s.StageDistribution)
	}
	if len(s.WorkerEfficiency) != 2 || s.WorkerEfficiency[1].CompletedCount != 0 {
		t.Errorf("worker_efficiency = %+v", s.WorkerEfficiency)
	}
}

func TestSnapshotWorkerEfficiencyPresence(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		present bool
		want    int
	}{
		{"absent", `{}`, false, 0},
		{"null", `{"worker_efficiency": null}`, false, 0},
		{"wrong type", `{"worker_efficiency": {"name": "x"}}`, false, 0},
		{"empty list", `{"worker_efficiency": []}`, true, 0},
		{"skips non-records", `{"worker_efficiency": [1, {"name": "a", "completed_count": 2}, "b"]}`, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := decodeSnapshot(t, tt.raw)
			if got := s.WorkerEfficiency != nil; got != tt.present {
				t.Fatalf("present = %v, want %v", got, tt.present)
			}
			if len(s.WorkerEfficiency) != tt.want {
				t.Errorf("len = %d, want %d", len(s.WorkerEfficiency), tt.want)
			}
		})
	}
}

func TestSnapshotHourlyDefaults(t *testing.T) {
	s := decodeSnapshot(t, `{"hourly_stats": {"hours": ["08:00"]}}`)
	if s.HourlyStats == nil {
		t.Fatal("hourly_stats should be present")
	}
	if s.HourlyStats.Completed == nil || len(s.HourlyStats.Completed) != 0 {
		t.Errorf("missing completed should default to empty, got %v", s.HourlyStats.Completed)
	}
	if len(s.HourlyStats.Hours) != 1 {
		t.Errorf("hours = %v", s.HourlyStats.Hours)
	}
}

func TestSnapshotNotObject(t *testing.T) {
	var s DashboardSnapshot
	if err := json.Unmarshal([]byte(`[1,2]`), &s); err == nil {
		t.Error("expected error for array payload")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-05T14:03:07", time.Date(2024, 1, 5, 14, 3, 7, 0, time.Local), true},
		{"2024-01-05 14:03:07.5", time.Date(2024, 1, 5, 14, 3, 7, 500000000, time.Local), true},
		{"2024-01-05T14:03:07Z", time.Date(2024, 1, 5, 14, 3, 7, 0, time.UTC), true},
		{"1704463387000", time.UnixMilli(1704463387000), true},
		{"", time.Time{}, false},
		{"soon", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTimestampJSON(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`1704463387000`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !ts.Equal(time.UnixMilli(1704463387000)) {
		t.Errorf("numeric timestamp = %v", ts.Time)
	}

	if err := json.Unmarshal([]byte(`{"bad": true}`), &ts); err != nil {
		t.Errorf("invalid timestamp should not error: %v", err)
	}
	if !ts.IsZero() {
		t.Errorf("invalid timestamp should decode as zero, got %v", ts.Time)
	}

	out, err := json.Marshal(Timestamp{})
	if err != nil || string(out) != "null" {
		t.Errorf("zero timestamp marshals to %s, %v", out, err)
	}
}

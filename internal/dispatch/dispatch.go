// Package dispatch applies partial dashboard snapshots to widget state.
package dispatch

import (
	"time"

	"github.com/xinyang20/SDDB/internal/client"
	"github.com/xinyang20/SDDB/internal/widget"
)

// Dispatcher routes each present snapshot section to its widget. Sections
// are independent; an absent section leaves its widget untouched.
type Dispatcher struct {
	Counters   *widget.Counters
	Stage      *widget.Binding[widget.StageData]
	Workers    *widget.Binding[widget.WorkerData]
	Trend      *widget.Binding[widget.TrendData]
	LastUpdate *widget.Stamp

	format func(time.Time) string
}

// Renderers builds the chart renderer for each widget.
type Renderers struct {
	Stage   func(widget.StageData) widget.Renderer[widget.StageData]
	Workers func(widget.WorkerData) widget.Renderer[widget.WorkerData]
	Trend   func(widget.TrendData) widget.Renderer[widget.TrendData]
}

// New creates a dispatcher with empty widgets. format renders the snapshot
// timestamp for the last-update display.
func New(r Renderers, format func(time.Time) string) *Dispatcher {
	if format == nil {
		format = func(t time.Time) string { return t.Format(time.DateTime) }
	}
	return &Dispatcher{
		Counters:   &widget.Counters{},
		Stage:      widget.NewBinding(widget.KindStage, r.Stage),
		Workers:    widget.NewBinding(widget.KindWorkers, r.Workers),
		Trend:      widget.NewBinding(widget.KindTrend, r.Trend),
		LastUpdate: &widget.Stamp{},
		format:     format,
	}
}

// Applied reports which sections a snapshot touched.
type Applied struct {
	Metrics   bool
	Stage     bool
	Workers   bool
	Trend     bool
	Timestamp bool
}

// Any reports whether anything changed.
func (a Applied) Any() bool {
	return a.Metrics || a.Stage || a.Workers || a.Trend || a.Timestamp
}

// Apply fans s out to the widgets. It never fails.
func (d *Dispatcher) Apply(s client.DashboardSnapshot) Applied {
	var a Applied

	if s.Metrics != nil {
		d.Counters.Set(*s.Metrics)
		a.Metrics = true
	}
	if s.StageDistribution != nil {
		d.Stage.ApplyUpdate(widget.ShapeStage(*s.StageDistribution))
		a.Stage = true
	}
	if s.WorkerEfficiency != nil {
		d.Workers.ApplyUpdate(widget.ShapeWorkers(s.WorkerEfficiency))
		a.Workers = true
	}
	if s.HourlyStats != nil {
		d.Trend.ApplyUpdate(widget.ShapeTrend(*s.HourlyStats))
		a.Trend = true
	}
	if s.Timestamp != nil && !s.Timestamp.IsZero() {
		d.LastUpdate.Set(s.Timestamp.Time, d.format(s.Timestamp.Time))
		a.Timestamp = true
	}

	return a
}

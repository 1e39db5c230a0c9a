// Package export writes the current chart datasets as PNG images.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xinyang20/SDDB/internal/theme"
	"github.com/xinyang20/SDDB/internal/widget"
)

// ErrEmptyDataset is returned for datasets that would draw nothing.
var ErrEmptyDataset = errors.New("empty dataset")

const (
	width  = 1024
	height = 512
)

// Exporter renders charts into Dir.
type Exporter struct {
	Dir string
	now func() time.Time
}

// New returns an exporter writing into dir.
func New(dir string) *Exporter {
	return &Exporter{Dir: dir, now: time.Now}
}

func hex(c string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(c, "#"))
}

// Stage writes the stage distribution as a pie chart.
func (e *Exporter) Stage(d widget.StageData) (string, error) {
	if d.Total() == 0 {
		return "", fmt.Errorf("%s: %w", widget.KindStage, ErrEmptyDataset)
	}
	values := make([]chart.Value, 0, widget.StageCount)
	for i, v := range d.Values {
		if v == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(v),
			Label: fmt.Sprintf("%s %d", widget.Stage(i).Label(), v),
			Style: chart.Style{FillColor: hex(theme.StageHex(i))},
		})
	}
	pie := chart.PieChart{
		Title:  "Stage distribution",
		Width:  height,
		Height: height,
		Values: values,
	}
	return e.write(widget.KindStage, pie.Render)
}

// Workers writes the worker efficiency ranking as a bar chart.
func (e *Exporter) Workers(d widget.WorkerData) (string, error) {
	peak := 0
	for _, v := range d.Values {
		peak = max(peak, v)
	}
	if d.Len() == 0 || peak == 0 {
		return "", fmt.Errorf("%s: %w", widget.KindWorkers, ErrEmptyDataset)
	}
	bars := make([]chart.Value, d.Len())
	for i := range bars {
		bars[i] = chart.Value{
			Value: float64(d.Values[i]),
			Label: d.Labels[i],
			Style: chart.Style{FillColor: hex(string(theme.ColorBar)), StrokeColor: hex(string(theme.ColorBar))},
		}
	}
	bc := chart.BarChart{
		Title:    "Worker efficiency",
		Width:    max(width, d.Len()*60+120),
		Height:   height,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: float64(peak)}},
		Bars:  bars,
	}
	return e.write(widget.KindWorkers, bc.Render)
}

// Trend writes the hourly completions as a line chart. At least two points
// are needed to draw a line.
func (e *Exporter) Trend(d widget.TrendData) (string, error) {
	n := d.Points()
	if n < 2 {
		return "", fmt.Errorf("%s: %w", widget.KindTrend, ErrEmptyDataset)
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	ticks := make([]chart.Tick, n)
	peak := 0
	for i := 0; i < n; i++ {
		xs[i] = float64(i)
		ys[i] = float64(d.Completed[i])
		ticks[i] = chart.Tick{Value: float64(i), Label: d.Hours[i]}
		peak = max(peak, d.Completed[i])
	}
	line := hex(string(theme.ColorTrend))
	ch := chart.Chart{
		Title:      "Hourly completions",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(n - 1)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(peak, 1))},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "completed",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: line, StrokeWidth: 2, DotColor: line, DotWidth: 3},
			},
		},
	}
	return e.write(widget.KindTrend, ch.Render)
}

// write renders into <dir>/<kind>-<stamp>.png, removing the file if
// rendering fails.
func (e *Exporter) write(kind widget.Kind, render func(chart.RendererProvider, io.Writer) error) (string, error) {
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.Dir, fmt.Sprintf("%s-%s.png", kind, e.now().Format("20060102-150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(chart.PNG, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// Datasets is the set of charts to export. Unset entries are skipped.
type Datasets struct {
	Stage   *widget.StageData
	Workers *widget.WorkerData
	Trend   *widget.TrendData
}

// All exports every set dataset. Empty datasets are skipped; the paths
// written so far are returned alongside the first real error.
func (e *Exporter) All(ds Datasets) ([]string, error) {
	var paths []string
	add := func(path string, err error) error {
		if errors.Is(err, ErrEmptyDataset) {
			return nil
		}
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	if ds.Stage != nil {
		if err := add(e.Stage(*ds.Stage)); err != nil {
			return paths, err
		}
	}
	if ds.Workers != nil {
		if err := add(e.Workers(*ds.Workers)); err != nil {
			return paths, err
		}
	}
	if ds.Trend != nil {
		if err := add(e.Trend(*ds.Trend)); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

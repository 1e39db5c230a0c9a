package widget

import "github.com/xinyang20/SDDB/internal/client"

// Stage is a pipeline stage shown in the distribution donut.
type Stage int

const (
	StageReceive Stage = iota
	StageFormulate
	StageDecoction
)

// StageCount is the fixed number of donut categories.
const StageCount = 3

var stageLabels = [StageCount]string{"待收方", "待配方", "待煎药"}

// Label returns the display label, independent of input ordering.
func (s Stage) Label() string {
	if s < 0 || int(s) >= StageCount {
		return ""
	}
	return stageLabels[s]
}

// StageData is the donut dataset in fixed category order.
type StageData struct {
	Values [StageCount]int
}

// Total sums all categories.
func (d StageData) Total() int {
	n := 0
	for _, v := range d.Values {
		n += v
	}
	return n
}

// ShapeStage orders the distribution; categories missing upstream are
// already 0 after decoding.
func ShapeStage(d client.StageDistribution) StageData {
	return StageData{Values: [StageCount]int{
		StageReceive:   max(d.Receive, 0),
		StageFormulate: max(d.Formulate, 0),
		StageDecoction: max(d.Decoction, 0),
	}}
}

// WorkerData is the bar chart dataset. Labels[i] and Values[i] always come
// from the same input record.
type WorkerData struct {
	Labels []string
	Values []int
}

// Len returns the category count.
func (d WorkerData) Len() int { return len(d.Labels) }

// ShapeWorkers derives labels and values in a single pass over the records.
// Negative counts become 0.
func ShapeWorkers(stats []client.WorkerStat) WorkerData {
	d := WorkerData{
		Labels: make([]string, 0, len(stats)),
		Values: make([]int, 0, len(stats)),
	}
	for _, s := range stats {
		d.Labels = append(d.Labels, s.Name)
		d.Values = append(d.Values, max(s.CompletedCount, 0))
	}
	return d
}

// TrendData is the hourly line chart dataset.
type TrendData struct {
	Hours     []string
	Completed []int
}

// Points returns the number of plottable points.
func (d TrendData) Points() int { return min(len(d.Hours), len(d.Completed)) }

// ShapeTrend copies the hourly series, defaulting absent sequences to empty
// and negative counts to 0.
func ShapeTrend(h client.HourlyStats) TrendData {
	d := TrendData{
		Hours:     make([]string, len(h.Hours)),
		Completed: make([]int, len(h.Completed)),
	}
	copy(d.Hours, h.Hours)
	for i, v := range h.Completed {
		d.Completed[i] = max(v, 0)
	}
	return d
}

package widget

import (
	"testing"

	"github.com/xinyang20/SDDB/internal/client"
)

type fakeRenderer struct {
	data []int
	sets int
}

func (r *fakeRenderer) SetData(d []int) {
	r.data = d
	r.sets++
}

func TestBindingCreatesRendererOnce(t *testing.T) {
	b := NewBinding(KindTrend, func(d []int) Renderer[[]int] {
		return &fakeRenderer{data: d}
	})

	if b.Renderer() != nil {
		t.Fatal("renderer should not exist before the first update")
	}
	if _, ok := b.Data(); ok {
		t.Fatal("Data should report no update yet")
	}

	b.ApplyUpdate([]int{1})
	first := b.Renderer()
	if first == nil {
		t.Fatal("first update should create the renderer")
	}

	for i := 0; i < 5; i++ {
		b.ApplyUpdate([]int{i, i})
	}
	if b.Renderer() != first {
		t.Error("later updates must reuse the same renderer")
	}
	if b.Created() != 1 {
		t.Errorf("Created() = %d, want 1", b.Created())
	}

	r := first.(*fakeRenderer)
	if r.sets != 5 {
		t.Errorf("SetData called %d times, want 5", r.sets)
	}
	if got, _ := b.Data(); len(got) != 2 || got[0] != 4 {
		t.Errorf("Data() = %v", got)
	}
	if len(r.data) != 2 || r.data[1] != 4 {
		t.Errorf("renderer data = %v", r.data)
	}
}

func TestBindingWithoutFactory(t *testing.T) {
	b := NewBinding[[]int](KindWorkers, nil)
	b.ApplyUpdate([]int{1})
	if b.Renderer() != nil || b.Created() != 0 {
		t.Error("nil factory should never build a renderer")
	}
	if d, ok := b.Data(); !ok || len(d) != 1 {
		t.Errorf("Data() = %v, %v", d, ok)
	}
}

func TestKindString(t *testing.T) {
	if KindStage.String() != "stage-distribution" || Kind(9).String() != "unknown" {
		t.Error("unexpected Kind names")
	}
}

func TestShapeStage(t *testing.T) {
	d := ShapeStage(client.StageDistribution{Receive: 2, Decoction: 2})
	if d.Values != [StageCount]int{2, 0, 2} {
		t.Errorf("values = %v", d.Values)
	}
	if d.Total() != 4 {
		t.Errorf("total = %d", d.Total())
	}
	labels := []string{StageReceive.Label(), StageFormulate.Label(), StageDecoction.Label()}
	want := []string{"待收方", "待配方", "待煎药"}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("label %d = %q, want %q", i, labels[i], want[i])
		}
	}
}

func TestShapeWorkersKeepsPairs(t *testing.T) {
	d := ShapeWorkers([]client.WorkerStat{
		{Name: "张三", CompletedCount: 4},
		{Name: "", CompletedCount: 9},
		{Name: "李四", CompletedCount: 0},
	})
	if d.Len() != 3 || len(d.Values) != 3 {
		t.Fatalf("len = %d/%d", d.Len(), len(d.Values))
	}
	wantLabels := []string{"张三", "", "李四"}
	wantValues := []int{4, 9, 0}
	for i := range wantLabels {
		if d.Labels[i] != wantLabels[i] || d.Values[i] != wantValues[i] {
			t.Errorf("pair %d = (%q, %d), want (%q, %d)", i, d.Labels[i], d.Values[i], wantLabels[i], wantValues[i])
		}
	}

	empty := ShapeWorkers([]client.WorkerStat{})
	if empty.Len() != 0 || empty.Labels == nil {
		t.Errorf("empty input should give zero categories, got %+v", empty)
	}
}

func TestShapeClampsNegativeCounts(t *testing.T) {
	st := ShapeStage(client.StageDistribution{Receive: -1, Formulate: 5})
	if st.Values != [StageCount]int{0, 5, 0} {
		t.Errorf("stage values = %v", st.Values)
	}
	w := ShapeWorkers([]client.WorkerStat{{Name: "a", CompletedCount: 5}, {Name: "b", CompletedCount: -1}})
	if w.Values[0] != 5 || w.Values[1] != 0 || w.Labels[1] != "b" {
		t.Errorf("workers = %+v", w)
	}
	tr := ShapeTrend(client.HourlyStats{Hours: []string{"08:00", "09:00"}, Completed: []int{-4, 2}})
	if tr.Completed[0] != 0 || tr.Completed[1] != 2 {
		t.Errorf("trend = %v", tr.Completed)
	}
}

func TestShapeTrendCopies(t *testing.T) {
	src := client.HourlyStats{Hours: []string{"08:00", "09:00"}, Completed: []int{1}}
	d := ShapeTrend(src)
	src.Completed[0] = 42
	if d.Completed[0] != 1 {
		t.Error("ShapeTrend must not alias the input")
	}
	if d.Points() != 1 {
		t.Errorf("Points() = %d, want 1", d.Points())
	}

	empty := ShapeTrend(client.HourlyStats{})
	if empty.Hours == nil || empty.Completed == nil || empty.Points() != 0 {
		t.Errorf("absent sequences should default to empty, got %+v", empty)
	}
}

func TestCounters(t *testing.T) {
	var c Counters
	if c.Values() != [CounterCount]int{} {
		t.Error("counters should start at 0")
	}
	c.Set(client.Metrics{TotalPrescriptions: 10, PendingTasks: 5})
	if c.Value(CounterTotalPrescriptions) != 10 || c.Value(CounterPendingTasks) != 5 {
		t.Errorf("values = %v", c.Values())
	}
	if c.Value(CounterTodayPrescriptions) != 0 || c.Value(CounterCompletedToday) != 0 {
		t.Errorf("missing metrics should be 0: %v", c.Values())
	}
	if c.Value(Counter(7)) != 0 || Counter(7).Label() != "" {
		t.Error("out-of-range counter should be empty")
	}
}

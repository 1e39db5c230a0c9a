// Package widget holds dashboard widget state: the scalar counters, the
// last-update stamp and one Binding per chart. It has no rendering code;
// renderers plug in through the Renderer interface.
package widget

// Kind identifies a chart widget.
type Kind int

const (
	KindStage Kind = iota
	KindWorkers
	KindTrend
)

func (k Kind) String() string {
	switch k {
	case KindStage:
		return "stage-distribution"
	case KindWorkers:
		return "worker-efficiency"
	case KindTrend:
		return "hourly-trend"
	default:
		return "unknown"
	}
}

// Renderer is a live chart instance bound to one widget. SetData replaces
// the dataset in place and schedules a re-render; interaction state the
// renderer holds (toggles, scroll, zoom) is kept.
type Renderer[D any] interface {
	SetData(D)
}

// Binding associates a widget with at most one renderer and the dataset
// last applied to it. The renderer is built on the first update and only
// mutated afterwards.
type Binding[D any] struct {
	kind     Kind
	factory  func(D) Renderer[D]
	renderer Renderer[D]
	data     D
	applied  bool
	created  int
}

// NewBinding returns an empty binding whose renderer will be built by
// factory on first use.
func NewBinding[D any](kind Kind, factory func(D) Renderer[D]) *Binding[D] {
	return &Binding[D]{kind: kind, factory: factory}
}

// ApplyUpdate records data as the widget's dataset and pushes it to the
// renderer, creating the renderer if this is the first update.
func (b *Binding[D]) ApplyUpdate(data D) {
	b.data = data
	b.applied = true
	if b.renderer != nil {
		b.renderer.SetData(data)
		return
	}
	if b.factory != nil {
		b.renderer = b.factory(data)
		b.created++
	}
}

// Kind returns the widget identity.
func (b *Binding[D]) Kind() Kind { return b.kind }

// Renderer returns the live renderer, or nil before the first update.
func (b *Binding[D]) Renderer() Renderer[D] { return b.renderer }

// Data returns the last applied dataset and whether any update happened.
func (b *Binding[D]) Data() (D, bool) { return b.data, b.applied }

// Created counts renderer constructions. It never exceeds 1.
func (b *Binding[D]) Created() int { return b.created }

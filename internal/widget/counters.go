package widget

import (
	"time"

	"github.com/xinyang20/SDDB/internal/client"
)

// Counter identifies one of the scalar counters.
type Counter int

const (
	CounterTotalPrescriptions Counter = iota
	CounterTodayPrescriptions
	CounterPendingTasks
	CounterCompletedToday
)

// CounterCount is the number of scalar counters.
const CounterCount = 4

var counterLabels = [CounterCount]string{"处方总数", "今日处方", "待处理任务", "今日完成"}

// Label returns the counter's display label.
func (c Counter) Label() string {
	if c < 0 || int(c) >= CounterCount {
		return ""
	}
	return counterLabels[c]
}

// Counters holds the four scalar values. They start at 0 and are never blank.
type Counters struct {
	values [CounterCount]int
}

// Set overwrites all four counters from m.
func (c *Counters) Set(m client.Metrics) {
	c.values = [CounterCount]int{
		CounterTotalPrescriptions: m.TotalPrescriptions,
		CounterTodayPrescriptions: m.TodayPrescriptions,
		CounterPendingTasks:       m.PendingTasks,
		CounterCompletedToday:     m.CompletedToday,
	}
}

// Value returns one counter.
func (c *Counters) Value(k Counter) int {
	if k < 0 || int(k) >= CounterCount {
		return 0
	}
	return c.values[k]
}

// Values returns all counters in display order.
func (c *Counters) Values() [CounterCount]int { return c.values }

// Stamp is the "last update" display.
type Stamp struct {
	at   time.Time
	text string
}

// Set records the instant and its rendered text.
func (s *Stamp) Set(at time.Time, text string) {
	s.at = at
	s.text = text
}

// At returns the last applied instant (zero before the first one).
func (s *Stamp) At() time.Time { return s.at }

// Text returns the rendered text, "" before the first update.
func (s *Stamp) Text() string { return s.text }

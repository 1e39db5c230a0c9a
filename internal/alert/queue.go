// Package alert manages transient alert notifications: each pushed alert
// becomes its own notification with an independent expiry and can be
// dismissed on its own.
package alert

import (
	"log"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/xinyang20/SDDB/internal/client"
)

// DefaultTimeout is how long a notification stays visible if not dismissed.
const DefaultTimeout = 5 * time.Second

// State is a notification's lifecycle position. Removed is terminal.
type State int

const (
	Visible State = iota
	Removed
)

func (s State) String() string {
	if s == Removed {
		return "removed"
	}
	return "visible"
}

// Notification is one on-screen presentation of an alert.
type Notification struct {
	ID        uuid.UUID
	Alert     client.Alert
	CreatedAt time.Time
	ExpiresAt time.Time

	state State
}

// State returns the current lifecycle state.
func (n *Notification) State() State { return n.state }

// remove moves the notification to Removed. It reports false if it was
// already removed.
func (n *Notification) remove() bool {
	if n.state == Removed {
		return false
	}
	n.state = Removed
	return true
}

// Beeper plays the audible cue for high-level alerts.
type Beeper interface {
	Beep() error
}

// ExpiredMsg fires when a notification's timer runs out.
type ExpiredMsg struct{ ID uuid.UUID }

// Queue holds the visible notifications, oldest first.
type Queue struct {
	timeout time.Duration
	beeper  Beeper
	now     func() time.Time
	items   []*Notification
}

// Option configures a Queue.
type Option func(*Queue)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithBeeper sets the cue player for high-level alerts.
func WithBeeper(b Beeper) Option {
	return func(q *Queue) { q.beeper = b }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{timeout: DefaultTimeout, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Timeout returns the per-notification lifetime.
func (q *Queue) Timeout() time.Duration { return q.timeout }

// Push creates a new visible notification for a. It never merges with or
// replaces existing notifications.
func (q *Queue) Push(a client.Alert) *Notification {
	now := q.now()
	n := &Notification{
		ID:        uuid.New(),
		Alert:     a,
		CreatedAt: now,
		ExpiresAt: now.Add(q.timeout),
	}
	q.items = append(q.items, n)
	return n
}

// Enqueue pushes a and returns the commands for its expiry timer and, for
// high-level alerts, the audible cue.
func (q *Queue) Enqueue(a client.Alert) tea.Cmd {
	n := q.Push(a)
	return tea.Batch(q.ExpireAfter(n), q.Cue(n))
}

// ExpireAfter returns a timer command that reports ExpiredMsg for n.
func (q *Queue) ExpireAfter(n *Notification) tea.Cmd {
	id := n.ID
	return tea.Tick(q.timeout, func(time.Time) tea.Msg {
		return ExpiredMsg{ID: id}
	})
}

// Cue returns a fire-and-forget command that plays the tone for a
// high-level notification, or nil. Playback errors are logged and dropped.
func (q *Queue) Cue(n *Notification) tea.Cmd {
	if q.beeper == nil || !n.Alert.Level.IsHigh() {
		return nil
	}
	b := q.beeper
	return func() tea.Msg {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("alert tone panicked: %v", r)
			}
		}()
		if err := b.Beep(); err != nil {
			log.Printf("alert tone: %v", err)
		}
		return nil
	}
}

// Dismiss removes the notification with id. Dismissing an unknown or
// already removed notification is a no-op and reports false.
func (q *Queue) Dismiss(id uuid.UUID) bool {
	i := slices.IndexFunc(q.items, func(n *Notification) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	removed := q.items[i].remove()
	q.items = slices.Delete(q.items, i, i+1)
	return removed
}

// Expire handles a fired timer exactly like Dismiss.
func (q *Queue) Expire(id uuid.UUID) bool {
	return q.Dismiss(id)
}

// Get looks up a visible notification.
func (q *Queue) Get(id uuid.UUID) (*Notification, bool) {
	for _, n := range q.items {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Visible returns the visible notifications, oldest first.
func (q *Queue) Visible() []*Notification {
	return slices.Clone(q.items)
}

// Len returns the number of visible notifications.
func (q *Queue) Len() int { return len(q.items) }

package feed

import (
	"sort"
	"sync"
	"time"

	"github.com/xinyang20/SDDB/internal/client"
	"github.com/xinyang20/SDDB/internal/server"
)

type storedAlert struct {
	alert    client.Alert
	created  time.Time
	read     bool
	resolved bool
}

// AlertStore keeps generated alerts in memory and serves the admin
// endpoints.
type AlertStore struct {
	mu     sync.Mutex
	nextID int
	alerts map[int]*storedAlert
	now    func() time.Time
}

func NewAlertStore() *AlertStore {
	return &AlertStore{
		nextID: 1,
		alerts: make(map[int]*storedAlert),
		now:    time.Now,
	}
}

// Add assigns the next id and timestamp to a and stores it.
func (s *AlertStore) Add(a client.Alert) client.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a.AlertID = s.nextID
	a.Timestamp = client.NewTimestamp(now)
	s.nextID++
	s.alerts[a.AlertID] = &storedAlert{alert: a, created: now}
	return a
}

// Unread returns unread, unresolved alerts, newest first.
func (s *AlertStore) Unread() []client.UnreadAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]client.UnreadAlert, 0, len(s.alerts))
	for _, st := range s.alerts {
		if st.read || st.resolved {
			continue
		}
		out = append(out, client.UnreadAlert{
			AlertID:   st.alert.AlertID,
			Type:      st.alert.Type,
			Level:     st.alert.Level,
			Message:   st.alert.Message,
			TaskID:    st.alert.TaskID,
			WorkerID:  st.alert.WorkerID,
			CreatedAt: client.Timestamp{Time: st.created},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AlertID > out[j].AlertID })
	return out
}

func (s *AlertStore) MarkRead(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.alerts[id]
	if !ok {
		return server.ErrAlertNotFound
	}
	st.read = true
	return nil
}

// Resolve marks the alert resolved. Resolved alerts also count as read.
func (s *AlertStore) Resolve(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.alerts[id]
	if !ok {
		return server.ErrAlertNotFound
	}
	st.read = true
	st.resolved = true
	return nil
}

// Len returns the number of stored alerts.
func (s *AlertStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

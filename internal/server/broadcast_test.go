package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xinyang20/SDDB/internal/client"
)

// dialTestWS returns the server-side end of a fresh WebSocket connection.
func dialTestWS(t *testing.T) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	ch := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		ch <- c
	}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	cc, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { cc.Close() })
	select {
	case c := <-ch:
		return srv, c
	case <-time.After(2 * time.Second):
		srv.Close()
		t.Fatal("server never accepted")
	}
	return nil, nil
}

func TestWritePump_RemovesClientOnWriteError(t *testing.T) {
	srv, serverConn := dialTestWS(t)
	defer srv.Close()

	b := NewBroadcaster(nil)
	c := &conn{ws: serverConn, b: b, send: make(chan []byte, sendBuffer)}
	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	serverConn.Close()
	c.send <- []byte(`{"type":"test"}`)
	go c.writePump()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ClientCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client not removed after write error; ClientCount = %d", b.ClientCount())
}

func TestBroadcast_DropsSlowClient(t *testing.T) {
	b := NewBroadcaster(nil)
	// No writePump, so the queue fills up.
	c := &conn{b: b, send: make(chan []byte, 1)}
	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	b.Broadcast(client.MsgTaskUpdate, client.TaskUpdatePayload{TaskID: 1})
	if b.ClientCount() != 1 {
		t.Fatal("client removed while its queue still had room")
	}
	b.Broadcast(client.MsgTaskUpdate, client.TaskUpdatePayload{TaskID: 2})
	if b.ClientCount() != 0 {
		t.Error("slow client was not removed")
	}

	// RemoveClient again must not panic on the closed queue.
	b.RemoveClient(c)
}

func TestSendTo_AfterRemoveIsDropped(t *testing.T) {
	srv, serverConn := dialTestWS(t)
	defer srv.Close()

	b := NewBroadcaster(nil)
	c := b.AddClient(serverConn)
	b.RemoveClient(c)

	b.SendTo(c, client.MsgPong, client.PongPayload{Timestamp: client.Timestamp{Time: time.Now()}})
	b.SendSnapshot(c)
	if c.enqueue([]byte(`{}`)) {
		t.Error("enqueue on a removed client should report false")
	}
}

func TestSendTo_RacesRemove(t *testing.T) {
	b := NewBroadcaster(nil)
	c := &conn{b: b, send: make(chan []byte, sendBuffer)}
	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.SendTo(c, client.MsgPong, client.PongPayload{})
			}
		}()
	}
	b.RemoveClient(c)
	wg.Wait()

	if b.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", b.ClientCount())
	}
}

func TestBroadcast_ReachesEveryClient(t *testing.T) {
	srv, b, _ := newTestServer(t, "")

	a := dial(t, srv, nil)
	c := dial(t, srv, nil)
	// Clients are registered before their first frame is queued.
	for _, conn := range []*websocket.Conn{a, c} {
		readFrame(t, conn) // connected
		readFrame(t, conn) // snapshot
	}

	b.Broadcast(client.MsgNewAlert, client.Alert{Type: "backlog", Level: client.LevelHigh, Message: "积压"})
	for _, conn := range []*websocket.Conn{a, c} {
		ev, ok := client.Decode(readFrame(t, conn)).(client.NewAlertMsg)
		if !ok || ev.Alert.Message != "积压" {
			t.Errorf("got %+v, want the broadcast alert", ev)
		}
	}
}

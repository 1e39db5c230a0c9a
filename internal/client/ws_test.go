package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newWSServer(t *testing.T, handle func(conn *websocket.Conn, r *http.Request)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSClientRoundTrip(t *testing.T) {
	gotAuth := make(chan string, 1)
	gotType := make(chan MessageType, 1)

	url := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")

		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		gotType <- msg.Type

		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"leaderboard"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"dashboard_update","payload":{"metrics":{"pending_tasks":3}}}`))
		conn.ReadMessage()
	})

	c := NewWSClient(url, "secret")
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	if _, ok := c.Listen(ctx)().(ConnectMsg); !ok {
		t.Fatal("Listen should report ConnectMsg")
	}
	if auth := <-gotAuth; auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}

	if err := c.Send(MsgRequestUpdate); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case typ := <-gotType:
		if typ != MsgRequestUpdate {
			t.Errorf("server got %q", typ)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received request_update")
	}

	msg := c.ReadLoop(ctx)()
	update, ok := msg.(DashboardUpdateMsg)
	if !ok {
		t.Fatalf("expected DashboardUpdateMsg after skipping bad frames, got %#v", msg)
	}
	if update.Snapshot.Metrics == nil || update.Snapshot.Metrics.PendingTasks != 3 {
		t.Errorf("snapshot = %+v", update.Snapshot)
	}
}

func TestWSClientDisconnect(t *testing.T) {
	url := newWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
	})

	c := NewWSClient(url, "")
	ctx := context.Background()
	if _, ok := c.Listen(ctx)().(ConnectMsg); !ok {
		t.Fatal("Listen should report ConnectMsg")
	}

	msg := c.ReadLoop(ctx)()
	d, ok := msg.(DisconnectMsg)
	if !ok {
		t.Fatalf("expected DisconnectMsg, got %#v", msg)
	}
	if d.Err == nil {
		t.Error("DisconnectMsg should carry the read error")
	}

	if err := c.Send(MsgPing); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send after disconnect = %v, want ErrNotConnected", err)
	}
}

func TestWSClientSendBeforeConnect(t *testing.T) {
	c := NewWSClient("ws://127.0.0.1:1/ws", "")
	if err := c.Send(MsgPing); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close without connection = %v", err)
	}
}

func TestWSClientListenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewWSClient("ws://127.0.0.1:1/ws", "")
	if msg := c.Listen(ctx)(); msg != nil {
		t.Errorf("cancelled Listen = %#v, want nil", msg)
	}
}

func TestWSClientReadWithoutConnection(t *testing.T) {
	c := NewWSClient("ws://127.0.0.1:1/ws", "")
	msg := c.ReadLoop(context.Background())()
	d, ok := msg.(DisconnectMsg)
	if !ok || !errors.Is(d.Err, ErrNotConnected) {
		t.Errorf("got %#v", msg)
	}
}

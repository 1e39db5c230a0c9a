// Package server is the development push server the dashboard connects
// to: a WebSocket feed plus the admin alert endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xinyang20/SDDB/internal/client"
)

const tokenHeader = "X-Dashboard-Token"

// Server serves the push feed and the admin alert endpoints.
type Server struct {
	broadcaster *Broadcaster
	alerts      AlertStore
	authToken   string
}

// NewServer returns a server; an empty authToken disables auth.
func NewServer(broadcaster *Broadcaster, alerts AlertStore, authToken string) *Server {
	return &Server{
		broadcaster: broadcaster,
		alerts:      alerts,
		authToken:   authToken,
	}
}

// SetupRoutes registers /ws and the /admin/alerts routes on mux.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/admin/alerts/unread", s.handleUnread)
	mux.HandleFunc("/admin/alerts/mark_read/", s.alertAction("/admin/alerts/mark_read/", s.alerts.MarkRead, "已标记为已读"))
	mux.HandleFunc("/admin/alerts/resolve/", s.alertAction("/admin/alerts/resolve/", s.alerts.Resolve, "告警已解决"))
}

// Handler returns the routed handler with security headers applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return securityHeaders(mux)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	// A rejected dashboard still gets an ack so it can show why.
	if !s.authorize(r) {
		log.Printf("WebSocket client rejected: %s", r.RemoteAddr)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteJSON(Message{
			Type:    client.MsgConnected,
			Payload: client.ConnectedPayload{Status: client.AckError, Message: unauthorizedMessage},
		})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, unauthorizedMessage))
		conn.Close()
		return
	}

	log.Printf("WebSocket client connected: %s", r.RemoteAddr)
	c := s.broadcaster.AddClient(conn)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg client.WSMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case client.MsgRequestUpdate:
				s.broadcaster.SendSnapshot(c)
			case client.MsgPing:
				s.broadcaster.SendTo(c, client.MsgPong, client.PongPayload{Timestamp: client.Timestamp{Time: time.Now()}})
			}
		}
	}()
}

func (s *Server) handleUnread(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		writeJSON(w, http.StatusForbidden, client.ActionResult{Message: "权限不足"})
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	alerts := s.alerts.Unread()
	if alerts == nil {
		alerts = []client.UnreadAlert{}
	}
	writeJSON(w, http.StatusOK, client.UnreadAlerts{Success: true, Alerts: alerts, Count: len(alerts)})
}

func (s *Server) alertAction(prefix string, apply func(int) error, done string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorize(r) {
			writeJSON(w, http.StatusForbidden, client.ActionResult{Message: "权限不足"})
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, prefix))
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, client.ActionResult{Message: "无效的告警ID"})
			return
		}

		if err := apply(id); err != nil {
			if errors.Is(err, ErrAlertNotFound) {
				writeJSON(w, http.StatusNotFound, client.ActionResult{Message: "告警不存在"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, client.ActionResult{Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, client.ActionResult{Success: true, Message: done})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get(tokenHeader) == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

// checkOrigin accepts non-browser clients, same-host pages and loopback.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}

	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves h until ctx is cancelled.
func ListenAndServe(ctx context.Context, host string, port int, h http.Handler) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{Addr: addr, Handler: h}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

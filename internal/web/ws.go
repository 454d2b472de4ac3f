package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"github.com/sweeney/segment-clock/internal/status"
)

// Websocket timing and limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12
	minPush    = 50 * time.Millisecond
)

// wsEnvelope is one message on the feed.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS sends the status once on connect and again whenever the tracker
// reports a change, at most once per minPush.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	changed, cancel := s.tracker.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go readPump(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := s.sendState(conn); err != nil {
		logger.WithError(err).Debug("websocket initial write failed")
		return
	}
	last := time.Now()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.WithError(err).Debug("websocket ping failed")
				return
			}
		case <-changed:
			if wait := minPush - time.Since(last); wait > 0 {
				time.Sleep(wait)
			}
			if err := s.sendState(conn); err != nil {
				logger.WithError(err).Debug("websocket write failed")
				return
			}
			last = time.Now()
		}
	}
}

// readPump drains incoming frames so control messages are handled, and
// closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) sendState(conn *websocket.Conn) error {
	inner := status.Inner(s.tracker.Snapshot())
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "state", Data: inner})
}

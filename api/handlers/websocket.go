package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/odontoforense/case-api/api"
	"github.com/odontoforense/case-api/api/collab"
	"github.com/odontoforense/case-api/config"
)

const (
	// time allowed to write a frame to the peer
	writeWait = 10 * time.Second
	// time allowed to read the next pong from the peer
	pongWait = 60 * time.Second
	// must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
	// larger frames close the connection
	maxFrameSize = 64 << 10
	// frames queued per connection before deliveries are dropped
	sendQueueSize = 64
)

// Collab serves the case collaboration socket
type Collab struct {
	Service       *collab.Service
	AllowedOrigin string
}

// WebSocketHandler authenticates the handshake, upgrades the connection and runs it until
// the peer goes away
func (c Collab) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	identity, err := c.Service.Authenticate(r.Context(), api.BearerToken(r))
	if err != nil {
		switch {
		case errors.Is(err, api.ErrInvalidToken), errors.Is(err, api.ErrUserNotFound):
			zap.S().Infow("websocket handshake rejected",
				"remoteAddr", r.RemoteAddr,
				"error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		default:
			config.ErrorStatus("failed to authenticate connection", http.StatusInternalServerError, w, err)
		}
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     c.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered the request
		zap.S().Warnw("websocket upgrade failed",
			"userId", identity.UserID,
			"error", err)
		return
	}

	cl := newClient(conn)
	sess, err := c.Service.Admit(uuid.New().String(), identity, cl)
	if err != nil {
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cl.writePump()
	cl.readPump(ctx, c.Service, sess)
}

// checkOrigin accepts requests without an Origin header, the configured frontend, or any
// origin when configured with "*"
func (c Collab) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || c.AllowedOrigin == "" || c.AllowedOrigin == "*" {
		return true
	}
	for _, allowed := range strings.Split(c.AllowedOrigin, ",") {
		allowed = strings.TrimRight(strings.TrimSpace(allowed), "/")
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// client is the transport side of one connection. Frames are queued by the broadcaster
// and written by writePump, the only goroutine writing to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

// Send queues a frame without blocking. It fails when the queue is full or the
// connection is closing.
func (c *client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump dispatches client frames one at a time, so a connection never has two
// handlers in flight
func (c *client) readPump(ctx context.Context, svc *collab.Service, sess *collab.Session) {
	defer func() {
		svc.Disconnect(sess)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				zap.S().Infow("websocket closed unexpectedly",
					"connId", sess.ID,
					"error", err)
			}
			return
		}
		svc.Handle(ctx, sess, frame)
	}
}

// writePump drains the send queue and keeps the connection alive with pings
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

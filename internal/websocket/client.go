package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingEvery    = 50 * time.Second
	maxInbound   = 512
)

// Client is one open staff connection. Inbound frames are read only to
// keep the connection alive; the shop never accepts commands over it.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn, send: make(chan []byte, sendBuffer)}
}

func (c *Client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and, for browsers, only the comma separated allow-list. "*"
// admits everything.
func originChecker(allowed string) func(*http.Request) bool {
	origins := map[string]struct{}{}
	for _, origin := range strings.Split(allowed, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins[origin] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := origins["*"]; ok {
			return true
		}
		_, ok := origins[origin]
		return ok
	}
}

// ServeWS upgrades the request and attaches the connection to userID on the hub
// until either side goes away.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, userID, allowedOrigins string) {
	upgrader := websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := newClient(conn)
	hub.Register(userID, client)
	go client.writeLoop(func() { hub.Unregister(userID, client) })
	client.readLoop(func() { hub.Unregister(userID, client) })
}

func (c *Client) readLoop(done func()) {
	defer func() {
		done()
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxInbound)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongTimeout)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writeLoop(done func()) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		done()
		_ = c.conn.Close()
	}()
	for {
		var (
			kind    = websocket.TextMessage
			payload []byte
		)
		select {
		case message, ok := <-c.send:
			if !ok {
				kind = websocket.CloseMessage
			}
			payload = message
		case <-ticker.C:
			kind = websocket.PingMessage
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(kind, payload); err != nil || kind == websocket.CloseMessage {
			return
		}
	}
}

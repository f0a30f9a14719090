package server

import (
	"encoding/json"
	"time"

	"trader-gateway/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// -----------------------------------------------------------------------------
// Socket messages
// -----------------------------------------------------------------------------

// socketRequest is what a websocket client may send.
type socketRequest struct {
	Command string `json:"command"` // "history" or "ping"
	Limit   int    `json:"limit,omitempty"`
}

// socketReply answers one socketRequest.
type socketReply struct {
	Event     string              `json:"event"`
	Payload   []models.MPushEvent `json:"payload,omitempty"`
	Timestamp int64               `json:"timestamp,omitempty"`
}

// outbound is one queued frame: a pushed gateway event or a reply.
type outbound struct {
	event *models.MPushEvent
	reply *socketReply
}

func pushFrame(event models.MPushEvent) outbound { return outbound{event: &event} }
func replyFrame(reply socketReply) outbound      { return outbound{reply: &reply} }

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one websocket subscriber of the gateway's push events.
type Client struct {
	hub  *FastAPIServer
	conn *websocket.Conn
	send chan outbound
}

func newClient(hub *FastAPIServer, conn *websocket.Conn) *Client {
	// Buffered so the hub loop never blocks on a slow socket
	return &Client{hub: hub, conn: conn, send: make(chan outbound, 256)}
}

// -----------------------------------------------------------------------------
// readPump - decodes client requests, doubles as the connection watchdog
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
		c.hub.Logger.Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			return
		}

		var req socketRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.hub.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
			return
		}
		if reply, ok := c.answer(req); ok {
			c.hub.deliver(c, replyFrame(reply))
		}
	}
}

// answer builds the reply to req. Unknown commands are ignored.
func (c *Client) answer(req socketRequest) (socketReply, bool) {
	switch req.Command {
	case "history":
		limit := req.Limit
		if limit <= 0 {
			limit = c.hub.history.Capacity()
		}
		return socketReply{Event: "history", Payload: c.hub.history.GetLatest(limit)}, true
	case "ping":
		return socketReply{Event: "pong", Timestamp: time.Now().UnixMilli()}, true
	}
	return socketReply{}, false
}

// -----------------------------------------------------------------------------
// writePump - sends queued frames and keepalive pings
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			var err error
			if frame.event != nil {
				err = c.conn.WriteJSON(frame.event)
			} else {
				err = c.conn.WriteJSON(frame.reply)
			}
			if err != nil {
				c.hub.Logger.Debug("action: ws_write | result: fail | error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

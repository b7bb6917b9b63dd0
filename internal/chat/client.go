package chat

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 5120
)

var errSlowClient = errors.New("send buffer full")

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID int64
}

// Deliver implements presence.Channel. It never blocks: a full send buffer
// means the client is too slow and the payload is refused.
func (c *Client) Deliver(payload []byte) error {
	select {
	case c.Send <- payload:
		return nil
	default:
		return errSlowClient
	}
}

// Close implements presence.Channel. Closing the socket unblocks both pumps.
func (c *Client) Close() {
	c.Conn.Close()
}

func (c *Client) readPump() {
	defer func() {
		// Unregister before the socket is torn down so no later notify
		// can target this channel.
		c.Hub.Presence.Unregister(c.UserID, c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		var incoming struct {
			Type     EventType `json:"type"`
			To       int64     `json:"to"`
			SenderID int64     `json:"senderId"`
		}
		if err := json.Unmarshal(msg, &incoming); err != nil {
			continue
		}
		switch incoming.Type {
		case ClientTypingStart, ClientTypingStop:
			// Relayed 1:1, never persisted.
			c.Hub.NotifyOne(incoming.To, Event{
				Type: incoming.Type,
				Data: TypingData{SenderID: c.UserID},
			})
		case ClientMarkSeen:
			if c.Hub.MarkSeen != nil {
				c.Hub.MarkSeen(incoming.SenderID, c.UserID)
			}
		case ClientMarkDelivered:
			if c.Hub.MarkDelivered != nil {
				c.Hub.MarkDelivered(incoming.SenderID, c.UserID)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package services

import (
	"sync"

	"github.com/abenezerk/predict-backend/utils/logger"

	"github.com/gorilla/websocket"
)

type Client struct {
	userID string
	expID  string
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	once   sync.Once
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// readPump drains incoming frames to keep the connection alive. Viewers are
// read-only; all mutations arrive over HTTP.
func (c *Client) readPump() {
	defer c.hub.removeClient(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("viewer %s disconnected normally", c.userID)
			} else {
				logger.Debugf("viewer %s read error: %v", c.userID, err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debugf("viewer %s write error: %v", c.userID, err)
			return
		}
	}
}

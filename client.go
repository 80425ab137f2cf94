package main

import (
	"github.com/gorilla/websocket"
)

const sendBufferSize = 16

// Client is one live websocket connection. It carries no game state of
// its own beyond the session token learned from the hello message; all
// room state lives behind the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan any

	// token is set by the hello handler and only ever touched on the
	// hub goroutine.
	token string
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan any, sendBufferSize),
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Detach(c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.hub.Dispatch(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/virgilaudio/virgil/proto"
)

// WSClient is one controller session on a WSTransport. gorilla/websocket
// allows only one concurrent writer per connection, so writes are
// serialized here.
type WSClient struct {
	ID   string
	conn *websocket.Conn
	wmu  sync.Mutex
	meta *ClientMetadata
}

func NewWSClient(conn *websocket.Conn, remoteAddr string) *WSClient {
	id := generateClientID("ws")
	return &WSClient{
		ID:   id,
		conn: conn,
		meta: &ClientMetadata{
			ID:          id,
			RemoteAddr:  remoteAddr,
			ConnectedAt: time.Now(),
		},
	}
}

func (c *WSClient) Send(msg proto.Message) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, data)
	c.wmu.Unlock()
	if err != nil {
		return err
	}

	slog.Debug("Sent WebSocket message", "to", c.ID, "type", msg.Type(), "id", msg.Head().SelfID)
	return nil
}

func (c *WSClient) Meta() *ClientMetadata {
	return c.meta
}

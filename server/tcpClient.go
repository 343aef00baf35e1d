package server

import (
	"net"
	"sync"
	"time"

	"github.com/virgilaudio/virgil/proto"
)

// TCPClient is one controller session on a TCPTransport. Writes are
// serialized so concurrent handlers can reply on the same connection.
type TCPClient struct {
	ID   string
	conn net.Conn
	wmu  sync.Mutex
	meta *ClientMetadata
}

func NewTCPClient(conn net.Conn) *TCPClient {
	id := generateClientID("tcp")
	return &TCPClient{
		ID:   id,
		conn: conn,
		meta: &ClientMetadata{
			ID:          id,
			RemoteAddr:  conn.RemoteAddr().String(),
			ConnectedAt: time.Now(),
		},
	}
}

func (c *TCPClient) Send(msg proto.Message) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err = c.conn.Write(append(data, '\n'))
	return err
}

func (c *TCPClient) Meta() *ClientMetadata {
	return c.meta
}

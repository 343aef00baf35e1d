package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/virgilaudio/virgil/proto"
)

// Transport accepts controller connections and feeds decoded Virgil
// messages to the coordinator. Implementations must invoke the
// registered callbacks from their read loops.
type Transport interface {
	Start() error
	OnMessage(func(Client, proto.Message))
	OnProtocolError(func(Client, []byte, error))
	OnConnect(func(Client) error)
	OnDisconnect(func(Client))
	Shutdown() error
	Meta() TransportMetadata
	SetName(name string)
	SetDescription(description string)
}

type TransportMetadata struct {
	ID          string // e.g. "tcp-0.0.0.0:7889"
	Name        string // Human-friendly name, e.g. "Main TCP listener"
	Protocol    string // "tcp" or "websocket"
	Address     string // Bind address
	Description string // Optional, short purpose/use case

	Clients    map[string]Client // Current active controller sessions
	MaxClients int               // Max allowed sessions (0 = unlimited)
	Connected  bool              // Whether the transport is currently bound
}

// ClientMetadata describes one connected controller session.
type ClientMetadata struct {
	ID          string
	Name        string // Peer device name, when the controller declared one
	RemoteAddr  string
	ConnectedAt time.Time
	LastSeen    time.Time
	Mu          sync.RWMutex
}

// Client is one connected controller session on some transport.
type Client interface {
	Send(proto.Message) error
	Meta() *ClientMetadata
}

func generateClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// peerName labels a session for link records: the declared device name
// when present, the session ID otherwise.
func peerName(client Client) string {
	meta := client.Meta()
	meta.Mu.RLock()
	defer meta.Mu.RUnlock()
	if meta.Name != "" {
		return meta.Name
	}
	return meta.ID
}

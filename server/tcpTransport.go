package server

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/virgilaudio/virgil/proto"
)

// TCPTransport serves Virgil over newline-delimited JSON on a TCP
// listener, one message per line.
type TCPTransport struct {
	Addr            string
	listener        net.Listener
	onMessage       func(Client, proto.Message)
	onProtocolError func(Client, []byte, error)
	onConnect       func(Client) error
	onDisconnect    func(Client)

	name        string
	description string
	clients     map[string]Client
	cmu         sync.RWMutex

	maxClients int
	connected  bool
}

func NewTCPTransport(addr string) *TCPTransport {
	return &TCPTransport{Addr: addr, maxClients: 16, clients: make(map[string]Client)}
}

func (t *TCPTransport) Start() error {
	slog.Info("Starting tcp transport", "addr", t.Addr)

	if t.onConnect == nil || t.onDisconnect == nil || t.onMessage == nil || t.onProtocolError == nil {
		return fmt.Errorf("transport callbacks are not set; register this transport with a coordinator before starting it")
	}

	l, err := net.Listen("tcp", t.Addr)
	if err != nil {
		return err
	}
	t.listener = l
	t.connected = true
	defer func() {
		l.Close()
		t.connected = false
	}()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			return err // exits when the listener is closed
		}

		t.cmu.RLock()
		clientCount := len(t.clients)
		t.cmu.RUnlock()

		if clientCount >= t.maxClients {
			slog.Warn("Max clients reached, rejecting connection", "remote_addr", conn.RemoteAddr())
			conn.Close()
			continue
		}

		go t.handleConnection(conn)
	}
}

func (t *TCPTransport) handleConnection(c net.Conn) {
	ip := c.RemoteAddr().String()
	slog.Info("Controller connected", "addr", ip)

	client := NewTCPClient(c)

	defer func() {
		t.cmu.Lock()
		delete(t.clients, client.ID)
		t.cmu.Unlock()

		t.onDisconnect(client)

		c.Close()
		slog.Info("Controller disconnected", "addr", ip, "id", client.ID)
	}()

	if err := t.onConnect(client); err != nil {
		slog.Error("Failed to register controller", "addr", ip, "error", err.Error())
		return
	}
	t.cmu.Lock()
	t.clients[client.ID] = client
	t.cmu.Unlock()

	reader := bufio.NewScanner(c)
	for reader.Scan() {
		line := reader.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := proto.Decode(line, false)
		if err != nil {
			slog.Warn("Invalid message received", "addr", ip, "error", err, "data", string(line))
			t.onProtocolError(client, line, err)
			continue
		}
		meta := client.Meta()
		meta.Mu.Lock()
		meta.LastSeen = time.Now()
		meta.Mu.Unlock()
		slog.Debug("Message received", "type", msg.Type(), "id", msg.Head().SelfID, "sender", client.ID)
		t.onMessage(client, msg)
	}

	if err := reader.Err(); err != nil {
		slog.Warn("Connection error", "addr", ip, "error", err)
	}
}

func (t *TCPTransport) Shutdown() error {
	slog.Info("Shutting down tcp transport", "addr", t.Addr)
	if t.listener != nil {
		return t.listener.Close()
	}
	return nil
}

func (t *TCPTransport) OnMessage(fn func(Client, proto.Message)) {
	t.onMessage = fn
}

func (t *TCPTransport) OnProtocolError(fn func(Client, []byte, error)) {
	t.onProtocolError = fn
}

func (t *TCPTransport) OnConnect(fn func(Client) error) {
	t.onConnect = fn
}

func (t *TCPTransport) OnDisconnect(fn func(Client)) {
	t.onDisconnect = fn
}

func (t *TCPTransport) Meta() TransportMetadata {
	t.cmu.RLock()
	clients := make(map[string]Client, len(t.clients))
	for id, c := range t.clients {
		clients[id] = c
	}
	t.cmu.RUnlock()
	return TransportMetadata{
		ID:          "tcp-" + t.Addr,
		Name:        t.name,
		Description: t.description,
		Protocol:    "tcp",
		Address:     t.Addr,
		Clients:     clients,
		MaxClients:  t.maxClients,
		Connected:   t.connected,
	}
}

func (t *TCPTransport) SetName(name string) {
	t.name = name
}

func (t *TCPTransport) SetMaxClients(n int) {
	t.maxClients = n
}

func (t *TCPTransport) SetDescription(description string) {
	t.description = description
}

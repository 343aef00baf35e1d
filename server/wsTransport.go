package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/virgilaudio/virgil/proto"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// WSTransport serves Virgil over WebSocket, one JSON message per frame.
type WSTransport struct {
	Addr            string
	server          *http.Server
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

func NewWSTransport(addr string) *WSTransport {
	return &WSTransport{
		Addr:       addr,
		maxClients: 16,
		clients:    make(map[string]Client),
	}
}

func (t *WSTransport) Start() error {
	slog.Info("Starting websocket transport", "addr", t.Addr)

	if t.onConnect == nil || t.onDisconnect == nil || t.onMessage == nil || t.onProtocolError == nil {
		return fmt.Errorf("transport callbacks are not set; register this transport with a coordinator before starting it")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", t.handleWebSocket)

	t.server = &http.Server{
		Addr:    t.Addr,
		Handler: mux,
	}

	t.connected = true
	err := t.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		t.connected = false
		return err
	}

	return nil
}

func (t *WSTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}

	t.cmu.RLock()
	clientCount := len(t.clients)
	t.cmu.RUnlock()

	if clientCount >= t.maxClients {
		slog.Warn("Max clients reached, rejecting connection", "remote_addr", r.RemoteAddr)
		conn.Close()
		return
	}

	go t.handleConnection(conn, r.RemoteAddr)
}

func (t *WSTransport) handleConnection(conn *websocket.Conn, remoteAddr string) {
	slog.Info("WebSocket controller connected", "addr", remoteAddr)

	client := NewWSClient(conn, remoteAddr)

	defer func() {
		t.cmu.Lock()
		delete(t.clients, client.ID)
		t.cmu.Unlock()

		t.onDisconnect(client)

		conn.Close()
		slog.Info("WebSocket controller disconnected", "addr", remoteAddr, "id", client.ID)
	}()

	if err := t.onConnect(client); err != nil {
		slog.Error("Failed to register WebSocket controller", "addr", remoteAddr, "error", err.Error())
		return
	}

	t.cmu.Lock()
	t.clients[client.ID] = client
	t.cmu.Unlock()

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket connection error", "addr", remoteAddr, "error", err)
			}
			break
		}

		msg, err := proto.Decode(messageBytes, false)
		if err != nil {
			slog.Warn("Invalid message received", "addr", remoteAddr, "error", err, "data", string(messageBytes))
			t.onProtocolError(client, messageBytes, err)
			continue
		}
		meta := client.Meta()
		meta.Mu.Lock()
		meta.LastSeen = time.Now()
		meta.Mu.Unlock()
		slog.Debug("WebSocket message received", "type", msg.Type(), "id", msg.Head().SelfID, "sender", client.ID)
		t.onMessage(client, msg)
	}
}

func (t *WSTransport) Shutdown() error {
	slog.Info("Shutting down websocket transport", "addr", t.Addr)
	t.connected = false
	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

func (t *WSTransport) OnMessage(fn func(Client, proto.Message)) {
	t.onMessage = fn
}

func (t *WSTransport) OnProtocolError(fn func(Client, []byte, error)) {
	t.onProtocolError = fn
}

func (t *WSTransport) OnConnect(fn func(Client) error) {
	t.onConnect = fn
}

func (t *WSTransport) OnDisconnect(fn func(Client)) {
	t.onDisconnect = fn
}

func (t *WSTransport) Meta() TransportMetadata {
	t.cmu.RLock()
	clients := make(map[string]Client, len(t.clients))
	for id, c := range t.clients {
		clients[id] = c
	}
	t.cmu.RUnlock()
	return TransportMetadata{
		ID:          "ws-" + t.Addr,
		Name:        t.name,
		Description: t.description,
		Protocol:    "websocket",
		Address:     t.Addr,
		Clients:     clients,
		MaxClients:  t.maxClients,
		Connected:   t.connected,
	}
}

func (t *WSTransport) SetName(name string) {
	t.name = name
}

func (t *WSTransport) SetMaxClients(n int) {
	t.maxClients = n
}

func (t *WSTransport) SetDescription(description string) {
	t.description = description
}

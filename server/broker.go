package server

import (
	"log/slog"
	"sync"

	"github.com/virgilaudio/virgil/proto"
)

// Broker fans channel state updates out to the controller sessions
// watching each channel.
type Broker struct {
	mu   sync.RWMutex
	subs map[proto.ChannelID]map[Client]struct{} // Map channel to hashset of Clients
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[proto.ChannelID]map[Client]struct{}),
	}
}

func (b *Broker) Subscribe(ch proto.ChannelID, client Client) {
	slog.Debug("Subscribing", "channel", ch.String(), "clientId", client.Meta().ID)
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[ch] == nil {
		b.subs[ch] = make(map[Client]struct{})
	}
	b.subs[ch][client] = struct{}{}
}

func (b *Broker) Unsubscribe(ch proto.ChannelID, client Client) {
	slog.Debug("Unsubscribing", "channel", ch.String(), "clientId", client.Meta().ID)
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subs[ch]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(b.subs, ch)
		}
	}
}

// Publish sends msg to every session subscribed to ch except the one
// the update came from.
func (b *Broker) Publish(ch proto.ChannelID, msg proto.Message, except Client) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sentCount := 0
	for client := range b.subs[ch] {
		if client == except {
			continue
		}
		if err := client.Send(msg); err != nil {
			slog.Warn("There was an error publishing a message to a subscriber", "type", msg.Type(), "channel", ch.String(), "error", err.Error())
			continue
		}
		sentCount++
	}
	slog.Debug("Message published",
		"type", msg.Type(),
		"channel", ch.String(),
		"subscribers", sentCount,
	)
}

// Subs returns a copy of the subscriber set for ch.
func (b *Broker) Subs(ch proto.ChannelID) map[Client]struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := make(map[Client]struct{}, len(b.subs[ch]))
	for client := range b.subs[ch] {
		subs[client] = struct{}{}
	}
	return subs
}

// DropClient removes the session from every channel it was watching.
func (b *Broker) DropClient(client Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch, subs := range b.subs {
		delete(subs, client)
		if len(subs) == 0 {
			delete(b.subs, ch)
		}
	}
}

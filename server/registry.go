package server

import (
	"fmt"
	"sort"
	"sync"

	"github.com/virgilaudio/virgil/proto"
)

// ChannelState holds everything a device reports about one channel in
// an infoResponse: its parameters and the links currently established
// on it.
type ChannelState struct {
	Channel    proto.ChannelID
	Parameters map[string]proto.Parameter
	Links      []proto.LinkedChannel
}

func (s *ChannelState) linkIndex(link proto.LinkedChannel) int {
	for i, l := range s.Links {
		if l.DeviceName == link.DeviceName && l.Channel == link.Channel {
			return i
		}
	}
	return -1
}

// ChannelRegistry is the device's authoritative channel table, keyed by
// channel identity. All accessors copy state out under the lock so
// callers never hold references into the live maps.
type ChannelRegistry struct {
	mu    sync.RWMutex
	store map[proto.ChannelID]*ChannelState
}

func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{store: make(map[proto.ChannelID]*ChannelState)}
}

// Register declares a channel and its parameters. Registering an
// existing channel replaces its parameters and keeps its links.
func (r *ChannelRegistry) Register(ch proto.ChannelID, params ...proto.Parameter) error {
	for _, p := range params {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("channel %s parameter %q: %w", ch, p.Name, err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.store[ch]
	if !ok {
		state = &ChannelState{Channel: ch}
		r.store[ch] = state
	}
	state.Parameters = make(map[string]proto.Parameter, len(params))
	for _, p := range params {
		state.Parameters[p.Name] = p
	}
	return nil
}

func (r *ChannelRegistry) Delete(ch proto.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, ch)
}

// Get returns a copy of the channel's state.
func (r *ChannelRegistry) Get(ch proto.ChannelID) (ChannelState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.store[ch]
	if !ok {
		return ChannelState{}, false
	}
	return copyState(state), true
}

// List returns copies of every channel's state, ordered by channel kind
// then index so output is stable.
func (r *ChannelRegistry) List() []ChannelState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make([]ChannelState, 0, len(r.store))
	for _, state := range r.store {
		states = append(states, copyState(state))
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].Channel.Kind != states[j].Channel.Kind {
			return states[i].Channel.Kind < states[j].Channel.Kind
		}
		return states[i].Channel.Index < states[j].Channel.Index
	})
	return states
}

// SetParameter updates one parameter on a registered channel. The
// parameter must already be declared and writable, and the new value
// must satisfy its constraints.
func (r *ChannelRegistry) SetParameter(ch proto.ChannelID, name string, value proto.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.store[ch]
	if !ok {
		return fmt.Errorf("channel %s is not registered", ch)
	}
	param, ok := state.Parameters[name]
	if !ok {
		return fmt.Errorf("channel %s has no parameter %q", ch, name)
	}
	if param.ReadOnly {
		return fmt.Errorf("channel %s parameter %q is read only", ch, name)
	}
	param.Value = value
	if err := param.Validate(); err != nil {
		return err
	}
	state.Parameters[name] = param
	return nil
}

// AddLink records a link from a remote device's channel to ch. Adding a
// link that already exists is a no-op.
func (r *ChannelRegistry) AddLink(ch proto.ChannelID, link proto.LinkedChannel) error {
	if link.DeviceName == "" {
		return fmt.Errorf("link on channel %s has no device name", ch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.store[ch]
	if !ok {
		return fmt.Errorf("channel %s is not registered", ch)
	}
	if state.linkIndex(link) >= 0 {
		return nil
	}
	state.Links = append(state.Links, link)
	return nil
}

// RemoveLink drops a previously recorded link. Removing a link that was
// never established is an error so the caller can report it.
func (r *ChannelRegistry) RemoveLink(ch proto.ChannelID, link proto.LinkedChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.store[ch]
	if !ok {
		return fmt.Errorf("channel %s is not registered", ch)
	}
	i := state.linkIndex(link)
	if i < 0 {
		return fmt.Errorf("channel %s has no link to %s %s", ch, link.DeviceName, link.Channel)
	}
	state.Links = append(state.Links[:i], state.Links[i+1:]...)
	return nil
}

// RemoveLinksFrom drops every link recorded for the named remote
// device, returning the channels that were affected. Used when a
// controller session disconnects.
func (r *ChannelRegistry) RemoveLinksFrom(deviceName string) []proto.ChannelID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []proto.ChannelID
	for ch, state := range r.store {
		kept := state.Links[:0]
		removed := false
		for _, l := range state.Links {
			if l.DeviceName == deviceName {
				removed = true
				continue
			}
			kept = append(kept, l)
		}
		state.Links = kept
		if removed {
			affected = append(affected, ch)
		}
	}
	return affected
}

func copyState(state *ChannelState) ChannelState {
	out := ChannelState{
		Channel:    state.Channel,
		Parameters: make(map[string]proto.Parameter, len(state.Parameters)),
		Links:      make([]proto.LinkedChannel, len(state.Links)),
	}
	for name, p := range state.Parameters {
		out.Parameters[name] = p
	}
	copy(out.Links, state.Links)
	return out
}

package client

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/virgilaudio/virgil/proto"
)

// Client is a Virgil controller session against one device. Requests
// carry a fresh message ID; every response from the device is matched
// back to its request by responseID, and a request is finished when its
// endResponse arrives.
type Client struct {
	Name      string
	Connected bool
	transport Transport
	ids       *proto.IDGenerator
	timeout   time.Duration

	// Request/response channels keyed by the request's message ID
	resMu    sync.Mutex
	resChans map[proto.MessageID]chan proto.Message

	// Link update handlers keyed by local channel
	handlerMu      sync.RWMutex
	updateHandlers map[proto.ChannelID]func(proto.Message)

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(name string, t Transport) *Client {
	return &Client{
		Name:           name,
		Connected:      false,
		transport:      t,
		ids:            proto.NewIDGenerator(),
		timeout:        5 * time.Second,
		resChans:       make(map[proto.MessageID]chan proto.Message),
		updateHandlers: make(map[proto.ChannelID]func(proto.Message)),
		done:           make(chan struct{}),
	}
}

// SetTimeout changes how long requests wait for their endResponse.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Start connects to the device and begins reading responses in the
// background. It returns once the connection is established.
func (c *Client) Start(addr string) error {
	setupLogger()

	if err := c.transport.Connect(addr); err != nil {
		return err
	}
	c.Connected = true
	go c.readLoop()
	return nil
}

// Close shuts the session down. It is safe to call more than once;
// calls after the first are no-ops returning nil.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.Connected = false
		close(c.done)
		err = c.transport.Close()
	})
	return err
}

func (c *Client) readLoop() {
	for {
		msg, err := c.transport.Read()
		if err != nil {
			select {
			case <-c.done:
			default:
				slog.Warn("Read error, stopping read loop", "error", err.Error())
			}
			return
		}
		slog.Debug("Message received", "type", msg.Type(), "id", msg.Head().SelfID, "responseId", msg.Head().ResponseID)

		switch m := msg.(type) {
		case *proto.InfoResponse, *proto.ErrorResponse, *proto.EndResponse:
			c.dispatchResponse(msg)

		case *proto.ChannelLink:
			c.dispatchUpdate(m.ReceivingChannel, msg)

		case *proto.ChannelUnlink:
			c.dispatchUpdate(m.ReceivingChannel, msg)

		default:
			slog.Warn("Unhandled message", "type", msg.Type())
		}
	}
}

func (c *Client) dispatchResponse(msg proto.Message) {
	respID := msg.Head().ResponseID

	c.resMu.Lock()
	ch, ok := c.resChans[respID]
	if ok {
		select {
		case ch <- msg:
		default:
			slog.Warn("Response channel full, dropping response", "responseId", respID)
		}
	}
	c.resMu.Unlock()

	if !ok {
		slog.Warn("Response does not match any pending request", "type", msg.Type(), "responseId", respID)
	}
}

func (c *Client) dispatchUpdate(ch *proto.ChannelID, msg proto.Message) {
	if ch == nil {
		return
	}
	c.handlerMu.RLock()
	handler := c.updateHandlers[*ch]
	c.handlerMu.RUnlock()
	if handler == nil {
		slog.Debug("No update handler for channel", "channel", ch.String())
		return
	}
	handler(msg)
}

// OnChannelUpdate registers a handler for link changes the device
// publishes for ch. The device subscribes this session to a channel
// when it answers an info request for it.
func (c *Client) OnChannelUpdate(ch proto.ChannelID, handler func(proto.Message)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.updateHandlers[ch] = handler
}

// request sends msg and collects every response correlated to it until
// the device sends endResponse. An errorResponse fails the request.
func (c *Client) request(msg proto.Message) ([]proto.Message, error) {
	id := msg.Head().SelfID
	respChan := make(chan proto.Message, 8)

	c.resMu.Lock()
	c.resChans[id] = respChan
	c.resMu.Unlock()
	defer func() {
		c.resMu.Lock()
		delete(c.resChans, id)
		c.resMu.Unlock()
	}()

	if err := c.transport.Send(msg); err != nil {
		return nil, err
	}

	var collected []proto.Message
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	for {
		select {
		case resp := <-respChan:
			switch r := resp.(type) {
			case *proto.EndResponse:
				return collected, nil
			case *proto.ErrorResponse:
				return collected, fmt.Errorf("device error %s: %s", r.ErrorValue, r.ErrorString)
			default:
				collected = append(collected, resp)
			}
		case <-timer.C:
			return collected, fmt.Errorf("timeout waiting for response to %s", id)
		}
	}
}

// RequestInfo asks the device for the full state of one channel.
func (c *Client) RequestInfo(ch proto.ChannelID) (*proto.InfoResponse, error) {
	req := &proto.InfoRequest{
		Header:  proto.Header{SelfID: c.ids.Next(), Outbound: true},
		Channel: ch,
	}

	responses, err := c.request(req)
	if err != nil {
		return nil, err
	}
	for _, resp := range responses {
		if info, ok := resp.(*proto.InfoResponse); ok {
			return info, nil
		}
	}
	return nil, fmt.Errorf("device ended response to info request for %s without sending channel info", ch)
}

// Link asks the device to link one of its receiving channels to a
// remote sending channel. Pass nil for receiving when announcing an
// aux sender.
func (c *Client) Link(sending proto.ChannelID, receiving *proto.ChannelID) error {
	req := &proto.ChannelLink{
		Header:           proto.Header{SelfID: c.ids.Next(), Outbound: true},
		SendingChannel:   sending,
		ReceivingChannel: receiving,
	}
	_, err := c.request(req)
	return err
}

// Unlink removes a link previously established with Link.
func (c *Client) Unlink(sending proto.ChannelID, receiving *proto.ChannelID) error {
	req := &proto.ChannelUnlink{
		Header:           proto.Header{SelfID: c.ids.Next(), Outbound: true},
		SendingChannel:   sending,
		ReceivingChannel: receiving,
	}
	_, err := c.request(req)
	return err
}

func setupLogger() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))
}

package server

import (
	"encoding/json"
	"log/slog"

	"github.com/virgilaudio/virgil/proto"
)

// Predefined errorValue strings sent in errorResponse messages.
const (
	ErrorChannelNotFound    = "channelNotFound"
	ErrorLinkFailed         = "linkFailed"
	ErrorMalformedMessage   = "malformedMessage"
	ErrorUnknownMessageType = "unknownMessageType"
	ErrorUnsupportedMessage = "unsupportedMessage"
)

func (c *Coordinator) Handle(client Client, msg proto.Message) {
	switch m := msg.(type) {
	case *proto.InfoRequest:
		c.handleInfoRequest(client, m)

	case *proto.ChannelLink:
		c.handleLink(client, m)

	case *proto.ChannelUnlink:
		c.handleUnlink(client, m)

	case *proto.EndResponse:
		slog.Debug("End response received", "responseId", m.ResponseID, "sender", client.Meta().ID)

	case *proto.ErrorResponse:
		slog.Warn("Error response received", "responseId", m.ResponseID, "errorValue", m.ErrorValue, "errorString", m.ErrorString, "sender", client.Meta().ID)

	case *proto.InfoResponse:
		// Devices answer info requests, they do not receive answers.
		c.sendError(client, m.SelfID, ErrorUnsupportedMessage, "this device does not accept infoResponse messages")

	default:
		slog.Warn("Unhandled message type", "type", msg.Type(), "sender", client.Meta().ID)
	}
}

// handleInfoRequest answers with the channel's full state followed by
// an endResponse, and subscribes the requester to future updates on
// that channel.
func (c *Coordinator) handleInfoRequest(client Client, m *proto.InfoRequest) {
	state, ok := c.Registry.Get(m.Channel)
	if !ok {
		c.sendError(client, m.SelfID, ErrorChannelNotFound, "channel "+m.Channel.String()+" is not present on this device")
		return
	}

	resp := &proto.InfoResponse{
		Header:         proto.Header{ResponseID: m.SelfID, Outbound: true},
		Channel:        state.Channel,
		LinkedChannels: state.Links,
		Parameters:     state.Parameters,
	}
	if err := client.Send(resp); err != nil {
		slog.Warn("Failed to send info response", "channel", m.Channel.String(), "error", err.Error())
		return
	}
	c.sendEnd(client, m.SelfID)

	c.Broker.Subscribe(m.Channel, client)
}

func (c *Coordinator) handleLink(client Client, m *proto.ChannelLink) {
	// An aux sender with no receiving channel is a notification that
	// the peer opened its aux channel. Nothing to record locally.
	if m.ReceivingChannel == nil {
		if !m.SendingChannel.IsAux() {
			c.sendError(client, m.SelfID, ErrorLinkFailed, "link without a receiving channel is only valid for aux senders")
			return
		}
		c.sendEnd(client, m.SelfID)
		return
	}

	link := proto.LinkedChannel{DeviceName: peerName(client), Channel: m.SendingChannel}
	if err := c.Registry.AddLink(*m.ReceivingChannel, link); err != nil {
		c.sendError(client, m.SelfID, ErrorLinkFailed, err.Error())
		return
	}
	c.sendEnd(client, m.SelfID)
	c.Broker.Publish(*m.ReceivingChannel, m, client)
	slog.Info("Channel linked", "channel", m.ReceivingChannel.String(), "from", link.DeviceName, "remote", link.Channel.String())
}

func (c *Coordinator) handleUnlink(client Client, m *proto.ChannelUnlink) {
	if m.ReceivingChannel == nil {
		if !m.SendingChannel.IsAux() {
			c.sendError(client, m.SelfID, ErrorLinkFailed, "unlink without a receiving channel is only valid for aux senders")
			return
		}
		c.sendEnd(client, m.SelfID)
		return
	}

	link := proto.LinkedChannel{DeviceName: peerName(client), Channel: m.SendingChannel}
	if err := c.Registry.RemoveLink(*m.ReceivingChannel, link); err != nil {
		c.sendError(client, m.SelfID, ErrorLinkFailed, err.Error())
		return
	}
	c.sendEnd(client, m.SelfID)
	c.Broker.Publish(*m.ReceivingChannel, m, client)
	slog.Info("Channel unlinked", "channel", m.ReceivingChannel.String(), "from", link.DeviceName, "remote", link.Channel.String())
}

// HandleProtocolError answers an undecodable frame with an
// errorResponse. The responseID is salvaged from the raw bytes when the
// frame still carried a readable messageID; otherwise the error is only
// logged, since a response without correlation would be unroutable.
func (c *Coordinator) HandleProtocolError(client Client, raw []byte, decodeErr error) {
	errorValue := ErrorMalformedMessage
	if proto.IsKind(decodeErr, proto.UnknownMessageType) {
		errorValue = ErrorUnknownMessageType
	}

	var head struct {
		MessageID string `json:"messageID"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.MessageID == "" {
		slog.Warn("Dropping unanswerable malformed frame", "sender", client.Meta().ID, "error", decodeErr.Error())
		return
	}
	respID, err := proto.ParseMessageID(head.MessageID)
	if err != nil {
		slog.Warn("Dropping malformed frame with unreadable messageID", "sender", client.Meta().ID, "error", decodeErr.Error())
		return
	}

	c.sendError(client, respID, errorValue, decodeErr.Error())
}

func (c *Coordinator) sendEnd(client Client, respID proto.MessageID) {
	end := &proto.EndResponse{Header: proto.Header{ResponseID: respID, Outbound: true}}
	if err := client.Send(end); err != nil {
		slog.Warn("Failed to send end response", "to", client.Meta().ID, "error", err.Error())
	}
}

func (c *Coordinator) sendError(client Client, respID proto.MessageID, errorValue, errorString string) {
	resp := &proto.ErrorResponse{
		Header:      proto.Header{ResponseID: respID, Outbound: true},
		ErrorValue:  errorValue,
		ErrorString: errorString,
	}
	if err := client.Send(resp); err != nil {
		slog.Warn("Failed to send error response", "to", client.Meta().ID, "error", err.Error())
	}
}

package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
)

// Coordinator owns the device's channel table and routes every decoded
// message from every transport through the handlers.
type Coordinator struct {
	DeviceName string
	Registry   *ChannelRegistry
	Broker     *Broker
	MCPServer  *MCPServer
	Transports []Transport
}

func NewCoordinator(deviceName string, registry *ChannelRegistry, broker *Broker, mcpServer *MCPServer) *Coordinator {
	if mcpServer != nil {
		listChannels := mcp.NewTool("list_channels", mcp.WithDescription("Get a list of the audio channels on this device, with their parameters and links"))
		mcpServer.AddTool(listChannels, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type channelElement struct {
				Channel    string   `json:"channel"`
				Parameters []string `json:"parameters"`
				Links      []string `json:"links"`
			}
			states := registry.List()
			res := make([]channelElement, 0, len(states))
			for _, state := range states {
				elem := channelElement{Channel: state.Channel.String()}
				for name := range state.Parameters {
					elem.Parameters = append(elem.Parameters, name)
				}
				for _, link := range state.Links {
					elem.Links = append(elem.Links, link.DeviceName+" "+link.Channel.String())
				}
				res = append(res, elem)
			}

			jsonBytes, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return nil, err
			}

			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.TextContent{
						Type: "text",
						Text: string(jsonBytes),
					},
				}}, nil
		})
	}

	return &Coordinator{DeviceName: deviceName, Registry: registry, Broker: broker, MCPServer: mcpServer}
}

func (c *Coordinator) Start(ctx context.Context) error {
	if c.MCPServer != nil {
		go c.MCPServer.Start()
	}
	for _, t := range c.Transports {
		go t.Start()
	}

	<-ctx.Done()
	slog.Info("Shutting down transports and server")

	for _, t := range c.Transports {
		if err := t.Shutdown(); err != nil {
			slog.Error("There was an error when shutting down transport server", "error", err.Error())
		}
	}
	return nil
}

func (c *Coordinator) RegisterTransport(t Transport) {
	t.OnMessage(c.Handle)
	t.OnProtocolError(c.HandleProtocolError)
	t.OnConnect(c.registerSession)
	t.OnDisconnect(c.dropSession)
	c.Transports = append(c.Transports, t)
}

func (c *Coordinator) registerSession(client Client) error {
	slog.Info("Registered controller session", "id", client.Meta().ID)
	return nil
}

// dropSession tears down everything the session established: its links
// on every channel and its subscriptions.
func (c *Coordinator) dropSession(client Client) {
	name := peerName(client)
	affected := c.Registry.RemoveLinksFrom(name)
	c.Broker.DropClient(client)
	if len(affected) > 0 {
		slog.Info("Removed links from disconnected controller", "controller", name, "channels", len(affected))
	}
}

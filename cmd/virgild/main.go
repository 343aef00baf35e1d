package main

import (
	"flag"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/virgilaudio/virgil/proto"
	"github.com/virgilaudio/virgil/server"
	"github.com/virgilaudio/virgil/web"
)

func main() {
	deviceName := flag.String("name", "virgil-device", "device name reported in link records")
	tcpAddr := flag.String("tcp", "0.0.0.0:7889", "TCP transport listen address")
	wsAddr := flag.String("ws", "0.0.0.0:7890", "WebSocket transport listen address")
	webAddr := flag.String("web", "0.0.0.0:8080", "web API listen address")
	withMCP := flag.Bool("mcp", false, "serve MCP tools on stdio")
	withMDNS := flag.Bool("mdns", true, "announce transports over mDNS")
	flag.Parse()

	registry := server.NewChannelRegistry()
	if err := registerDemoChannels(registry); err != nil {
		slog.Error("Failed to register channels", "error", err.Error())
		os.Exit(1)
	}

	var mcpServer *server.MCPServer
	if *withMCP {
		mcpServer = server.NewMCPServer()
	}

	var announcer *server.Announcer
	if *withMDNS {
		announcer = server.NewAnnouncer()
		if err := announcer.Announce(*deviceName, server.TCPServiceType, listenPort(*tcpAddr), []string{"transport=tcp"}); err != nil {
			slog.Warn("Failed to announce TCP transport", "error", err.Error())
		}
		if err := announcer.Announce(*deviceName, server.WSServiceType, listenPort(*wsAddr), []string{"transport=websocket"}); err != nil {
			slog.Warn("Failed to announce WebSocket transport", "error", err.Error())
		}
	}

	virgil := server.NewVirgilServer(server.VirgilServerOptions{
		DeviceName: *deviceName,
		Registry:   registry,
		MCPServer:  mcpServer,
		Announcer:  announcer,
	})

	tcpTransport := server.NewTCPTransport(*tcpAddr)
	tcpTransport.SetName("Main TCP listener")
	tcpTransport.SetDescription("Newline-delimited JSON control connection")
	virgil.RegisterTransport(tcpTransport)

	wsTransport := server.NewWSTransport(*wsAddr)
	wsTransport.SetName("WebSocket listener")
	wsTransport.SetDescription("Browser and dashboard control connection")
	virgil.RegisterTransport(wsTransport)

	api := web.NewAPI(*webAddr, registry, virgil.Transports)
	go api.Start()
	defer api.Shutdown()

	if err := virgil.Start(); err != nil {
		slog.Error("Error starting virgil server", "error", err.Error())
		os.Exit(1)
	}
}

func listenPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

// registerDemoChannels declares the channel layout of a small two-in,
// two-out interface with one aux path.
func registerDemoChannels(registry *server.ChannelRegistry) error {
	gainMin, gainMax, gainPrec := -60.0, 12.0, 0.5
	rateMin, rateMax := int64(44100), int64(96000)

	for i := uint16(0); i < 2; i++ {
		gain, err := proto.NewFloatParameter("gain", 0, "dB", false, &gainMin, &gainMax, &gainPrec)
		if err != nil {
			return err
		}
		mute, err := proto.NewBoolParameter("mute", false, false)
		if err != nil {
			return err
		}
		rate, err := proto.NewIntParameter("sampleRate", 48000, "Hz", true, &rateMin, &rateMax, nil)
		if err != nil {
			return err
		}
		codec, err := proto.NewEnumParameter("codec", proto.Enum{
			Value:  "pcm24",
			Values: []string{"pcm16", "pcm24", "float32"},
		}, false)
		if err != nil {
			return err
		}

		for _, kind := range []proto.ChannelKind{proto.Transmit, proto.Receive} {
			ch := proto.ChannelID{Kind: kind, Index: i}
			if err := registry.Register(ch, gain, mute, rate, codec); err != nil {
				return err
			}
		}
	}

	label, err := proto.NewStringParameter("label", "talkback", false)
	if err != nil {
		return err
	}
	return registry.Register(proto.ChannelID{Kind: proto.Auxiliary, Index: 0}, label)
}

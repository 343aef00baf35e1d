package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

type VirgilServerOptions struct {
	DeviceName string           // Name this device reports in link records
	MCPServer  *MCPServer       // Optional MCPServer to run alongside
	Broker     *Broker          // Optional (defaults to new Broker if nil)
	Registry   *ChannelRegistry // Optional (defaults to new Registry if nil)
	Announcer  *Announcer       // Optional mDNS announcer, shut down with the server
}

// VirgilServer is the top-level device assembly: channel registry,
// broker, and coordinator behind any number of transports.
type VirgilServer struct {
	options     VirgilServerOptions
	coordinator *Coordinator
}

func NewVirgilServer(opts VirgilServerOptions) *VirgilServer {
	if opts.Broker == nil {
		opts.Broker = NewBroker()
	}
	if opts.Registry == nil {
		opts.Registry = NewChannelRegistry()
	}

	coordinator := NewCoordinator(opts.DeviceName, opts.Registry, opts.Broker, opts.MCPServer)

	return &VirgilServer{
		options:     opts,
		coordinator: coordinator,
	}
}

func (s *VirgilServer) RegisterTransport(t Transport) {
	s.coordinator.RegisterTransport(t)
}

func (s *VirgilServer) Registry() *ChannelRegistry {
	return s.coordinator.Registry
}

// Transports returns a metadata snapshot of every registered transport.
func (s *VirgilServer) Transports() []TransportMetadata {
	metas := make([]TransportMetadata, 0, len(s.coordinator.Transports))
	for _, t := range s.coordinator.Transports {
		metas = append(metas, t.Meta())
	}
	return metas
}

func setupLogger() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))
}

func (s *VirgilServer) Start() error {
	setupLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if s.options.Announcer != nil {
		defer s.options.Announcer.Shutdown()
	}
	return s.coordinator.Start(ctx)
}

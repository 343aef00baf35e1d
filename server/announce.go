package server

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/mdns"
)

// mDNS service types controllers look up to find Virgil devices.
const (
	TCPServiceType = "_virgil-tcp._tcp"
	WSServiceType  = "_virgil-ws._tcp"
)

// Announcer publishes the device's transports over mDNS so controllers
// on the local network can find it without configuration.
type Announcer struct {
	servers []*mdns.Server
}

func NewAnnouncer() *Announcer {
	return &Announcer{}
}

// Announce registers one service instance. The info strings end up in
// the TXT record.
func (a *Announcer) Announce(instance, serviceType string, port int, info []string) error {
	service, err := mdns.NewMDNSService(instance, serviceType, "", "", port, nil, info)
	if err != nil {
		return fmt.Errorf("creating mdns service %s: %w", serviceType, err)
	}

	srv, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("starting mdns server for %s: %w", serviceType, err)
	}
	a.servers = append(a.servers, srv)

	slog.Info("Announcing service over mDNS", "instance", instance, "type", serviceType, "port", port)
	return nil
}

func (a *Announcer) Shutdown() {
	for _, srv := range a.servers {
		if err := srv.Shutdown(); err != nil {
			slog.Warn("Failed to shut down mdns server", "error", err.Error())
		}
	}
	a.servers = nil
}

package client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/mdns"
)

// DiscoveredDevice represents a Virgil device found on the local network
type DiscoveredDevice struct {
	ServiceName string
	Address     string
	Port        int
	Transport   string // "tcp" or "websocket"
	TXTRecords  []string
}

// Addr returns the host:port string suitable for Transport.Connect.
func (d *DiscoveredDevice) Addr() string {
	return fmt.Sprintf("%s:%d", d.Address, d.Port)
}

// discoverService discovers a specific Virgil service type using mDNS
func discoverService(serviceType string, timeout time.Duration) (*DiscoveredDevice, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	entriesCh := make(chan *mdns.ServiceEntry, 4)

	// Start discovery in background
	go func() {
		defer close(entriesCh)
		mdns.Lookup(serviceType, entriesCh)
	}()

	// Wait for first result or timeout
	select {
	case entry := <-entriesCh:
		if entry == nil {
			return nil, fmt.Errorf("no %s service found", serviceType)
		}

		var address string
		if entry.AddrV4 != nil {
			address = entry.AddrV4.String()
		} else if entry.AddrV6 != nil {
			address = fmt.Sprintf("[%s]", entry.AddrV6.String())
		} else {
			return nil, fmt.Errorf("no valid address found for service")
		}

		var transport string
		if serviceType == "_virgil-tcp._tcp" {
			transport = "tcp"
		} else if serviceType == "_virgil-ws._tcp" {
			transport = "websocket"
		}

		device := &DiscoveredDevice{
			ServiceName: entry.Name,
			Address:     address,
			Port:        entry.Port,
			Transport:   transport,
			TXTRecords:  entry.InfoFields,
		}

		slog.Info("Discovered Virgil device",
			"service_name", device.ServiceName,
			"address", device.Address,
			"port", device.Port,
			"transport", device.Transport,
		)

		return device, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("mDNS discovery timeout for %s", serviceType)
	}
}

// DiscoverTCPDevice discovers the first available Virgil device serving TCP
func DiscoverTCPDevice(timeout time.Duration) (*DiscoveredDevice, error) {
	return discoverService("_virgil-tcp._tcp", timeout)
}

// DiscoverWebSocketDevice discovers the first available Virgil device serving WebSocket
func DiscoverWebSocketDevice(timeout time.Duration) (*DiscoveredDevice, error) {
	return discoverService("_virgil-ws._tcp", timeout)
}

// Package discovery advertises the satellite on the local network over mDNS
// so hubs can find it without manual addressing. The service type and TXT
// layout follow the native API convention hubs already scan for.
package discovery

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/grandcat/zeroconf"
)

const (
	serviceType   = "_esphomelib._tcp"
	serviceDomain = "local."
)

// Config describes the advertised service instance.
type Config struct {
	// Name is the mDNS instance name, normally the device name.
	Name string

	// FriendlyName is the human-readable name shown by discovery UIs.
	FriendlyName string

	// MacAddress is the device identity in aa:bb:cc:dd:ee:ff form; it is
	// advertised without separators.
	MacAddress string

	// Port is the native API listener port.
	Port int

	// Version is the advertised server version string.
	Version string
}

// Advertiser registers and later withdraws the mDNS service record.
type Advertiser struct {
	server *zeroconf.Server
}

// TXTRecords builds the advertised TXT key/value pairs.
func (c Config) TXTRecords() []string {
	txt := []string{
		"version=" + c.Version,
		"platform=linux",
		"network=wifi",
	}
	if c.MacAddress != "" {
		mac := strings.ToLower(strings.NewReplacer(":", "", "-", "").Replace(c.MacAddress))
		txt = append(txt, "mac="+mac)
	}
	if c.FriendlyName != "" {
		txt = append(txt, "friendly_name="+c.FriendlyName)
	}
	return txt
}

// Advertise registers the service on all multicast-capable interfaces. The
// returned Advertiser must be shut down on exit so the record is withdrawn
// promptly instead of timing out on the hub.
func Advertise(cfg Config) (*Advertiser, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("discovery: instance name must be set")
	}
	server, err := zeroconf.Register(cfg.Name, serviceType, serviceDomain, cfg.Port, cfg.TXTRecords(), nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: register %q: %w", cfg.Name, err)
	}
	slog.Info("mdns service advertised", "name", cfg.Name, "type", serviceType, "port", cfg.Port)
	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the service record. It is safe to call more than once.
func (a *Advertiser) Shutdown() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
